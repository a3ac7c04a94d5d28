package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/html-scratchpad/internal/analyzer"
	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/importer"
	"github.com/sakif/html-scratchpad/internal/library"
	"github.com/sakif/html-scratchpad/internal/model"
	sqliteRepo "github.com/sakif/html-scratchpad/internal/repository/sqlite"
	"github.com/sakif/html-scratchpad/internal/server"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print code statistics for an HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return writeJSON(cmd.OutOrStdout(), analyzer.Analyze(string(code)))
		},
	}
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify an HTML file (remote model when configured, heuristic otherwise)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			code, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx := commandContext(cmd)
			var remote classifier.Remote
			if !offline {
				ai, err := server.NewAIClient(ctx, cfg)
				if err != nil {
					return err
				}
				if ai != nil {
					remote = ai
				}
			}
			cls := classifier.New(remote, opts.logger(cmd, cfg))

			c, source := cls.Classify(ctx, string(code))
			return writeJSON(cmd.OutOrStdout(), struct {
				model.Classification
				Source classifier.Source `json:"source"`
			}{c, source})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "use the heuristic classifier even when an AI key is set")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		userID  string
		include string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := ensureDBDir(cfg.DBPath); err != nil {
				return err
			}

			db, err := sqliteRepo.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("failed to open db: %w", err)
			}
			defer db.Close()

			ctx := commandContext(cmd)
			snippets, err := db.ListAll(ctx, userID)
			if err != nil {
				return err
			}
			folders, err := db.ListFolders(ctx, userID)
			if err != nil {
				return err
			}
			curriculums, err := db.ListCurriculums(ctx, userID)
			if err != nil {
				return err
			}

			now := time.Now()
			if include != "" {
				res, err := importDir(include, now)
				if err != nil {
					return err
				}
				folders, snippets = importer.Merge(folders, snippets, res)
			}

			return writeJSON(cmd.OutOrStdout(), library.Aggregate(snippets, folders, curriculums, now))
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner ID (default: unowned records)")
	cmd.Flags().StringVar(&include, "include", "", "also count the HTML files under this directory")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Scan a directory of HTML files and list the snippets it would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := importDir(args[0], time.Now())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return printImport(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the folders and snippets as JSON")
	return cmd
}

func importDir(dir string, now time.Time) (*importer.Result, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	res, err := importer.Import(os.DirFS(abs), filepath.Base(abs), now)
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", dir, err)
	}
	return res, nil
}

func printImport(w io.Writer, res *importer.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFILE\tLINES")
	for _, s := range res.Snippets {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Name, s.FilePath, analyzer.Analyze(s.Code).TotalLines)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d snippets in %d folders\n", len(res.Snippets), len(res.Folders))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
