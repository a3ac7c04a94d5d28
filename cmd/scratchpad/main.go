// Package main provides the scratchpad CLI: the HTTP server plus offline
// analysis, classification, library stats and directory import.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sakif/html-scratchpad/internal/config"
	"github.com/sakif/html-scratchpad/internal/server"
)

func main() {
	if err := newRootCmd(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	getenv     func(string) string
}

// load resolves the configuration: defaults, file, environment, then flags.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath, o.getenv)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if cmd.Flags().Changed("log-level") {
		level, err := config.ParseLogLevel(o.logLevel)
		if err != nil {
			return config.Config{}, err
		}
		cfg.LogLevel = level
	}
	return cfg, nil
}

// logger writes text logs to stderr so stdout stays clean for command output.
func (o *rootOptions) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	opts := &rootOptions{getenv: getenv}

	rootCmd := &cobra.Command{
		Use:           "scratchpad",
		Short:         "HTML snippet scratchpad server and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database path (overrides config and DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug|info|warn|error")

	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newAnalyzeCmd(opts))
	rootCmd.AddCommand(newClassifyCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newImportCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	return rootCmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			logger := opts.logger(cmd, cfg)

			if err := ensureDBDir(cfg.DBPath); err != nil {
				return err
			}

			srv, err := server.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "listen port (overrides config and PORT)")
	return cmd
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), opts.configPath)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if _, err := os.Stat(path); err == nil {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "config already exists: %s\n", path)
				return err
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to stat config: %w", err)
			}
			if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o600); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	})

	return configCmd
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# scratchpad configuration
# Uncomment a value to enable it. Environment variables and CLI flags
# override config values.

[server]
# port = 8080
# db-path = %q
# log-level = "info"          # debug | info | warn | error

[auth]
# jwt-secret = ""             # at least 16 characters; enables sign-in
# github-client-id = ""
# github-client-secret = ""
# github-callback-url = "http://localhost:8080/auth/github/callback"

[ai]
# api-key = ""                # enables remote classification and improvement
# model = "gemini-3-flash-preview"
`, config.DefaultDBPath())
}

// ensureDBDir creates the database's parent directory.
func ensureDBDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// commandContext returns cmd's context, or Background when run outside
// Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
