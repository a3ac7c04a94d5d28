// Package importer turns a directory of .html files into local snippets.
//
// The directory tree is mirrored as folders (ParentID links each folder to
// the one above it) and every .html file becomes one snippet named after its
// first <h1>. Everything produced here has IsLocal set: imports are a view of
// the disk and are never written to the database.
package importer

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/html-scratchpad/internal/model"
)

// MaxNameLength caps sanitized snippet names, in characters.
const MaxNameLength = 255

var (
	h1Re         = regexp.MustCompile(`(?i)<h1[^>]*>([\s\S]*?)</h1>`)
	innerTagRe   = regexp.MustCompile(`<[^>]*>?`)
	illegalRe    = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Result is the output of one import.
type Result struct {
	Folders  []model.Folder  `json:"folders"`
	Snippets []model.Snippet `json:"snippets"`
}

// ExtractH1 returns the text of the first <h1> in html with any inner tags
// removed, or fallback when there is no heading or it is blank.
func ExtractH1(html, fallback string) string {
	m := h1Re.FindStringSubmatch(html)
	if m == nil {
		return fallback
	}
	clean := strings.TrimSpace(innerTagRe.ReplaceAllString(m[1], ""))
	if clean == "" {
		return fallback
	}
	return clean
}

// SanitizeFileName makes name safe to use as a file name: characters that
// are illegal on common filesystems and runs of whitespace become "_", and
// the result is cut to MaxNameLength characters.
func SanitizeFileName(name string) string {
	name = illegalRe.ReplaceAllString(name, "_")
	name = whitespaceRe.ReplaceAllString(name, "_")

	n := 0
	for i := range name {
		if n == MaxNameLength {
			return name[:i]
		}
		n++
	}
	return name
}

// Import walks fsys and builds folders and snippets for every .html file.
//
// rootName names the top-level folder (usually the base name of the imported
// directory); every other folder is named after its directory. Directories
// with no .html files beneath them produce no folder. FilePath is recorded
// relative to the parent of the root, e.g. "site/pages/index.html".
func Import(fsys fs.FS, rootName string, now time.Time) (*Result, error) {
	res := &Result{
		Folders:  []model.Folder{},
		Snippets: []model.Snippet{},
	}
	folderIDs := make(map[string]string)

	// folderFor returns the folder ID for dir, creating it and its ancestors.
	var folderFor func(dir string) *string
	folderFor = func(dir string) *string {
		if id, ok := folderIDs[dir]; ok {
			return &id
		}

		var parent *string
		name := rootName
		if dir != "." {
			parent = folderFor(path.Dir(dir))
			name = path.Base(dir)
		}

		id := xid.New().String()
		folderIDs[dir] = id
		res.Folders = append(res.Folders, model.Folder{
			ID:        id,
			Name:      name,
			ParentID:  parent,
			IsLocal:   true,
			CreatedAt: now,
		})
		return &id
	}

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("importer: read %s: %w", p, err)
		}

		code := string(content)
		res.Snippets = append(res.Snippets, model.Snippet{
			ID:        xid.New().String(),
			Name:      SanitizeFileName(ExtractH1(code, d.Name())),
			Code:      code,
			FolderID:  folderFor(path.Dir(p)),
			IsLocal:   true,
			FilePath:  path.Join(rootName, p),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importer: walk: %w", err)
	}

	return res, nil
}

// Merge replaces the local entries of a library with an import result.
// Persistent folders and snippets are kept, in their original order, ahead of
// the imported ones.
func Merge(folders []model.Folder, snippets []model.Snippet, res *Result) ([]model.Folder, []model.Snippet) {
	outFolders := make([]model.Folder, 0, len(folders)+len(res.Folders))
	for _, f := range folders {
		if !f.IsLocal {
			outFolders = append(outFolders, f)
		}
	}
	outFolders = append(outFolders, res.Folders...)

	outSnippets := append(model.PersistentSnippets(snippets), res.Snippets...)
	return outFolders, outSnippets
}
