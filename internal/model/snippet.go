// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents one user-authored HTML/CSS/JS document plus its metadata.
//
// CLASSIFICATION FIELDS:
// Category, Tags and Difficulty are optional. The zero values ("" / nil) mean
// "never classified"; readers such as the library aggregator fall back to
// CategoryUncategorized and DifficultyBeginner. A reclassification replaces all
// three fields at once (see ApplyClassification); results are never merged.
//
// FOLDER REFERENCE:
// FolderID is a pointer because "no folder" is a real state, distinct from the
// empty-string ID. It serialises as JSON null.
//
// LOCAL SNIPPETS:
// IsLocal marks snippets produced by a directory import. They live only in
// memory: the service layer refuses to persist them, and FilePath records
// where they came from.
type Snippet struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Code        string     `json:"code"`
	Description string     `json:"description"`
	FolderID    *string    `json:"folderId"`
	UserID      string     `json:"userId,omitempty"`
	Category    Category   `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	IsLocal     bool       `json:"isLocal,omitempty"`
	FilePath    string     `json:"filePath,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ApplyClassification overwrites the snippet's classification wholesale and
// refreshes UpdatedAt.
func (s *Snippet) ApplyClassification(c Classification, now time.Time) {
	s.Category = c.Category
	s.Tags = append([]string(nil), c.Tags...)
	s.Difficulty = c.Difficulty
	s.UpdatedAt = now
}

// Classification returns the stored classification, or false when the
// snippet has never been classified.
func (s *Snippet) Classification() (Classification, bool) {
	if s.Category == "" && s.Difficulty == "" && len(s.Tags) == 0 {
		return Classification{}, false
	}
	return Classification{
		Category:   s.Category,
		Tags:       append([]string(nil), s.Tags...),
		Difficulty: s.Difficulty,
	}, true
}

// PersistentSnippets filters out local (imported) snippets.
func PersistentSnippets(snippets []Snippet) []Snippet {
	out := make([]Snippet, 0, len(snippets))
	for _, s := range snippets {
		if !s.IsLocal {
			out = append(out, s)
		}
	}
	return out
}
