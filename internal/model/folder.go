package model

import "time"

// Folder is a named container for snippets.
//
// Snippets point at folders (Snippet.FolderID), not the other way round, so
// deleting a folder only needs to clear that pointer on its snippets.
// ParentID is set for folders created by a directory import, which mirror the
// directory tree; folders created through the API are top-level.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentID  *string   `json:"parentId"`
	UserID    string    `json:"userId,omitempty"`
	IsLocal   bool      `json:"isLocal,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
