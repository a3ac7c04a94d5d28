// Package repository declares the storage interfaces the services depend on.
//
// sqlite.DB implements all of them on a single type, so method names are
// prefixed by entity wherever two interfaces would otherwise collide.
// Snippets keep the short names (Create, GetByID, ...) because they are the
// primary resource.
package repository

import (
	"context"

	"github.com/sakif/html-scratchpad/internal/model"
)

// ListOptions controls paging and ownership for list queries.
//
// UserID selects the owner. The empty string selects rows with NO owner,
// which is what anonymous callers see; it never means "everyone".
type ListOptions struct {
	Limit  int
	Offset int
	UserID string
}

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	// ListAll returns every snippet of one owner, unpaged, newest first.
	ListAll(ctx context.Context, userID string) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id string) error
}

type FolderRepository interface {
	CreateFolder(ctx context.Context, folder *model.Folder) error
	GetFolderByID(ctx context.Context, id string) (*model.Folder, error)
	ListFolders(ctx context.Context, userID string) ([]model.Folder, error)
	UpdateFolder(ctx context.Context, folder *model.Folder) error
	// DeleteFolder removes the folder and clears FolderID on its snippets in
	// one transaction. It returns how many snippets were moved out.
	DeleteFolder(ctx context.Context, id string) (int64, error)
}

type CurriculumRepository interface {
	CreateCurriculum(ctx context.Context, c *model.Curriculum) error
	GetCurriculumByID(ctx context.Context, id string) (*model.Curriculum, error)
	ListCurriculums(ctx context.Context, userID string) ([]model.Curriculum, error)
	// UpdateCurriculum writes the curriculum row and replaces its whole step
	// list.
	UpdateCurriculum(ctx context.Context, c *model.Curriculum) error
	DeleteCurriculum(ctx context.Context, id string) error
}

type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}
