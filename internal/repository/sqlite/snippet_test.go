package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

// newTestDB opens a fresh in-memory database that is closed with the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestSnippet(t *testing.T, db *DB, name, code string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{Name: name, Code: code}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet: %v", err)
	}
	return snippet
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	snippet := &model.Snippet{Name: "Hello", Code: "<h1>hi</h1>"}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if snippet.ID == "" {
		t.Error("Create() did not set snippet.ID")
	}
	if snippet.CreatedAt.IsZero() || snippet.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_KeepsGivenTimestamps(t *testing.T) {
	db := newTestDB(t)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	snippet := &model.Snippet{Name: "x", CreatedAt: at, UpdatedAt: at}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, at)
	}
}

func TestCreate_RoundTripsClassification(t *testing.T) {
	db := newTestDB(t)

	snippet := &model.Snippet{
		Name:        "Game",
		Code:        "<canvas></canvas>",
		Description: "a tiny game",
		Category:    model.CategoryGame,
		Tags:        []string{"canvas", "game-loop"},
		Difficulty:  model.DifficultyIntermediate,
	}
	if err := db.Create(context.Background(), snippet); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Category != model.CategoryGame || got.Difficulty != model.DifficultyIntermediate {
		t.Errorf("classification = %s/%s, want Game/intermediate", got.Category, got.Difficulty)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "canvas" || got.Tags[1] != "game-loop" {
		t.Errorf("Tags = %v", got.Tags)
	}
	if got.Description != "a tiny game" {
		t.Errorf("Description = %q", got.Description)
	}
	if got.FolderID != nil {
		t.Errorf("FolderID = %v, want nil", *got.FolderID)
	}
}

func TestCreate_UnclassifiedHasEmptyTags(t *testing.T) {
	db := newTestDB(t)
	s := createTestSnippet(t, db, "plain", "")

	got, err := db.GetByID(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("Tags = %#v, want empty non-nil slice", got.Tags)
	}
	if got.Category != "" {
		t.Errorf("Category = %q, want empty", got.Category)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "missing")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestList_Empty(t *testing.T) {
	db := newTestDB(t)

	snippets, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if snippets == nil || len(snippets) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", snippets)
	}
}

func TestList_Pagination(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := &model.Snippet{Name: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := db.Create(context.Background(), s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page1, err := db.List(context.Background(), repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	page3, err := db.List(context.Background(), repository.ListOptions{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(page1) != 2 || page1[0].Name != "e" || page1[1].Name != "d" {
		t.Errorf("page1 = %v, want [e d]", names(page1))
	}
	if len(page3) != 1 || page3[0].Name != "a" {
		t.Errorf("page3 = %v, want [a]", names(page3))
	}
}

func TestList_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, 1, "octocat")

	createTestSnippet(t, db, "anonymous", "")
	owned := &model.Snippet{Name: "mine", UserID: user.ID}
	if err := db.Create(ctx, owned); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	anon, err := db.List(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	mine, err := db.ListAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}

	if len(anon) != 1 || anon[0].Name != "anonymous" {
		t.Errorf("anonymous list = %v", names(anon))
	}
	if len(mine) != 1 || mine[0].UserID != user.ID {
		t.Errorf("owner list = %v", names(mine))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	s := createTestSnippet(t, db, "old", "<p>old</p>")
	folder := &model.Folder{Name: "Games"}
	if err := db.CreateFolder(ctx, folder); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	s.Name = "new"
	s.Code = "<p>new</p>"
	s.FolderID = &folder.ID
	s.ApplyClassification(model.Classification{
		Category:   model.CategoryUtility,
		Tags:       []string{"storage"},
		Difficulty: model.DifficultyBeginner,
	}, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	if err := db.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "new" || got.Code != "<p>new</p>" {
		t.Errorf("got %q/%q", got.Name, got.Code)
	}
	if got.FolderID == nil || *got.FolderID != folder.ID {
		t.Errorf("FolderID = %v, want %s", got.FolderID, folder.ID)
	}
	if got.Category != model.CategoryUtility || len(got.Tags) != 1 {
		t.Errorf("classification not stored: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Update(context.Background(), &model.Snippet{ID: "missing", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUpdate_UnknownFolder(t *testing.T) {
	db := newTestDB(t)
	s := createTestSnippet(t, db, "x", "")
	ghost := "no-such-folder"
	s.FolderID = &ghost

	err := db.Update(context.Background(), s)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// DELETE TESTS
// =========================================================================

func TestDelete(t *testing.T) {
	db := newTestDB(t)
	s := createTestSnippet(t, db, "doomed", "")

	if err := db.Delete(context.Background(), s.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := db.GetByID(context.Background(), s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Delete(context.Background(), s.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func names(snippets []model.Snippet) []string {
	out := make([]string, len(snippets))
	for i, s := range snippets {
		out[i] = s.Name
	}
	return out
}
