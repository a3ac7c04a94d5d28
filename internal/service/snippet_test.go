package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/model"
)

type improverFunc func(ctx context.Context, code string) (string, error)

func (f improverFunc) Improve(ctx context.Context, code string) (string, error) { return f(ctx, code) }

type snippetFixture struct {
	svc      *SnippetService
	snippets *fakeSnippetRepo
	folders  *fakeFolderRepo
}

func newSnippetFixture(remote classifier.Remote, improver Improver) snippetFixture {
	snippets := newFakeSnippetRepo()
	folders := newFakeFolderRepo(snippets)
	logger := newTestLogger()
	svc := NewSnippetService(snippets, folders, classifier.New(remote, logger), improver, logger)
	svc.now = fixedClock
	return snippetFixture{svc: svc, snippets: snippets, folders: folders}
}

func strPtr(s string) *string { return &s }

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestSnippetCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input SnippetInput
		field string
	}{
		{"empty name", SnippetInput{Name: "", Code: "<p>"}, "name"},
		{"whitespace name", SnippetInput{Name: "   ", Code: "<p>"}, "name"},
		{"name too long", SnippetInput{Name: strings.Repeat("a", MaxSnippetNameLength+1)}, "name"},
		{"code too long", SnippetInput{Name: "ok", Code: strings.Repeat("x", MaxCodeLength+1)}, "code"},
		{"local snippet", SnippetInput{Name: "ok", IsLocal: true}, "isLocal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSnippetFixture(nil, nil)

			_, err := f.svc.Create(context.Background(), "", tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Create() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
			if len(f.snippets.snippets) != 0 {
				t.Error("nothing should be stored after a validation error")
			}
		})
	}
}

func TestSnippetCreate_Success(t *testing.T) {
	f := newSnippetFixture(nil, nil)

	got, err := f.svc.Create(context.Background(), "alice", SnippetInput{
		Name:        "  Card  ",
		Code:        "<div class=card></div>",
		Description: " a card ",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if got.ID == "" {
		t.Error("ID should be set")
	}
	if got.Name != "Card" || got.Description != "a card" {
		t.Errorf("name/description not trimmed: %q / %q", got.Name, got.Description)
	}
	if got.UserID != "alice" {
		t.Errorf("UserID = %q, want alice", got.UserID)
	}
	if !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v, want %v", got.CreatedAt, got.UpdatedAt, testNow)
	}
	if _, classified := got.Classification(); classified {
		t.Error("a new snippet should not be classified")
	}
}

func TestSnippetCreate_FolderChecks(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.folders.folders["bobs"] = model.Folder{ID: "bobs", Name: "Bob's", UserID: "bob"}
	f.folders.folders["alices"] = model.Folder{ID: "alices", Name: "Alice's", UserID: "alice"}
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, "alice", SnippetInput{Name: "x", FolderID: strPtr("bobs")}); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("foreign folder: error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Create(ctx, "alice", SnippetInput{Name: "x", FolderID: strPtr("missing")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing folder: error = %v, want ErrNotFound", err)
	}

	got, err := f.svc.Create(ctx, "alice", SnippetInput{Name: "x", FolderID: strPtr("alices")})
	if err != nil {
		t.Fatalf("own folder: error = %v", err)
	}
	if got.FolderID == nil || *got.FolderID != "alices" {
		t.Errorf("FolderID = %v, want alices", got.FolderID)
	}
}

// =========================================================================
// READ / OWNERSHIP TESTS
// =========================================================================

func TestSnippetGetByID_Ownership(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "mine", UserID: "alice"})
	f.snippets.put(model.Snippet{ID: "s2", Name: "shared"})
	ctx := context.Background()

	tests := []struct {
		name    string
		owner   string
		id      string
		wantErr error
	}{
		{"owner", "alice", "s1", nil},
		{"other user", "bob", "s1", apperror.ErrForbidden},
		{"anonymous on owned", "", "s1", apperror.ErrForbidden},
		{"anonymous on unowned", "", "s2", nil},
		{"user on unowned", "alice", "s2", apperror.ErrForbidden},
		{"missing", "alice", "nope", apperror.ErrNotFound},
		{"empty id", "alice", " ", apperror.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.GetByID(ctx, tt.owner, tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("GetByID() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetByID() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSnippetList_ClampsPaging(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := f.svc.Create(ctx, "alice", SnippetInput{Name: name}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	f.snippets.put(model.Snippet{ID: "other", Name: "other", UserID: "bob"})

	all, err := f.svc.List(ctx, "alice", 0, -5)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(0, -5) returned %d, want 3", len(all))
	}

	page, _ := f.svc.List(ctx, "alice", 2, 0)
	if len(page) != 2 {
		t.Errorf("List(2, 0) returned %d, want 2", len(page))
	}
}

// =========================================================================
// UPDATE / MOVE / DELETE TESTS
// =========================================================================

func TestSnippetUpdate_KeepsNameAndClassification(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{
		ID:         "s1",
		Name:       "Original",
		Code:       "<p>old</p>",
		UserID:     "alice",
		Category:   model.CategoryGame,
		Tags:       []string{"canvas"},
		Difficulty: model.DifficultyAdvanced,
	})

	got, err := f.svc.Update(context.Background(), "alice", "s1", SnippetInput{Code: "<p>new</p>"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Name != "Original" {
		t.Errorf("Name = %q, want Original", got.Name)
	}
	if got.Code != "<p>new</p>" {
		t.Errorf("Code = %q", got.Code)
	}
	if got.Category != model.CategoryGame || got.Difficulty != model.DifficultyAdvanced {
		t.Errorf("classification changed: %s / %s", got.Category, got.Difficulty)
	}
	if !got.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, testNow)
	}
}

func TestSnippetUpdate_Forbidden(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", UserID: "alice"})

	_, err := f.svc.Update(context.Background(), "bob", "s1", SnippetInput{Name: "hijack"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() error = %v, want ErrForbidden", err)
	}
	if f.snippets.snippets["s1"].Name != "x" {
		t.Error("snippet should be unchanged")
	}
}

func TestSnippetMove(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", UserID: "alice"})
	f.folders.folders["f1"] = model.Folder{ID: "f1", Name: "Demos", UserID: "alice"}
	ctx := context.Background()

	got, err := f.svc.Move(ctx, "alice", "s1", strPtr("f1"))
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if got.FolderID == nil || *got.FolderID != "f1" {
		t.Fatalf("FolderID = %v, want f1", got.FolderID)
	}

	got, err = f.svc.Move(ctx, "alice", "s1", nil)
	if err != nil {
		t.Fatalf("Move(nil) error = %v", err)
	}
	if got.FolderID != nil {
		t.Errorf("FolderID = %v, want nil", *got.FolderID)
	}
}

func TestSnippetDelete(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", UserID: "alice"})
	ctx := context.Background()

	if err := f.svc.Delete(ctx, "bob", "s1"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	if err := f.svc.Delete(ctx, "alice", "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.svc.Delete(ctx, "alice", "s1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ANALYZE / CLASSIFY / IMPROVE TESTS
// =========================================================================

func TestSnippetAnalyze(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", Code: "<div>\n<p>hi</p>\n</div>"})

	stats, err := f.svc.Analyze(context.Background(), "", "s1")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if stats.TotalLines != 3 {
		t.Errorf("TotalLines = %d, want 3", stats.TotalLines)
	}
}

func TestSnippetClassify_StoresRemoteResult(t *testing.T) {
	remote := classifier.RemoteFunc(func(context.Context, string) (model.Classification, error) {
		return model.Classification{
			Category:   model.CategoryLandingPage,
			Tags:       []string{"hero"},
			Difficulty: model.DifficultyIntermediate,
		}, nil
	})
	f := newSnippetFixture(remote, nil)
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", Code: "<h1>hi</h1>", Tags: []string{"old"}})

	got, source, err := f.svc.Classify(context.Background(), "", "s1")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if source != classifier.SourceRemote {
		t.Errorf("source = %q, want remote", source)
	}

	stored := f.snippets.snippets["s1"]
	if stored.Category != model.CategoryLandingPage {
		t.Errorf("stored Category = %q", stored.Category)
	}
	if len(stored.Tags) != 1 || stored.Tags[0] != "hero" {
		t.Errorf("stored Tags = %v, want [hero] (replaced, not merged)", stored.Tags)
	}
	if !got.UpdatedAt.Equal(testNow) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, testNow)
	}
}

func TestSnippetClassify_FallsBackToHeuristic(t *testing.T) {
	remote := classifier.RemoteFunc(func(context.Context, string) (model.Classification, error) {
		return model.Classification{}, errors.New("quota exceeded")
	})
	f := newSnippetFixture(remote, nil)
	code := "<form><input></form>"
	f.snippets.put(model.Snippet{ID: "s1", Name: "x", Code: code})

	got, source, err := f.svc.Classify(context.Background(), "", "s1")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if source != classifier.SourceHeuristic {
		t.Errorf("source = %q, want heuristic", source)
	}
	want := classifier.Heuristic(code)
	if got.Category != want.Category || got.Difficulty != want.Difficulty {
		t.Errorf("got %s/%s, want %s/%s", got.Category, got.Difficulty, want.Category, want.Difficulty)
	}
}

func TestSnippetClassifyAll_ContinuesPastSaveFailures(t *testing.T) {
	f := newSnippetFixture(nil, nil)
	f.snippets.put(model.Snippet{ID: "a", Name: "a", Code: "<canvas></canvas>", UserID: "alice"})
	f.snippets.put(model.Snippet{ID: "b", Name: "b", Code: "<form></form>", UserID: "alice"})
	f.snippets.put(model.Snippet{ID: "c", Name: "c", Code: "<p>", UserID: "alice"})
	f.snippets.put(model.Snippet{ID: "z", Name: "z", Code: "<p>", UserID: "bob"})
	f.snippets.updateErr["b"] = errors.New("disk full")

	outcomes, err := f.svc.ClassifyAll(context.Background(), "alice")
	if err != nil {
		t.Fatalf("ClassifyAll() error = %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[0].SnippetID != "a" || outcomes[1].SnippetID != "c" {
		t.Errorf("outcome IDs = %s, %s; want a, c", outcomes[0].SnippetID, outcomes[1].SnippetID)
	}
	for _, o := range outcomes {
		if o.Source != classifier.SourceHeuristic {
			t.Errorf("outcome %s source = %q, want heuristic", o.SnippetID, o.Source)
		}
		s := f.snippets.snippets[o.SnippetID]
		if _, ok := s.Classification(); !ok {
			t.Errorf("snippet %s should be classified", o.SnippetID)
		}
	}
	z := f.snippets.snippets["z"]
	if _, ok := z.Classification(); ok {
		t.Error("another user's snippet must not be classified")
	}
}

func TestSnippetImprove(t *testing.T) {
	ctx := context.Background()
	seed := func(f snippetFixture) {
		f.snippets.put(model.Snippet{ID: "s1", Name: "x", Code: "<p>plain</p>"})
	}

	t.Run("unavailable without client", func(t *testing.T) {
		f := newSnippetFixture(nil, nil)
		seed(f)
		if _, err := f.svc.Improve(ctx, "", "s1"); !errors.Is(err, apperror.ErrUnavailable) {
			t.Fatalf("Improve() error = %v, want ErrUnavailable", err)
		}
	})

	t.Run("success is not saved", func(t *testing.T) {
		f := newSnippetFixture(nil, improverFunc(func(context.Context, string) (string, error) {
			return "<p class=fancy>plain</p>", nil
		}))
		seed(f)

		got, err := f.svc.Improve(ctx, "", "s1")
		if err != nil {
			t.Fatalf("Improve() error = %v", err)
		}
		if !got.Improved || got.Code != "<p class=fancy>plain</p>" {
			t.Errorf("got %+v", got)
		}
		if f.snippets.snippets["s1"].Code != "<p>plain</p>" {
			t.Error("Improve must not persist the suggestion")
		}
	})

	t.Run("failure returns original", func(t *testing.T) {
		f := newSnippetFixture(nil, improverFunc(func(context.Context, string) (string, error) {
			return "", errors.New("timeout")
		}))
		seed(f)

		got, err := f.svc.Improve(ctx, "", "s1")
		if err != nil {
			t.Fatalf("Improve() error = %v", err)
		}
		if got.Improved || got.Code != "<p>plain</p>" {
			t.Errorf("got %+v, want original code", got)
		}
	})
}
