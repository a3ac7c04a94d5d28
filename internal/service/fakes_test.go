package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They store copies
// so a test cannot change stored state through a returned pointer, and they
// apply the same owner filter as the SQLite queries ("" = unowned rows).

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type fakeSnippetRepo struct {
	snippets  map[string]model.Snippet
	nextID    int
	updateErr map[string]error // per-ID failures for Update
	updates   int
}

func newFakeSnippetRepo() *fakeSnippetRepo {
	return &fakeSnippetRepo{
		snippets:  make(map[string]model.Snippet),
		updateErr: make(map[string]error),
	}
}

var _ repository.SnippetRepository = (*fakeSnippetRepo)(nil)

func (f *fakeSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	f.nextID++
	s.ID = fmt.Sprintf("snip-%d", f.nextID)
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := f.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	return &s, nil
}

func (f *fakeSnippetRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	all, _ := f.ListAll(ctx, opts.UserID)
	if opts.Offset >= len(all) {
		return []model.Snippet{}, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (f *fakeSnippetRepo) ListAll(_ context.Context, userID string) ([]model.Snippet, error) {
	out := make([]model.Snippet, 0, len(f.snippets))
	for _, s := range f.snippets {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	if err := f.updateErr[s.ID]; err != nil {
		return err
	}
	if _, ok := f.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", s.ID)
	}
	f.updates++
	f.snippets[s.ID] = *s
	return nil
}

func (f *fakeSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(f.snippets, id)
	return nil
}

// put stores a snippet with a fixed ID, bypassing Create.
func (f *fakeSnippetRepo) put(s model.Snippet) {
	f.snippets[s.ID] = s
}

type fakeFolderRepo struct {
	folders  map[string]model.Folder
	snippets *fakeSnippetRepo // cleared on delete, like the SQLite transaction
	nextID   int
}

func newFakeFolderRepo(snippets *fakeSnippetRepo) *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]model.Folder), snippets: snippets}
}

var _ repository.FolderRepository = (*fakeFolderRepo)(nil)

func (f *fakeFolderRepo) CreateFolder(_ context.Context, folder *model.Folder) error {
	f.nextID++
	folder.ID = fmt.Sprintf("folder-%d", f.nextID)
	f.folders[folder.ID] = *folder
	return nil
}

func (f *fakeFolderRepo) GetFolderByID(_ context.Context, id string) (*model.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, apperror.NotFound("folder", id)
	}
	return &folder, nil
}

func (f *fakeFolderRepo) ListFolders(_ context.Context, userID string) ([]model.Folder, error) {
	out := make([]model.Folder, 0, len(f.folders))
	for _, folder := range f.folders {
		if folder.UserID == userID {
			out = append(out, folder)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeFolderRepo) UpdateFolder(_ context.Context, folder *model.Folder) error {
	if _, ok := f.folders[folder.ID]; !ok {
		return apperror.NotFound("folder", folder.ID)
	}
	f.folders[folder.ID] = *folder
	return nil
}

func (f *fakeFolderRepo) DeleteFolder(_ context.Context, id string) (int64, error) {
	if _, ok := f.folders[id]; !ok {
		return 0, apperror.NotFound("folder", id)
	}
	delete(f.folders, id)

	var moved int64
	if f.snippets != nil {
		for sid, s := range f.snippets.snippets {
			if s.FolderID != nil && *s.FolderID == id {
				s.FolderID = nil
				f.snippets.snippets[sid] = s
				moved++
			}
		}
	}
	return moved, nil
}

type fakeCurriculumRepo struct {
	curriculums map[string]model.Curriculum
	nextID      int
	updates     int
}

func newFakeCurriculumRepo() *fakeCurriculumRepo {
	return &fakeCurriculumRepo{curriculums: make(map[string]model.Curriculum)}
}

var _ repository.CurriculumRepository = (*fakeCurriculumRepo)(nil)

func (f *fakeCurriculumRepo) CreateCurriculum(_ context.Context, c *model.Curriculum) error {
	f.nextID++
	c.ID = fmt.Sprintf("cur-%d", f.nextID)
	f.curriculums[c.ID] = c.Clone()
	return nil
}

func (f *fakeCurriculumRepo) GetCurriculumByID(_ context.Context, id string) (*model.Curriculum, error) {
	c, ok := f.curriculums[id]
	if !ok {
		return nil, apperror.NotFound("curriculum", id)
	}
	c = c.Clone()
	return &c, nil
}

func (f *fakeCurriculumRepo) ListCurriculums(_ context.Context, userID string) ([]model.Curriculum, error) {
	out := make([]model.Curriculum, 0, len(f.curriculums))
	for _, c := range f.curriculums {
		if c.UserID == userID {
			out = append(out, c.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCurriculumRepo) UpdateCurriculum(_ context.Context, c *model.Curriculum) error {
	if _, ok := f.curriculums[c.ID]; !ok {
		return apperror.NotFound("curriculum", c.ID)
	}
	f.updates++
	f.curriculums[c.ID] = c.Clone()
	return nil
}

func (f *fakeCurriculumRepo) DeleteCurriculum(_ context.Context, id string) error {
	if _, ok := f.curriculums[id]; !ok {
		return apperror.NotFound("curriculum", id)
	}
	delete(f.curriculums, id)
	return nil
}

type fakeUserRepo struct {
	users     map[string]*model.User
	byGitHub  map[int64]string
	nextID    int
	upsertErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*model.User),
		byGitHub: make(map[int64]string),
	}
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

func (f *fakeUserRepo) Upsert(_ context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if id, ok := f.byGitHub[user.GitHubID]; ok {
		existing := f.users[id]
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		return nil
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	stored := *user
	f.users[user.ID] = &stored
	f.byGitHub[user.GitHubID] = user.ID
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}
