package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/curriculum"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

const (
	MaxCurriculumNameLength = 100
	MaxStepNoteLength       = 1000

	// UnknownSnippetName is shown for a step whose snippet no longer exists.
	UnknownSnippetName = "Unknown Snippet"
)

// StepView is a step with its snippet's name resolved.
type StepView struct {
	model.CurriculumStep
	SnippetName    string `json:"snippetName"`
	SnippetMissing bool   `json:"snippetMissing,omitempty"`
}

// CurriculumView is what the API returns for a curriculum.
type CurriculumView struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Steps       []StepView `json:"steps"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CurriculumService manages curriculums. Step-list changes go through the
// pure functions in package curriculum; this service loads, applies and
// saves.
type CurriculumService struct {
	repo     repository.CurriculumRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewCurriculumService(
	repo repository.CurriculumRepository,
	snippets repository.SnippetRepository,
	logger *slog.Logger,
) *CurriculumService {
	return &CurriculumService{
		repo:     repo,
		snippets: snippets,
		logger:   logger,
		now:      time.Now,
	}
}

// Create adds an empty curriculum.
func (s *CurriculumService) Create(ctx context.Context, ownerID, name, description string) (*CurriculumView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "curriculum name is required")
	}
	if len(name) > MaxCurriculumNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("curriculum name must be %d characters or less", MaxCurriculumNameLength))
	}

	now := s.now()
	c := &model.Curriculum{
		Name:        name,
		Description: strings.TrimSpace(description),
		UserID:      ownerID,
		Steps:       []model.CurriculumStep{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateCurriculum(ctx, c); err != nil {
		return nil, fmt.Errorf("creating curriculum: %w", err)
	}

	s.logger.Info("curriculum created", slog.String("id", c.ID), slog.String("name", c.Name))
	return s.view(ctx, ownerID, *c)
}

// Get returns one curriculum with step names and progress.
func (s *CurriculumService) Get(ctx context.Context, ownerID, id string) (*CurriculumView, error) {
	c, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ownerID, *c)
}

// List returns all of the caller's curriculums.
func (s *CurriculumService) List(ctx context.Context, ownerID string) ([]CurriculumView, error) {
	list, err := s.repo.ListCurriculums(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing curriculums: %w", err)
	}
	names, err := s.snippetNames(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	views := make([]CurriculumView, 0, len(list))
	for _, c := range list {
		views = append(views, buildView(c, names))
	}
	return views, nil
}

// Delete removes a curriculum. Its snippets are untouched.
func (s *CurriculumService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCurriculum(ctx, id); err != nil {
		return err
	}
	s.logger.Info("curriculum deleted", slog.String("id", id))
	return nil
}

// AddStep appends a step for one of the caller's snippets.
func (s *CurriculumService) AddStep(ctx context.Context, ownerID, id, snippetID, note string) (*CurriculumView, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("snippetId", "snippet ID is required")
	}
	if len(note) > MaxStepNoteLength {
		return nil, apperror.ValidationFailed("note",
			fmt.Sprintf("note must be %d characters or less", MaxStepNoteLength))
	}

	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != ownerID {
		return nil, apperror.Forbidden("you do not own this snippet")
	}

	return s.apply(ctx, ownerID, id, "step added", func(c model.Curriculum, now time.Time) model.Curriculum {
		return curriculum.AddStep(c, snippetID, strings.TrimSpace(note), now)
	})
}

// RemoveStep deletes a step. An unknown step ID is NotFound.
func (s *CurriculumService) RemoveStep(ctx context.Context, ownerID, id, stepID string) (*CurriculumView, error) {
	return s.applyToStep(ctx, ownerID, id, stepID, "step removed", func(c model.Curriculum, now time.Time) model.Curriculum {
		return curriculum.RemoveStep(c, stepID, now)
	})
}

// ToggleStep flips a step's completion.
func (s *CurriculumService) ToggleStep(ctx context.Context, ownerID, id, stepID string) (*CurriculumView, error) {
	return s.applyToStep(ctx, ownerID, id, stepID, "step toggled", func(c model.Curriculum, now time.Time) model.Curriculum {
		return curriculum.ToggleStep(c, stepID, now)
	})
}

// ReorderStep moves a step one place up or down. Moving past either end
// succeeds without changing anything.
func (s *CurriculumService) ReorderStep(ctx context.Context, ownerID, id, stepID, direction string) (*CurriculumView, error) {
	dir, err := curriculum.ParseDirection(direction)
	if err != nil {
		return nil, apperror.ValidationFailed("direction", `direction must be "up" or "down"`)
	}
	return s.applyToStep(ctx, ownerID, id, stepID, "step moved", func(c model.Curriculum, now time.Time) model.Curriculum {
		return curriculum.ReorderStep(c, stepID, dir, now)
	})
}

// applyToStep is apply with a NotFound check for stepID. The pure functions
// treat an unknown step as a no-op; over HTTP the caller should hear about it.
func (s *CurriculumService) applyToStep(
	ctx context.Context,
	ownerID, id, stepID, event string,
	op func(model.Curriculum, time.Time) model.Curriculum,
) (*CurriculumView, error) {
	if strings.TrimSpace(stepID) == "" {
		return nil, apperror.ValidationFailed("stepId", "step ID is required")
	}
	return s.run(ctx, ownerID, id, stepID, event, op)
}

func (s *CurriculumService) apply(
	ctx context.Context,
	ownerID, id, event string,
	op func(model.Curriculum, time.Time) model.Curriculum,
) (*CurriculumView, error) {
	return s.run(ctx, ownerID, id, "", event, op)
}

// run loads a curriculum, applies op and saves the result if the step list
// changed. A non-empty stepID must name an existing step.
func (s *CurriculumService) run(
	ctx context.Context,
	ownerID, id, stepID, event string,
	op func(model.Curriculum, time.Time) model.Curriculum,
) (*CurriculumView, error) {
	c, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if stepID != "" && !hasStep(*c, stepID) {
		return nil, apperror.NotFound("step", stepID)
	}

	next := op(*c, s.now())
	if slices.Equal(next.Steps, c.Steps) {
		// boundary move: nothing to save
		return s.view(ctx, ownerID, *c)
	}

	if err := s.repo.UpdateCurriculum(ctx, &next); err != nil {
		return nil, fmt.Errorf("saving curriculum: %w", err)
	}

	s.logger.Info(event,
		slog.String("curriculumID", id),
		slog.Int("steps", len(next.Steps)),
	)
	return s.view(ctx, ownerID, next)
}

func (s *CurriculumService) get(ctx context.Context, ownerID, id string) (*model.Curriculum, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "curriculum ID is required")
	}
	c, err := s.repo.GetCurriculumByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != ownerID {
		return nil, apperror.Forbidden("you do not own this curriculum")
	}
	return c, nil
}

func (s *CurriculumService) view(ctx context.Context, ownerID string, c model.Curriculum) (*CurriculumView, error) {
	names, err := s.snippetNames(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	v := buildView(c, names)
	return &v, nil
}

// snippetNames maps snippet ID to name for the caller's snippets.
func (s *CurriculumService) snippetNames(ctx context.Context, ownerID string) (map[string]string, error) {
	snippets, err := s.snippets.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("loading snippet names: %w", err)
	}
	names := make(map[string]string, len(snippets))
	for _, sn := range snippets {
		names[sn.ID] = sn.Name
	}
	return names, nil
}

func buildView(c model.Curriculum, names map[string]string) CurriculumView {
	steps := make([]StepView, 0, len(c.Steps))
	for _, step := range c.Steps {
		name, ok := names[step.SnippetID]
		if !ok {
			name = UnknownSnippetName
		}
		steps = append(steps, StepView{
			CurriculumStep: step,
			SnippetName:    name,
			SnippetMissing: !ok,
		})
	}
	return CurriculumView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Steps:       steps,
		Progress:    curriculum.Progress(c),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func hasStep(c model.Curriculum, stepID string) bool {
	for _, s := range c.Steps {
		if s.ID == stepID {
			return true
		}
	}
	return false
}
