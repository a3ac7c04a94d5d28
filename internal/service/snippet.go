// Package service holds the business rules between the HTTP handlers and the
// repositories: validation, ownership checks, and the calls into the pure
// analyzer, classifier, curriculum and library packages.
//
// OWNERSHIP:
// Every method takes the caller's user ID ("" for anonymous). A record with
// an owner is only visible to that owner; anonymous callers share the pool of
// unowned records. A mismatch is reported as Forbidden, never as NotFound.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/html-scratchpad/internal/analyzer"
	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/classifier"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

const (
	MaxSnippetNameLength = 100
	MaxCodeLength        = 100000 // ~100KB of HTML
	DefaultListLimit     = 20
	MaxListLimit         = 100
)

// Improver rewrites a snippet's code. The Gemini client satisfies it.
type Improver interface {
	Improve(ctx context.Context, code string) (string, error)
}

// SnippetInput carries the client-editable fields of a snippet.
type SnippetInput struct {
	Name        string
	Code        string
	Description string
	FolderID    *string
	IsLocal     bool
}

// SnippetService manages snippets.
type SnippetService struct {
	repo       repository.SnippetRepository
	folders    repository.FolderRepository
	classifier *classifier.Classifier
	improver   Improver
	logger     *slog.Logger
	now        func() time.Time
}

// NewSnippetService creates a SnippetService. improver may be nil, in which
// case Improve reports ErrUnavailable.
func NewSnippetService(
	repo repository.SnippetRepository,
	folders repository.FolderRepository,
	cls *classifier.Classifier,
	improver Improver,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		repo:       repo,
		folders:    folders,
		classifier: cls,
		improver:   improver,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *SnippetService) validate(in *SnippetInput) error {
	if in.IsLocal {
		return apperror.ValidationFailed("isLocal", "imported local snippets cannot be saved")
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperror.ValidationFailed("name", "snippet name is required")
	}
	if len(in.Name) > MaxSnippetNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("snippet name must be %d characters or less", MaxSnippetNameLength))
	}
	if len(in.Code) > MaxCodeLength {
		return apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	in.Description = strings.TrimSpace(in.Description)
	return nil
}

// checkFolder verifies that folderID (if any) exists and belongs to ownerID.
func (s *SnippetService) checkFolder(ctx context.Context, ownerID string, folderID *string) error {
	if folderID == nil {
		return nil
	}
	folder, err := s.folders.GetFolderByID(ctx, *folderID)
	if err != nil {
		return err
	}
	if folder.UserID != ownerID {
		return apperror.Forbidden("you do not own this folder")
	}
	return nil
}

// Create validates and stores a new snippet owned by ownerID.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in SnippetInput) (*model.Snippet, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, ownerID, in.FolderID); err != nil {
		return nil, err
	}

	now := s.now()
	snippet := &model.Snippet{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		FolderID:    in.FolderID,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("name", in.Name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("name", snippet.Name),
	)
	return snippet, nil
}

// GetByID returns a snippet the caller owns.
func (s *SnippetService) GetByID(ctx context.Context, ownerID, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != ownerID {
		return nil, apperror.Forbidden("you do not own this snippet")
	}
	return snippet, nil
}

// List returns one page of the caller's snippets. Out-of-range paging values
// are clamped, not rejected.
func (s *SnippetService) List(ctx context.Context, ownerID string, limit, offset int) ([]model.Snippet, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	snippets, err := s.repo.List(ctx, repository.ListOptions{
		Limit:  limit,
		Offset: offset,
		UserID: ownerID,
	})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Update replaces name, code, description and folder. An empty name keeps
// the current one. The stored classification is left as it is; reclassify
// explicitly after editing.
func (s *SnippetService) Update(ctx context.Context, ownerID, id string, in SnippetInput) (*model.Snippet, error) {
	snippet, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Name) == "" {
		in.Name = snippet.Name
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, ownerID, in.FolderID); err != nil {
		return nil, err
	}

	snippet.Name = in.Name
	snippet.Code = in.Code
	snippet.Description = in.Description
	snippet.FolderID = in.FolderID
	snippet.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

// Move puts a snippet into a folder, or into no folder when folderID is nil.
func (s *SnippetService) Move(ctx context.Context, ownerID, id string, folderID *string) (*model.Snippet, error) {
	snippet, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, ownerID, folderID); err != nil {
		return nil, err
	}

	snippet.FolderID = folderID
	snippet.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, snippet); err != nil {
		return nil, fmt.Errorf("moving snippet: %w", err)
	}

	s.logger.Info("snippet moved",
		slog.String("id", id),
		slog.String("folderID", derefOr(folderID, "")),
	)
	return snippet, nil
}

// Delete removes a snippet. Curriculum steps that reference it are kept and
// render as an unknown snippet.
func (s *SnippetService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.GetByID(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// Analyze computes code statistics for a stored snippet.
func (s *SnippetService) Analyze(ctx context.Context, ownerID, id string) (model.CodeStats, error) {
	snippet, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return model.CodeStats{}, err
	}
	return analyzer.Analyze(snippet.Code), nil
}

// Classify reclassifies a snippet and stores the result, replacing the
// previous classification as a whole.
func (s *SnippetService) Classify(ctx context.Context, ownerID, id string) (*model.Snippet, classifier.Source, error) {
	snippet, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, "", err
	}

	result, source := s.classifier.Classify(ctx, snippet.Code)
	snippet.ApplyClassification(result, s.now())

	if err := s.repo.Update(ctx, snippet); err != nil {
		return nil, "", fmt.Errorf("saving classification: %w", err)
	}

	s.logger.Info("snippet classified",
		slog.String("id", id),
		slog.String("category", string(result.Category)),
		slog.String("source", string(source)),
	)
	return snippet, source, nil
}

// ClassifyAll reclassifies every snippet the caller owns, one at a time.
// A snippet whose result cannot be saved is logged and skipped; the batch
// keeps going. Only successfully saved outcomes are returned.
func (s *SnippetService) ClassifyAll(ctx context.Context, ownerID string) ([]classifier.Outcome, error) {
	snippets, err := s.repo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	byID := make(map[string]*model.Snippet, len(snippets))
	for i := range snippets {
		byID[snippets[i].ID] = &snippets[i]
	}

	outcomes := s.classifier.ClassifyAll(ctx, snippets)
	saved := make([]classifier.Outcome, 0, len(outcomes))
	fallbacks := 0
	for _, o := range outcomes {
		snippet := byID[o.SnippetID]
		snippet.ApplyClassification(o.Classification, s.now())
		if err := s.repo.Update(ctx, snippet); err != nil {
			s.logger.Warn("failed to save classification",
				slog.String("id", o.SnippetID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if o.Source == classifier.SourceHeuristic {
			fallbacks++
		}
		saved = append(saved, o)
	}

	s.logger.Info("library classified",
		slog.Int("snippets", len(snippets)),
		slog.Int("saved", len(saved)),
		slog.Int("heuristic", fallbacks),
	)
	return saved, nil
}

// ImproveResult is a suggested rewrite. It is not saved.
type ImproveResult struct {
	Code     string `json:"code"`
	Improved bool   `json:"improved"`
}

// Improve asks the AI client for a restyled version of the snippet. When the
// call fails the original code comes back with Improved=false.
func (s *SnippetService) Improve(ctx context.Context, ownerID, id string) (*ImproveResult, error) {
	if s.improver == nil {
		return nil, apperror.Unavailable("AI improvement")
	}
	snippet, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	code, err := s.improver.Improve(ctx, snippet.Code)
	if err != nil {
		s.logger.Warn("improvement failed, returning original code",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return &ImproveResult{Code: snippet.Code}, nil
	}
	return &ImproveResult{Code: code, Improved: true}, nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
