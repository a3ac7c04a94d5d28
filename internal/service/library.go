package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/html-scratchpad/internal/library"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

// LibraryService builds whole-library statistics.
type LibraryService struct {
	snippets    repository.SnippetRepository
	folders     repository.FolderRepository
	curriculums repository.CurriculumRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewLibraryService(
	snippets repository.SnippetRepository,
	folders repository.FolderRepository,
	curriculums repository.CurriculumRepository,
	logger *slog.Logger,
) *LibraryService {
	return &LibraryService{
		snippets:    snippets,
		folders:     folders,
		curriculums: curriculums,
		logger:      logger,
		now:         time.Now,
	}
}

// Stats loads the caller's whole library and aggregates it.
func (s *LibraryService) Stats(ctx context.Context, ownerID string) (model.LibraryStats, error) {
	snippets, err := s.snippets.ListAll(ctx, ownerID)
	if err != nil {
		return model.LibraryStats{}, fmt.Errorf("loading snippets: %w", err)
	}
	folders, err := s.folders.ListFolders(ctx, ownerID)
	if err != nil {
		return model.LibraryStats{}, fmt.Errorf("loading folders: %w", err)
	}
	curriculums, err := s.curriculums.ListCurriculums(ctx, ownerID)
	if err != nil {
		return model.LibraryStats{}, fmt.Errorf("loading curriculums: %w", err)
	}

	stats := library.Aggregate(snippets, folders, curriculums, s.now())
	s.logger.Debug("library stats computed", slog.Int("snippets", stats.TotalSnippets))
	return stats, nil
}
