package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

const MaxFolderNameLength = 100

// FolderService manages folders.
type FolderService struct {
	repo   repository.FolderRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewFolderService(repo repository.FolderRepository, logger *slog.Logger) *FolderService {
	return &FolderService{repo: repo, logger: logger, now: time.Now}
}

func validateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "folder name is required")
	}
	if len(name) > MaxFolderNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("folder name must be %d characters or less", MaxFolderNameLength))
	}
	return name, nil
}

// Create adds a folder. parentID is optional and must be one of the caller's
// folders.
func (s *FolderService) Create(ctx context.Context, ownerID, name string, parentID *string) (*model.Folder, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, err := s.get(ctx, ownerID, *parentID); err != nil {
			return nil, err
		}
	}

	folder := &model.Folder{
		Name:      name,
		ParentID:  parentID,
		UserID:    ownerID,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created",
		slog.String("id", folder.ID),
		slog.String("name", folder.Name),
	)
	return folder, nil
}

// List returns the caller's folders.
func (s *FolderService) List(ctx context.Context, ownerID string) ([]model.Folder, error) {
	folders, err := s.repo.ListFolders(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// Rename changes a folder's name.
func (s *FolderService) Rename(ctx context.Context, ownerID, id, name string) (*model.Folder, error) {
	name, err := validateFolderName(name)
	if err != nil {
		return nil, err
	}
	folder, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	folder.Name = name
	if err := s.repo.UpdateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("renaming folder: %w", err)
	}

	s.logger.Info("folder renamed", slog.String("id", id), slog.String("name", name))
	return folder, nil
}

// Delete removes a folder. Its snippets are kept and moved to "no folder";
// the number moved is returned.
func (s *FolderService) Delete(ctx context.Context, ownerID, id string) (int64, error) {
	if _, err := s.get(ctx, ownerID, id); err != nil {
		return 0, err
	}

	moved, err := s.repo.DeleteFolder(ctx, id)
	if err != nil {
		return 0, err
	}

	s.logger.Info("folder deleted",
		slog.String("id", id),
		slog.Int64("snippetsMoved", moved),
	)
	return moved, nil
}

func (s *FolderService) get(ctx context.Context, ownerID, id string) (*model.Folder, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "folder ID is required")
	}
	folder, err := s.repo.GetFolderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder.UserID != ownerID {
		return nil, apperror.Forbidden("you do not own this folder")
	}
	return folder, nil
}
