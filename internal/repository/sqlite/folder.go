package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

var _ repository.FolderRepository = (*DB)(nil)

func scanFolder(row rowScanner) (model.Folder, error) {
	var (
		f        model.Folder
		parentID sql.NullString
		userID   sql.NullString
	)
	if err := row.Scan(&f.ID, &f.Name, &parentID, &userID, &f.CreatedAt); err != nil {
		return model.Folder{}, err
	}
	f.ParentID = stringPtr(parentID)
	f.UserID = userID.String
	return f, nil
}

// CreateFolder inserts a folder and sets its ID and CreatedAt.
func (db *DB) CreateFolder(ctx context.Context, folder *model.Folder) error {
	folder.ID = xid.New().String()
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO folders (id, name, parent_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		folder.ID,
		folder.Name,
		nullStringPtr(folder.ParentID),
		nullString(folder.UserID),
		folder.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating folder: %w", err)
	}
	return nil
}

func (db *DB) GetFolderByID(ctx context.Context, id string) (*model.Folder, error) {
	f, err := scanFolder(db.conn.QueryRowContext(ctx,
		`SELECT id, name, parent_id, user_id, created_at FROM folders WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("folder", id)
		}
		return nil, fmt.Errorf("sqlite: getting folder %s: %w", id, err)
	}
	return &f, nil
}

// ListFolders returns an owner's folders sorted by name.
func (db *DB) ListFolders(ctx context.Context, userID string) ([]model.Folder, error) {
	where, args := ownerClause(userID)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, parent_id, user_id, created_at FROM folders
		 WHERE `+where+`
		 ORDER BY name COLLATE NOCASE, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folders: %w", err)
	}
	defer rows.Close()

	folders := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning folder row: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating folders: %w", err)
	}
	return folders, nil
}

// UpdateFolder writes the folder's name and parent.
func (db *DB) UpdateFolder(ctx context.Context, folder *model.Folder) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE folders SET name = ?, parent_id = ? WHERE id = ?`,
		folder.Name,
		nullStringPtr(folder.ParentID),
		folder.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating folder %s: %w", folder.ID, err)
	}
	return requireAffected(result, "folder", folder.ID)
}

// DeleteFolder removes a folder. Its snippets are moved to "no folder" and
// its child folders become top-level; nothing is deleted in cascade.
func (db *DB) DeleteFolder(ctx context.Context, id string) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	moved, err := tx.ExecContext(ctx, `UPDATE snippets SET folder_id = NULL WHERE folder_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("sqlite: clearing folder %s from snippets: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE folders SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return 0, fmt.Errorf("sqlite: detaching children of folder %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting folder %s: %w", id, err)
	}
	if err := requireAffected(result, "folder", id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing folder delete: %w", err)
	}

	n, err := moved.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}
