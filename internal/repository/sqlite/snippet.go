package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/html-scratchpad/internal/apperror"
	"github.com/sakif/html-scratchpad/internal/model"
	"github.com/sakif/html-scratchpad/internal/repository"
)

var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, name, code, description, folder_id, user_id,
	category, tags, difficulty, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (model.Snippet, error) {
	var (
		s        model.Snippet
		folderID sql.NullString
		userID   sql.NullString
		tags     string
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Code, &s.Description, &folderID, &userID,
		&s.Category, &tags, &s.Difficulty, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.Snippet{}, err
	}
	s.FolderID = stringPtr(folderID)
	s.UserID = userID.String
	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return model.Snippet{}, fmt.Errorf("decoding tags of snippet %s: %w", s.ID, err)
	}
	return s, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a snippet and sets its ID. Timestamps left at zero are set
// to the current time.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}
	if snippet.UpdatedAt.IsZero() {
		snippet.UpdatedAt = snippet.CreatedAt
	}

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Name,
		snippet.Code,
		snippet.Description,
		nullStringPtr(snippet.FolderID),
		nullString(snippet.UserID),
		snippet.Category,
		tags,
		snippet.Difficulty,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	s, err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return &s, nil
}

// List returns one page of an owner's snippets, newest first.
func (db *DB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := ownerClause(opts.UserID)
	args = append(args, limit, offset)

	return db.querySnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE `+where+`
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, args...,
	)
}

// ListAll returns every snippet of one owner, newest first.
func (db *DB) ListAll(ctx context.Context, userID string) ([]model.Snippet, error) {
	where, args := ownerClause(userID)
	return db.querySnippets(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE `+where+`
		 ORDER BY created_at DESC, id DESC`,
		0, args...,
	)
}

func (db *DB) querySnippets(ctx context.Context, query string, sizeHint int, args ...any) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0, sizeHint)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update writes every mutable column of a snippet. ID, owner and CreatedAt
// are immutable. A zero UpdatedAt is set to the current time.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	if snippet.UpdatedAt.IsZero() {
		snippet.UpdatedAt = time.Now()
	}

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET name = ?, code = ?, description = ?, folder_id = ?,
		     category = ?, tags = ?, difficulty = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Name,
		snippet.Code,
		snippet.Description,
		nullStringPtr(snippet.FolderID),
		snippet.Category,
		tags,
		snippet.Difficulty,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return apperror.NotFound("folder", derefOr(snippet.FolderID, ""))
		}
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	return requireAffected(result, "snippet", snippet.ID)
}

// Delete removes a snippet. Curriculum steps pointing at it are left alone.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}
	return requireAffected(result, "snippet", id)
}

// requireAffected turns "0 rows affected" into a NotFound error.
func requireAffected(result sql.Result, resource, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func isForeignKeyError(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
