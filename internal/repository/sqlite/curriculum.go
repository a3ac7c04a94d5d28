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

var _ repository.CurriculumRepository = (*DB)(nil)

// CreateCurriculum inserts a curriculum together with any steps it already
// has. Steps without an ID get one.
func (db *DB) CreateCurriculum(ctx context.Context, c *model.Curriculum) error {
	c.ID = xid.New().String()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.Steps == nil {
		c.Steps = []model.CurriculumStep{}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO curriculums (id, name, description, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, nullString(c.UserID), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating curriculum: %w", err)
	}
	if err := insertSteps(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing curriculum: %w", err)
	}
	return nil
}

// GetCurriculumByID loads a curriculum and its steps ordered by position.
func (db *DB) GetCurriculumByID(ctx context.Context, id string) (*model.Curriculum, error) {
	var (
		c      model.Curriculum
		userID sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at
		 FROM curriculums WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &userID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("curriculum", id)
		}
		return nil, fmt.Errorf("sqlite: getting curriculum %s: %w", id, err)
	}
	c.UserID = userID.String

	steps, err := db.loadSteps(ctx, `WHERE curriculum_id = ?`, id)
	if err != nil {
		return nil, err
	}
	c.Steps = steps[id]
	if c.Steps == nil {
		c.Steps = []model.CurriculumStep{}
	}
	return &c, nil
}

// ListCurriculums returns an owner's curriculums, most recently updated first.
func (db *DB) ListCurriculums(ctx context.Context, userID string) ([]model.Curriculum, error) {
	where, args := ownerClause(userID)
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description, user_id, created_at, updated_at
		 FROM curriculums
		 WHERE `+where+`
		 ORDER BY updated_at DESC, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing curriculums: %w", err)
	}

	curriculums := []model.Curriculum{}
	for rows.Next() {
		var (
			c   model.Curriculum
			uid sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &uid, &c.CreatedAt, &c.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scanning curriculum row: %w", err)
		}
		c.UserID = uid.String
		curriculums = append(curriculums, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("sqlite: iterating curriculums: %w", err)
	}
	// Close before the step query: tests run on a single connection.
	rows.Close()

	steps, err := db.loadSteps(ctx,
		`WHERE curriculum_id IN (SELECT id FROM curriculums WHERE `+where+`)`, args...)
	if err != nil {
		return nil, err
	}
	for i := range curriculums {
		curriculums[i].Steps = steps[curriculums[i].ID]
		if curriculums[i].Steps == nil {
			curriculums[i].Steps = []model.CurriculumStep{}
		}
	}
	return curriculums, nil
}

// loadSteps runs one step query and groups the result by curriculum ID.
func (db *DB) loadSteps(ctx context.Context, where string, args ...any) (map[string][]model.CurriculumStep, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT curriculum_id, id, snippet_id, position, note, is_completed
		 FROM curriculum_steps `+where+`
		 ORDER BY curriculum_id, position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading curriculum steps: %w", err)
	}
	defer rows.Close()

	byCurriculum := make(map[string][]model.CurriculumStep)
	for rows.Next() {
		var (
			curriculumID string
			s            model.CurriculumStep
		)
		if err := rows.Scan(&curriculumID, &s.ID, &s.SnippetID, &s.Order, &s.Note, &s.IsCompleted); err != nil {
			return nil, fmt.Errorf("sqlite: scanning curriculum step: %w", err)
		}
		byCurriculum[curriculumID] = append(byCurriculum[curriculumID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating curriculum steps: %w", err)
	}
	return byCurriculum, nil
}

// UpdateCurriculum writes name, description and UpdatedAt, and replaces the
// step list, in one transaction.
func (db *DB) UpdateCurriculum(ctx context.Context, c *model.Curriculum) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE curriculums SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating curriculum %s: %w", c.ID, err)
	}
	if err := requireAffected(result, "curriculum", c.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM curriculum_steps WHERE curriculum_id = ?`, c.ID); err != nil {
		return fmt.Errorf("sqlite: clearing steps of curriculum %s: %w", c.ID, err)
	}
	if err := insertSteps(ctx, tx, c); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing curriculum %s: %w", c.ID, err)
	}
	return nil
}

// DeleteCurriculum removes a curriculum; its steps go with it (ON DELETE
// CASCADE). Snippets are untouched.
func (db *DB) DeleteCurriculum(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM curriculums WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting curriculum %s: %w", id, err)
	}
	return requireAffected(result, "curriculum", id)
}

func insertSteps(ctx context.Context, tx *sql.Tx, c *model.Curriculum) error {
	for i := range c.Steps {
		step := &c.Steps[i]
		if step.ID == "" {
			step.ID = xid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO curriculum_steps (id, curriculum_id, snippet_id, position, note, is_completed)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			step.ID, c.ID, step.SnippetID, step.Order, step.Note, step.IsCompleted,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting step %s: %w", step.ID, err)
		}
	}
	return nil
}
