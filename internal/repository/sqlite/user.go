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

var _ repository.UserRepository = (*DB)(nil)

// Upsert creates the user on first login and refreshes the GitHub profile
// fields on every later one. The internal ID and CreatedAt of an existing
// user never change; both are written back into user.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()

	err := db.conn.QueryRowContext(ctx,
		`INSERT INTO users (id, github_id, login, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO UPDATE SET
		     login      = excluded.login,
		     email      = excluded.email,
		     avatar_url = excluded.avatar_url,
		     updated_at = excluded.updated_at
		 RETURNING id`,
		xid.New().String(),
		user.GitHubID,
		user.Login,
		user.Email,
		user.AvatarURL,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	err = db.conn.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM users WHERE id = ?`, user.ID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: reading back user %s: %w", user.ID, err)
	}
	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, email, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.GitHubID, &u.Login, &u.Email, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}
