package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const userColumns = `id, google_id, email, created_at, last_login`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.GoogleID, &u.Email, &u.CreatedAt, &u.LastLogin)
	return u, err
}

// SaveUser records a login. New users get a fresh ID; returning users have
// their last login bumped and their email refreshed when one is given.
func (d *DB) SaveUser(googleID, email string) (*User, error) {
	now := NowMs()
	_, err := d.Run(`
		INSERT INTO users (id, google_id, email, created_at, last_login)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(google_id) DO UPDATE SET
			last_login = excluded.last_login,
			email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END
	`, uuid.New().String(), googleID, email, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save user %s: %w", googleID, err)
	}
	return d.GetUserByGoogleID(googleID)
}

// GetUserByGoogleID returns ErrNotFound for unknown users
func (d *DB) GetUserByGoogleID(googleID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE google_id = ?`
	user, err := SelectOne(d, query, []QueryParam{googleID}, func(row *sql.Row) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
