package db

import (
	"database/sql"
)

func init() {
	RegisterMigration(Migration{
		Version:     1,
		Description: "Initial schema - apps, reviews, summaries, users",
		Up:          migration001_initial,
	})
}

func migration001_initial(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	statements := []string{
		`CREATE TABLE apps (
			app_id TEXT PRIMARY KEY,
			app_name TEXT NOT NULL,
			app_logo TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// review_id is NULL when the source gave none; signature catches
		// those duplicates instead.
		`CREATE TABLE reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
			review_id TEXT,
			signature TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			reviewed_at INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE UNIQUE INDEX idx_reviews_app_review_id ON reviews(app_id, review_id)`,
		`CREATE UNIQUE INDEX idx_reviews_app_signature ON reviews(app_id, signature)`,
		`CREATE INDEX idx_reviews_app_reviewed_at ON reviews(app_id, reviewed_at DESC)`,

		`CREATE TABLE summaries (
			id TEXT PRIMARY KEY,
			app_id TEXT NOT NULL REFERENCES apps(app_id) ON DELETE CASCADE,
			google_id TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			scores TEXT NOT NULL DEFAULT '[]',
			prompt TEXT NOT NULL,
			summary TEXT NOT NULL,
			review_count INTEGER NOT NULL DEFAULT 0,
			sampled_count INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			UNIQUE(app_id, end_date)
		)`,
		`CREATE INDEX idx_summaries_app_end_date ON summaries(app_id, end_date DESC)`,
		`CREATE INDEX idx_summaries_google_id ON summaries(google_id, created_at)`,

		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			google_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			last_login INTEGER NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
