package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// signaturePrefixChars is how much of the content goes into a review signature.
const signaturePrefixChars = 100

const reviewColumns = `id, app_id, review_id, user_name, content, score, reviewed_at, created_at`

// ReviewSignature identifies a review that arrived without a store review ID.
func ReviewSignature(userName, content string) string {
	runes := []rune(content)
	if len(runes) > signaturePrefixChars {
		runes = runes[:signaturePrefixChars]
	}
	return userName + ":" + string(runes)
}

func scanReview(row interface{ Scan(...any) error }) (Review, error) {
	var r Review
	var reviewID sql.NullString
	err := row.Scan(&r.ID, &r.AppID, &reviewID, &r.UserName, &r.Content, &r.Score, &r.ReviewedAt, &r.CreatedAt)
	r.ReviewID = reviewID.String
	return r, err
}

// SaveReviews stores reviews for an app, skipping any already stored under
// the same review ID or signature. It returns the number of new rows.
func (d *DB) SaveReviews(appID string, reviews []Review) (int, error) {
	if _, err := d.GetApp(appID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("app %s: %w", appID, ErrNotFound)
		}
		return 0, err
	}

	saved := 0
	err := d.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO reviews
				(app_id, review_id, signature, user_name, content, score, reviewed_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := NowMs()
		for _, r := range reviews {
			result, err := stmt.Exec(
				appID,
				NullString(r.ReviewID),
				ReviewSignature(r.UserName, r.Content),
				r.UserName,
				r.Content,
				r.Score,
				r.ReviewedAt,
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to save review %q: %w", r.ReviewID, err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				saved++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug().Str("appId", appID).Int("received", len(reviews)).Int("saved", saved).Msg("reviews saved")
	return saved, nil
}

// ListReviews returns an app's reviews, newest first. limit <= 0 returns all.
func (d *DB) ListReviews(appID string, limit, offset int) ([]Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE app_id = ? ORDER BY reviewed_at DESC, id DESC`
	params := []QueryParam{appID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		params = append(params, limit, offset)
	}
	return Select(d, query, params, func(rows *sql.Rows) (Review, error) {
		return scanReview(rows)
	})
}

// CountReviews returns the number of stored reviews for an app
func (d *DB) CountReviews(appID string) (int64, error) {
	return d.Count(`SELECT COUNT(*) FROM reviews WHERE app_id = ?`, appID)
}

// LatestReviewDate returns the date of the newest review, or "" if the app
// has none.
func (d *DB) LatestReviewDate(appID string) (string, error) {
	var latest sql.NullInt64
	err := d.conn.QueryRow(`SELECT MAX(reviewed_at) FROM reviews WHERE app_id = ?`, appID).Scan(&latest)
	if err != nil {
		return "", err
	}
	if !latest.Valid {
		return "", nil
	}
	return Review{ReviewedAt: latest.Int64}.Date(), nil
}
