package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const summaryColumns = `id, app_id, google_id, start_date, end_date, scores, prompt, summary, review_count, sampled_count, created_at`

func scanSummary(row interface{ Scan(...any) error }) (Summary, error) {
	var s Summary
	var scores string
	err := row.Scan(
		&s.ID, &s.AppID, &s.GoogleID, &s.StartDate, &s.EndDate, &scores,
		&s.Prompt, &s.Summary, &s.ReviewCount, &s.SampledCount, &s.CreatedAt,
	)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal([]byte(scores), &s.Scores); err != nil {
		return s, fmt.Errorf("invalid scores for summary %s: %w", s.ID, err)
	}
	return s, nil
}

// GetLatestSummary returns the summary with the newest end date, or nil
func (d *DB) GetLatestSummary(appID string) (*Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE app_id = ? ORDER BY end_date DESC, created_at DESC LIMIT 1`
	return SelectOne(d, query, []QueryParam{appID}, func(row *sql.Row) (Summary, error) {
		return scanSummary(row)
	})
}

// GetSummaryByEndDate returns the summary covering reviews up to endDate, or nil
func (d *DB) GetSummaryByEndDate(appID, endDate string) (*Summary, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE app_id = ? AND end_date = ?`
	return SelectOne(d, query, []QueryParam{appID, endDate}, func(row *sql.Row) (Summary, error) {
		return scanSummary(row)
	})
}

// SaveSummary stores a summary, replacing any previous one for the same app
// and end date. ID and CreatedAt are filled in when empty.
func (d *DB) SaveSummary(s *Summary) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt == 0 {
		s.CreatedAt = NowMs()
	}
	if s.Scores == nil {
		s.Scores = []int{}
	}

	scores, err := json.Marshal(s.Scores)
	if err != nil {
		return err
	}

	_, err = d.Run(`
		INSERT OR REPLACE INTO summaries (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.AppID, s.GoogleID, s.StartDate, s.EndDate, string(scores),
		s.Prompt, s.Summary, s.ReviewCount, s.SampledCount, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save summary for %s: %w", s.AppID, err)
	}
	return nil
}

// SummaryCountByUser counts the summaries a user generated, grouped by
// creation date and by app. start and end are optional inclusive
// YYYY-MM-DD bounds on the creation date.
func (d *DB) SummaryCountByUser(googleID, start, end string) (*SummaryCount, error) {
	query := `SELECT app_id, created_at FROM summaries WHERE google_id = ?`
	params := []QueryParam{googleID}

	if start != "" {
		t, err := time.Parse(DateLayout, start)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		query += ` AND created_at >= ?`
		params = append(params, t.UnixMilli())
	}
	if end != "" {
		t, err := time.Parse(DateLayout, end)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		query += ` AND created_at < ?`
		params = append(params, t.AddDate(0, 0, 1).UnixMilli())
	}

	type row struct {
		appID     string
		createdAt int64
	}
	rows, err := Select(d, query, params, func(rows *sql.Rows) (row, error) {
		var r row
		err := rows.Scan(&r.appID, &r.createdAt)
		return r, err
	})
	if err != nil {
		return nil, err
	}

	count := &SummaryCount{
		TotalCount: len(rows),
		ByDate:     make(map[string]int),
		ByApp:      make(map[string]int),
	}
	for _, r := range rows {
		count.ByDate[time.UnixMilli(r.createdAt).UTC().Format(DateLayout)]++
		count.ByApp[r.appID]++
	}
	return count, nil
}
