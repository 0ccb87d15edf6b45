package db

import (
	"database/sql"
	"time"
)

// DateLayout is the calendar date format used for summary ranges.
const DateLayout = "2006-01-02"

// App represents a tracked application
type App struct {
	AppID     string `json:"appId"`
	AppName   string `json:"appName"`
	AppLogo   string `json:"appLogo"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Review represents a stored store review
type Review struct {
	ID         int64  `json:"id"`
	AppID      string `json:"appId"`
	ReviewID   string `json:"reviewId,omitempty"`
	UserName   string `json:"userName"`
	Content    string `json:"content"`
	Score      int    `json:"score"`
	ReviewedAt int64  `json:"reviewedAt"`
	CreatedAt  int64  `json:"createdAt"`
}

// Date returns the UTC calendar date the review was written.
func (r Review) Date() string {
	return time.UnixMilli(r.ReviewedAt).UTC().Format(DateLayout)
}

// Summary represents a generated review summary
type Summary struct {
	ID           string `json:"id"`
	AppID        string `json:"appId"`
	GoogleID     string `json:"googleId"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	Scores       []int  `json:"scores"`
	Prompt       string `json:"prompt"`
	Summary      string `json:"summary"`
	ReviewCount  int    `json:"reviewCount"`
	SampledCount int    `json:"sampledCount"`
	CreatedAt    int64  `json:"createdAt"`
}

// DateRange formats the summary's covered period for display.
func (s Summary) DateRange() string {
	return s.StartDate + " ~ " + s.EndDate
}

// SummaryCount aggregates the summaries requested by one user
type SummaryCount struct {
	TotalCount int            `json:"total_count"`
	ByDate     map[string]int `json:"by_date"`
	ByApp      map[string]int `json:"by_app"`
}

// User represents a signed-in user
type User struct {
	ID        string `json:"id"`
	GoogleID  string `json:"googleId"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
	LastLogin int64  `json:"lastLogin"`
}

// NowMs returns the current time as Unix milliseconds (int64)
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// NullString converts an empty string to SQL NULL
func NullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
