package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xiaoyuanzhu-com/review-digest/db"
)

var (
	// ErrInvalidBatch wraps every validation failure of an import batch.
	ErrInvalidBatch = errors.New("invalid review batch")
	// ErrUnknownApp is returned when a batch names an unregistered app and
	// carries no app name to register it with.
	ErrUnknownApp = errors.New("app is not registered")
)

const anonymousUser = "anonymous"

// Batch is the JSON document accepted by the import directory and the
// review upload endpoint.
type Batch struct {
	AppID   string        `json:"appId"`
	AppName string        `json:"appName,omitempty"`
	AppLogo string        `json:"appLogo,omitempty"`
	Reviews []BatchReview `json:"reviews"`
}

// BatchReview is one scraped store review
type BatchReview struct {
	ReviewID string    `json:"reviewId,omitempty"`
	UserName string    `json:"userName,omitempty"`
	Content  string    `json:"content"`
	Score    int       `json:"score"`
	At       time.Time `json:"at"`
}

// ParseBatch decodes and validates a batch.
func ParseBatch(r io.Reader) (*Batch, error) {
	var b Batch
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the batch is usable. Errors wrap ErrInvalidBatch.
func (b *Batch) Validate() error {
	if strings.TrimSpace(b.AppID) == "" {
		return fmt.Errorf("%w: appId is required", ErrInvalidBatch)
	}
	if len(b.Reviews) == 0 {
		return fmt.Errorf("%w: no reviews", ErrInvalidBatch)
	}
	for i, r := range b.Reviews {
		switch {
		case strings.TrimSpace(r.Content) == "":
			return fmt.Errorf("%w: review %d has no content", ErrInvalidBatch, i)
		case r.At.IsZero():
			return fmt.Errorf("%w: review %d has no date", ErrInvalidBatch, i)
		case r.Score < 0 || r.Score > 5:
			return fmt.Errorf("%w: review %d score %d out of range", ErrInvalidBatch, i, r.Score)
		}
	}
	return nil
}

// DBReviews converts the batch into store rows.
func (b *Batch) DBReviews() []db.Review {
	out := make([]db.Review, len(b.Reviews))
	for i, r := range b.Reviews {
		user := r.UserName
		if user == "" {
			user = anonymousUser
		}
		out[i] = db.Review{
			AppID:      b.AppID,
			ReviewID:   r.ReviewID,
			UserName:   user,
			Content:    r.Content,
			Score:      r.Score,
			ReviewedAt: r.At.UnixMilli(),
		}
	}
	return out
}
