package summary

import "errors"

var (
	ErrAppNotFound    = errors.New("app not found")
	ErrNoReviews      = errors.New("no reviews to summarize")
	ErrLLMUnavailable = errors.New("summary model not configured")
)
