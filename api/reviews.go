package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/db"
	"github.com/xiaoyuanzhu-com/review-digest/workers/ingest"
)

const (
	defaultReviewLimit = 50
	maxReviewLimit     = 500
	defaultSearchLimit = 20
)

// parseLimitOffset reads limit/offset query parameters. A missing limit
// falls back to def; limits above maxLimit are clamped.
func parseLimitOffset(c *gin.Context, def, maxLimit int) (int, int, bool) {
	limit := def
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	if s := c.Query("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// ListReviews handles GET /api/apps/:appId/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	appID := c.Param("appId")

	limit, offset, ok := parseLimitOffset(c, defaultReviewLimit, maxReviewLimit)
	if !ok {
		RespondBadRequest(c, "limit must be positive and offset non-negative")
		return
	}

	if _, err := h.db.GetApp(appID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			RespondNotFound(c, "App not found")
			return
		}
		RespondInternalError(c, "Failed to get app")
		return
	}

	reviews, err := h.db.ListReviews(appID, limit, offset)
	if err != nil {
		logger.Error().Err(err).Str("appId", appID).Msg("failed to list reviews")
		RespondInternalError(c, "Failed to list reviews")
		return
	}
	total, err := h.db.CountReviews(appID)
	if err != nil {
		logger.Error().Err(err).Str("appId", appID).Msg("failed to count reviews")
		RespondInternalError(c, "Failed to list reviews")
		return
	}

	count := int(total)
	RespondList(c, reviews, &Pagination{
		HasMore: offset+len(reviews) < count,
		Total:   &count,
		Limit:   &limit,
		Offset:  &offset,
	})
}

// ImportReviews handles POST /api/apps/:appId/reviews
func (h *Handlers) ImportReviews(c *gin.Context) {
	appID := c.Param("appId")

	var batch ingest.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}
	if batch.AppID == "" {
		batch.AppID = appID
	}
	if batch.AppID != appID {
		RespondValidationError(c, "appId does not match path", []ErrorDetail{
			{Field: "appId", Message: "must equal the app in the URL", Code: "mismatch"},
		})
		return
	}

	res, err := h.importer.Import(&batch)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrInvalidBatch):
			RespondValidationError(c, err.Error(), nil)
		case errors.Is(err, ingest.ErrUnknownApp):
			RespondNotFound(c, "App not found; include appName to register it")
		default:
			logger.Error().Err(err).Str("appId", appID).Msg("review import failed")
			RespondInternalError(c, "Failed to import reviews")
		}
		return
	}

	RespondData(c, res)
}

// SearchReviews handles GET /api/apps/:appId/reviews/search?q=
func (h *Handlers) SearchReviews(c *gin.Context) {
	if h.search == nil {
		RespondServiceUnavailable(c, "Search is not configured")
		return
	}

	appID := c.Param("appId")
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		RespondValidationError(c, "q is required", []ErrorDetail{
			{Field: "q", Message: "search query is required", Code: "required"},
		})
		return
	}

	limit, offset, ok := parseLimitOffset(c, defaultSearchLimit, maxReviewLimit)
	if !ok {
		RespondBadRequest(c, "limit must be positive and offset non-negative")
		return
	}

	res, err := h.search.SearchReviews(appID, query, limit, offset)
	if err != nil {
		logger.Error().Err(err).Str("appId", appID).Str("query", query).Msg("review search failed")
		RespondBadGateway(c, "Search failed")
		return
	}
	RespondData(c, res)
}

// ReindexReviews handles POST /api/apps/:appId/reviews/reindex
func (h *Handlers) ReindexReviews(c *gin.Context) {
	if h.reindexer == nil {
		RespondServiceUnavailable(c, "Search is not configured")
		return
	}

	appID := c.Param("appId")
	if _, err := h.db.GetApp(appID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			RespondNotFound(c, "App not found")
			return
		}
		RespondInternalError(c, "Failed to get app")
		return
	}

	h.reindexer.Enqueue(appID)
	RespondAccepted(c, gin.H{"appId": appID, "queued": true})
}
