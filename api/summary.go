package api

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/workers/summary"
)

// GenerateSummaryRequest is the body of POST /api/apps/:appId/summary
type GenerateSummaryRequest struct {
	GoogleID string `json:"googleId"`
}

// GenerateSummary handles POST /api/apps/:appId/summary
func (h *Handlers) GenerateSummary(c *gin.Context) {
	appID := c.Param("appId")

	var req GenerateSummaryRequest
	// empty body is allowed; the summary is then recorded without a user
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondBadRequest(c, "Invalid request body")
			return
		}
	}

	res, err := h.summaries.Generate(c.Request.Context(), appID, req.GoogleID)
	if err != nil {
		switch {
		case errors.Is(err, summary.ErrAppNotFound):
			RespondNotFound(c, "App not found")
		case errors.Is(err, summary.ErrNoReviews):
			RespondNotFound(c, "No reviews to summarize")
		case errors.Is(err, summary.ErrLLMUnavailable):
			RespondServiceUnavailable(c, "Summary model is not configured")
		default:
			logger.Error().Err(err).Str("appId", appID).Msg("summary generation failed")
			RespondInternalError(c, "Failed to generate summary")
		}
		return
	}

	RespondData(c, res)
}

// GetLatestSummary handles GET /api/apps/:appId/summary/latest
func (h *Handlers) GetLatestSummary(c *gin.Context) {
	appID := c.Param("appId")

	s, err := h.summaries.Latest(appID)
	if err != nil {
		if errors.Is(err, summary.ErrAppNotFound) {
			RespondNotFound(c, "App not found")
			return
		}
		logger.Error().Err(err).Str("appId", appID).Msg("failed to load latest summary")
		RespondInternalError(c, "Failed to load summary")
		return
	}
	if s == nil {
		RespondNotFound(c, "No summary yet")
		return
	}
	RespondData(c, s)
}
