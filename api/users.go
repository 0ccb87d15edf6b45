package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/auth"
	"github.com/xiaoyuanzhu-com/review-digest/db"
)

// LoginRequest is the body of POST /api/users/login. When ID token
// verification is enabled only IDToken is read.
type LoginRequest struct {
	GoogleID string `json:"googleId"`
	Email    string `json:"email"`
	IDToken  string `json:"idToken"`
}

// Login handles POST /api/users/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	googleID, email := strings.TrimSpace(req.GoogleID), strings.TrimSpace(req.Email)

	if h.verifier != nil {
		if req.IDToken == "" {
			RespondValidationError(c, "idToken is required", []ErrorDetail{
				{Field: "idToken", Message: "a Google ID token is required", Code: "required"},
			})
			return
		}
		identity, err := h.verifier.Verify(c.Request.Context(), req.IDToken)
		if err != nil {
			if errors.Is(err, auth.ErrTokenInvalid) {
				logger.Warn().Err(err).Msg("rejected id token")
				RespondUnauthorized(c, "Invalid ID token")
				return
			}
			logger.Error().Err(err).Msg("id token verification failed")
			RespondInternalError(c, "Failed to verify ID token")
			return
		}
		googleID, email = identity.GoogleID, identity.Email
	}

	if googleID == "" {
		RespondValidationError(c, "googleId is required", []ErrorDetail{
			{Field: "googleId", Message: "googleId is required", Code: "required"},
		})
		return
	}

	user, err := h.db.SaveUser(googleID, email)
	if err != nil {
		logger.Error().Err(err).Str("googleId", googleID).Msg("failed to save user")
		RespondInternalError(c, "Failed to save user")
		return
	}

	logger.Info().Str("googleId", googleID).Msg("user logged in")
	RespondData(c, user)
}

// GetUser handles GET /api/users/:googleId
func (h *Handlers) GetUser(c *gin.Context) {
	user, err := h.db.GetUserByGoogleID(c.Param("googleId"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			RespondNotFound(c, "User not found")
			return
		}
		logger.Error().Err(err).Msg("failed to get user")
		RespondInternalError(c, "Failed to get user")
		return
	}
	RespondData(c, user)
}

// GetSummaryCount handles GET /api/users/:googleId/summary-count?start=&end=
func (h *Handlers) GetSummaryCount(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")

	var details []ErrorDetail
	for field, value := range map[string]string{"start": start, "end": end} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(db.DateLayout, value); err != nil {
			details = append(details, ErrorDetail{Field: field, Message: "expected YYYY-MM-DD", Code: "format"})
		}
	}
	if len(details) > 0 {
		RespondValidationError(c, "Invalid date range", details)
		return
	}

	count, err := h.db.SummaryCountByUser(c.Param("googleId"), start, end)
	if err != nil {
		logger.Error().Err(err).Msg("failed to count summaries")
		RespondInternalError(c, "Failed to count summaries")
		return
	}
	RespondData(c, count)
}
