package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/db"
)

// AddAppRequest is the body of POST /api/apps
type AddAppRequest struct {
	AppID   string `json:"appId"`
	AppName string `json:"appName"`
	AppLogo string `json:"appLogo"`
}

// AddAppResponse reports whether the app was newly registered
type AddAppResponse struct {
	App     *db.App `json:"app"`
	Created bool    `json:"created"`
	Message string  `json:"message,omitempty"`
}

// ListApps handles GET /api/apps
func (h *Handlers) ListApps(c *gin.Context) {
	apps, err := h.db.ListApps()
	if err != nil {
		logger.Error().Err(err).Msg("failed to list apps")
		RespondInternalError(c, "Failed to list apps")
		return
	}
	RespondList(c, apps, nil)
}

// GetApp handles GET /api/apps/:appId
func (h *Handlers) GetApp(c *gin.Context) {
	app, err := h.db.GetApp(c.Param("appId"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			RespondNotFound(c, "App not found")
			return
		}
		logger.Error().Err(err).Msg("failed to get app")
		RespondInternalError(c, "Failed to get app")
		return
	}
	RespondData(c, app)
}

// AddApp handles POST /api/apps
func (h *Handlers) AddApp(c *gin.Context) {
	var req AddAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	req.AppID = strings.TrimSpace(req.AppID)
	req.AppName = strings.TrimSpace(req.AppName)

	var details []ErrorDetail
	if req.AppID == "" {
		details = append(details, ErrorDetail{Field: "appId", Message: "appId is required", Code: "required"})
	}
	if req.AppName == "" {
		details = append(details, ErrorDetail{Field: "appName", Message: "appName is required", Code: "required"})
	}
	if len(details) > 0 {
		RespondValidationError(c, "Invalid app", details)
		return
	}

	created, err := h.db.AddApp(db.App{AppID: req.AppID, AppName: req.AppName, AppLogo: req.AppLogo})
	if err != nil {
		logger.Error().Err(err).Str("appId", req.AppID).Msg("failed to add app")
		RespondInternalError(c, "Failed to add app")
		return
	}

	app, err := h.db.GetApp(req.AppID)
	if err != nil {
		logger.Error().Err(err).Str("appId", req.AppID).Msg("failed to reload app")
		RespondInternalError(c, "Failed to add app")
		return
	}

	if !created {
		RespondData(c, AddAppResponse{App: app, Created: false, Message: "app already exists"})
		return
	}

	logger.Info().Str("appId", app.AppID).Str("appName", app.AppName).Msg("app registered")
	RespondCreated(c, AddAppResponse{App: app, Created: true}, "/api/apps/"+app.AppID)
}
