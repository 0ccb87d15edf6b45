package api

import (
	"github.com/gin-gonic/gin"
)

// HealthResponse reports which optional dependencies are configured
type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schemaVersion"`
	Search        bool   `json:"search"`
	Summaries     bool   `json:"summaries"`
	GoogleAuth    bool   `json:"googleAuth"`
}

// Health handles GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	version, err := h.db.CurrentVersion()
	if err != nil {
		logger.Error().Err(err).Msg("health check: database unavailable")
		RespondServiceUnavailable(c, "Database unavailable")
		return
	}
	RespondData(c, HealthResponse{
		Status:        "ok",
		SchemaVersion: version,
		Search:        h.search != nil,
		Summaries:     h.summaries.Available(),
		GoogleAuth:    h.verifier != nil,
	})
}
