package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xiaoyuanzhu-com/review-digest/notifications"
)

// heartbeatInterval keeps idle proxies from closing the stream
var heartbeatInterval = 30 * time.Second

// NotificationStream handles GET /api/notifications/stream (SSE)
func (h *Handlers) NotificationStream(c *gin.Context) {
	if h.notifs == nil {
		RespondServiceUnavailable(c, "Notifications are not available")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	events, unsubscribe := h.notifs.Subscribe()
	defer unsubscribe()

	writeSSEEvent(c, notifications.Event{
		Type:      notifications.EventConnected,
		Timestamp: time.Now().UnixMilli(),
	})
	c.Writer.Flush()

	logger.Debug().Msg("client connected to notification stream")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			writeSSEEvent(c, event)
			c.Writer.Flush()

		case <-ticker.C:
			fmt.Fprintf(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			logger.Debug().Msg("client disconnected from notification stream")
			return
		}
	}
}

func writeSSEEvent(c *gin.Context, event notifications.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal event")
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
}
