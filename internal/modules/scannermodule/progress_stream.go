package scannermodule

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dxing/mediavault/internal/logger"
)

const (
	progressInterval  = 500 * time.Millisecond
	heartbeatInterval = 15 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the separate frontend origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleProgressStream pushes progress snapshots over SSE until the
// client disconnects.
func (m *Module) handleProgressStream(c *gin.Context) {
	mediaType, ok := m.mediaTypeParam(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			return true
		case <-ticker.C:
			c.SSEvent("progress", gin.H{
				"media_type": string(mediaType),
				"running":    m.manager.IsRunning(mediaType),
				"progress":   m.manager.Progress(mediaType),
			})
			return true
		}
	})
}

// handleProgressWS pushes the same snapshots over a websocket.
func (m *Module) handleProgressWS(c *gin.Context) {
	mediaType, ok := m.mediaTypeParam(c)
	if !ok {
		return
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Debug("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so pings and close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			payload := gin.H{
				"media_type": string(mediaType),
				"running":    m.manager.IsRunning(mediaType),
				"progress":   m.manager.Progress(mediaType),
			}
			if err := conn.WriteJSON(payload); err != nil {
				return
			}
		}
	}
}
