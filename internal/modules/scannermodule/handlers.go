package scannermodule

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dxing/mediavault/internal/modules/scannermodule/scanner"
)

type scanRequest struct {
	Path string `json:"path" binding:"required"`
	VIP  bool   `json:"vip"`
}

func (m *Module) mediaTypeParam(c *gin.Context) (scanner.MediaType, bool) {
	mediaType, ok := scanner.ParseMediaType(c.Param("type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown media type: " + c.Param("type")})
		return "", false
	}
	return mediaType, true
}

// handleStartScan runs a scan synchronously and returns its summary.
// Progress is observable concurrently via the progress endpoints.
func (m *Module) handleStartScan(c *gin.Context) {
	mediaType, ok := m.mediaTypeParam(c)
	if !ok {
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	summary, err := m.manager.StartScan(c.Request.Context(), mediaType, req.Path, req.VIP)
	if err != nil {
		switch {
		case errors.Is(err, scanner.ErrScanInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case scanner.IsFatal(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"media_type": string(mediaType),
		"summary":    summary,
	})
}

func (m *Module) handleProgress(c *gin.Context) {
	mediaType, ok := m.mediaTypeParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"media_type": string(mediaType),
		"running":    m.manager.IsRunning(mediaType),
		"progress":   m.manager.Progress(mediaType),
	})
}

func (m *Module) handleScanHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := m.manager.ScanHistory(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": records, "count": len(records)})
}
