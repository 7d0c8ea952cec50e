package scannermodule

import (
	"github.com/gin-gonic/gin"
)

func (m *Module) registerRoutes(router *gin.Engine) {
	api := router.Group("/api/scanner")
	{
		api.POST("/:type/scan", m.handleStartScan)
		api.GET("/:type/progress", m.handleProgress)
		api.GET("/:type/progress/stream", m.handleProgressStream)
		api.GET("/:type/progress/ws", m.handleProgressWS)
	}
	// Lives outside the :type group so the router tree stays free of
	// literal/wildcard conflicts.
	router.GET("/api/scans", m.handleScanHistory)
}
