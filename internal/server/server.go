// Package server assembles the HTTP surface: gin engine, middleware,
// health and system endpoints, and the admin event stream.
package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/modules/modulemanager"
)

// New builds the gin engine with middleware, core endpoints, and every
// registered module's routes.
func New(cfg *config.Config, db *gorm.DB, eventBus events.EventBus) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.Server.EnableCORS {
		router.Use(corsMiddleware())
	}

	router.GET("/health", handleHealth)
	router.GET("/api/events", makeRecentEventsHandler(eventBus))
	router.GET("/api/events/stream", makeEventStreamHandler(eventBus))
	router.GET("/api/system/status", makeSystemStatusHandler(db))

	modulemanager.RegisterRoutes(router)
	return router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func makeRecentEventsHandler(eventBus events.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		recent := eventBus.GetRecentEvents(limit)
		c.JSON(http.StatusOK, gin.H{
			"events": recent,
			"count":  len(recent),
			"stats":  eventBus.GetStats(),
		})
	}
}

// makeEventStreamHandler relays bus events over SSE until the client
// disconnects.
func makeEventStreamHandler(eventBus events.EventBus) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		ch := make(chan events.Event, 64)
		sub, err := eventBus.Subscribe(c.Request.Context(), events.EventFilter{}, func(e events.Event) error {
			select {
			case ch <- e:
			default:
				// Slow client; drop rather than stall the bus.
			}
			return nil
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer eventBus.Unsubscribe(sub.ID)

		heartbeat := time.NewTicker(15 * time.Second)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case e := <-ch:
				c.SSEvent("event", e)
				return true
			case <-heartbeat.C:
				c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
				return true
			}
		})
	}
}

// makeSystemStatusHandler reports host CPU and memory load plus disk
// usage for every registered storage disk.
func makeSystemStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"time": time.Now().UTC()}

		if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
			status["cpu_percent"] = percents[0]
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			status["memory"] = gin.H{
				"total":        vm.Total,
				"used":         vm.Used,
				"used_percent": vm.UsedPercent,
			}
		}

		var disks []database.StorageDisk
		if err := db.Where("active = ?", true).Find(&disks).Error; err == nil {
			usages := make([]gin.H, 0, len(disks))
			for _, d := range disks {
				entry := gin.H{
					"drive_label": d.DriveLabel,
					"mount_path":  d.MountPath,
				}
				if usage, err := disk.Usage(d.MountPath); err == nil {
					entry["total"] = usage.Total
					entry["free"] = usage.Free
					entry["used_percent"] = usage.UsedPercent
				}
				usages = append(usages, entry)
			}
			status["disks"] = usages
		}

		c.JSON(http.StatusOK, status)
	}
}
