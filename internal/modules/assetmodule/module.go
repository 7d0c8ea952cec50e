// Package assetmodule owns derived artifacts: video thumbnails and WebP
// image previews, plus the HTTP surface that serves them.
package assetmodule

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/logger"
	"github.com/dxing/mediavault/internal/modules/modulemanager"
)

const ModuleID = "system.assets"

type Module struct {
	db      *gorm.DB
	cfg     *config.Config
	service *ThumbnailService
}

func NewModule(db *gorm.DB, cfg *config.Config) *Module {
	return &Module{db: db, cfg: cfg}
}

// Register creates the module and adds it to the global registry.
func Register(db *gorm.DB, cfg *config.Config) *Module {
	m := NewModule(db, cfg)
	modulemanager.Register(m)
	return m
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return "Asset Service" }
func (m *Module) Core() bool   { return false }

func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

func (m *Module) Init() error {
	if err := os.MkdirAll(m.cfg.Assets.ThumbnailDir, 0o755); err != nil {
		return err
	}
	m.service = NewThumbnailService(&m.cfg.Assets)
	logger.Info("Asset module initialized", "thumbnail_dir", m.cfg.Assets.ThumbnailDir)
	return nil
}

func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/assets")
	{
		api.GET("/thumbnails/*path", m.handleServeThumbnail)
		api.POST("/items/:id/thumbnail", m.handleGenerateThumbnail)
		api.POST("/items/:id/preview", m.handleGeneratePreview)
	}
}

// handleServeThumbnail serves a file from the thumbnail dir. The path
// is resolved and must stay inside the dir.
func (m *Module) handleServeThumbnail(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("path"), "/")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "thumbnail path required"})
		return
	}

	base, err := filepath.Abs(m.cfg.Assets.ThumbnailDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	full, err := filepath.Abs(filepath.Join(base, filepath.FromSlash(rel)))
	if err != nil || full != base && !strings.HasPrefix(full, base+string(filepath.Separator)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thumbnail path"})
		return
	}

	if _, err := os.Stat(full); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnail not found"})
		return
	}
	c.File(full)
}

// handleGenerateThumbnail builds the thumbnail for a video item on
// demand and records its path on the item.
func (m *Module) handleGenerateThumbnail(c *gin.Context) {
	item, root, ok := m.loadItem(c, database.MediaTypeVideo)
	if !ok {
		return
	}

	rel := item.Collection.Name + "/" + strings.TrimSuffix(item.RelativePath, filepath.Ext(item.RelativePath)) + ".jpg"
	if _, err := m.service.GenerateVideoThumbnail(m.sourcePath(root, item), rel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := m.db.Model(&database.MediaItem{}).Where("id = ?", item.ID).
		Update("thumbnail_path", rel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thumbnail_path": rel})
}

// handleGeneratePreview builds a WebP preview for an image item.
func (m *Module) handleGeneratePreview(c *gin.Context) {
	item, root, ok := m.loadItem(c, database.MediaTypeImage)
	if !ok {
		return
	}

	rel := item.Collection.Name + "/" + strings.TrimSuffix(item.RelativePath, filepath.Ext(item.RelativePath)) + ".webp"
	if _, err := m.service.EncodeImagePreview(m.sourcePath(root, item), rel); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := m.db.Model(&database.MediaItem{}).Where("id = ?", item.ID).
		Update("thumbnail_path", rel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview_path": rel})
}

// loadItem fetches the item with its collection and disk, checking the
// media type matches the endpoint.
func (m *Module) loadItem(c *gin.Context, mediaType string) (*database.MediaItem, *database.StorageDisk, bool) {
	var item database.MediaItem
	err := m.db.Preload("Collection").Preload("Collection.Disk").
		First(&item, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return nil, nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	if item.Collection.MediaType != mediaType {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is not of media type " + mediaType})
		return nil, nil, false
	}
	return &item, &item.Collection.Disk, true
}

// sourcePath rebuilds the absolute path of an item from its disk mount,
// collection storage root, and relative path.
func (m *Module) sourcePath(disk *database.StorageDisk, item *database.MediaItem) string {
	return filepath.Join(disk.MountPath,
		filepath.FromSlash(item.Collection.StorageRoot),
		filepath.FromSlash(item.RelativePath))
}
