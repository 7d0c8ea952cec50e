// Package catalogmodule serves the read side of the catalog: collection
// listings, item pages, and search, all gated by viewer tier.
package catalogmodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/logger"
	"github.com/dxing/mediavault/internal/modules/modulemanager"
)

const ModuleID = "system.catalog"

type Module struct {
	db  *gorm.DB
	cfg *config.Config
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
func (m *Module) Name() string { return "Media Catalog" }
func (m *Module) Core() bool   { return true }

// Migrate is a no-op; the scanner module owns the catalog schema.
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

func (m *Module) Init() error {
	logger.Info("Catalog module initialized")
	return nil
}

func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/catalog/:type")
	{
		api.GET("/collections", m.handleListCollections)
		api.GET("/collections/:id", m.handleGetCollection)
		api.GET("/collections/:id/items", m.handleListItems)
		api.GET("/search", m.handleSearch)
	}
}
