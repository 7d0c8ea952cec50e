// Package scannermodule exposes the scanning pipeline as an application
// module: HTTP endpoints for starting scans and observing progress, one
// scan manager per process, and persisted scan history.
package scannermodule

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/logger"
	"github.com/dxing/mediavault/internal/modules/modulemanager"
)

const ModuleID = "system.scanner"

type Module struct {
	db       *gorm.DB
	eventBus events.EventBus
	cfg      *config.Config
	manager  *Manager
}

func NewModule(db *gorm.DB, eventBus events.EventBus, cfg *config.Config) *Module {
	return &Module{
		db:       db,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// Register creates the module and adds it to the global registry.
func Register(db *gorm.DB, eventBus events.EventBus, cfg *config.Config) *Module {
	m := NewModule(db, eventBus, cfg)
	modulemanager.Register(m)
	return m
}

func (m *Module) ID() string   { return ModuleID }
func (m *Module) Name() string { return "Media Scanner" }
func (m *Module) Core() bool   { return true }

func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&database.StorageDisk{},
		&database.MediaCollection{},
		&database.MediaItem{},
		&database.ScanRecord{},
	)
}

func (m *Module) Init() error {
	m.manager = NewManager(m.db, m.eventBus, m.cfg)
	logger.Info("Scanner module initialized")
	return nil
}

func (m *Module) RegisterRoutes(router *gin.Engine) {
	if m.manager == nil {
		return
	}
	m.registerRoutes(router)
}

func (m *Module) Shutdown() error {
	if m.manager != nil {
		m.manager.Shutdown()
	}
	return nil
}

// GetManager exposes the manager for other modules and tests.
func (m *Module) GetManager() *Manager {
	return m.manager
}
