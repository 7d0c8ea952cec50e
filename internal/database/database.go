// Package database owns the catalog connection and the shared gorm models.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dxing/mediavault/internal/config"
)

var db *gorm.DB

// Initialize opens the catalog database described by cfg and runs the
// shared migrations.
func Initialize(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	logMode := gormlogger.Silent
	if cfg.LogSQL {
		logMode = gormlogger.Info
	}
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(logMode)}

	var (
		conn *gorm.DB
		err  error
	)
	switch cfg.Type {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
			cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)
		conn, err = gorm.Open(postgres.Open(dsn), gormCfg)
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		conn, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	if err := conn.AutoMigrate(&StorageDisk{}); err != nil {
		return nil, fmt.Errorf("failed to migrate shared schema: %w", err)
	}

	db = conn
	return conn, nil
}

// GetDB returns the process-wide database handle. It is nil until
// Initialize has been called.
func GetDB() *gorm.DB {
	return db
}

// SetDB overrides the process-wide handle; used by tests and by modules
// initialized against a private connection.
func SetDB(conn *gorm.DB) {
	db = conn
}
