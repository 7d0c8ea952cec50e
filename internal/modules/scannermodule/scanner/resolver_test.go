package scanner

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dxing/mediavault/internal/database"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	// One connection keeps every pooled handle on the same in-memory DB.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&database.StorageDisk{},
		&database.MediaCollection{},
		&database.MediaItem{},
		&database.ScanRecord{},
	))
	return db
}

func TestResolveRejectsRelativePath(t *testing.T) {
	resolver := NewPathResolver(openTestDB(t))

	_, err := resolver.Resolve("relative/path")
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestResolveRejectsMissingDirectory(t *testing.T) {
	resolver := NewPathResolver(openTestDB(t))

	_, err := resolver.Resolve(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestResolveComputesStorageRoot(t *testing.T) {
	resolver := NewPathResolver(openTestDB(t))
	root := t.TempDir()

	resolved, err := resolver.Resolve(root)
	require.NoError(t, err)

	assert.NotZero(t, resolved.DiskID)
	rel, relErr := filepath.Rel(resolved.MountPath, root)
	require.NoError(t, relErr)
	assert.Equal(t, filepath.ToSlash(rel)+"/", resolved.StorageRoot)
}

func TestResolveRegistersDiskOnce(t *testing.T) {
	db := openTestDB(t)
	resolver := NewPathResolver(db)
	root := t.TempDir()

	first, err := resolver.Resolve(root)
	require.NoError(t, err)
	second, err := resolver.Resolve(root)
	require.NoError(t, err)

	assert.Equal(t, first.DiskID, second.DiskID)
	var count int64
	require.NoError(t, db.Model(&database.StorageDisk{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveReactivatesInactiveDisk(t *testing.T) {
	db := openTestDB(t)
	resolver := NewPathResolver(db)
	root := t.TempDir()

	resolved, err := resolver.Resolve(root)
	require.NoError(t, err)
	require.NoError(t, db.Model(&database.StorageDisk{}).
		Where("id = ?", resolved.DiskID).Update("active", false).Error)

	again, err := resolver.Resolve(root)
	require.NoError(t, err)
	require.Equal(t, resolved.DiskID, again.DiskID)

	var disk database.StorageDisk
	require.NoError(t, db.First(&disk, again.DiskID).Error)
	assert.True(t, disk.Active)
}

func TestIsFatalOnWrappedErrors(t *testing.T) {
	err := fatal(ErrNoMediaFound, "nothing under %s", "/tmp/x")
	assert.True(t, IsFatal(err))
	assert.False(t, IsFatal(errors.New("plain")))
}
