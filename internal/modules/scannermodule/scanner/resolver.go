package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/logger"
)

// ResolvedRoot describes where a scan root lives in the storage model.
type ResolvedRoot struct {
	DiskID      uint
	DriveLabel  string
	MountPath   string
	StorageRoot string // mount-relative, forward slashes, trailing "/"
}

// PathResolver maps an absolute filesystem root to its disk and
// mount-relative storage root, registering the disk in the catalog.
type PathResolver struct {
	db *gorm.DB
}

// NewPathResolver creates a resolver writing disk rows through db.
func NewPathResolver(db *gorm.DB) *PathResolver {
	return &PathResolver{db: db}
}

// Resolve validates rootPath, computes its mount boundary, and upserts
// the StorageDisk row. All failures are fatal to the scan.
func (r *PathResolver) Resolve(rootPath string) (*ResolvedRoot, error) {
	if !filepath.IsAbs(rootPath) {
		return nil, fatal(ErrInvalidPath, "absolute path required: %s", rootPath)
	}

	info, err := os.Stat(rootPath)
	if err != nil || !info.IsDir() {
		return nil, fatal(ErrInvalidPath, "directory does not exist: %s", rootPath)
	}

	driveLabel, mountPath := mountBoundary(rootPath)

	rel, err := filepath.Rel(mountPath, rootPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fatal(ErrPathOutsideMount, "path %s is not under mount %s", rootPath, mountPath)
	}

	storageRoot := ""
	if rel != "." {
		storageRoot = filepath.ToSlash(rel) + "/"
	}

	diskID, err := r.registerDisk(driveLabel, mountPath)
	if err != nil {
		return nil, fatal(err, "failed to register disk %s at %s", driveLabel, mountPath)
	}

	logger.Debug("resolved scan root",
		"root", rootPath, "disk_id", diskID, "mount", mountPath, "storage_root", storageRoot)

	return &ResolvedRoot{
		DiskID:      diskID,
		DriveLabel:  driveLabel,
		MountPath:   mountPath,
		StorageRoot: storageRoot,
	}, nil
}

// registerDisk upserts the disk row keyed by (drive_label, mount_path)
// and makes sure it is marked active.
func (r *PathResolver) registerDisk(driveLabel, mountPath string) (uint, error) {
	var disk database.StorageDisk
	err := r.db.Where("drive_label = ? AND mount_path = ?", driveLabel, mountPath).First(&disk).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		disk = database.StorageDisk{DriveLabel: driveLabel, MountPath: mountPath, Active: true}
		if err := r.db.Create(&disk).Error; err != nil {
			return 0, err
		}
		return disk.ID, nil
	case err != nil:
		return 0, err
	}

	if !disk.Active {
		if err := r.db.Model(&disk).Update("active", true).Error; err != nil {
			return 0, err
		}
	}
	return disk.ID, nil
}

// mountBoundary computes the filesystem boundary storage roots are
// relative to: the drive root on Windows, "/" elsewhere.
func mountBoundary(path string) (driveLabel, mountPath string) {
	if runtime.GOOS == "windows" {
		vol := filepath.VolumeName(path) // e.g. "C:"
		if vol != "" {
			return strings.ToUpper(vol[:1]), vol + `\`
		}
	}
	return "root", "/"
}
