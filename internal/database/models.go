package database

import (
	"time"
)

// Media type labels shared by every module that partitions the catalog.
const (
	MediaTypeVideo = "video"
	MediaTypeImage = "image"
	MediaTypeAudio = "audio"
)

// StorageDisk represents a physical disk or mount point that collections
// live on. Identity is (drive_label, mount_path); storage roots in the
// catalog are expressed relative to MountPath so the catalog survives a
// disk being remounted elsewhere.
type StorageDisk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DriveLabel string    `gorm:"uniqueIndex:idx_disk_identity;size:64;not null" json:"drive_label"`
	MountPath  string    `gorm:"uniqueIndex:idx_disk_identity;size:255;not null" json:"mount_path"`
	Active     bool      `gorm:"default:true" json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MediaCollection is one directory of media files discovered by a scan.
// Identity is (disk_id, media_type, name, storage_root); re-scanning the
// same tree updates the row in place.
type MediaCollection struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	DiskID      uint    `gorm:"uniqueIndex:idx_collection_identity;not null" json:"disk_id"`
	MediaType   string  `gorm:"uniqueIndex:idx_collection_identity;size:16;not null" json:"media_type"`
	Name        string  `gorm:"uniqueIndex:idx_collection_identity;size:255;not null" json:"name"`
	StorageRoot string  `gorm:"uniqueIndex:idx_collection_identity;size:512;not null" json:"storage_root"`
	Tier        int     `gorm:"default:1;index" json:"tier"`
	CoverPath   *string `gorm:"size:512" json:"cover_path,omitempty"`
	Description string  `gorm:"size:1024" json:"description"`

	Disk StorageDisk `gorm:"foreignKey:DiskID" json:"disk,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MediaItem is one file inside a collection. Identity is
// (collection_id, relative_path); the metadata columns are nullable and
// only the group matching the collection's media type is populated.
type MediaItem struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CollectionID uint   `gorm:"uniqueIndex:idx_item_identity;not null;index" json:"collection_id"`
	RelativePath string `gorm:"uniqueIndex:idx_item_identity;size:1024;not null" json:"relative_path"`
	Name         string `gorm:"size:255;not null;index" json:"name"`
	FileSize     int64  `json:"file_size"`

	// Video metadata
	Duration     *float64 `json:"duration,omitempty"`
	QualityLabel *string  `gorm:"size:32" json:"quality_label,omitempty"`
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	Bitrate      *int64   `json:"bitrate,omitempty"`
	FrameRate    *float64 `json:"frame_rate,omitempty"`
	Codec        *string  `gorm:"size:64" json:"codec,omitempty"`

	// Audio metadata
	Title  *string `gorm:"size:255" json:"title,omitempty"`
	Artist *string `gorm:"size:255;index" json:"artist,omitempty"`
	Album  *string `gorm:"size:255" json:"album,omitempty"`
	Genre  *string `gorm:"size:128" json:"genre,omitempty"`
	Year   *string `gorm:"size:16" json:"year,omitempty"`

	// Image metadata
	TakenAt *time.Time `json:"taken_at,omitempty"`

	ThumbnailPath *string `gorm:"size:1024" json:"thumbnail_path,omitempty"`

	Collection MediaCollection `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScanRecord is the persisted history of one scan run, used by the admin
// surface to list past scans. The live pipeline never reads it.
type ScanRecord struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	MediaType        string     `gorm:"size:16;not null;index" json:"media_type"`
	RootPath         string     `gorm:"size:1024;not null" json:"root_path"`
	Status           string     `gorm:"size:16;not null;index" json:"status"`
	FilesAdded       int        `json:"files_added"`
	CollectionsAdded int        `json:"collections_added"`
	FailedCount      int        `json:"failed_count"`
	DurationSeconds  float64    `json:"duration_seconds"`
	ErrorMessage     string     `gorm:"size:1024" json:"error_message,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
