// Package scanner implements the filesystem-to-catalog pipeline: mount
// resolution, collection discovery, metadata extraction, and
// savepoint-isolated catalog writes.
package scanner

import (
	"strings"
	"time"
)

// MediaType selects which extension set, metadata extractor, and item
// columns a scan uses. Each type has its own orchestrator and progress
// record; they share nothing at runtime.
type MediaType string

const (
	TypeVideo MediaType = "video"
	TypeImage MediaType = "image"
	TypeAudio MediaType = "audio"
)

// ParseMediaType validates a media type string from an external caller.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case TypeVideo, TypeImage, TypeAudio:
		return MediaType(s), true
	}
	return "", false
}

// AudioMetadata holds tag data read from an audio file. Absent fields
// stay nil and map to NULL columns.
type AudioMetadata struct {
	Title    *string
	Artist   *string
	Album    *string
	Genre    *string
	Year     *string
	Duration *float64
}

// VideoMetadata holds technical data probed from a video file.
type VideoMetadata struct {
	Duration     *float64
	Width        *int
	Height       *int
	QualityLabel *string
	Bitrate      *int64
	FrameRate    *float64
	Codec        *string
}

// ImageMetadata holds data read from an image file.
type ImageMetadata struct {
	Width   *int
	Height  *int
	TakenAt *time.Time
}

// ItemMetadata is the envelope an extractor returns. Exactly one of the
// typed records is populated, matching the extractor's media type.
type ItemMetadata struct {
	Audio *AudioMetadata
	Video *VideoMetadata
	Image *ImageMetadata
}

// MetadataExtractor produces a normalized metadata record for one file.
// Implementations that can fall back gracefully (audio tags, image
// headers) return a partial record and a nil error; an error means the
// file is skipped and counted as failed.
type MetadataExtractor interface {
	Extract(path string) (ItemMetadata, error)
}

// Summary is the result of one completed scan run.
type Summary struct {
	FilesAdded       int     `json:"files_added"`
	CollectionsAdded int     `json:"collections_added"`
	FailedCount      int     `json:"failed_count"`
	DurationSeconds  float64 `json:"duration_seconds"`
}

// NewExtensionSet normalizes a list of extensions into a lookup set.
// Entries are lowercased and get a leading dot if missing.
func NewExtensionSet(extensions []string) map[string]bool {
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
