package scanner

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dxing/mediavault/internal/database"
)

// CatalogWriter persists collections and items inside an existing
// transaction. Every collection is wrapped in its own savepoint so a
// failing collection can be rolled back without losing the rest of the
// scan.
type CatalogWriter struct {
	tx *gorm.DB
}

func NewCatalogWriter(tx *gorm.DB) *CatalogWriter {
	return &CatalogWriter{tx: tx}
}

func (w *CatalogWriter) Savepoint(name string) error {
	return w.tx.SavePoint(name).Error
}

func (w *CatalogWriter) RollbackTo(name string) error {
	return w.tx.RollbackTo(name).Error
}

// UpsertCollection inserts the collection or, when a row with the same
// identity already exists, refreshes its mutable fields. The returned
// collection always carries a valid ID.
func (w *CatalogWriter) UpsertCollection(col *database.MediaCollection) (bool, error) {
	var count int64
	err := w.tx.Model(&database.MediaCollection{}).
		Where("disk_id = ? AND media_type = ? AND name = ? AND storage_root = ?",
			col.DiskID, col.MediaType, col.Name, col.StorageRoot).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("lookup collection %q: %w", col.Name, err)
	}

	col.UpdatedAt = time.Now()
	res := w.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "disk_id"}, {Name: "media_type"}, {Name: "name"}, {Name: "storage_root"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"tier", "cover_path", "description", "updated_at"}),
	}).Create(col)
	if res.Error != nil {
		return false, fmt.Errorf("upsert collection %q: %w", col.Name, res.Error)
	}

	if col.ID == 0 {
		var existing database.MediaCollection
		err := w.tx.Where("disk_id = ? AND media_type = ? AND name = ? AND storage_root = ?",
			col.DiskID, col.MediaType, col.Name, col.StorageRoot).First(&existing).Error
		if err != nil {
			return false, fmt.Errorf("reload collection %q: %w", col.Name, err)
		}
		col.ID = existing.ID
	}
	return count == 0, nil
}

// UpsertItem inserts a media item or refreshes an existing row with the
// same (collection, relative path) identity. It reports whether a new
// row was created so the scan can count genuinely new files.
func (w *CatalogWriter) UpsertItem(item *database.MediaItem) (bool, error) {
	var existing database.MediaItem
	err := w.tx.Select("id").
		Where("collection_id = ? AND relative_path = ?", item.CollectionID, item.RelativePath).
		First(&existing).Error
	switch {
	case err == nil:
		item.ID = existing.ID
		// A map update writes nil pointers as NULL, clearing metadata
		// that disappeared from the file since the last scan.
		updates := map[string]interface{}{
			"name":           item.Name,
			"file_size":      item.FileSize,
			"duration":       item.Duration,
			"quality_label":  item.QualityLabel,
			"width":          item.Width,
			"height":         item.Height,
			"bitrate":        item.Bitrate,
			"frame_rate":     item.FrameRate,
			"codec":          item.Codec,
			"title":          item.Title,
			"artist":         item.Artist,
			"album":          item.Album,
			"genre":          item.Genre,
			"year":           item.Year,
			"taken_at":       item.TakenAt,
			"thumbnail_path": item.ThumbnailPath,
			"updated_at":     time.Now(),
		}
		if err := w.tx.Model(&database.MediaItem{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return false, fmt.Errorf("update item %q: %w", item.RelativePath, err)
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := w.tx.Create(item).Error; err != nil {
			return false, fmt.Errorf("insert item %q: %w", item.RelativePath, err)
		}
		return true, nil
	default:
		return false, fmt.Errorf("lookup item %q: %w", item.RelativePath, err)
	}
}
