package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/logger"
)

// Config fixes the per-media-type behavior of an orchestrator. One
// orchestrator serves one media type for the lifetime of the process.
type Config struct {
	MediaType     MediaType
	Extensions    map[string]bool
	Extractor     MetadataExtractor
	StandardTier  int
	VipTier       int
	ThumbnailRoot string // when set, video items get a derived thumbnail path
}

// catalogWriter is what the orchestrator needs from the write layer.
// Narrowed to an interface so tests can inject failing writers.
type catalogWriter interface {
	Savepoint(name string) error
	RollbackTo(name string) error
	UpsertCollection(col *database.MediaCollection) (bool, error)
	UpsertItem(item *database.MediaItem) (bool, error)
}

// Orchestrator runs complete scans for one media type: resolve the
// root, discover collections, extract metadata, and write the catalog
// in a single transaction with per-collection savepoints.
type Orchestrator struct {
	db       *gorm.DB
	cfg      Config
	resolver *PathResolver
	walker   CollectionScanner

	newWriter func(tx *gorm.DB) catalogWriter
}

func NewOrchestrator(db *gorm.DB, cfg Config) *Orchestrator {
	return &Orchestrator{
		db:       db,
		cfg:      cfg,
		resolver: NewPathResolver(db),
		newWriter: func(tx *gorm.DB) catalogWriter {
			return NewCatalogWriter(tx)
		},
	}
}

// RunScan executes one scan of rootPath. A returned error is always a
// FatalScanError and means nothing from this run was committed.
// Per-file and per-collection failures are absorbed into the summary's
// failed count instead.
func (o *Orchestrator) RunScan(ctx context.Context, rootPath string, vip bool, sink ProgressSink) (*Summary, error) {
	start := time.Now()

	root, err := o.resolver.Resolve(rootPath)
	if err != nil {
		sink.Fail(err.Error())
		return nil, err
	}

	collections, err := o.walker.Scan(rootPath, o.cfg.Extensions)
	if err != nil {
		ferr := fatal(err, "walking %s", rootPath)
		sink.Fail(ferr.Error())
		return nil, ferr
	}
	if len(collections) == 0 {
		ferr := fatal(ErrNoMediaFound, "nothing to catalog under %s", rootPath)
		sink.Fail(ferr.Error())
		return nil, ferr
	}

	total := 0
	for _, col := range collections {
		total += len(col.Files)
	}
	logger.Info("Scan starting", "media_type", o.cfg.MediaType, "root", rootPath,
		"collections", len(collections), "files", total)

	tier := o.cfg.StandardTier
	if vip {
		tier = o.cfg.VipTier
	}

	tx := o.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		ferr := fatal(tx.Error, "begin transaction")
		sink.Fail(ferr.Error())
		return nil, ferr
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	writer := o.newWriter(tx)
	summary := &Summary{}
	processed := 0
	sink.Update(0, "", 0, total)

	for ci := range collections {
		col := &collections[ci]
		if err := ctx.Err(); err != nil {
			ferr := fatal(err, "scan canceled")
			sink.Fail(ferr.Error())
			return nil, ferr
		}

		savepoint := fmt.Sprintf("sp_collection_%d", ci)
		if err := writer.Savepoint(savepoint); err != nil {
			ferr := fatal(err, "savepoint for collection %q", col.Name)
			sink.Fail(ferr.Error())
			return nil, ferr
		}

		added, addedCols, failed, colErr := o.writeCollection(writer, root, col, tier, &processed, total, sink)
		if colErr != nil {
			logger.Warn("Collection rolled back", "collection", col.Name, "error", colErr)
			if err := writer.RollbackTo(savepoint); err != nil {
				ferr := fatal(err, "rollback collection %q", col.Name)
				sink.Fail(ferr.Error())
				return nil, ferr
			}
			// Everything in the collection is lost with the savepoint,
			// including files already written before the failure.
			summary.FailedCount += len(col.Files)
			sink.AddFailed(len(col.Files) - failed)
			continue
		}
		summary.FilesAdded += added
		summary.CollectionsAdded += addedCols
		summary.FailedCount += failed
	}

	if err := tx.Commit().Error; err != nil {
		ferr := fatal(err, "commit scan")
		sink.Fail(ferr.Error())
		return nil, ferr
	}
	committed = true

	sink.Update(100, "", processed, total)
	summary.DurationSeconds = time.Since(start).Seconds()
	logger.Info("Scan finished", "media_type", o.cfg.MediaType, "root", rootPath,
		"files_added", summary.FilesAdded, "collections_added", summary.CollectionsAdded,
		"failed", summary.FailedCount, "duration", summary.DurationSeconds)
	return summary, nil
}

// writeCollection upserts one collection and its files. A non-nil error
// is a write failure requiring a savepoint rollback; extraction and
// stat failures are absorbed into the failed return instead.
func (o *Orchestrator) writeCollection(writer catalogWriter, root *ResolvedRoot, col *Collection,
	tier int, processed *int, total int, sink ProgressSink) (added, addedCols, failed int, err error) {

	record := &database.MediaCollection{
		DiskID:      root.DiskID,
		MediaType:   string(o.cfg.MediaType),
		Name:        col.Name,
		StorageRoot: storageRootFor(root.MountPath, col.Dir),
		Tier:        tier,
		CoverPath:   o.coverFor(col),
	}
	inserted, upErr := writer.UpsertCollection(record)
	if upErr != nil {
		return 0, 0, failed, &CollectionError{Collection: col.Name, Err: upErr}
	}
	if inserted {
		addedCols = 1
	}

	for _, file := range col.Files {
		*processed++
		pct := float64(*processed) / float64(total) * 100
		sink.Update(pct, file, *processed, total)

		item, fileErr := o.buildItem(record.ID, col, file)
		if fileErr != nil {
			logger.Warn("File skipped", "path", file, "error", fileErr)
			failed++
			sink.AddFailed(1)
			continue
		}

		itemInserted, upErr := writer.UpsertItem(item)
		if upErr != nil {
			return 0, 0, failed, &CollectionError{Collection: col.Name, Err: upErr}
		}
		if itemInserted {
			added++
		}
	}
	return added, addedCols, failed, nil
}

// buildItem stats the file, runs the extractor, and assembles the
// catalog row. Errors here are per-file.
func (o *Orchestrator) buildItem(collectionID uint, col *Collection, file string) (*database.MediaItem, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, &FileError{Path: file, Err: err}
	}

	meta, err := o.cfg.Extractor.Extract(file)
	if err != nil {
		return nil, &FileError{Path: file, Err: err}
	}

	base := filepath.Base(file)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	item := &database.MediaItem{
		CollectionID: collectionID,
		RelativePath: base,
		Name:         stem,
		FileSize:     info.Size(),
	}

	if v := meta.Video; v != nil {
		item.Duration = v.Duration
		item.QualityLabel = v.QualityLabel
		item.Width = v.Width
		item.Height = v.Height
		item.Bitrate = v.Bitrate
		item.FrameRate = v.FrameRate
		item.Codec = v.Codec
		if o.cfg.ThumbnailRoot != "" {
			thumb := filepath.ToSlash(filepath.Join(col.Name, stem+".jpg"))
			item.ThumbnailPath = &thumb
		}
	}
	if a := meta.Audio; a != nil {
		item.Title = a.Title
		item.Artist = a.Artist
		item.Album = a.Album
		item.Genre = a.Genre
		item.Year = a.Year
		item.Duration = a.Duration
	}
	if img := meta.Image; img != nil {
		item.Width = img.Width
		item.Height = img.Height
		item.TakenAt = img.TakenAt
	}
	return item, nil
}

// coverFor picks the collection cover: the first direct *.jpg/*.jpeg in
// listing order. Image collections use their first photo the same way.
func (o *Orchestrator) coverFor(col *Collection) *string {
	entries, err := os.ReadDir(col.Dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".jpg" || ext == ".jpeg" {
			cover := entry.Name()
			return &cover
		}
	}
	return nil
}

// storageRootFor expresses dir relative to the mount with forward
// slashes and a trailing slash; the mount itself maps to "".
func storageRootFor(mountPath, dir string) string {
	rel, err := filepath.Rel(mountPath, dir)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel) + "/"
}
