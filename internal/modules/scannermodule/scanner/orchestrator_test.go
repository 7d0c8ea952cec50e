package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/database"
)

// stubExtractor returns a fixed record, or fails paths in its fail set.
type stubExtractor struct {
	fail map[string]bool
}

func (s *stubExtractor) Extract(path string) (ItemMetadata, error) {
	if s.fail[filepath.Base(path)] {
		return ItemMetadata{}, os.ErrInvalid
	}
	w, h := 1920, 1080
	label := QualityLabel(w, h)
	return ItemMetadata{Video: &VideoMetadata{Width: &w, Height: &h, QualityLabel: &label}}, nil
}

// recordingSink captures the sink callbacks for assertions.
type recordingSink struct {
	percentages []float64
	failed      int
	message     string
}

func (s *recordingSink) Update(percentage float64, currentFile string, current, total int) {
	s.percentages = append(s.percentages, percentage)
}
func (s *recordingSink) AddFailed(n int)     { s.failed += n }
func (s *recordingSink) Fail(message string) { s.message = message }

func newTestOrchestrator(db *gorm.DB) *Orchestrator {
	return NewOrchestrator(db, Config{
		MediaType:    TypeVideo,
		Extensions:   videoExts,
		Extractor:    &stubExtractor{},
		StandardTier: 1,
		VipTier:      2,
	})
}

func TestRunScanCatalogsTree(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "a.mp4"))
	writeFile(t, filepath.Join(root, "movies", "b.mp4"))
	writeFile(t, filepath.Join(root, "shows", "c.mp4"))

	sink := &recordingSink{}
	summary, err := newTestOrchestrator(db).RunScan(context.Background(), root, false, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.FilesAdded)
	assert.Equal(t, 2, summary.CollectionsAdded)
	assert.Equal(t, 0, summary.FailedCount)

	var items []database.MediaItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 3)
	for _, item := range items {
		require.NotNil(t, item.QualityLabel)
		assert.Equal(t, "1080p", *item.QualityLabel)
	}

	require.NotEmpty(t, sink.percentages)
	assert.Equal(t, 100.0, sink.percentages[len(sink.percentages)-1])
}

func TestRunScanIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "a.mp4"))

	orch := newTestOrchestrator(db)
	first, err := orch.RunScan(context.Background(), root, false, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesAdded)
	assert.Equal(t, 1, first.CollectionsAdded)

	second, err := orch.RunScan(context.Background(), root, false, &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesAdded)
	assert.Equal(t, 0, second.CollectionsAdded)

	var count int64
	require.NoError(t, db.Model(&database.MediaItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRunScanVipTier(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "a.mp4"))

	_, err := newTestOrchestrator(db).RunScan(context.Background(), root, true, &recordingSink{})
	require.NoError(t, err)

	var col database.MediaCollection
	require.NoError(t, db.First(&col).Error)
	assert.Equal(t, 2, col.Tier)
}

func TestRunScanCountsExtractionFailures(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "good.mp4"))
	writeFile(t, filepath.Join(root, "movies", "bad.mp4"))

	orch := newTestOrchestrator(db)
	orch.cfg.Extractor = &stubExtractor{fail: map[string]bool{"bad.mp4": true}}

	sink := &recordingSink{}
	summary, err := orch.RunScan(context.Background(), root, false, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesAdded)
	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, 1, sink.failed)

	var count int64
	require.NoError(t, db.Model(&database.MediaItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

// poisonWriter fails item writes for one collection name.
type poisonWriter struct {
	catalogWriter
	poisoned string
	names    map[uint]string
}

func (p *poisonWriter) UpsertCollection(col *database.MediaCollection) (bool, error) {
	inserted, err := p.catalogWriter.UpsertCollection(col)
	if err == nil {
		p.names[col.ID] = col.Name
	}
	return inserted, err
}

func (p *poisonWriter) UpsertItem(item *database.MediaItem) (bool, error) {
	if p.names[item.CollectionID] == p.poisoned {
		return false, assert.AnError
	}
	return p.catalogWriter.UpsertItem(item)
}

func TestRunScanRollsBackFailedCollection(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "a.mp4"))
	writeFile(t, filepath.Join(root, "movies", "b.mp4"))
	writeFile(t, filepath.Join(root, "shows", "c.mp4"))

	orch := newTestOrchestrator(db)
	orch.newWriter = func(tx *gorm.DB) catalogWriter {
		return &poisonWriter{
			catalogWriter: NewCatalogWriter(tx),
			poisoned:      "movies",
			names:         make(map[uint]string),
		}
	}

	sink := &recordingSink{}
	summary, err := orch.RunScan(context.Background(), root, false, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FilesAdded)
	assert.Equal(t, 1, summary.CollectionsAdded)
	assert.Equal(t, 2, summary.FailedCount)
	assert.Equal(t, 2, sink.failed)

	// The poisoned collection left nothing behind; the healthy one
	// committed.
	var cols []database.MediaCollection
	require.NoError(t, db.Find(&cols).Error)
	require.Len(t, cols, 1)
	assert.Equal(t, "shows", cols[0].Name)

	var items []database.MediaItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "c.mp4", items[0].RelativePath)
}

func TestRunScanFatalOnEmptyTree(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()

	sink := &recordingSink{}
	_, err := newTestOrchestrator(db).RunScan(context.Background(), root, false, sink)
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrNoMediaFound)
	assert.NotEmpty(t, sink.message)

	// Nothing was committed, not even collections.
	var count int64
	require.NoError(t, db.Model(&database.MediaCollection{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestRunScanFatalOnInvalidRoot(t *testing.T) {
	db := openTestDB(t)

	_, err := newTestOrchestrator(db).RunScan(context.Background(), "not/absolute", false, &recordingSink{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestRunScanSetsCoverFromFirstJPEG(t *testing.T) {
	db := openTestDB(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movies", "a.mp4"))
	writeFile(t, filepath.Join(root, "movies", "cover.jpg"))

	_, err := newTestOrchestrator(db).RunScan(context.Background(), root, false, &recordingSink{})
	require.NoError(t, err)

	var col database.MediaCollection
	require.NoError(t, db.First(&col).Error)
	require.NotNil(t, col.CoverPath)
	assert.Equal(t, "cover.jpg", *col.CoverPath)
}
