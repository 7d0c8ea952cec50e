package scannermodule

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/logger"
	"github.com/dxing/mediavault/internal/modules/scannermodule/scanner"
)

// Manager owns one orchestrator, reporter, and in-flight flag per media
// type. Scans of different media types may run concurrently; a second
// scan of the same type is rejected while one is running.
type Manager struct {
	db       *gorm.DB
	eventBus events.EventBus
	cfg      *config.Config
	monitor  *scanner.LibraryMonitor

	mu            sync.Mutex
	orchestrators map[scanner.MediaType]*scanner.Orchestrator
	reporters     map[scanner.MediaType]*scanner.Reporter
	running       map[scanner.MediaType]bool
}

func NewManager(db *gorm.DB, eventBus events.EventBus, cfg *config.Config) *Manager {
	videoSet := scanner.NewExtensionSet(cfg.Scanner.VideoExtensions)
	audioSet := scanner.NewExtensionSet(cfg.Scanner.AudioExtensions)
	imageSet := scanner.NewExtensionSet(cfg.Scanner.ImageExtensions)

	allExts := make(map[string]bool)
	for ext := range videoSet {
		allExts[ext] = true
	}
	for ext := range audioSet {
		allExts[ext] = true
	}
	for ext := range imageSet {
		allExts[ext] = true
	}

	m := &Manager{
		db:            db,
		eventBus:      eventBus,
		cfg:           cfg,
		monitor:       scanner.NewLibraryMonitor(eventBus, allExts),
		orchestrators: make(map[scanner.MediaType]*scanner.Orchestrator),
		reporters:     make(map[scanner.MediaType]*scanner.Reporter),
		running:       make(map[scanner.MediaType]bool),
	}

	m.orchestrators[scanner.TypeVideo] = scanner.NewOrchestrator(db, scanner.Config{
		MediaType:     scanner.TypeVideo,
		Extensions:    videoSet,
		Extractor:     scanner.NewVideoExtractor(cfg.Scanner.FFProbePath),
		StandardTier:  cfg.Scanner.StandardTierValue,
		VipTier:       cfg.Scanner.VipTierValue,
		ThumbnailRoot: cfg.Assets.ThumbnailDir,
	})
	m.orchestrators[scanner.TypeAudio] = scanner.NewOrchestrator(db, scanner.Config{
		MediaType:    scanner.TypeAudio,
		Extensions:   audioSet,
		Extractor:    scanner.NewAudioExtractor(cfg.Scanner.FFProbePath),
		StandardTier: cfg.Scanner.StandardTierValue,
		VipTier:      cfg.Scanner.VipTierValue,
	})
	m.orchestrators[scanner.TypeImage] = scanner.NewOrchestrator(db, scanner.Config{
		MediaType:    scanner.TypeImage,
		Extensions:   imageSet,
		Extractor:    scanner.NewImageExtractor(),
		StandardTier: cfg.Scanner.StandardTierValue,
		VipTier:      cfg.Scanner.VipTierValue,
	})

	for mediaType := range m.orchestrators {
		m.reporters[mediaType] = scanner.NewReporter()
	}
	return m
}

// StartScan runs a scan synchronously and returns its summary. It
// returns scanner.ErrScanInProgress when a scan of the same media type
// is already running.
func (m *Manager) StartScan(ctx context.Context, mediaType scanner.MediaType, rootPath string, vip bool) (*scanner.Summary, error) {
	m.mu.Lock()
	if m.running[mediaType] {
		m.mu.Unlock()
		return nil, scanner.ErrScanInProgress
	}
	m.running[mediaType] = true
	orchestrator := m.orchestrators[mediaType]
	reporter := m.reporters[mediaType]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running[mediaType] = false
		m.mu.Unlock()
	}()

	reporter.Reset()
	record := m.openRecord(mediaType, rootPath)
	m.publish(events.EventScanStarted, mediaType, rootPath, "Scan started")

	sink := &eventingSink{
		reporter:  reporter,
		eventBus:  m.eventBus,
		mediaType: mediaType,
	}
	summary, err := orchestrator.RunScan(ctx, rootPath, vip, sink)
	if err != nil {
		m.closeRecord(record, "failed", nil, err.Error())
		m.publish(events.EventScanFailed, mediaType, rootPath, err.Error())
		return nil, err
	}

	m.closeRecord(record, "completed", summary, "")
	m.publish(events.EventScanCompleted, mediaType, rootPath, "Scan completed")

	if m.cfg.Scanner.WatchLibraries {
		if err := m.monitor.Watch(rootPath); err != nil {
			logger.Warn("Library monitor could not watch root", "root", rootPath, "error", err)
		}
	}
	return summary, nil
}

// Progress returns the live progress snapshot for a media type.
func (m *Manager) Progress(mediaType scanner.MediaType) scanner.Progress {
	m.mu.Lock()
	reporter := m.reporters[mediaType]
	m.mu.Unlock()
	return reporter.Read()
}

// IsRunning reports whether a scan of the media type is in flight.
func (m *Manager) IsRunning(mediaType scanner.MediaType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running[mediaType]
}

// ScanHistory lists past scan runs, newest first.
func (m *Manager) ScanHistory(limit int) ([]database.ScanRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []database.ScanRecord
	err := m.db.Order("id DESC").Limit(limit).Find(&records).Error
	return records, err
}

func (m *Manager) Shutdown() {
	m.monitor.Stop()
}

func (m *Manager) openRecord(mediaType scanner.MediaType, rootPath string) *database.ScanRecord {
	now := time.Now()
	record := &database.ScanRecord{
		MediaType: string(mediaType),
		RootPath:  rootPath,
		Status:    "running",
		StartedAt: &now,
	}
	if err := m.db.Create(record).Error; err != nil {
		logger.Warn("Could not persist scan record", "error", err)
		return nil
	}
	return record
}

func (m *Manager) closeRecord(record *database.ScanRecord, status string, summary *scanner.Summary, errMsg string) {
	if record == nil {
		return
	}
	now := time.Now()
	record.Status = status
	record.CompletedAt = &now
	record.ErrorMessage = errMsg
	if summary != nil {
		record.FilesAdded = summary.FilesAdded
		record.CollectionsAdded = summary.CollectionsAdded
		record.FailedCount = summary.FailedCount
		record.DurationSeconds = summary.DurationSeconds
	}
	if err := m.db.Save(record).Error; err != nil {
		logger.Warn("Could not update scan record", "error", err)
	}
}

func (m *Manager) publish(eventType events.EventType, mediaType scanner.MediaType, rootPath, message string) {
	e := events.NewEvent(eventType, "scanner."+string(mediaType), string(eventType), message)
	e.Data = map[string]interface{}{
		"media_type": string(mediaType),
		"root_path":  rootPath,
	}
	if err := m.eventBus.PublishAsync(e); err != nil {
		logger.Debug("Event dropped", "type", eventType, "error", err)
	}
}

// eventingSink forwards progress into the reporter and publishes a
// scan.progress event when the displayed percentage actually moves.
type eventingSink struct {
	reporter  *scanner.Reporter
	eventBus  events.EventBus
	mediaType scanner.MediaType

	lastPublished float64
}

func (s *eventingSink) Update(percentage float64, currentFile string, current, total int) {
	s.reporter.Update(percentage, currentFile, current, total)

	snap := s.reporter.Read()
	if snap.Percentage == s.lastPublished {
		return
	}
	s.lastPublished = snap.Percentage

	e := events.NewEvent(events.EventScanProgress, "scanner."+string(s.mediaType),
		"Scan progress", currentFile)
	e.Priority = events.PriorityLow
	e.Data = map[string]interface{}{
		"media_type": string(s.mediaType),
		"percentage": snap.Percentage,
		"current":    snap.Current,
		"total":      snap.Total,
	}
	_ = s.eventBus.PublishAsync(e)
}

func (s *eventingSink) AddFailed(n int) {
	s.reporter.AddFailed(n)
}

func (s *eventingSink) Fail(message string) {
	s.reporter.Fail(message)
}
