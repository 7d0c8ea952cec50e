package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/logger"
)

// LibraryMonitor watches scanned roots for filesystem changes and
// publishes media events so the catalog surface can prompt a rescan.
// It deliberately does not write the catalog itself; a scan stays the
// single write path.
type LibraryMonitor struct {
	bus        events.EventBus
	extensions map[string]bool

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	roots   map[string]bool
	done    chan struct{}
}

func NewLibraryMonitor(bus events.EventBus, extensions map[string]bool) *LibraryMonitor {
	return &LibraryMonitor{
		bus:        bus,
		extensions: extensions,
		roots:      make(map[string]bool),
	}
}

// Watch adds rootPath and every non-hidden directory under it to the
// watch set, starting the event loop on first use.
func (m *LibraryMonitor) Watch(rootPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		m.watcher = w
		m.done = make(chan struct{})
		go m.loop(w, m.done)
	}
	if m.roots[rootPath] {
		return nil
	}

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != rootPath && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		if addErr := m.watcher.Add(path); addErr != nil {
			logger.Warn("Watch failed for directory", "path", path, "error", addErr)
		}
		return nil
	})
	if err != nil {
		return err
	}
	m.roots[rootPath] = true
	logger.Info("Library monitor watching", "root", rootPath)
	return nil
}

func (m *LibraryMonitor) loop(w *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			m.handle(event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("Library monitor error", "error", err)
		}
	}
}

func (m *LibraryMonitor) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	if event.Op.Has(fsnotify.Create) {
		// A new directory may become a collection; watch it so file
		// events inside it are seen.
		if isDir(event.Name) {
			m.mu.Lock()
			if m.watcher != nil {
				if err := m.watcher.Add(event.Name); err != nil {
					logger.Warn("Watch failed for new directory", "path", event.Name, "error", err)
				}
			}
			m.mu.Unlock()
			return
		}
		if m.matches(event.Name) {
			e := events.NewEvent(events.EventMediaFileFound, "library.monitor",
				"New media file", event.Name)
			e.Data = map[string]interface{}{"path": event.Name}
			_ = m.bus.PublishAsync(e)
		}
		return
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if m.matches(event.Name) {
			e := events.NewEvent(events.EventMediaFileRemoved, "library.monitor",
				"Media file removed", event.Name)
			e.Data = map[string]interface{}{"path": event.Name}
			_ = m.bus.PublishAsync(e)
		}
	}
}

func (m *LibraryMonitor) matches(path string) bool {
	return m.extensions[strings.ToLower(filepath.Ext(path))]
}

// Stop shuts the watcher down. Safe to call without a prior Watch.
func (m *LibraryMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher == nil {
		return
	}
	close(m.done)
	m.watcher.Close()
	m.watcher = nil
	m.roots = make(map[string]bool)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
