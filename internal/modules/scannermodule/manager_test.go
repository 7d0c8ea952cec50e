package scannermodule

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dxing/mediavault/internal/config"
	"github.com/dxing/mediavault/internal/database"
	"github.com/dxing/mediavault/internal/events"
	"github.com/dxing/mediavault/internal/modules/scannermodule/scanner"
)

func testConfig() *config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Scanner.WatchLibraries = false
	return cfg
}

func testModule(t *testing.T) (*Module, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	bus := events.NewBus()
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Stop(context.Background()) })

	m := NewModule(db, bus, testConfig())
	require.NoError(t, m.Migrate(db))
	require.NoError(t, m.Init())
	return m, db
}

func testRouter(m *Module) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	m.RegisterRoutes(router)
	return router
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8))))
}

func postScan(t *testing.T, router *gin.Engine, mediaType, path string, vip bool) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"path": path, "vip": vip})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/scanner/"+mediaType+"/scan", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScanEndpointCatalogsImages(t *testing.T) {
	m, db := testModule(t)
	router := testRouter(m)

	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "holiday", "beach.png"))
	writeTestPNG(t, filepath.Join(root, "holiday", "sunset.png"))

	w := postScan(t, router, "image", root, false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		MediaType string          `json:"media_type"`
		Summary   scanner.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "image", resp.MediaType)
	assert.Equal(t, 2, resp.Summary.FilesAdded)
	assert.Equal(t, 1, resp.Summary.CollectionsAdded)

	var items []database.MediaItem
	require.NoError(t, db.Find(&items).Error)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NotNil(t, item.Width)
		assert.Equal(t, 8, *item.Width)
	}
}

func TestScanEndpointRejectsUnknownType(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	w := postScan(t, router, "podcast", t.TempDir(), false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanEndpointRejectsBadPath(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	w := postScan(t, router, "image", "relative/path", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanEndpointRejectsMissingBody(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	req := httptest.NewRequest(http.MethodPost, "/api/scanner/image/scan", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressEndpoint(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "pics", "a.png"))
	require.Equal(t, http.StatusOK, postScan(t, router, "image", root, false).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/scanner/image/progress", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Running  bool             `json:"running"`
		Progress scanner.Progress `json:"progress"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
	assert.Equal(t, 100.0, resp.Progress.Percentage)
}

func TestScanHistoryEndpoint(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "pics", "a.png"))
	require.Equal(t, http.StatusOK, postScan(t, router, "image", root, false).Code)
	// A failed run is recorded too.
	postScan(t, router, "image", filepath.Join(root, "missing"), false)

	req := httptest.NewRequest(http.MethodGet, "/api/scans", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Scans []database.ScanRecord `json:"scans"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	// Newest first.
	assert.Equal(t, "failed", resp.Scans[0].Status)
	assert.Equal(t, "completed", resp.Scans[1].Status)
	assert.Equal(t, 1, resp.Scans[1].FilesAdded)
}

func TestConcurrentSameTypeScanRejected(t *testing.T) {
	m, _ := testModule(t)

	m.manager.mu.Lock()
	m.manager.running[scanner.TypeImage] = true
	m.manager.mu.Unlock()

	_, err := m.manager.StartScan(context.Background(), scanner.TypeImage, t.TempDir(), false)
	assert.ErrorIs(t, err, scanner.ErrScanInProgress)

	router := testRouter(m)
	w := postScan(t, router, "image", t.TempDir(), false)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestScanPublishesLifecycleEvents(t *testing.T) {
	m, _ := testModule(t)
	router := testRouter(m)

	root := t.TempDir()
	writeTestPNG(t, filepath.Join(root, "pics", "a.png"))
	require.Equal(t, http.StatusOK, postScan(t, router, "image", root, false).Code)

	bus := m.eventBus
	require.Eventually(t, func() bool {
		for _, e := range bus.GetRecentEvents(50) {
			if e.Type == events.EventScanCompleted {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}
