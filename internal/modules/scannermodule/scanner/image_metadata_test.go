package scanner

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height))))
}

func TestImageExtractHeaderFallback(t *testing.T) {
	// PNG has no EXIF, so dimensions come from the decoded header.
	path := filepath.Join(t.TempDir(), "photo.png")
	writePNG(t, path, 320, 240)

	meta, err := NewImageExtractor().Extract(path)
	require.NoError(t, err)
	require.NotNil(t, meta.Image)

	require.NotNil(t, meta.Image.Width)
	require.NotNil(t, meta.Image.Height)
	assert.Equal(t, 320, *meta.Image.Width)
	assert.Equal(t, 240, *meta.Image.Height)
	assert.Nil(t, meta.Image.TakenAt)
}

func TestImageExtractUnreadableFileIsGraceful(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	meta, err := NewImageExtractor().Extract(path)
	require.NoError(t, err)
	require.NotNil(t, meta.Image)
	assert.Nil(t, meta.Image.Width)
	assert.Nil(t, meta.Image.Height)
}

func TestImageExtractMissingFileIsGraceful(t *testing.T) {
	meta, err := NewImageExtractor().Extract(filepath.Join(t.TempDir(), "ghost.jpg"))
	require.NoError(t, err)
	require.NotNil(t, meta.Image)
	assert.Nil(t, meta.Image.Width)
}
