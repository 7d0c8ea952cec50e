package scanner

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/dxing/mediavault/internal/logger"
)

// ImageExtractor pulls dimensions and capture time from image files.
// EXIF is preferred; for formats without EXIF (or stripped files) it
// falls back to decoding the image header. Extraction never fails the
// file: an image with no readable metadata is still cataloged.
type ImageExtractor struct{}

func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{}
}

func (e *ImageExtractor) Extract(path string) (ItemMetadata, error) {
	meta := &ImageMetadata{}

	f, err := os.Open(path)
	if err != nil {
		return ItemMetadata{Image: meta}, nil
	}
	defer f.Close()

	if x, exifErr := exif.Decode(f); exifErr == nil {
		if w, ok := exifInt(x, exif.PixelXDimension); ok {
			meta.Width = &w
		}
		if h, ok := exifInt(x, exif.PixelYDimension); ok {
			meta.Height = &h
		}
		if t, dtErr := x.DateTime(); dtErr == nil {
			taken := t
			meta.TakenAt = &taken
		}
	} else {
		logger.Debug("No EXIF data in image", "path", path, "error", exifErr)
	}

	if meta.Width == nil || meta.Height == nil {
		if _, err := f.Seek(0, 0); err == nil {
			if cfg, _, decErr := image.DecodeConfig(f); decErr == nil {
				w, h := cfg.Width, cfg.Height
				meta.Width = &w
				meta.Height = &h
			}
		}
	}

	return ItemMetadata{Image: meta}, nil
}

func exifInt(x *exif.Exif, field exif.FieldName) (int, bool) {
	t, err := x.Get(field)
	if err != nil {
		return 0, false
	}
	v, err := t.Int(0)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
