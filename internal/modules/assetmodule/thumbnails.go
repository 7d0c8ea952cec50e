package assetmodule

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chai2010/webp"

	"github.com/dxing/mediavault/internal/config"
)

const ffmpegTimeout = 60 * time.Second

// ThumbnailService produces video thumbnails via ffmpeg and downscaled
// WebP previews of images. All output lands under the thumbnail dir.
type ThumbnailService struct {
	cfg *config.AssetConfig
}

func NewThumbnailService(cfg *config.AssetConfig) *ThumbnailService {
	return &ThumbnailService{cfg: cfg}
}

// GenerateVideoThumbnail extracts the first video frame of videoPath
// into relOutput (relative to the thumbnail dir) and returns the
// absolute output path.
func (s *ThumbnailService) GenerateVideoThumbnail(videoPath, relOutput string) (string, error) {
	output := filepath.Join(s.cfg.ThumbnailDir, filepath.FromSlash(relOutput))
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", fmt.Errorf("create thumbnail directory: %w", err)
	}

	ffmpeg := s.cfg.FFMpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	ctx, cancel := context.WithTimeout(context.Background(), ffmpegTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-ss", "00:00:00",
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-map", "0:v:0",
		"-vsync", "vfr",
		"-y",
		output,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg thumbnail for %s: %w: %s", videoPath, err, out)
	}
	return output, nil
}

// EncodeImagePreview decodes imagePath, downsizes it to fit the preview
// bound, and writes a WebP file. Returns the absolute output path.
func (s *ThumbnailService) EncodeImagePreview(imagePath, relOutput string) (string, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", imagePath, err)
	}
	img = downscale(img, s.cfg.PreviewMaxDim)

	output := filepath.Join(s.cfg.ThumbnailDir, filepath.FromSlash(relOutput))
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return "", fmt.Errorf("create preview directory: %w", err)
	}

	out, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("create preview file: %w", err)
	}
	defer out.Close()

	quality := float32(s.cfg.WebPQuality)
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	if err := webp.Encode(out, img, &webp.Options{Quality: quality}); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return output, nil
}

// downscale resizes img so its longer edge is at most maxDim, using
// nearest-neighbor sampling. Small images pass through untouched.
func downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	nw := int(float64(w) * scale)
	nh := int(float64(h) * scale)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	for y := 0; y < nh; y++ {
		sy := bounds.Min.Y + y*h/nh
		for x := 0; x < nw; x++ {
			sx := bounds.Min.X + x*w/nw
			dst.Set(x, y, img.At(sx, sy))
		}
	}
	return dst
}
