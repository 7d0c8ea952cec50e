package scanner

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/dxing/mediavault/internal/logger"
)

// unsafeArtistChars marks parent directory names that are clearly not
// an artist name (drive roots, mangled paths).
const unsafeArtistChars = `\/:*?"<>|`

// AudioExtractor reads embedded tags from audio files. It never fails
// a file outright: when tags are missing or unreadable the record falls
// back to values derived from the file path.
type AudioExtractor struct {
	FFProbePath string
}

func NewAudioExtractor(ffprobePath string) *AudioExtractor {
	return &AudioExtractor{FFProbePath: ffprobePath}
}

func (e *AudioExtractor) Extract(path string) (ItemMetadata, error) {
	meta := &AudioMetadata{}

	f, err := os.Open(path)
	if err == nil {
		m, tagErr := tag.ReadFrom(f)
		f.Close()
		if tagErr == nil {
			if v := strings.TrimSpace(m.Title()); v != "" {
				meta.Title = &v
			}
			if v := strings.TrimSpace(m.Artist()); v != "" {
				meta.Artist = &v
			}
			if v := strings.TrimSpace(m.Album()); v != "" {
				meta.Album = &v
			}
			if v := strings.TrimSpace(m.Genre()); v != "" {
				meta.Genre = &v
			}
			if y := m.Year(); y > 0 {
				ys := strconv.Itoa(y)
				meta.Year = &ys
			}
		} else {
			logger.Debug("No readable tags in audio file", "path", path, "error", tagErr)
		}
	}

	if meta.Title == nil {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if stem != "" {
			meta.Title = &stem
		}
	}
	if meta.Artist == nil {
		parent := filepath.Base(filepath.Dir(path))
		if parent != "" && parent != "." && !strings.ContainsAny(parent, unsafeArtistChars) {
			meta.Artist = &parent
		}
	}

	// Duration is best effort: tags rarely carry it, ffprobe usually does.
	if probe, err := runFFProbe(e.FFProbePath, path); err == nil {
		if d, ok := probe.durationSeconds(); ok {
			meta.Duration = &d
		}
	}

	return ItemMetadata{Audio: meta}, nil
}
