package scanner

import (
	"fmt"
	"math"
)

// standardResolution is one entry in the ranked resolution ladder.
// Priority weights common broadcast resolutions above the ultrawide
// variants so a near-miss snaps to the familiar label.
type standardResolution struct {
	label    string
	width    int
	height   int
	priority float64
}

var standardResolutions = []standardResolution{
	{"8K", 7680, 4320, 1.0},
	{"4K", 3840, 2160, 1.0},
	{"4K Ultrawide", 5120, 2160, 0.9},
	{"2K", 2560, 1440, 0.95},
	{"2K Ultrawide", 3440, 1440, 0.9},
	{"1080p", 1920, 1080, 1.0},
	{"1080p Ultrawide", 2560, 1080, 0.9},
	{"720p", 1280, 720, 1.0},
	{"480p", 854, 480, 0.95},
	{"360p", 640, 360, 0.9},
	{"240p", 426, 240, 0.85},
}

const (
	aspectWeight    = 0.6
	dimensionWeight = 0.4

	// Tolerance multipliers sharpen the closeness curves so that only
	// genuine near-misses of a standard resolution pass the threshold.
	aspectTolerance    = 5.0
	dimensionTolerance = 2.0

	qualityScoreThreshold = 0.7
)

// QualityLabel matches a frame size against the standard resolution
// ladder. Portrait input is normalized by swapping the axes. Dimensions
// that match nothing above the threshold get a "Custom (WxH)" label with
// the original orientation preserved.
func QualityLabel(width, height int) string {
	if width <= 0 || height <= 0 {
		return fmt.Sprintf("Custom (%dx%d)", width, height)
	}

	w, h := width, height
	if h > w {
		w, h = h, w
	}
	aspect := float64(w) / float64(h)

	bestWeighted := -1.0
	bestScore := 0.0
	bestLabel := ""
	for _, std := range standardResolutions {
		stdAspect := float64(std.width) / float64(std.height)

		aspectScore := 1 - math.Abs(aspect-stdAspect)/stdAspect*aspectTolerance
		if aspectScore < 0 {
			aspectScore = 0
		}

		widthDiff := math.Abs(float64(w-std.width)) / float64(std.width)
		heightDiff := math.Abs(float64(h-std.height)) / float64(std.height)
		dimensionScore := 1 - (widthDiff+heightDiff)/2*dimensionTolerance
		if dimensionScore < 0 {
			dimensionScore = 0
		}

		score := aspectWeight*aspectScore + dimensionWeight*dimensionScore
		weighted := score * std.priority
		if weighted > bestWeighted {
			bestWeighted = weighted
			bestScore = score
			bestLabel = std.label
		}
	}

	// The threshold applies to the priority-normalized score so a low
	// priority entry cannot be rejected simply for being low priority.
	if bestScore > qualityScoreThreshold {
		return bestLabel
	}
	return fmt.Sprintf("Custom (%dx%d)", width, height)
}
