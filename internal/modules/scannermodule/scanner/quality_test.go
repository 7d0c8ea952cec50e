package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityLabelExactMatches(t *testing.T) {
	cases := []struct {
		width, height int
		want          string
	}{
		{7680, 4320, "8K"},
		{3840, 2160, "4K"},
		{2560, 1440, "2K"},
		{1920, 1080, "1080p"},
		{1280, 720, "720p"},
		{854, 480, "480p"},
		{640, 360, "360p"},
		{426, 240, "240p"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QualityLabel(tc.width, tc.height),
			"for %dx%d", tc.width, tc.height)
	}
}

func TestQualityLabelNearMatches(t *testing.T) {
	// Off-by-one encodes still snap to the standard label.
	assert.Equal(t, "1080p", QualityLabel(1921, 1080))
	assert.Equal(t, "1080p", QualityLabel(1920, 1072))
	assert.Equal(t, "4K", QualityLabel(3840, 2158))
}

func TestQualityLabelUltrawide(t *testing.T) {
	assert.Equal(t, "1080p Ultrawide", QualityLabel(2560, 1080))
	assert.Equal(t, "2K Ultrawide", QualityLabel(3440, 1440))
	assert.Equal(t, "4K Ultrawide", QualityLabel(5120, 2160))
}

func TestQualityLabelPortraitSwapsAxes(t *testing.T) {
	assert.Equal(t, "1080p", QualityLabel(1080, 1920))
	assert.Equal(t, "4K", QualityLabel(2160, 3840))
}

func TestQualityLabelCustomFallback(t *testing.T) {
	// Far from every rung on both axes.
	assert.Equal(t, "Custom (500x333)", QualityLabel(500, 333))
	// The fallback keeps the original orientation.
	assert.Equal(t, "Custom (333x500)", QualityLabel(333, 500))
}

func TestQualityLabelDegenerateDimensions(t *testing.T) {
	assert.Equal(t, "Custom (0x0)", QualityLabel(0, 0))
	assert.Equal(t, "Custom (-1x1080)", QualityLabel(-1, 1080))
}
