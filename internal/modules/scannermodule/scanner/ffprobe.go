package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ffprobeOutput mirrors the slice of ffprobe's JSON output we care
// about. Fields that ffprobe emits as strings stay strings and are
// parsed on demand.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

const ffprobeTimeout = 30 * time.Second

func runFFProbe(ffprobePath, mediaPath string) (*ffprobeOutput, error) {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	ctx, cancel := context.WithTimeout(context.Background(), ffprobeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		mediaPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", mediaPath, err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("parse ffprobe output for %s: %w", mediaPath, err)
	}
	return &probe, nil
}

func (p *ffprobeOutput) videoStream() *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == "video" {
			return &p.Streams[i]
		}
	}
	return nil
}

func (p *ffprobeOutput) durationSeconds() (float64, bool) {
	d, err := strconv.ParseFloat(p.Format.Duration, 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

func (p *ffprobeOutput) bitRate() (int64, bool) {
	b, err := strconv.ParseInt(p.Format.BitRate, 10, 64)
	if err != nil || b <= 0 {
		return 0, false
	}
	return b, true
}

// parseFrameRate converts ffprobe's rational frame rate ("30000/1001")
// into frames per second.
func parseFrameRate(rate string) (float64, bool) {
	if rate == "" || rate == "0/0" {
		return 0, false
	}
	parts := strings.SplitN(rate, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || num <= 0 {
		return 0, false
	}
	if len(parts) == 1 {
		return num, true
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den <= 0 {
		return 0, false
	}
	return num / den, true
}
