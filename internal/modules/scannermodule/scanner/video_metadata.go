package scanner

// VideoExtractor reads technical metadata for video files through
// ffprobe. A probe failure is returned to the caller; the file is
// counted as failed and skipped rather than cataloged half-empty.
type VideoExtractor struct {
	FFProbePath string
}

func NewVideoExtractor(ffprobePath string) *VideoExtractor {
	return &VideoExtractor{FFProbePath: ffprobePath}
}

func (e *VideoExtractor) Extract(path string) (ItemMetadata, error) {
	probe, err := runFFProbe(e.FFProbePath, path)
	if err != nil {
		return ItemMetadata{}, err
	}

	meta := &VideoMetadata{}
	if d, ok := probe.durationSeconds(); ok {
		meta.Duration = &d
	}
	if b, ok := probe.bitRate(); ok {
		meta.Bitrate = &b
	}

	if vs := probe.videoStream(); vs != nil {
		if vs.Width > 0 && vs.Height > 0 {
			w, h := vs.Width, vs.Height
			meta.Width = &w
			meta.Height = &h
			label := QualityLabel(w, h)
			meta.QualityLabel = &label
		}
		if vs.CodecName != "" {
			codec := vs.CodecName
			meta.Codec = &codec
		}
		rate := vs.AvgFrameRate
		if rate == "" || rate == "0/0" {
			rate = vs.RFrameRate
		}
		if fps, ok := parseFrameRate(rate); ok {
			meta.FrameRate = &fps
		}
	}

	return ItemMetadata{Video: meta}, nil
}
