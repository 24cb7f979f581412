package transcoder

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// MediaInfo describes the first video stream of a probed file.
type MediaInfo struct {
	Width     int
	Height    int
	Codec     string
	FrameRate float64
	// Duration is the container duration in seconds.
	Duration float64
}

// Prober extracts stream information from a media file.
type Prober interface {
	Probe(ctx context.Context, inputPath string) (*MediaInfo, error)
}

// FFprobe implements Prober using the ffprobe CLI.
type FFprobe struct {
	path string
}

// Compile-time verification that FFprobe implements Prober.
var _ Prober = (*FFprobe)(nil)

// NewFFprobe creates an FFprobe. An empty path falls back to "ffprobe" in PATH.
func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{path: path}
}

// probeOutput mirrors the subset of ffprobe's JSON output we consume.
type probeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		CodecName string `json:"codec_name"`
		FrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe runs ffprobe against inputPath and parses its JSON output.
func (p *FFprobe) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	args := []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,codec_name,r_frame_rate",
		"-show_entries", "format=duration",
		"-of", "json",
		inputPath,
	}

	out, err := exec.CommandContext(ctx, p.path, args...).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("probe cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("ffprobe execution failed: %w", err)
	}

	var parsed probeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", inputPath)
	}

	stream := parsed.Streams[0]
	info := &MediaInfo{
		Width:     stream.Width,
		Height:    stream.Height,
		Codec:     stream.CodecName,
		FrameRate: parseFrameRate(stream.FrameRate),
	}
	if parsed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
			info.Duration = d
		}
	}
	return info, nil
}

// parseFrameRate evaluates ffprobe's rational frame rate ("30000/1001").
// Malformed values yield 0.
func parseFrameRate(raw string) float64 {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
		return 0
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// FormatDuration renders a duration in seconds as MM:SS, the display format
// stored on video records. Negative or NaN inputs yield "00:00"; minutes are
// not capped at 59.
func FormatDuration(seconds float64) string {
	if seconds < 0 || seconds != seconds {
		return "00:00"
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
