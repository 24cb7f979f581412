// Package transcoder probes and re-encodes uploaded videos into the fixed
// quality ladder using the ffmpeg and ffprobe CLIs.
package transcoder

// Preset is one rung of the quality ladder.
type Preset struct {
	// Name is the identifier stored on records and in object keys (e.g. "720p").
	Name string
	// Width and Height are the target frame dimensions. Sources with a
	// different aspect ratio are letterboxed, never stretched.
	Width  int
	Height int
	// VideoBitrate and AudioBitrate are ffmpeg bitrate strings (e.g. "2500k").
	VideoBitrate string
	AudioBitrate string
}

// DefaultPresets returns the full quality ladder, lowest first.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "360p", Width: 640, Height: 360, VideoBitrate: "800k", AudioBitrate: "96k"},
		{Name: "720p", Width: 1280, Height: 720, VideoBitrate: "2500k", AudioBitrate: "128k"},
		{Name: "1080p", Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k"},
		{Name: "2160p", Width: 3840, Height: 2160, VideoBitrate: "12000k", AudioBitrate: "256k"},
	}
}

// SelectPresets filters the ladder to rungs that do not upscale: a preset is
// kept when its target height is at most the source height.
func SelectPresets(presets []Preset, sourceHeight int) []Preset {
	var selected []Preset
	for _, p := range presets {
		if p.Height <= sourceHeight {
			selected = append(selected, p)
		}
	}
	return selected
}
