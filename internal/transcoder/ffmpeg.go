package transcoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/TheRizaev/kronik/internal/domain/repository"
)

// EncoderConfig holds configuration for the FFmpeg encoder.
type EncoderConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// VideoCodec is the video codec to use. Default: libx264
	VideoCodec string

	// AudioCodec is the audio codec to use. Default: aac
	AudioCodec string

	// Speed controls the encoding speed/quality tradeoff.
	// Options: ultrafast, superfast, veryfast, faster, fast, medium, slow, slower, veryslow
	// Default: medium
	Speed string
}

// DefaultEncoderConfig returns an EncoderConfig with production-ready defaults.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		FFmpegPath: "ffmpeg",
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Speed:      "medium",
	}
}

// Encoder produces one quality rendition of a source file.
type Encoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, preset Preset) error
}

// FFmpegEncoder implements Encoder using the ffmpeg CLI.
type FFmpegEncoder struct {
	config EncoderConfig
}

// Compile-time verification that FFmpegEncoder implements Encoder.
var _ Encoder = (*FFmpegEncoder)(nil)

// NewFFmpegEncoder creates a new FFmpeg-based encoder.
func NewFFmpegEncoder(cfg EncoderConfig) *FFmpegEncoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.VideoCodec == "" {
		cfg.VideoCodec = "libx264"
	}
	if cfg.AudioCodec == "" {
		cfg.AudioCodec = "aac"
	}
	if cfg.Speed == "" {
		cfg.Speed = "medium"
	}
	return &FFmpegEncoder{config: cfg}
}

// Encode re-encodes inputPath into one preset rendition at outputPath.
// A non-zero ffmpeg exit or an empty output file surfaces
// repository.ErrEncodeFailed so callers can skip the preset and continue.
func (e *FFmpegEncoder) Encode(ctx context.Context, inputPath, outputPath string, preset Preset) error {
	if err := e.validateInput(inputPath); err != nil {
		return err
	}

	args := e.buildEncodeArgs(inputPath, outputPath, preset)

	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	cmd.Stdout = nil // Discard stdout
	cmd.Stderr = nil // Discard stderr (FFmpeg outputs progress to stderr)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("encoding cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("%w: preset %s: %v", repository.ErrEncodeFailed, preset.Name, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("%w: preset %s: output missing: %v", repository.ErrEncodeFailed, preset.Name, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: preset %s: output empty", repository.ErrEncodeFailed, preset.Name)
	}

	return nil
}

// buildEncodeArgs constructs the FFmpeg command arguments for one preset.
// The filter scales the source to fit inside the target frame and pads the
// remainder, so off-ratio sources are letterboxed rather than stretched.
func (e *FFmpegEncoder) buildEncodeArgs(inputPath, outputPath string, preset Preset) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		preset.Width, preset.Height, preset.Width, preset.Height,
	)

	return []string{
		"-i", inputPath,
		"-vf", filter,
		"-c:v", e.config.VideoCodec,
		"-preset", e.config.Speed,
		"-b:v", preset.VideoBitrate,
		"-c:a", e.config.AudioCodec,
		"-b:a", preset.AudioBitrate,
		"-movflags", "+faststart",
		"-y", // Overwrite output files without asking
		outputPath,
	}
}

// validateInput checks if the input file exists and is readable.
func (e *FFmpegEncoder) validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}

	return nil
}
