package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/cache"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
	"github.com/TheRizaev/kronik/internal/namespace"
	"github.com/TheRizaev/kronik/internal/transcoder"
)

// TranscodeService consumes transcode tasks and produces quality renditions.
type TranscodeService interface {
	ProcessTask(ctx context.Context, task repository.TranscodeTask) error
}

// TranscodeServiceConfig holds configuration for TranscodeService.
type TranscodeServiceConfig struct {
	// TempDir is the working directory for downloaded sources and renditions.
	TempDir string

	// MaxRetries caps how many times a failed task is re-attempted before
	// being dropped.
	MaxRetries int
}

// DefaultTranscodeServiceConfig returns the default configuration.
func DefaultTranscodeServiceConfig() TranscodeServiceConfig {
	return TranscodeServiceConfig{
		TempDir:    os.TempDir(),
		MaxRetries: 3,
	}
}

type transcodeService struct {
	docs    DocumentStore
	storage repository.ObjectStorage
	cache   cache.RecordCache
	prober  transcoder.Prober
	encoder transcoder.Encoder
	presets []transcoder.Preset

	tempDir    string
	maxRetries int
}

// NewTranscodeService creates a new TranscodeService instance.
func NewTranscodeService(
	docs DocumentStore,
	storage repository.ObjectStorage,
	recordCache cache.RecordCache,
	prober transcoder.Prober,
	encoder transcoder.Encoder,
	cfg TranscodeServiceConfig,
) TranscodeService {
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &transcodeService{
		docs:       docs,
		storage:    storage,
		cache:      recordCache,
		prober:     prober,
		encoder:    encoder,
		presets:    transcoder.DefaultPresets(),
		tempDir:    tempDir,
		maxRetries: maxRetries,
	}
}

// ProcessTask downloads the source, encodes every preset at or below the
// source resolution, uploads the renditions and attaches them to the record.
//
// A nil return acknowledges the task. An error return asks the queue to
// republish it with an incremented retry count, so only failures that a retry
// could fix (no rendition produced despite attempts) propagate. Per-preset
// failures are skipped: the remaining ladder is still worth publishing.
func (s *transcodeService) ProcessTask(ctx context.Context, task repository.TranscodeTask) error {
	log := slog.With("tenant", task.Tenant, "video_id", task.VideoID)

	if task.RetryCount >= s.maxRetries {
		log.Error("dropping transcode task after max retries", "retry_count", task.RetryCount)
		return nil
	}

	if _, err := s.docs.GetVideo(ctx, task.Tenant, task.VideoID); err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			log.Warn("video deleted before transcoding, dropping task")
			return nil
		}
		return fmt.Errorf("load video record: %w", err)
	}

	workDir, err := os.MkdirTemp(s.tempDir, "transcode-")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	sourcePath := filepath.Join(workDir, "source"+filepath.Ext(task.SourceKey))
	if err := s.download(ctx, task.SourceKey, sourcePath); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			log.Warn("source media missing, dropping task", "source_key", task.SourceKey)
			return nil
		}
		return fmt.Errorf("download source: %w", err)
	}

	info, err := s.prober.Probe(ctx, sourcePath)
	if err != nil {
		// An unprobeable file will not become probeable on retry; the video
		// keeps playing from its original media.
		log.Error("source probe failed, dropping task", "error", err)
		return nil
	}

	selected := transcoder.SelectPresets(s.presets, info.Height)
	if len(selected) == 0 {
		log.Info("source below the smallest rendition, nothing to encode", "source_height", info.Height)
		return nil
	}

	variants := make(map[string]model.QualityVariant, len(selected))
	for _, preset := range selected {
		variant, err := s.encodePreset(ctx, task, sourcePath, workDir, preset)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("encode %s: %w", preset.Name, err)
			}
			metrics.EncodeJobsTotal.WithLabelValues(preset.Name, metrics.ResultError).Inc()
			log.Error("preset encode failed, skipping", "preset", preset.Name, "error", err)
			continue
		}
		metrics.EncodeJobsTotal.WithLabelValues(preset.Name, metrics.ResultSuccess).Inc()
		variants[preset.Name] = variant
	}

	if len(variants) == 0 {
		return fmt.Errorf("%w: no rendition produced for %s/%s", repository.ErrEncodeFailed, task.Tenant, task.VideoID)
	}

	if err := s.docs.AttachQualityVariants(ctx, task.Tenant, task.VideoID, variants); err != nil {
		return fmt.Errorf("attach quality variants: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, task.Tenant, task.VideoID); err != nil {
			log.Warn("failed to invalidate record cache", "error", err)
		}
	}

	log.Info("transcoding complete", "renditions", len(variants))
	return nil
}

// encodePreset produces and uploads one rendition.
func (s *transcodeService) encodePreset(
	ctx context.Context,
	task repository.TranscodeTask,
	sourcePath, workDir string,
	preset transcoder.Preset,
) (model.QualityVariant, error) {
	outputPath := filepath.Join(workDir, fmt.Sprintf("%s_%s.mp4", task.VideoID, preset.Name))
	if err := s.encoder.Encode(ctx, sourcePath, outputPath, preset); err != nil {
		return model.QualityVariant{}, err
	}

	file, err := os.Open(outputPath)
	if err != nil {
		return model.QualityVariant{}, fmt.Errorf("open rendition: %w", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return model.QualityVariant{}, fmt.Errorf("stat rendition: %w", err)
	}

	key := namespace.RenditionKey(task.Tenant, task.VideoID, preset.Name)
	if err := s.storage.Put(ctx, key, file, stat.Size(), "video/mp4"); err != nil {
		return model.QualityVariant{}, fmt.Errorf("upload rendition: %w", err)
	}

	return model.QualityVariant{
		Path:       key,
		Resolution: fmt.Sprintf("%dx%d", preset.Width, preset.Height),
		Bitrate:    preset.VideoBitrate,
	}, nil
}

// download streams an object into a local file.
func (s *transcodeService) download(ctx context.Context, key, localPath string) error {
	reader, err := s.storage.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		_ = file.Close()
		return fmt.Errorf("copy object: %w", err)
	}
	return file.Close()
}
