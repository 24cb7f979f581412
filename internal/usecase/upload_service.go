// Package usecase wires the document store, queue, cache and transcoder into
// the application's service layer.
package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/transcoder"
)

// DocumentStore is the slice of the document store the services consume.
// *docstore.Store satisfies it; tests substitute mocks.
type DocumentStore interface {
	CreateVideo(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error)
	GetVideo(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error)
	AttachQualityVariants(ctx context.Context, tenant, videoID string, variants map[string]model.QualityVariant) error
	IncrementViews(ctx context.Context, tenant, videoID string) (int64, error)
	AdjustReactions(ctx context.Context, tenant, videoID string, likesDelta, dislikesDelta int64) (*model.VideoRecord, error)
}

// UploadInput contains the input parameters for publishing a video.
type UploadInput struct {
	Tenant      string
	Filename    string
	Title       string
	Description string

	Media       io.Reader
	ContentType string
}

// UploadService publishes uploaded videos and enqueues their transcoding.
type UploadService interface {
	Upload(ctx context.Context, input UploadInput) (*model.VideoRecord, error)
}

// UploadServiceConfig holds configuration for UploadService.
type UploadServiceConfig struct {
	// TempDir is where uploads are spooled for probing before storage.
	TempDir string
}

// DefaultUploadServiceConfig returns the default configuration.
func DefaultUploadServiceConfig() UploadServiceConfig {
	return UploadServiceConfig{
		TempDir: os.TempDir(),
	}
}

type uploadService struct {
	docs   DocumentStore
	queue  repository.MessageQueue
	prober transcoder.Prober

	tempDir string
}

// NewUploadService creates a new UploadService instance.
func NewUploadService(
	docs DocumentStore,
	queue repository.MessageQueue,
	prober transcoder.Prober,
	cfg UploadServiceConfig,
) UploadService {
	return &uploadService{
		docs:    docs,
		queue:   queue,
		prober:  prober,
		tempDir: cfg.TempDir,
	}
}

// Upload spools the media to disk, probes its duration, publishes the record
// and enqueues the transcoding task.
//
// Probe and queue failures never fail the upload: a video without a duration
// or without renditions still plays from its original media.
func (s *uploadService) Upload(ctx context.Context, input UploadInput) (*model.VideoRecord, error) {
	localPath, size, err := s.spool(input.Media)
	if err != nil {
		return nil, fmt.Errorf("%w: spool upload: %v", repository.ErrUploadFailed, err)
	}
	defer func() { _ = os.Remove(localPath) }()

	duration := ""
	if info, err := s.prober.Probe(ctx, localPath); err != nil {
		slog.Warn("duration probe failed", "tenant", input.Tenant, "filename", input.Filename, "error", err)
	} else {
		duration = transcoder.FormatDuration(info.Duration)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reopen spooled upload: %v", repository.ErrUploadFailed, err)
	}
	defer func() { _ = file.Close() }()

	record, err := s.docs.CreateVideo(ctx, docstore.CreateVideoInput{
		Tenant:      input.Tenant,
		Filename:    input.Filename,
		Title:       input.Title,
		Description: input.Description,
		Media:       file,
		Size:        size,
		ContentType: input.ContentType,
		Duration:    duration,
	})
	if err != nil {
		return nil, err
	}

	task := repository.TranscodeTask{
		Tenant:    record.UserID,
		VideoID:   record.VideoID,
		SourceKey: record.FilePath,
	}
	if err := s.queue.PublishTranscodeTask(ctx, task); err != nil {
		// The upload already succeeded; the video plays from its original
		// media until a transcode is re-triggered.
		slog.Error("failed to enqueue transcode task",
			"tenant", record.UserID,
			"video_id", record.VideoID,
			"error", err,
		)
	}

	return record, nil
}

// spool copies the upload to a temp file and returns its path and size.
func (s *uploadService) spool(media io.Reader) (string, int64, error) {
	file, err := os.CreateTemp(s.tempDir, "upload-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(file, media)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", 0, fmt.Errorf("copy to temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", 0, fmt.Errorf("close temp file: %w", err)
	}

	return filepath.Clean(file.Name()), size, nil
}
