package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/transcoder"
)

func TestUploadService_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("successful upload publishes record and task", func(t *testing.T) {
		var captured docstore.CreateVideoInput
		docs := &mockDocumentStore{
			createVideoFunc: func(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error) {
				captured = in
				body, err := io.ReadAll(in.Media)
				if err != nil {
					t.Fatalf("failed to read spooled media: %v", err)
				}
				if string(body) != "fake-video-bytes" {
					t.Errorf("media content = %q, want original bytes", body)
				}
				return &model.VideoRecord{
					VideoID:  "2024-03-01_tour",
					UserID:   "@alice",
					FilePath: "@alice/videos/2024-03-01_tour.mp4",
				}, nil
			},
		}
		queue := &mockMessageQueue{}
		prober := &mockProber{
			probeFunc: func(ctx context.Context, inputPath string) (*transcoder.MediaInfo, error) {
				return &transcoder.MediaInfo{Width: 1920, Height: 1080, Duration: 83}, nil
			},
		}

		svc := NewUploadService(docs, queue, prober, UploadServiceConfig{TempDir: t.TempDir()})

		record, err := svc.Upload(ctx, UploadInput{
			Tenant:      "@alice",
			Filename:    "tour.mp4",
			Title:       "Studio tour",
			ContentType: "video/mp4",
			Media:       strings.NewReader("fake-video-bytes"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.VideoID != "2024-03-01_tour" {
			t.Errorf("video ID = %q", record.VideoID)
		}

		if captured.Duration != "01:23" {
			t.Errorf("duration = %q, want %q", captured.Duration, "01:23")
		}
		if captured.Size != int64(len("fake-video-bytes")) {
			t.Errorf("size = %d, want %d", captured.Size, len("fake-video-bytes"))
		}

		if len(queue.published) != 1 {
			t.Fatalf("published %d tasks, want 1", len(queue.published))
		}
		task := queue.published[0]
		if task.Tenant != "@alice" || task.VideoID != "2024-03-01_tour" {
			t.Errorf("task = %+v", task)
		}
		if task.SourceKey != "@alice/videos/2024-03-01_tour.mp4" {
			t.Errorf("source key = %q", task.SourceKey)
		}
		if task.RetryCount != 0 {
			t.Errorf("retry count = %d, want 0", task.RetryCount)
		}
	})

	t.Run("probe failure leaves duration empty", func(t *testing.T) {
		var captured docstore.CreateVideoInput
		docs := &mockDocumentStore{
			createVideoFunc: func(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error) {
				captured = in
				return &model.VideoRecord{VideoID: "2024-03-01_clip", UserID: "@alice"}, nil
			},
		}
		prober := &mockProber{
			probeFunc: func(ctx context.Context, inputPath string) (*transcoder.MediaInfo, error) {
				return nil, errors.New("ffprobe exploded")
			},
		}

		svc := NewUploadService(docs, &mockMessageQueue{}, prober, UploadServiceConfig{TempDir: t.TempDir()})

		if _, err := svc.Upload(ctx, UploadInput{
			Tenant:   "@alice",
			Filename: "clip.mp4",
			Title:    "Clip",
			Media:    strings.NewReader("bytes"),
		}); err != nil {
			t.Fatalf("probe failure must not fail the upload: %v", err)
		}
		if captured.Duration != "" {
			t.Errorf("duration = %q, want empty", captured.Duration)
		}
	})

	t.Run("queue failure does not fail the upload", func(t *testing.T) {
		docs := &mockDocumentStore{
			createVideoFunc: func(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error) {
				return &model.VideoRecord{VideoID: "2024-03-01_clip", UserID: "@alice"}, nil
			},
		}
		queue := &mockMessageQueue{
			publishFunc: func(ctx context.Context, task repository.TranscodeTask) error {
				return errors.New("broker unreachable")
			},
		}
		svc := NewUploadService(docs, queue, &mockProber{}, UploadServiceConfig{TempDir: t.TempDir()})

		record, err := svc.Upload(ctx, UploadInput{
			Tenant:   "@alice",
			Filename: "clip.mp4",
			Title:    "Clip",
			Media:    strings.NewReader("bytes"),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record == nil {
			t.Fatal("expected record")
		}
	})

	t.Run("store failure propagates", func(t *testing.T) {
		storeErr := errors.New("bucket on fire")
		docs := &mockDocumentStore{
			createVideoFunc: func(ctx context.Context, in docstore.CreateVideoInput) (*model.VideoRecord, error) {
				return nil, storeErr
			},
		}
		svc := NewUploadService(docs, &mockMessageQueue{}, &mockProber{}, UploadServiceConfig{TempDir: t.TempDir()})

		if _, err := svc.Upload(ctx, UploadInput{
			Tenant:   "@alice",
			Filename: "clip.mp4",
			Title:    "Clip",
			Media:    strings.NewReader("bytes"),
		}); !errors.Is(err, storeErr) {
			t.Errorf("error = %v, want store error", err)
		}
	})
}
