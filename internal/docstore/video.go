package docstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/namespace"
)

// CreateVideoInput carries everything needed to publish a new video.
type CreateVideoInput struct {
	Tenant      string
	Filename    string // original upload filename; drives the derived ID
	Title       string
	Description string

	Media       io.Reader
	Size        int64
	ContentType string

	// Duration is the probed MM:SS duration; empty when probing failed.
	Duration string
}

// CreateVideo uploads the media object and writes the video record plus its
// empty comment thread. The identifier derives from the upload date and the
// source filename; same-day collisions get a numeric suffix.
//
// The write is non-transactional. The media object is the primary write; a
// later failure leaves partial state behind rather than rolling back.
func (s *Store) CreateVideo(ctx context.Context, in CreateVideoInput) (*model.VideoRecord, error) {
	if !namespace.ValidTenant(in.Tenant) {
		return nil, fmt.Errorf("%w: %q", namespace.ErrInvalidTenant, in.Tenant)
	}
	if err := model.ValidateTitle(in.Title); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	videoID, err := s.reserveVideoID(ctx, in.Tenant, namespace.VideoID(now, in.Filename))
	if err != nil {
		return nil, err
	}

	ext := path.Ext(in.Filename)
	if ext == "" {
		ext = ".mp4"
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	mediaKey := namespace.VideoKey(in.Tenant, videoID, ext)
	if err := s.storage.Put(ctx, mediaKey, in.Media, in.Size, contentType); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrUploadFailed, mediaKey, err)
	}

	record := &model.VideoRecord{
		VideoID:     videoID,
		UserID:      in.Tenant,
		Title:       in.Title,
		Description: in.Description,
		UploadDate:  now,
		FilePath:    mediaKey,
		FileSize:    in.Size,
		MimeType:    contentType,
		Duration:    in.Duration,
		Status:      model.StatusPublished,
	}

	if err := s.putJSON(ctx, namespace.MetadataKey(in.Tenant, videoID), record); err != nil {
		return nil, err
	}
	if err := s.putJSON(ctx, namespace.CommentsKey(in.Tenant, videoID), model.NewCommentThread(videoID)); err != nil {
		slog.Warn("failed to initialize comment thread", "tenant", in.Tenant, "video_id", videoID, "error", err)
	}

	if _, err := s.RecomputeStats(ctx, in.Tenant); err != nil {
		slog.Warn("failed to recompute stats after upload", "tenant", in.Tenant, "error", err)
	}

	slog.Info("video created", "tenant", in.Tenant, "video_id", videoID, "size", in.Size)
	return record, nil
}

// reserveVideoID disambiguates same-day uploads of a same-named file by
// appending a numeric suffix until the metadata key is free.
func (s *Store) reserveVideoID(ctx context.Context, tenant, baseID string) (string, error) {
	if !namespace.IsVideoIDValid(baseID) {
		return "", fmt.Errorf("%w: derived id %q", namespace.ErrInvalidFilename, baseID)
	}

	candidate := baseID
	for i := 2; ; i++ {
		exists, err := s.storage.Exists(ctx, namespace.MetadataKey(tenant, candidate))
		if err != nil {
			return "", fmt.Errorf("failed to check video id %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", baseID, i)
	}
}

// GetVideo reads a video record.
func (s *Store) GetVideo(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error) {
	var record model.VideoRecord
	if err := s.getJSON(ctx, namespace.MetadataKey(tenant, videoID), &record); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrVideoNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListVideos scans the tenant's metadata collection and returns all records,
// newest first. Malformed documents are skipped with a log line; there is no
// secondary index, so the cost is O(records).
func (s *Store) ListVideos(ctx context.Context, tenant string) ([]*model.VideoRecord, error) {
	prefix := namespace.CollectionPrefix(tenant, namespace.CollectionMetadata)

	var records []*model.VideoRecord
	for info := range s.storage.ListByPrefix(ctx, prefix, true) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list videos for %s: %w", tenant, info.Err)
		}
		if !strings.HasSuffix(info.Key, ".json") {
			continue // folder marker or stray object
		}

		var record model.VideoRecord
		if err := s.getJSON(ctx, info.Key, &record); err != nil {
			slog.Warn("skipping unreadable video record", "key", info.Key, "error", err)
			continue
		}
		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].UploadDate.After(records[j].UploadDate)
	})
	return records, nil
}

// DeleteVideo removes the record and every object attached to it: primary
// media, renditions, thumbnail and the comment thread. The deletion is
// best-effort; a failure on a secondary object is logged and skipped, and the
// operation succeeds once the record document itself is gone.
func (s *Store) DeleteVideo(ctx context.Context, tenant, videoID string) error {
	record, err := s.GetVideo(ctx, tenant, videoID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(record.QualityVariants)+3)
	if record.FilePath != "" {
		keys = append(keys, record.FilePath)
	}
	for _, variant := range record.QualityVariants {
		keys = append(keys, variant.Path)
	}
	if record.ThumbnailPath != "" {
		keys = append(keys, record.ThumbnailPath)
	}
	keys = append(keys, namespace.CommentsKey(tenant, videoID))

	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete attached object", "tenant", tenant, "video_id", videoID, "key", key, "error", err)
		}
	}

	if err := s.storage.Delete(ctx, namespace.MetadataKey(tenant, videoID)); err != nil {
		return fmt.Errorf("failed to delete video record: %w", err)
	}

	if _, err := s.RecomputeStats(ctx, tenant); err != nil {
		slog.Warn("failed to recompute stats after delete", "tenant", tenant, "error", err)
	}

	slog.Info("video deleted", "tenant", tenant, "video_id", videoID)
	return nil
}

// AttachThumbnail uploads the preview image and records it on the video.
func (s *Store) AttachThumbnail(ctx context.Context, tenant, videoID string, img io.Reader, size int64, contentType string) error {
	thumbKey := namespace.PreviewKey(tenant, videoID, extForContentType(contentType))
	if err := s.storage.Put(ctx, thumbKey, img, size, contentType); err != nil {
		return fmt.Errorf("%w: %s: %v", repository.ErrUploadFailed, thumbKey, err)
	}

	return s.updateRecord(ctx, tenant, videoID, func(record *model.VideoRecord) {
		record.ThumbnailPath = thumbKey
		record.ThumbnailMimeType = contentType
	})
}

// AttachQualityVariants merges newly produced renditions into the record.
// An empty map is a no-op and the record is not rewritten.
func (s *Store) AttachQualityVariants(ctx context.Context, tenant, videoID string, variants map[string]model.QualityVariant) error {
	if len(variants) == 0 {
		return nil
	}
	return s.updateRecord(ctx, tenant, videoID, func(record *model.VideoRecord) {
		record.MergeVariants(variants)
	})
}

// IncrementViews bumps the record's denormalized view counter and returns
// the new total.
func (s *Store) IncrementViews(ctx context.Context, tenant, videoID string) (int64, error) {
	var views int64
	err := s.updateRecord(ctx, tenant, videoID, func(record *model.VideoRecord) {
		record.Views++
		views = record.Views
	})
	return views, err
}

// AdjustReactions applies like/dislike deltas to the record's counters,
// clamping at zero.
func (s *Store) AdjustReactions(ctx context.Context, tenant, videoID string, likesDelta, dislikesDelta int64) (*model.VideoRecord, error) {
	var updated *model.VideoRecord
	err := s.updateRecord(ctx, tenant, videoID, func(record *model.VideoRecord) {
		record.Likes = max(0, record.Likes+likesDelta)
		record.Dislikes = max(0, record.Dislikes+dislikesDelta)
		updated = record
	})
	return updated, err
}

// updateRecord runs one serialized read-modify-write cycle on a video record.
func (s *Store) updateRecord(ctx context.Context, tenant, videoID string, mutate func(*model.VideoRecord)) error {
	key := namespace.MetadataKey(tenant, videoID)
	unlock := s.locks.lock(key)
	defer unlock()

	var record model.VideoRecord
	if err := s.getJSON(ctx, key, &record); err != nil {
		if isNotFound(err) {
			return repository.ErrVideoNotFound
		}
		return err
	}

	mutate(&record)

	return s.putJSON(ctx, key, &record)
}
