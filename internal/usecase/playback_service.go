package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/cache"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
	"github.com/TheRizaev/kronik/internal/namespace"
)

// URLSigner mints time-limited URLs for stored objects.
// *signer.Signer satisfies it.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// PlaybackService serves video records and playback URLs, and records
// engagement against them.
type PlaybackService interface {
	GetVideo(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error)
	ResolveURL(ctx context.Context, tenant, videoID, quality string, ttl time.Duration) (string, error)
	RegisterView(ctx context.Context, userID, tenant, videoID string) (int64, error)
	React(ctx context.Context, userID, tenant, videoID string, reaction repository.Reaction) (*model.VideoRecord, error)
}

// PlaybackServiceConfig holds configuration for PlaybackService.
type PlaybackServiceConfig struct {
	// RecordTTL bounds how long a video record stays cached.
	RecordTTL time.Duration
}

// DefaultPlaybackServiceConfig returns the default configuration.
func DefaultPlaybackServiceConfig() PlaybackServiceConfig {
	return PlaybackServiceConfig{
		RecordTTL: 5 * time.Minute,
	}
}

type playbackService struct {
	docs       DocumentStore
	cache      cache.RecordCache
	signer     URLSigner
	engagement repository.EngagementStore
	group      singleflight.Group

	recordTTL time.Duration
}

// NewPlaybackService creates a new PlaybackService instance.
func NewPlaybackService(
	docs DocumentStore,
	recordCache cache.RecordCache,
	urlSigner URLSigner,
	engagement repository.EngagementStore,
	cfg PlaybackServiceConfig,
) PlaybackService {
	ttl := cfg.RecordTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &playbackService{
		docs:       docs,
		cache:      recordCache,
		signer:     urlSigner,
		engagement: engagement,
		recordTTL:  ttl,
	}
}

// GetVideo returns the record from cache when possible, collapsing concurrent
// misses for the same video into a single storage read.
func (s *playbackService) GetVideo(ctx context.Context, tenant, videoID string) (*model.VideoRecord, error) {
	if s.cache != nil {
		if record, err := s.cache.Get(ctx, tenant, videoID); err != nil {
			slog.Warn("record cache read failed", "tenant", tenant, "video_id", videoID, "error", err)
		} else if record != nil {
			return record, nil
		}
	}

	key := tenant + "/" + videoID
	value, err, shared := s.group.Do(key, func() (any, error) {
		record, err := s.docs.GetVideo(ctx, tenant, videoID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, record, s.recordTTL); err != nil {
				slog.Warn("record cache write failed", "tenant", tenant, "video_id", videoID, "error", err)
			}
		}
		return record, nil
	})
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}
	if err != nil {
		return nil, err
	}
	return value.(*model.VideoRecord), nil
}

// ResolveURL picks the rendition to play and signs a URL for it.
//
// Selection order: the requested quality when present, otherwise the highest
// available rendition, otherwise the original upload. A rendition whose
// object has gone missing falls back to the original instead of failing.
func (s *playbackService) ResolveURL(ctx context.Context, tenant, videoID, quality string, ttl time.Duration) (string, error) {
	record, err := s.GetVideo(ctx, tenant, videoID)
	if err != nil {
		return "", err
	}

	key := s.pickKey(record, quality)
	url, err := s.signer.SignedURL(ctx, key, ttl)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, repository.ErrObjectNotFound) || key == record.FilePath {
		return "", err
	}

	slog.Warn("rendition missing, serving original", "tenant", tenant, "video_id", videoID, "key", key)
	return s.signer.SignedURL(ctx, record.FilePath, ttl)
}

// pickKey resolves the storage key for the requested quality.
func (s *playbackService) pickKey(record *model.VideoRecord, quality string) string {
	if !record.HasVariants() {
		return record.FilePath
	}
	if quality != "" {
		if variant, ok := record.QualityVariants[quality]; ok {
			return variant.Path
		}
	}
	if variant, ok := record.QualityVariants[record.HighestQuality]; ok {
		return variant.Path
	}
	return record.FilePath
}

// RegisterView counts a view once per viewer and returns the current total.
// Repeat views by the same viewer return the stored count unchanged.
func (s *playbackService) RegisterView(ctx context.Context, userID, tenant, videoID string) (int64, error) {
	recorded, err := s.engagement.RecordView(ctx, userID, videoID, tenant)
	if err != nil {
		return 0, fmt.Errorf("record view: %w", err)
	}

	if !recorded {
		record, err := s.GetVideo(ctx, tenant, videoID)
		if err != nil {
			return 0, err
		}
		return record.Views, nil
	}

	views, err := s.docs.IncrementViews(ctx, tenant, videoID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, tenant, videoID)
	return views, nil
}

// React sets, switches or clears a viewer's reaction and reconciles the
// aggregate counters on the record.
func (s *playbackService) React(ctx context.Context, userID, tenant, videoID string, reaction repository.Reaction) (*model.VideoRecord, error) {
	if _, err := s.GetVideo(ctx, tenant, videoID); err != nil {
		return nil, err
	}

	previous, err := s.engagement.SetReaction(ctx, userID, videoID, tenant, reaction)
	if err != nil {
		return nil, fmt.Errorf("set reaction: %w", err)
	}
	if previous == reaction {
		return s.GetVideo(ctx, tenant, videoID)
	}

	likesDelta := reactionDelta(previous, reaction, repository.ReactionLike)
	dislikesDelta := reactionDelta(previous, reaction, repository.ReactionDislike)

	record, err := s.docs.AdjustReactions(ctx, tenant, videoID, likesDelta, dislikesDelta)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenant, videoID)
	return record, nil
}

// reactionDelta computes the counter change for one reaction kind.
func reactionDelta(previous, current, kind repository.Reaction) int64 {
	var delta int64
	if previous == kind {
		delta--
	}
	if current == kind {
		delta++
	}
	return delta
}

func (s *playbackService) invalidate(ctx context.Context, tenant, videoID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, tenant, videoID); err != nil {
		slog.Warn("failed to invalidate record cache", "tenant", tenant, "video_id", videoID, "error", err)
	}
}

// SubscriptionService manages channel subscriptions.
type SubscriptionService interface {
	Subscribe(ctx context.Context, subscriberID, channelOwner string) error
	Unsubscribe(ctx context.Context, subscriberID, channelOwner string) error
	SubscriberCount(ctx context.Context, channelOwner string) (int64, error)
}

type subscriptionService struct {
	engagement repository.EngagementStore
}

// NewSubscriptionService creates a new SubscriptionService instance.
func NewSubscriptionService(engagement repository.EngagementStore) SubscriptionService {
	return &subscriptionService{engagement: engagement}
}

func (s *subscriptionService) Subscribe(ctx context.Context, subscriberID, channelOwner string) error {
	if !namespace.ValidTenant(channelOwner) {
		return namespace.ErrInvalidTenant
	}
	return s.engagement.Subscribe(ctx, subscriberID, channelOwner)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, subscriberID, channelOwner string) error {
	if !namespace.ValidTenant(channelOwner) {
		return namespace.ErrInvalidTenant
	}
	return s.engagement.Unsubscribe(ctx, subscriberID, channelOwner)
}

func (s *subscriptionService) SubscriberCount(ctx context.Context, channelOwner string) (int64, error) {
	if !namespace.ValidTenant(channelOwner) {
		return 0, namespace.ErrInvalidTenant
	}
	return s.engagement.CountSubscribers(ctx, channelOwner)
}
