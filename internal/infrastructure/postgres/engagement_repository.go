package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EngagementRepository implements repository.EngagementStore using PostgreSQL.
//
// Views, reactions and subscriptions are relational because they need
// per-user uniqueness, which the document store cannot enforce. The
// denormalized totals on video records are maintained by the callers.
type EngagementRepository struct {
	db DBTX
}

// NewEngagementRepository creates a new EngagementRepository instance.
func NewEngagementRepository(db DBTX) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// RecordView registers a view for (userID, videoID, videoOwner).
// Returns false when the user has already viewed this video.
func (r *EngagementRepository) RecordView(ctx context.Context, userID, videoID, videoOwner string) (bool, error) {
	const query = `
		INSERT INTO video_views (user_id, video_id, video_owner, viewed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, video_id, video_owner) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, userID, videoID, videoOwner, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to record view: %w", err)
	}

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableVideoViews).Inc()
	return tag.RowsAffected() == 1, nil
}

// SetReaction upserts the user's like/dislike state and returns the previous
// reaction so the caller can adjust the video's denormalized counters.
// Setting ReactionNone removes the row.
func (r *EngagementRepository) SetReaction(ctx context.Context, userID, videoID, videoOwner string, reaction repository.Reaction) (repository.Reaction, error) {
	const selectQuery = `
		SELECT reaction FROM video_reactions
		WHERE user_id = $1 AND video_id = $2 AND video_owner = $3
	`

	previous := repository.ReactionNone
	var current string
	err := r.db.QueryRow(ctx, selectQuery, userID, videoID, videoOwner).Scan(&current)
	switch {
	case err == nil:
		previous = repository.Reaction(current)
	case errors.Is(err, pgx.ErrNoRows):
		// No prior reaction
	default:
		return repository.ReactionNone, fmt.Errorf("failed to query reaction: %w", err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableVideoReactions).Inc()

	if reaction == repository.ReactionNone {
		const deleteQuery = `
			DELETE FROM video_reactions
			WHERE user_id = $1 AND video_id = $2 AND video_owner = $3
		`
		if _, err := r.db.Exec(ctx, deleteQuery, userID, videoID, videoOwner); err != nil {
			return repository.ReactionNone, fmt.Errorf("failed to clear reaction: %w", err)
		}
		metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryDelete, metrics.TableVideoReactions).Inc()
		return previous, nil
	}

	const upsertQuery = `
		INSERT INTO video_reactions (user_id, video_id, video_owner, reaction, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, video_id, video_owner)
		DO UPDATE SET reaction = EXCLUDED.reaction, updated_at = EXCLUDED.updated_at
	`
	if _, err := r.db.Exec(ctx, upsertQuery, userID, videoID, videoOwner, string(reaction), time.Now()); err != nil {
		return repository.ReactionNone, fmt.Errorf("failed to set reaction: %w", err)
	}
	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryUpdate, metrics.TableVideoReactions).Inc()

	return previous, nil
}

// Subscribe adds a subscription. Subscribing twice is a no-op.
func (r *EngagementRepository) Subscribe(ctx context.Context, subscriberID, channelOwner string) error {
	const query = `
		INSERT INTO subscriptions (subscriber_id, channel_owner, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subscriber_id, channel_owner) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, subscriberID, channelOwner, time.Now()); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableSubscriptions).Inc()
	return nil
}

// Unsubscribe removes a subscription. Not being subscribed is a no-op.
func (r *EngagementRepository) Unsubscribe(ctx context.Context, subscriberID, channelOwner string) error {
	const query = `
		DELETE FROM subscriptions
		WHERE subscriber_id = $1 AND channel_owner = $2
	`

	if _, err := r.db.Exec(ctx, query, subscriberID, channelOwner); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryDelete, metrics.TableSubscriptions).Inc()
	return nil
}

// CountSubscribers returns the subscriber count for a channel owner.
func (r *EngagementRepository) CountSubscribers(ctx context.Context, channelOwner string) (int64, error) {
	const query = `
		SELECT COUNT(*) FROM subscriptions WHERE channel_owner = $1
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, channelOwner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableSubscriptions).Inc()
	return count, nil
}

// Compile-time verification that EngagementRepository implements repository.EngagementStore.
var _ repository.EngagementStore = (*EngagementRepository)(nil)
