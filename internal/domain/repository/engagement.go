package repository

import "context"

// Reaction is a user's like/dislike state for a video.
type Reaction string

const (
	ReactionNone    Reaction = ""
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

// EngagementStore is the relational counter store for likes, views and
// subscriptions. Rows are keyed (user, videoID, videoOwner) with uniqueness
// constraints; the document store holds the denormalized counters.
type EngagementStore interface {
	// RecordView registers a view. Returns false when this user already
	// viewed the video (the unique constraint absorbed the insert).
	RecordView(ctx context.Context, userID, videoID, videoOwner string) (bool, error)

	// SetReaction upserts the user's reaction and returns the previous one,
	// letting the caller adjust denormalized counters.
	SetReaction(ctx context.Context, userID, videoID, videoOwner string, reaction Reaction) (Reaction, error)

	// Subscribe adds a subscription; already subscribed is not an error.
	Subscribe(ctx context.Context, subscriberID, channelOwner string) error

	// Unsubscribe removes a subscription; not subscribed is not an error.
	Unsubscribe(ctx context.Context, subscriberID, channelOwner string) error

	// CountSubscribers returns the subscriber count for a channel owner.
	CountSubscribers(ctx context.Context, channelOwner string) (int64, error)
}
