package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrCommentNotFound is returned when a reply targets a parent comment
// that does not exist in the thread.
var ErrCommentNotFound = errors.New("comment not found")

// ErrEmptyComment is returned for blank comment or reply text.
var ErrEmptyComment = errors.New("comment text cannot be empty")

// Reply is a second-level comment. Replies cannot themselves have replies.
type Reply struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	Date        time.Time `json:"date"`
	Likes       int64     `json:"likes"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
}

// Comment is a top-level comment with an ordered list of replies.
type Comment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	Date        time.Time `json:"date"`
	Likes       int64     `json:"likes"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Replies     []Reply   `json:"replies"`
}

// CommentThread is the JSON document stored per video under
// {tenant}/comments/{videoID}_comments.json.
type CommentThread struct {
	VideoID  string    `json:"video_id"`
	Comments []Comment `json:"comments"`
}

// NewCommentThread returns the empty thread created alongside a video record.
func NewCommentThread(videoID string) *CommentThread {
	return &CommentThread{VideoID: videoID, Comments: []Comment{}}
}

// CommentInput carries the author-supplied fields of a comment or reply.
type CommentInput struct {
	UserID      string
	DisplayName string
	Text        string
	AvatarURL   string
}

func (in CommentInput) displayName() string {
	if in.DisplayName != "" {
		return in.DisplayName
	}
	return in.UserID
}

// AddComment appends a new comment with a generated unique identifier and
// returns it.
func (t *CommentThread) AddComment(in CommentInput, at time.Time) (Comment, error) {
	if in.Text == "" {
		return Comment{}, ErrEmptyComment
	}
	c := Comment{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		DisplayName: in.displayName(),
		Text:        in.Text,
		Date:        at,
		AvatarURL:   in.AvatarURL,
		Replies:     []Reply{},
	}
	t.Comments = append(t.Comments, c)
	return c, nil
}

// AddReply appends a reply to the comment identified by commentID.
// Returns ErrCommentNotFound if the parent is absent; the thread is left
// unmodified in that case.
func (t *CommentThread) AddReply(commentID string, in CommentInput, at time.Time) (Reply, error) {
	if in.Text == "" {
		return Reply{}, ErrEmptyComment
	}
	for i := range t.Comments {
		if t.Comments[i].ID != commentID {
			continue
		}
		r := Reply{
			ID:          uuid.NewString(),
			UserID:      in.UserID,
			DisplayName: in.displayName(),
			Text:        in.Text,
			Date:        at,
			AvatarURL:   in.AvatarURL,
		}
		t.Comments[i].Replies = append(t.Comments[i].Replies, r)
		return r, nil
	}
	return Reply{}, ErrCommentNotFound
}
