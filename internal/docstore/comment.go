package docstore

import (
	"context"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/namespace"
)

// GetComments reads a video's comment thread. A video that exists but has no
// thread document yet yields an empty thread.
func (s *Store) GetComments(ctx context.Context, tenant, videoID string) (*model.CommentThread, error) {
	var thread model.CommentThread
	err := s.getJSON(ctx, namespace.CommentsKey(tenant, videoID), &thread)
	if err == nil {
		return &thread, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	// Thread absent; distinguish "no comments yet" from "no such video".
	if _, err := s.GetVideo(ctx, tenant, videoID); err != nil {
		return nil, err
	}
	return model.NewCommentThread(videoID), nil
}

// AddComment appends a comment to the video's thread and persists it.
func (s *Store) AddComment(ctx context.Context, tenant, videoID string, in model.CommentInput) (model.Comment, error) {
	var added model.Comment
	err := s.updateThread(ctx, tenant, videoID, func(thread *model.CommentThread) error {
		c, err := thread.AddComment(in, s.now().UTC())
		if err != nil {
			return err
		}
		added = c
		return nil
	})
	return added, err
}

// AddReply appends a reply under the given parent comment.
// Returns model.ErrCommentNotFound when the parent is absent; the stored
// document is not rewritten in that case.
func (s *Store) AddReply(ctx context.Context, tenant, videoID, commentID string, in model.CommentInput) (model.Reply, error) {
	var added model.Reply
	err := s.updateThread(ctx, tenant, videoID, func(thread *model.CommentThread) error {
		r, err := thread.AddReply(commentID, in, s.now().UTC())
		if err != nil {
			return err
		}
		added = r
		return nil
	})
	return added, err
}

// updateThread runs one serialized read-modify-write cycle on a comment
// thread. A mutate error aborts the cycle before any write.
func (s *Store) updateThread(ctx context.Context, tenant, videoID string, mutate func(*model.CommentThread) error) error {
	key := namespace.CommentsKey(tenant, videoID)
	unlock := s.locks.lock(key)
	defer unlock()

	var thread model.CommentThread
	if err := s.getJSON(ctx, key, &thread); err != nil {
		if !isNotFound(err) {
			return err
		}
		if _, err := s.GetVideo(ctx, tenant, videoID); err != nil {
			return err
		}
		thread = *model.NewCommentThread(videoID)
	}

	if err := mutate(&thread); err != nil {
		return err
	}

	return s.putJSON(ctx, key, &thread)
}
