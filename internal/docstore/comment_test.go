package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/namespace"
)

func TestAddCommentRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")
	videoID := mustCreateVideo(t, store, "@alice", "clip.mp4", "Clip")

	added, err := store.AddComment(ctx, "@alice", videoID, model.CommentInput{
		UserID:      "@bob",
		DisplayName: "Bob",
		Text:        "Great video!",
	})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	if added.ID == "" {
		t.Error("expected generated comment ID")
	}

	thread, err := store.GetComments(ctx, "@alice", videoID)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(thread.Comments) != 1 {
		t.Fatalf("thread has %d comments, want 1", len(thread.Comments))
	}
	if thread.Comments[0].Text != "Great video!" || thread.Comments[0].UserID != "@bob" {
		t.Errorf("stored comment = %+v", thread.Comments[0])
	}
}

func TestAddCommentOnMissingVideo(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")

	// Simulate a lost thread document: video absent entirely.
	_, err := store.AddComment(ctx, "@alice", "missing", model.CommentInput{UserID: "@bob", Text: "hi"})
	if !errors.Is(err, repository.ErrVideoNotFound) {
		t.Errorf("error = %v, want ErrVideoNotFound", err)
	}
	if mem.Raw(namespace.CommentsKey("@alice", "missing")) != nil {
		t.Error("no thread document may be created for a missing video")
	}
}

func TestAddCommentRecreatesLostThread(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")
	videoID := mustCreateVideo(t, store, "@alice", "clip.mp4", "Clip")

	// Thread document deleted out-of-band; the video still exists.
	if err := mem.Delete(ctx, namespace.CommentsKey("@alice", videoID)); err != nil {
		t.Fatalf("delete thread: %v", err)
	}

	if _, err := store.AddComment(ctx, "@alice", videoID, model.CommentInput{UserID: "@bob", Text: "back"}); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	thread, err := store.GetComments(ctx, "@alice", videoID)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(thread.Comments) != 1 {
		t.Errorf("thread has %d comments, want 1", len(thread.Comments))
	}
}

func TestAddReply(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")
	videoID := mustCreateVideo(t, store, "@alice", "clip.mp4", "Clip")

	parent, err := store.AddComment(ctx, "@alice", videoID, model.CommentInput{UserID: "@bob", Text: "parent"})
	if err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	reply, err := store.AddReply(ctx, "@alice", videoID, parent.ID, model.CommentInput{UserID: "@carol", Text: "reply"})
	if err != nil {
		t.Fatalf("AddReply() error = %v", err)
	}
	if reply.ID == parent.ID {
		t.Error("reply ID must differ from parent ID")
	}

	thread, err := store.GetComments(ctx, "@alice", videoID)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(thread.Comments[0].Replies) != 1 {
		t.Fatalf("parent has %d replies, want 1", len(thread.Comments[0].Replies))
	}
	if thread.Comments[0].Replies[0].Text != "reply" {
		t.Errorf("stored reply = %+v", thread.Comments[0].Replies[0])
	}
}

func TestAddReplyMissingParentLeavesDocumentUntouched(t *testing.T) {
	store, mem := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")
	videoID := mustCreateVideo(t, store, "@alice", "clip.mp4", "Clip")

	if _, err := store.AddComment(ctx, "@alice", videoID, model.CommentInput{UserID: "@bob", Text: "only"}); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}

	key := namespace.CommentsKey("@alice", videoID)
	before := mem.Raw(key)

	_, err := store.AddReply(ctx, "@alice", videoID, "no-such-parent", model.CommentInput{UserID: "@carol", Text: "reply"})
	if !errors.Is(err, model.ErrCommentNotFound) {
		t.Errorf("error = %v, want ErrCommentNotFound", err)
	}

	after := mem.Raw(key)
	if !bytes.Equal(before, after) {
		t.Error("thread document changed despite missing parent")
	}
}

func TestGetCommentsMissingVideo(t *testing.T) {
	store, _ := newTestStore(t)
	mustCreateTenant(t, store, "@alice")

	_, err := store.GetComments(context.Background(), "@alice", "missing")
	if !errors.Is(err, repository.ErrVideoNotFound) {
		t.Errorf("error = %v, want ErrVideoNotFound", err)
	}
}

func TestConcurrentAddComment(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	mustCreateTenant(t, store, "@alice")
	videoID := mustCreateVideo(t, store, "@alice", "clip.mp4", "Clip")

	const writers = 10
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.AddComment(ctx, "@alice", videoID, model.CommentInput{
				UserID: "@bob",
				Text:   fmt.Sprintf("comment %d", n),
			})
			if err != nil {
				t.Errorf("AddComment(%d) error = %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	thread, err := store.GetComments(ctx, "@alice", videoID)
	if err != nil {
		t.Fatalf("GetComments() error = %v", err)
	}
	if len(thread.Comments) != writers {
		t.Errorf("thread has %d comments, want %d (writes serialized in-process)", len(thread.Comments), writers)
	}
}
