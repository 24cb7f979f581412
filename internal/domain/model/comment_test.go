package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestAddComment(t *testing.T) {
	thread := NewCommentThread("2024-03-01_tour")
	at := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	first, err := thread.AddComment(CommentInput{UserID: "@bob", Text: "great video"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := thread.AddComment(CommentInput{UserID: "@carol", DisplayName: "Carol", Text: "agreed"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(thread.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(thread.Comments))
	}
	if first.ID == second.ID {
		t.Error("comment identifiers must be unique")
	}
	if first.DisplayName != "@bob" {
		t.Errorf("expected display name fallback to user ID, got %q", first.DisplayName)
	}
	if second.DisplayName != "Carol" {
		t.Errorf("expected display name Carol, got %q", second.DisplayName)
	}
	if first.Replies == nil {
		t.Error("replies must be initialized to an empty list, not null")
	}
}

func TestAddCommentRejectsEmptyText(t *testing.T) {
	thread := NewCommentThread("2024-03-01_tour")
	if _, err := thread.AddComment(CommentInput{UserID: "@bob"}, time.Now()); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("expected ErrEmptyComment, got %v", err)
	}
}

func TestAddReply(t *testing.T) {
	thread := NewCommentThread("2024-03-01_tour")
	at := time.Now()
	parent, err := thread.AddComment(CommentInput{UserID: "@bob", Text: "first"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reply, err := thread.AddReply(parent.ID, CommentInput{UserID: "@carol", Text: "hi"}, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(thread.Comments[0].Replies) != 1 {
		t.Fatalf("expected 1 reply, got %d", len(thread.Comments[0].Replies))
	}
	if reply.ID == parent.ID {
		t.Error("reply identifier must differ from parent")
	}
}

func TestAddReplyMissingParentLeavesThreadUnchanged(t *testing.T) {
	thread := NewCommentThread("2024-03-01_tour")
	if _, err := thread.AddComment(CommentInput{UserID: "@bob", Text: "first"}, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before, err := json.Marshal(thread)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	_, err = thread.AddReply("no-such-comment", CommentInput{UserID: "@carol", Text: "hi"}, time.Now())
	if !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("expected ErrCommentNotFound, got %v", err)
	}

	after, err := json.Marshal(thread)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(before) != string(after) {
		t.Error("thread document changed after failed reply")
	}
}

func TestThreadJSONFieldNames(t *testing.T) {
	thread := NewCommentThread("2024-03-01_tour")
	if _, err := thread.AddComment(CommentInput{UserID: "@bob", Text: "hi"}, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.Marshal(thread)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["video_id"]; !ok {
		t.Error("expected video_id field")
	}
	comments, ok := raw["comments"].([]any)
	if !ok || len(comments) != 1 {
		t.Fatalf("expected comments array with one entry, got %v", raw["comments"])
	}
	entry := comments[0].(map[string]any)
	for _, field := range []string{"id", "user_id", "display_name", "text", "date", "likes", "replies"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("expected comment field %q", field)
		}
	}
}
