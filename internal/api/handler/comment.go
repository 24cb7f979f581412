package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
)

// CommentStore is the slice of the document store the comment handler uses.
type CommentStore interface {
	GetComments(ctx context.Context, tenant, videoID string) (*model.CommentThread, error)
	AddComment(ctx context.Context, tenant, videoID string, in model.CommentInput) (model.Comment, error)
	AddReply(ctx context.Context, tenant, videoID, commentID string, in model.CommentInput) (model.Reply, error)
}

type AddCommentRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	Text        string `json:"text"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CommentHandler handles comment threads.
type CommentHandler struct {
	store CommentStore
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(store CommentStore) *CommentHandler {
	return &CommentHandler{store: store}
}

// List handles GET /v1/channels/{handle}/videos/{videoID}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	thread, err := h.store.GetComments(r.Context(), handle, videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, thread)
}

// Add handles POST /v1/channels/{handle}/videos/{videoID}/comments
func (h *CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	comment, err := h.store.AddComment(r.Context(), handle, videoID, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, comment)
}

// Reply handles POST /v1/channels/{handle}/videos/{videoID}/comments/{commentID}/replies
func (h *CommentHandler) Reply(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")
	commentID := chi.URLParam(r, "commentID")

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	reply, err := h.store.AddReply(r.Context(), handle, videoID, commentID, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, reply)
}

func (h *CommentHandler) decodeInput(w http.ResponseWriter, r *http.Request) (model.CommentInput, bool) {
	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return model.CommentInput{}, false
	}
	if req.UserID == "" {
		Error(w, http.StatusBadRequest, "invalid_user_id", "User ID is required")
		return model.CommentInput{}, false
	}

	return model.CommentInput{
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Text:        req.Text,
		AvatarURL:   req.AvatarURL,
	}, true
}

func (h *CommentHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptyComment):
		Error(w, http.StatusBadRequest, "invalid_comment", "Comment text cannot be empty")
	case errors.Is(err, model.ErrCommentNotFound):
		Error(w, http.StatusNotFound, "comment_not_found", "Parent comment not found")
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
