package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TheRizaev/kronik/internal/docstore"
	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/namespace"
	"github.com/TheRizaev/kronik/internal/usecase"
)

// maxAvatarSize caps avatar uploads at 5 MiB.
const maxAvatarSize = 5 << 20

// ChannelStore is the slice of the document store the channel handler uses.
type ChannelStore interface {
	CreateTenant(ctx context.Context, tenant string) error
	GetProfile(ctx context.Context, tenant string) (*model.UserProfile, error)
	UpdateProfile(ctx context.Context, tenant string, in docstore.UpdateProfileInput) (*model.UserProfile, error)
}

// Request/Response types

type CreateChannelRequest struct {
	Handle string `json:"handle"`
}

type ProfileResponse struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	VideosCount int    `json:"videos_count"`
	TotalViews  int64  `json:"total_views"`
	CreatedAt   string `json:"created_at"`
}

type SubscribeRequest struct {
	UserID string `json:"user_id"`
}

type SubscriberCountResponse struct {
	Handle      string `json:"handle"`
	Subscribers int64  `json:"subscribers"`
}

// ChannelHandler handles channel provisioning, profiles and subscriptions.
type ChannelHandler struct {
	store ChannelStore
	subs  usecase.SubscriptionService
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(store ChannelStore, subs usecase.SubscriptionService) *ChannelHandler {
	return &ChannelHandler{store: store, subs: subs}
}

// Create handles POST /v1/channels
func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.store.CreateTenant(r.Context(), req.Handle); err != nil {
		h.handleServiceError(w, err)
		return
	}

	profile, err := h.store.GetProfile(r.Context(), req.Handle)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, toProfileResponse(profile))
}

// GetProfile handles GET /v1/channels/{handle}
func (h *ChannelHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	profile, err := h.store.GetProfile(r.Context(), handle)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toProfileResponse(profile))
}

// UpdateProfile handles PATCH /v1/channels/{handle}
//
// The body is multipart form data so the avatar can travel with the text
// fields. Absent fields leave the profile untouched.
func (h *ChannelHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Body must be multipart form data")
		return
	}

	var input docstore.UpdateProfileInput
	if values, ok := r.MultipartForm.Value["display_name"]; ok && len(values) > 0 {
		input.DisplayName = &values[0]
	}
	if values, ok := r.MultipartForm.Value["bio"]; ok && len(values) > 0 {
		input.Bio = &values[0]
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer func() { _ = file.Close() }()
		input.Avatar = file
		input.AvatarSize = header.Size
		input.AvatarContentType = header.Header.Get("Content-Type")
	}

	profile, err := h.store.UpdateProfile(r.Context(), handle, input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toProfileResponse(profile))
}

// Subscribe handles POST /v1/channels/{handle}/subscriptions
func (h *ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	var req SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		Error(w, http.StatusBadRequest, "invalid_user_id", "User ID is required")
		return
	}

	if err := h.subs.Subscribe(r.Context(), req.UserID, handle); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unsubscribe handles DELETE /v1/channels/{handle}/subscriptions/{userID}
func (h *ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	userID := chi.URLParam(r, "userID")

	if err := h.subs.Unsubscribe(r.Context(), userID, handle); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Subscribers handles GET /v1/channels/{handle}/subscribers
func (h *ChannelHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	count, err := h.subs.SubscriberCount(r.Context(), handle)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, SubscriberCountResponse{
		Handle:      handle,
		Subscribers: count,
	})
}

func (h *ChannelHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, namespace.ErrInvalidTenant):
		Error(w, http.StatusBadRequest, "invalid_handle", "Channel handle must start with @ and contain no slashes")
	case errors.Is(err, repository.ErrProfileNotFound):
		Error(w, http.StatusNotFound, "channel_not_found", "Channel not found")
	case errors.Is(err, repository.ErrUploadFailed):
		Error(w, http.StatusBadGateway, "upload_failed", "Failed to store the avatar")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toProfileResponse(p *model.UserProfile) ProfileResponse {
	return ProfileResponse{
		Handle:      p.UserID,
		DisplayName: p.Name(),
		Bio:         p.Bio,
		AvatarURL:   p.AvatarURL,
		VideosCount: p.Stats.VideosCount,
		TotalViews:  p.Stats.TotalViews,
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
