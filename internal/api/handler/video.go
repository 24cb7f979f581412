package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/namespace"
	"github.com/TheRizaev/kronik/internal/usecase"
)

// maxUploadMemory bounds how much of a multipart upload is buffered in
// memory; the rest spills to disk.
const maxUploadMemory = 32 << 20

// VideoStore is the slice of the document store the video handler uses
// directly, next to the upload and playback services.
type VideoStore interface {
	ListVideos(ctx context.Context, tenant string) ([]*model.VideoRecord, error)
	DeleteVideo(ctx context.Context, tenant, videoID string) error
	AttachThumbnail(ctx context.Context, tenant, videoID string, img io.Reader, size int64, contentType string) error
}

// Request/Response types

type VideoResponse struct {
	VideoID            string   `json:"video_id"`
	Channel            string   `json:"channel"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	UploadDate         string   `json:"upload_date"`
	Duration           string   `json:"duration,omitempty"`
	Views              int64    `json:"views"`
	Likes              int64    `json:"likes"`
	Dislikes           int64    `json:"dislikes"`
	HasThumbnail       bool     `json:"has_thumbnail"`
	AvailableQualities []string `json:"available_qualities,omitempty"`
	HighestQuality     string   `json:"highest_quality,omitempty"`
}

type VideoListResponse struct {
	Channel string          `json:"channel"`
	Videos  []VideoResponse `json:"videos"`
}

type PlaybackResponse struct {
	VideoID   string `json:"video_id"`
	Quality   string `json:"quality,omitempty"`
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}

type ViewRequest struct {
	UserID string `json:"user_id"`
}

type ViewResponse struct {
	VideoID string `json:"video_id"`
	Views   int64  `json:"views"`
}

type ReactionRequest struct {
	UserID   string `json:"user_id"`
	Reaction string `json:"reaction"`
}

type ReactionResponse struct {
	VideoID  string `json:"video_id"`
	Likes    int64  `json:"likes"`
	Dislikes int64  `json:"dislikes"`
}

// VideoHandler handles video-related HTTP requests.
type VideoHandler struct {
	store    VideoStore
	uploads  usecase.UploadService
	playback usecase.PlaybackService

	playbackTTL time.Duration
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(store VideoStore, uploads usecase.UploadService, playback usecase.PlaybackService, playbackTTL time.Duration) *VideoHandler {
	return &VideoHandler{
		store:       store,
		uploads:     uploads,
		playback:    playback,
		playbackTTL: playbackTTL,
	}
}

// Upload handles POST /v1/channels/{handle}/videos
func (h *VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Body must be multipart form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing_file", "A video file is required")
		return
	}
	defer func() { _ = file.Close() }()

	title := r.FormValue("title")
	if err := model.ValidateTitle(title); err != nil {
		h.handleServiceError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	record, err := h.uploads.Upload(r.Context(), usecase.UploadInput{
		Tenant:      handle,
		Filename:    header.Filename,
		Title:       title,
		Description: r.FormValue("description"),
		Media:       file,
		ContentType: contentType,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, toVideoResponse(record))
}

// List handles GET /v1/channels/{handle}/videos
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	records, err := h.store.ListVideos(r.Context(), handle)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	videos := make([]VideoResponse, 0, len(records))
	for _, record := range records {
		videos = append(videos, toVideoResponse(record))
	}

	JSON(w, http.StatusOK, VideoListResponse{
		Channel: handle,
		Videos:  videos,
	})
}

// Get handles GET /v1/channels/{handle}/videos/{videoID}
func (h *VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	record, err := h.playback.GetVideo(r.Context(), handle, videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, toVideoResponse(record))
}

// Delete handles DELETE /v1/channels/{handle}/videos/{videoID}
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	if err := h.store.DeleteVideo(r.Context(), handle, videoID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Playback handles GET /v1/channels/{handle}/videos/{videoID}/playback
func (h *VideoHandler) Playback(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")
	quality := r.URL.Query().Get("quality")

	url, err := h.playback.ResolveURL(r.Context(), handle, videoID, quality, h.playbackTTL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, PlaybackResponse{
		VideoID:   videoID,
		Quality:   quality,
		URL:       url,
		ExpiresIn: int64(h.playbackTTL.Seconds()),
	})
}

// RegisterView handles POST /v1/channels/{handle}/videos/{videoID}/views
func (h *VideoHandler) RegisterView(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	var req ViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		Error(w, http.StatusBadRequest, "invalid_user_id", "User ID is required")
		return
	}

	views, err := h.playback.RegisterView(r.Context(), req.UserID, handle, videoID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ViewResponse{
		VideoID: videoID,
		Views:   views,
	})
}

// React handles POST /v1/channels/{handle}/videos/{videoID}/reactions
func (h *VideoHandler) React(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	var req ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.UserID == "" {
		Error(w, http.StatusBadRequest, "invalid_user_id", "User ID is required")
		return
	}

	reaction := repository.Reaction(req.Reaction)
	switch reaction {
	case repository.ReactionNone, repository.ReactionLike, repository.ReactionDislike:
	default:
		Error(w, http.StatusBadRequest, "invalid_reaction", `Reaction must be "like", "dislike" or empty`)
		return
	}

	record, err := h.playback.React(r.Context(), req.UserID, handle, videoID, reaction)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ReactionResponse{
		VideoID:  record.VideoID,
		Likes:    record.Likes,
		Dislikes: record.Dislikes,
	})
}

// AttachThumbnail handles PUT /v1/channels/{handle}/videos/{videoID}/thumbnail
func (h *VideoHandler) AttachThumbnail(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	videoID := chi.URLParam(r, "videoID")

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request", "Body must be multipart form data")
		return
	}

	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		Error(w, http.StatusBadRequest, "missing_thumbnail", "A thumbnail image is required")
		return
	}
	defer func() { _ = file.Close() }()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	if err := h.store.AttachThumbnail(r.Context(), handle, videoID, file, header.Size, contentType); err != nil {
		h.handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, namespace.ErrInvalidTenant):
		Error(w, http.StatusBadRequest, "invalid_handle", "Channel handle must start with @ and contain no slashes")
	case errors.Is(err, namespace.ErrInvalidFilename):
		Error(w, http.StatusBadRequest, "invalid_filename", "File name contains forbidden characters")
	case errors.Is(err, model.ErrEmptyTitle):
		Error(w, http.StatusBadRequest, "invalid_title", "Title cannot be empty")
	case errors.Is(err, model.ErrTitleTooLong):
		Error(w, http.StatusBadRequest, "invalid_title", "Title exceeds maximum length")
	case errors.Is(err, repository.ErrVideoNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, repository.ErrObjectNotFound):
		Error(w, http.StatusNotFound, "object_not_found", "Stored object not found")
	case errors.Is(err, repository.ErrUploadFailed):
		Error(w, http.StatusBadGateway, "upload_failed", "Failed to store the upload")
	case errors.Is(err, repository.ErrMalformedDocument):
		Error(w, http.StatusInternalServerError, "malformed_document", "Stored record is unreadable")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

func toVideoResponse(v *model.VideoRecord) VideoResponse {
	return VideoResponse{
		VideoID:            v.VideoID,
		Channel:            v.UserID,
		Title:              v.Title,
		Description:        v.Description,
		UploadDate:         v.UploadDate.Format("2006-01-02T15:04:05Z07:00"),
		Duration:           v.Duration,
		Views:              v.Views,
		Likes:              v.Likes,
		Dislikes:           v.Dislikes,
		HasThumbnail:       v.ThumbnailPath != "",
		AvailableQualities: v.AvailableQualities,
		HighestQuality:     v.HighestQuality,
	}
}
