package handlers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// VideoHandler implements the video listing and publishing endpoints.
type VideoHandler struct {
	Videos VideoStore
	Media  MediaStore

	UploadDir      string
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

var thumbnailExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// Handle dispatches /api/v1/videos requests: GET lists published videos,
// POST publishes a new one.
func (h VideoHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.publish(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h VideoHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Videos == nil {
		logging.FromContext(ctx).Error("video store unavailable")
		respondError(w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	limit, offset := parsePage(r)
	videos, err := h.Videos.ListPublished(ctx, limit, offset)
	if err != nil {
		respondDomainError(w, r, err, "failed to list videos")
		return
	}

	respondData(w, http.StatusOK, videos, "videos fetched successfully")
}

func (h VideoHandler) publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Videos == nil || h.Media == nil {
		logger.Error("publishing dependencies unavailable", "hasVideos", h.Videos != nil, "hasMedia", h.Media != nil)
		respondError(w, http.StatusInternalServerError, "video services unavailable")
		return
	}

	owner, ok := userFromContext(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes()); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(w, http.StatusBadRequest, "title and description are required")
		return
	}

	videoUpload, err := h.uploadPart(r, "videoFile", func(ext string) bool { return ext == ".mp4" }, h.Media.UploadVideo)
	if err != nil {
		logger.Warn("video upload rejected", "error", err)
		respondError(w, http.StatusBadRequest, "videoFile must be an mp4 file")
		return
	}

	thumbUpload, err := h.uploadPart(r, "thumbnail", func(ext string) bool { return thumbnailExtensions[ext] }, h.Media.UploadImage)
	if err != nil {
		logger.Warn("thumbnail upload rejected", "error", err)
		respondError(w, http.StatusBadRequest, "thumbnail must be a jpeg, jpg or png file")
		return
	}

	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		Title:        title,
		Description:  description,
		Duration:     videoUpload.Duration,
		VideoURL:     videoUpload.URL,
		PlaybackURL:  videoUpload.PlaybackURL,
		ThumbnailURL: thumbUpload.URL,
		Published:    false,
		CreatedAt:    h.now(),
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondDomainError(w, r, err, "failed to publish video")
		return
	}

	created, err := h.Videos.FindByID(ctx, video.ID)
	if err != nil {
		logger.Error("failed to load published video", "error", err, "videoId", video.ID)
		respondError(w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	respondData(w, http.StatusCreated, created, "video published successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}
// requests.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if _, ok := userFromContext(ctx); !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := strings.TrimSpace(r.PathValue("videoId"))
	if videoID == "" {
		respondError(w, http.StatusBadRequest, "video id is required")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(w, http.StatusNotFound, "video does not exist")
			return
		}
		respondDomainError(w, r, err, "failed to toggle publish state")
		return
	}

	if err := h.Videos.SetPublished(ctx, video.ID, !video.Published); err != nil {
		respondDomainError(w, r, err, "failed to toggle publish state")
		return
	}

	video.Published = !video.Published
	respondData(w, http.StatusOK, video, "publish state toggled successfully")
}

// uploadPart stores the named multipart part in a scratch file after
// checking the client filename extension, then hands it to the given
// media store upload.
func (h VideoHandler) uploadPart(r *http.Request, field string, extOK func(string) bool, upload func(ctx context.Context, localPath string) (media.Upload, error)) (media.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return media.Upload{}, err
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !extOK(ext) {
		return media.Upload{}, errors.New("unsupported file extension " + ext)
	}

	localPath, err := writeScratch(h.UploadDir, header, file)
	if err != nil {
		return media.Upload{}, err
	}
	return upload(r.Context(), localPath)
}

func (h VideoHandler) maxUploadBytes() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 1 << 30
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
