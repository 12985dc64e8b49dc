package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// VideoHandler implements upload, listing, and per-video endpoints.
type VideoHandler struct {
	Videos  VideoStore
	Users   UserStore
	Media   MediaManager
	NowFunc func() time.Time
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// Upload handles POST /api/v1/videos. The multipart body carries the video
// file, its thumbnail, and the profile fields. Media references are written to
// the database only after both external uploads succeeded.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(ctx, w, apperror.Validation("multipart body"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		respondError(ctx, w, apperror.Validation(missing...))
		return
	}

	filePath, hasFile, err := spoolFormFile(r, "videoFile")
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read video upload", err))
		return
	}
	defer discardSpool(filePath)
	if !hasFile {
		respondError(ctx, w, apperror.Validation("videoFile"))
		return
	}
	thumbPath, hasThumb, err := spoolFormFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read thumbnail upload", err))
		return
	}
	defer discardSpool(thumbPath)
	if !hasThumb {
		respondError(ctx, w, apperror.Validation("thumbnail"))
		return
	}

	file := h.Media.Upload(ctx, filePath, "videos")
	thumbnail := h.Media.Upload(ctx, thumbPath, "thumbnails")
	if file.IsZero() || thumbnail.IsZero() {
		// Release whichever half made it so the store holds no orphan.
		h.Media.RemoveAll(ctx, "video", file, thumbnail)
		respondError(ctx, w, apperror.Upstream("upload media", errors.New("media store rejected the upload")))
		return
	}

	duration, _ := strconv.ParseFloat(r.FormValue("duration"), 64)

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		File:        file,
		Thumbnail:   thumbnail,
		Title:       title,
		Description: description,
		Duration:    duration,
		Published:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logging.FromContext(ctx).Error("create video", "error", err, "videoId", video.ID)
		h.Media.RemoveAll(ctx, "video", file, thumbnail)
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video, "video uploaded")
}

// List handles GET /api/v1/videos with keyset pagination.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	filter := repositories.VideoFilter{
		OwnerID:       q.Get("ownerId"),
		Query:         q.Get("query"),
		PublishedOnly: q.Get("includeUnpublished") != "true",
	}

	page, err := h.Videos.List(ctx, filter, q.Get("cursor"), limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if page.Videos == nil {
		page.Videos = []models.VideoWithOwner{}
	}

	respondJSON(ctx, w, http.StatusOK, page, "videos fetched")
}

// Detail handles GET /api/v1/videos/{videoId}. Fetching a video counts a view
// and prepends it to the viewer's watch history.
func (h VideoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	videoID := chi.URLParam(r, "videoId")
	detail, err := h.Videos.Detail(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video", videoID))
			return
		}
		respondError(ctx, w, err)
		return
	}

	if err := h.Users.RecordWatch(ctx, viewer.ID, videoID); err != nil {
		// The fetch already succeeded; a history bookkeeping failure should
		// not turn it into an error response.
		logging.FromContext(ctx).Warn("record watch", "error", err, "videoId", videoID)
	}

	respondJSON(ctx, w, http.StatusOK, detail, "video fetched")
}

// Update handles PATCH /api/v1/videos/{videoId}: title and description are
// rewritten, and when the multipart body carries a thumbnail the old remote
// asset is released after the swap.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(ctx, w, apperror.Validation("multipart body"))
		return
	}

	videoID := chi.URLParam(r, "videoId")
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" || description == "" {
		respondError(ctx, w, apperror.Validation("title", "description"))
		return
	}

	var newThumb *models.MediaReference
	thumbPath, hasThumb, err := spoolFormFile(r, "thumbnail")
	if err != nil {
		respondError(ctx, w, apperror.Upstream("read thumbnail upload", err))
		return
	}
	defer discardSpool(thumbPath)
	if hasThumb {
		uploaded := h.Media.Upload(ctx, thumbPath, "thumbnails")
		if uploaded.IsZero() {
			respondError(ctx, w, apperror.Upstream("upload thumbnail", errors.New("media store rejected the upload")))
			return
		}
		newThumb = &uploaded
	}

	video, prevThumb, err := h.Videos.UpdateProfile(ctx, videoID, owner.ID, title, description, newThumb)
	if err != nil {
		if newThumb != nil {
			h.Media.Remove(ctx, *newThumb, "thumbnail")
		}
		respondError(ctx, w, err)
		return
	}

	h.Media.Remove(ctx, prevThumb, "thumbnail")
	respondJSON(ctx, w, http.StatusOK, video, "video updated")
}

// TogglePublish handles PATCH /api/v1/videos/toggle-publish/{videoId}: it
// flips the stored published flag.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	videoID := chi.URLParam(r, "videoId")
	video, err := h.Videos.TogglePublish(ctx, videoID, owner.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, video, "publish state toggled")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Both remote assets are
// released individually; one delete failing never blocks the other, and
// neither blocks the response.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	videoID := chi.URLParam(r, "videoId")
	video, err := h.Videos.Delete(ctx, videoID, owner.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.Media.RemoveAll(ctx, "video", video.File, video.Thumbnail)
	respondJSON(ctx, w, http.StatusOK, nil, "video deleted")
}
