package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

// LikeHandler implements the like-toggle endpoints and the liked-videos feed.
type LikeHandler struct {
	Likes LikeStore
}

// LikedVideos handles GET /api/v1/likes: every video the caller has liked,
// newest like first. Publish state is not filtered; a like the caller placed
// stays visible to them even if the owner later unpublishes the video.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	videos, err := h.Likes.LikedVideos(ctx, viewer.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if videos == nil {
		videos = []models.VideoWithOwner{}
	}

	respondJSON(ctx, w, http.StatusOK, videos, "liked videos fetched")
}

// ToggleVideo handles POST /api/v1/likes/video-like.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, "videoId")
}

// ToggleComment handles POST /api/v1/likes/comment-like.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, "commentId")
}

func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget, field string) {
	ctx := r.Context()

	viewer, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	targetID := body[field]
	if targetID == "" {
		respondError(ctx, w, apperror.Validation(field))
		return
	}

	added, err := h.Likes.Toggle(ctx, viewer.ID, target, targetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	message := "like removed"
	if added {
		message = "like added"
	}
	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": added}, message)
}
