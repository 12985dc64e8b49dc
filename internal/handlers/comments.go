package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/apperror"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

// CommentHandler implements the comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	VideoID string `json:"videoId"`
	Content string `json:"content"`
}

// ListForVideo handles GET /api/v1/comments?videoId=. Every comment comes back
// with its video card and author card attached.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.URL.Query().Get("videoId")
	if videoID == "" {
		respondError(ctx, w, apperror.Validation("videoId"))
		return
	}

	comments, err := h.Comments.ListForVideo(ctx, videoID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comments == nil {
		comments = []models.CommentView{}
	}

	respondJSON(ctx, w, http.StatusOK, comments, "comments fetched")
}

// Create handles POST /api/v1/comments.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)

	var missing []string
	if req.VideoID == "" {
		missing = append(missing, "videoId")
	}
	if req.Content == "" {
		missing = append(missing, "content")
	}
	if len(missing) > 0 {
		respondError(ctx, w, apperror.Validation(missing...))
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   req.VideoID,
		OwnerID:   owner.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment, "comment added")
}

// Update handles PATCH /api/v1/comments/{commentId}. Only the author may edit.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperror.Validation("content"))
		return
	}

	commentID := chi.URLParam(r, "commentId")
	comment, err := h.Comments.Update(ctx, commentID, owner.ID, req.Content)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, comment, "comment updated")
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	commentID := chi.URLParam(r, "commentId")
	if err := h.Comments.Delete(ctx, commentID, owner.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "comment deleted")
}
