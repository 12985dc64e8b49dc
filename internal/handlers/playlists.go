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

// PlaylistHandler implements the playlist endpoints. Playlists are private to
// their owner; every operation is scoped to the authenticated user.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type playlistVideoRequest struct {
	VideoID    string `json:"videoId"`
	UpdateType string `json:"updateType"`
}

// Create handles POST /api/v1/playlists. Names are unique per owner.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, apperror.Validation("name"))
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Name:        req.Name,
		Description: req.Description,
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// List handles GET /api/v1/playlists: the caller's playlists, newest first.
func (h PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	playlists, err := h.Playlists.ListForOwner(ctx, owner.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}

	respondJSON(ctx, w, http.StatusOK, playlists, "playlists fetched")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, chi.URLParam(r, "playlistId"), owner.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlist, "playlist fetched")
}

// UpdateProfile handles PATCH /api/v1/playlists: renames a playlist and
// rewrites its description.
func (h PlaylistHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req struct {
		PlaylistID  string `json:"playlistId"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	var missing []string
	if req.PlaylistID == "" {
		missing = append(missing, "playlistId")
	}
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if len(missing) > 0 {
		respondError(ctx, w, apperror.Validation(missing...))
		return
	}

	playlist, err := h.Playlists.UpdateProfile(ctx, req.PlaylistID, owner.ID, req.Name, req.Description)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlist, "playlist updated")
}

// UpdateVideos handles PATCH /api/v1/playlists/{playlistId}: adds a video to
// the end of the playlist or removes one, per updateType.
func (h PlaylistHandler) UpdateVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	var req playlistVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperror.Validation("body"))
		return
	}
	if req.VideoID == "" {
		respondError(ctx, w, apperror.Validation("videoId"))
		return
	}

	playlistID := chi.URLParam(r, "playlistId")

	var (
		playlist models.Playlist
		err      error
		message  string
	)
	switch req.UpdateType {
	case "add":
		playlist, err = h.Playlists.AddVideo(ctx, playlistID, owner.ID, req.VideoID)
		message = "video added to playlist"
	case "remove":
		playlist, err = h.Playlists.RemoveVideo(ctx, playlistID, owner.ID, req.VideoID)
		message = "video removed from playlist"
	default:
		respondError(ctx, w, apperror.Validation("updateType"))
		return
	}
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, playlist, message)
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	owner, ok := middleware.Identity(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthorized("authentication required"))
		return
	}

	if err := h.Playlists.Delete(ctx, chi.URLParam(r, "playlistId"), owner.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, nil, "playlist deleted")
}
