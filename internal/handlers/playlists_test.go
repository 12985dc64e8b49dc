package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// inMemoryPlaylistStore implements PlaylistStore over a map.
type inMemoryPlaylistStore struct {
	playlists map[string]models.Playlist
}

func newInMemoryPlaylistStore() *inMemoryPlaylistStore {
	return &inMemoryPlaylistStore{playlists: make(map[string]models.Playlist)}
}

func (s *inMemoryPlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	for _, existing := range s.playlists {
		if existing.OwnerID == playlist.OwnerID && existing.Name == playlist.Name {
			return repositories.ErrConflict
		}
	}
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *inMemoryPlaylistStore) owned(id, ownerID string) (models.Playlist, error) {
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if playlist.OwnerID != ownerID {
		return models.Playlist{}, repositories.ErrForbidden
	}
	return playlist, nil
}

func (s *inMemoryPlaylistStore) FindByID(_ context.Context, id, ownerID string) (models.Playlist, error) {
	return s.owned(id, ownerID)
}

func (s *inMemoryPlaylistStore) ListForOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	var owned []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			owned = append(owned, playlist)
		}
	}
	return owned, nil
}

func (s *inMemoryPlaylistStore) UpdateProfile(_ context.Context, id, ownerID, name, description string) (models.Playlist, error) {
	playlist, err := s.owned(id, ownerID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.Name, playlist.Description = name, description
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) AddVideo(_ context.Context, id, ownerID, videoID string) (models.Playlist, error) {
	playlist, err := s.owned(id, ownerID)
	if err != nil {
		return models.Playlist{}, err
	}
	if !slices.Contains(playlist.VideoIDs, videoID) {
		playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	}
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) RemoveVideo(_ context.Context, id, ownerID, videoID string) (models.Playlist, error) {
	playlist, err := s.owned(id, ownerID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.VideoIDs = slices.DeleteFunc(playlist.VideoIDs, func(v string) bool { return v == videoID })
	s.playlists[id] = playlist
	return playlist, nil
}

func (s *inMemoryPlaylistStore) Delete(_ context.Context, id, ownerID string) error {
	if _, err := s.owned(id, ownerID); err != nil {
		return err
	}
	delete(s.playlists, id)
	return nil
}

func playlistHTTPRequest(method, target, playlistID string, body []byte, user models.User) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if playlistID != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("playlistId", playlistID)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req.WithContext(middleware.WithIdentity(req.Context(), user))
}

func TestPlaylistHandlerCreateAndConflict(t *testing.T) {
	store := newInMemoryPlaylistStore()
	handler := PlaylistHandler{Playlists: store}
	owner := models.User{ID: "user-1"}

	body, err := json.Marshal(playlistRequest{Name: "Favourites", Description: "the good ones"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.Create(rec, playlistHTTPRequest(http.MethodPost, "/api/v1/playlists", "", body, owner))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.playlists, 1)

	// The same owner reusing the name is a conflict.
	rec = httptest.NewRecorder()
	handler.Create(rec, playlistHTTPRequest(http.MethodPost, "/api/v1/playlists", "", body, owner))
	require.Equal(t, http.StatusConflict, rec.Code)

	// A different owner may reuse it.
	rec = httptest.NewRecorder()
	handler.Create(rec, playlistHTTPRequest(http.MethodPost, "/api/v1/playlists", "", body, models.User{ID: "user-2"}))
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestPlaylistHandlerUpdateVideos(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["playlist-1"] = models.Playlist{ID: "playlist-1", OwnerID: "user-1", Name: "Favourites"}
	handler := PlaylistHandler{Playlists: store}
	owner := models.User{ID: "user-1"}

	addBody, err := json.Marshal(playlistVideoRequest{VideoID: "video-1", UpdateType: "add"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.UpdateVideos(rec, playlistHTTPRequest(http.MethodPatch, "/api/v1/playlists/playlist-1", "playlist-1", addBody, owner))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"video-1"}, store.playlists["playlist-1"].VideoIDs)

	removeBody, err := json.Marshal(playlistVideoRequest{VideoID: "video-1", UpdateType: "remove"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.UpdateVideos(rec, playlistHTTPRequest(http.MethodPatch, "/api/v1/playlists/playlist-1", "playlist-1", removeBody, owner))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, store.playlists["playlist-1"].VideoIDs)

	// An unknown updateType is a validation failure.
	badBody, err := json.Marshal(playlistVideoRequest{VideoID: "video-1", UpdateType: "shuffle"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	handler.UpdateVideos(rec, playlistHTTPRequest(http.MethodPatch, "/api/v1/playlists/playlist-1", "playlist-1", badBody, owner))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaylistHandlerUpdateProfile(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["playlist-1"] = models.Playlist{ID: "playlist-1", OwnerID: "user-1", Name: "Favourites"}
	handler := PlaylistHandler{Playlists: store}

	body, err := json.Marshal(map[string]string{"playlistId": "playlist-1", "name": "Renamed", "description": "updated"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.UpdateProfile(rec, playlistHTTPRequest(http.MethodPatch, "/api/v1/playlists", "", body, models.User{ID: "user-1"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Renamed", store.playlists["playlist-1"].Name)
}

func TestPlaylistHandlerForbiddenForNonOwner(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["playlist-1"] = models.Playlist{ID: "playlist-1", OwnerID: "user-1", Name: "Favourites"}
	handler := PlaylistHandler{Playlists: store}

	rec := httptest.NewRecorder()
	handler.Delete(rec, playlistHTTPRequest(http.MethodDelete, "/api/v1/playlists/playlist-1", "playlist-1", nil, models.User{ID: "intruder"}))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.Get(rec, playlistHTTPRequest(http.MethodGet, "/api/v1/playlists/playlist-1", "playlist-1", nil, models.User{ID: "intruder"}))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPlaylistHandlerDelete(t *testing.T) {
	store := newInMemoryPlaylistStore()
	store.playlists["playlist-1"] = models.Playlist{ID: "playlist-1", OwnerID: "user-1", Name: "Favourites"}
	handler := PlaylistHandler{Playlists: store}

	rec := httptest.NewRecorder()
	handler.Delete(rec, playlistHTTPRequest(http.MethodDelete, "/api/v1/playlists/playlist-1", "playlist-1", nil, models.User{ID: "user-1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, store.playlists)
}
