package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/models"
)

type fakeLikeStore struct {
	liked map[string]bool
	feed  []models.VideoWithOwner
}

func (s *fakeLikeStore) Toggle(_ context.Context, likerID string, target models.LikeTarget, targetID string) (bool, error) {
	if s.liked == nil {
		s.liked = make(map[string]bool)
	}
	key := likerID + ":" + string(target) + ":" + targetID
	s.liked[key] = !s.liked[key]
	return s.liked[key], nil
}

func (s *fakeLikeStore) LikedVideos(_ context.Context, _ string) ([]models.VideoWithOwner, error) {
	return s.feed, nil
}

func likeRequest(t *testing.T, target string, payload map[string]string) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	return req.WithContext(middleware.WithIdentity(req.Context(), models.User{ID: "viewer-1"}))
}

func TestLikeHandlerToggleVideoParity(t *testing.T) {
	store := &fakeLikeStore{}
	handler := LikeHandler{Likes: store}

	rec := httptest.NewRecorder()
	handler.ToggleVideo(rec, likeRequest(t, "/api/v1/likes/video-like", map[string]string{"videoId": "video-1"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	require.Equal(t, "like added", env.Message)

	rec = httptest.NewRecorder()
	handler.ToggleVideo(rec, likeRequest(t, "/api/v1/likes/video-like", map[string]string{"videoId": "video-1"}))
	env = decodeEnvelope(t, rec)
	require.Equal(t, "like removed", env.Message)
}

func TestLikeHandlerToggleCommentUsesCommentTarget(t *testing.T) {
	store := &fakeLikeStore{}
	handler := LikeHandler{Likes: store}

	rec := httptest.NewRecorder()
	handler.ToggleComment(rec, likeRequest(t, "/api/v1/likes/comment-like", map[string]string{"commentId": "comment-1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, store.liked["viewer-1:comment:comment-1"])
}

func TestLikeHandlerToggleRequiresTargetID(t *testing.T) {
	handler := LikeHandler{Likes: &fakeLikeStore{}}

	rec := httptest.NewRecorder()
	handler.ToggleVideo(rec, likeRequest(t, "/api/v1/likes/video-like", map[string]string{}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLikeHandlerLikedVideos(t *testing.T) {
	store := &fakeLikeStore{feed: []models.VideoWithOwner{
		{Video: models.Video{ID: "video-1", Title: "Clip"}},
	}}
	handler := LikeHandler{Likes: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/likes", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), models.User{ID: "viewer-1"}))
	rec := httptest.NewRecorder()

	handler.LikedVideos(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []models.VideoWithOwner `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.Len(t, env.Data, 1)
	require.Equal(t, "video-1", env.Data[0].ID)
}
