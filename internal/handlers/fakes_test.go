package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// fakeMediaManager records uploads and deletes without touching any store.
// Like the real manager it consumes the local temp file on every Upload.
type fakeMediaManager struct {
	uploads     []string
	failFolders map[string]bool
	removed     []models.MediaReference
}

func (m *fakeMediaManager) Upload(_ context.Context, localPath, folder string) models.MediaReference {
	os.Remove(localPath)
	if m.failFolders[folder] {
		return models.MediaReference{}
	}
	m.uploads = append(m.uploads, folder)
	key := folder + "/" + filepath.Base(localPath)
	return models.MediaReference{URL: "https://media.test/" + key, Key: key}
}

func (m *fakeMediaManager) Remove(_ context.Context, ref models.MediaReference, _ string) {
	if ref.Key == "" {
		return
	}
	m.removed = append(m.removed, ref)
}

func (m *fakeMediaManager) RemoveAll(ctx context.Context, kind string, refs ...models.MediaReference) {
	for _, ref := range refs {
		m.Remove(ctx, ref, kind)
	}
}

type watchEntry struct {
	videoID   string
	watchedAt time.Time
}

// inMemoryUserStore implements UserStore over maps.
type inMemoryUserStore struct {
	users   map[string]models.User
	watched map[string][]watchEntry
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{
		users:   make(map[string]models.User),
		watched: make(map[string][]watchEntry),
	}
}

func (s *inMemoryUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *inMemoryUserStore) FindByUsernameOrEmail(_ context.Context, login string) (models.User, error) {
	login = strings.ToLower(login)
	for _, user := range s.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) UpdateAccount(_ context.Context, userID, fullName, email string) (models.User, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if email != "" {
		for id, other := range s.users {
			if id != userID && other.Email == email {
				return models.User{}, repositories.ErrConflict
			}
		}
		user.Email = email
	}
	if fullName != "" {
		user.FullName = fullName
	}
	s.users[userID] = user
	return user, nil
}

func (s *inMemoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	s.users[userID] = user
	return nil
}

func (s *inMemoryUserStore) UpdateAvatar(_ context.Context, userID string, avatar models.MediaReference) (models.MediaReference, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.MediaReference{}, repositories.ErrNotFound
	}
	prev := user.Avatar
	user.Avatar = avatar
	s.users[userID] = user
	return prev, nil
}

func (s *inMemoryUserStore) UpdateCoverImage(_ context.Context, userID string, cover models.MediaReference) (models.MediaReference, error) {
	user, ok := s.users[userID]
	if !ok {
		return models.MediaReference{}, repositories.ErrNotFound
	}
	prev := user.CoverImage
	user.CoverImage = cover
	s.users[userID] = user
	return prev, nil
}

func (s *inMemoryUserStore) RecordWatch(_ context.Context, userID, videoID string) error {
	entries := s.watched[userID]
	for i := range entries {
		if entries[i].videoID == videoID {
			entries[i].watchedAt = time.Now()
			return nil
		}
	}
	s.watched[userID] = append(entries, watchEntry{videoID: videoID, watchedAt: time.Now()})
	return nil
}

func (s *inMemoryUserStore) WatchHistory(_ context.Context, userID string) ([]models.WatchedVideo, error) {
	entries := s.watched[userID]
	history := make([]models.WatchedVideo, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		watched := models.WatchedVideo{WatchedAt: entries[i].watchedAt}
		watched.Video.ID = entries[i].videoID
		history = append(history, watched)
	}
	return history, nil
}

func (s *inMemoryUserStore) ChannelProfile(_ context.Context, username, _ string) (models.ChannelProfile, error) {
	for _, user := range s.users {
		if user.Username == strings.ToLower(username) {
			return models.ChannelProfile{
				ID:       user.ID,
				Username: user.Username,
				FullName: user.FullName,
			}, nil
		}
	}
	return models.ChannelProfile{}, repositories.ErrNotFound
}

// credentialAdapter exposes an inMemoryUserStore to the session manager.
type credentialAdapter struct {
	store *inMemoryUserStore
}

func (a credentialAdapter) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := a.store.users[id]
	if !ok {
		return models.User{}, auth.ErrUserGone
	}
	return user, nil
}

func (a credentialAdapter) SaveRefreshToken(_ context.Context, userID, token string) error {
	user := a.store.users[userID]
	user.RefreshToken = token
	a.store.users[userID] = user
	return nil
}

func (a credentialAdapter) SwapRefreshToken(_ context.Context, userID, current, next string) error {
	user, ok := a.store.users[userID]
	if !ok || user.RefreshToken != current {
		return auth.ErrTokenReuse
	}
	user.RefreshToken = next
	a.store.users[userID] = user
	return nil
}

func (a credentialAdapter) ClearRefreshToken(_ context.Context, userID string) error {
	user := a.store.users[userID]
	user.RefreshToken = ""
	a.store.users[userID] = user
	return nil
}

type fakeSubscriptionStore struct {
	subscribed map[string]bool
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, channelID, subscriberID string) (bool, error) {
	if s.subscribed == nil {
		s.subscribed = make(map[string]bool)
	}
	key := channelID + ":" + subscriberID
	s.subscribed[key] = !s.subscribed[key]
	return s.subscribed[key], nil
}
