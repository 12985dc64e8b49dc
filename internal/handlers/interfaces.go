package handlers

import (
	"context"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, login string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateAvatar(ctx context.Context, userID string, avatar models.MediaReference) (models.MediaReference, error)
	UpdateCoverImage(ctx context.Context, userID string, cover models.MediaReference) (models.MediaReference, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
	WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// SessionManager drives token issuance, rotation, and revocation.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	Rotate(ctx context.Context, presented string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
}

// MediaManager mediates uploads and best-effort deletes against the external
// media host.
type MediaManager interface {
	Upload(ctx context.Context, localPath, folder string) models.MediaReference
	Remove(ctx context.Context, ref models.MediaReference, kind string)
	RemoveAll(ctx context.Context, kind string, refs ...models.MediaReference)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	Detail(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, filter repositories.VideoFilter, cursor string, limit int) (models.VideoPage, error)
	UpdateProfile(ctx context.Context, id, ownerID, title, description string, thumbnail *models.MediaReference) (models.Video, models.MediaReference, error)
	TogglePublish(ctx context.Context, id, ownerID string) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) (models.Video, error)
}

// CommentStore captures persistence for comment workflows.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	Update(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListForVideo(ctx context.Context, videoID string) ([]models.CommentView, error)
}

// LikeStore toggles likes and resolves liked videos.
type LikeStore interface {
	Toggle(ctx context.Context, likerID string, target models.LikeTarget, targetID string) (added bool, err error)
	LikedVideos(ctx context.Context, likerID string) ([]models.VideoWithOwner, error)
}

// PlaylistStore captures persistence for playlist workflows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id, ownerID string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateProfile(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error)
	AddVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// SubscriptionStore toggles channel follows.
type SubscriptionStore interface {
	Toggle(ctx context.Context, channelID, subscriberID string) (subscribed bool, err error)
}
