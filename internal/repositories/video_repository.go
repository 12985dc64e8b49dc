package repositories

import (
	"context"

	"github.com/clipstream/backend/internal/models"
)

// VideoFilter narrows a paginated video listing.
type VideoFilter struct {
	OwnerID       string
	Query         string
	PublishedOnly bool
}

// VideoRepository defines persistence for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	// Detail joins the owner card and bumps the stored view count.
	Detail(ctx context.Context, id string) (models.VideoWithOwner, error)
	List(ctx context.Context, filter VideoFilter, cursor string, limit int) (models.VideoPage, error)
	// UpdateProfile rewrites title/description and optionally the thumbnail,
	// returning the previous thumbnail reference so the caller can release it.
	UpdateProfile(ctx context.Context, id, ownerID, title, description string, thumbnail *models.MediaReference) (models.Video, models.MediaReference, error)
	TogglePublish(ctx context.Context, id, ownerID string) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) (models.Video, error)
}

// CommentRepository defines persistence for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	Update(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, id, ownerID string) error
	ListForVideo(ctx context.Context, videoID string) ([]models.CommentView, error)
}

// LikeRepository toggles likes and resolves liked videos.
type LikeRepository interface {
	Toggle(ctx context.Context, likerID string, target models.LikeTarget, targetID string) (added bool, err error)
	LikedVideos(ctx context.Context, likerID string) ([]models.VideoWithOwner, error)
}

// PlaylistRepository defines persistence for playlists and their video sets.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id, ownerID string) (models.Playlist, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdateProfile(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error)
	AddVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) error
}
