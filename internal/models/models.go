package models

import "time"

// MediaReference points at an asset held by the external object store.
// Key is the store's opaque handle, used later to replace or delete the asset.
type MediaReference struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// IsZero reports whether the reference points at nothing.
func (m MediaReference) IsZero() bool {
	return m.URL == "" && m.Key == ""
}

// User represents an account on the ClipStream platform. Password holds the
// bcrypt hash, never the plaintext, and is excluded from every response
// projection along with RefreshToken.
type User struct {
	ID           string         `json:"id"`
	Username     string         `json:"username"`
	Email        string         `json:"email"`
	FullName     string         `json:"fullName"`
	Password     string         `json:"-"`
	Avatar       MediaReference `json:"avatar"`
	CoverImage   MediaReference `json:"coverImage"`
	RefreshToken string         `json:"-"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Video is an uploaded clip owned by a user. Media references are populated
// only after the external upload succeeded.
type Video struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"ownerId"`
	File        MediaReference `json:"videoFile"`
	Thumbnail   MediaReference `json:"thumbnail"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Duration    float64        `json:"duration"`
	Views       int64          `json:"views"`
	Published   bool           `json:"isPublished"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Comment is a remark left on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget names the kind of record a like attaches to.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
)

// Like marks approval of exactly one video or one comment by a user. At most
// one like exists per (liker, target) pair.
type Like struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	LikerID   string    `json:"likedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Playlist is an ordered, duplicate-free set of videos. Name is unique within
// a single owner's playlists.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription records that Subscriber follows Channel. It exists to be
// counted; there is no standalone subscription resource in the API.
type Subscription struct {
	ID           string    `json:"id"`
	ChannelID    string    `json:"channelId"`
	SubscriberID string    `json:"subscriberId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SessionTokens groups the signed credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
