package models

import "time"

// Read-model shapes produced by the aggregation queries. They are assembled at
// read time from joins; none of the counts below are persisted anywhere.

// OwnerCard is the subset of a user's profile that travels alongside owned
// resources. It never carries credential fields.
type OwnerCard struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email,omitempty"`
	FullName string         `json:"fullName"`
	Avatar   MediaReference `json:"avatar"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	Email           string         `json:"email"`
	FullName        string         `json:"fullName"`
	Avatar          MediaReference `json:"avatar"`
	CoverImage      MediaReference `json:"coverImage"`
	SubscriberCount int64          `json:"subscriberCount"`
	SubscribedTo    int64          `json:"channelsSubscribedTo"`
	IsSubscribed    bool           `json:"isSubscribed"`
}

// VideoWithOwner joins a video with its owner's card.
type VideoWithOwner struct {
	Video
	Owner OwnerCard `json:"owner"`
}

// WatchedVideo is a watch-history entry resolved into a full video document.
type WatchedVideo struct {
	VideoWithOwner
	WatchedAt time.Time `json:"watchedAt"`
}

// CommentView joins a comment with a subset of its parent video and its
// author's card.
type CommentView struct {
	Comment
	Video CommentVideoCard `json:"video"`
	Owner OwnerCard        `json:"owner"`
}

// CommentVideoCard is the slice of video fields exposed on comment listings.
type CommentVideoCard struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Views       int64  `json:"views"`
	Published   bool   `json:"isPublished"`
}

// VideoPage is one keyset-paginated slice of a video listing.
type VideoPage struct {
	Videos     []VideoWithOwner `json:"videos"`
	NextCursor string           `json:"nextCursor,omitempty"`
}
