package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger        *slog.Logger
	Users         UserStore
	Sessions      SessionManager
	Identity      middleware.IdentityStore
	Verifier      middleware.AccessVerifier
	Media         MediaManager
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Playlists     PlaylistStore
	Subscriptions SubscriptionStore
	AuthLimiter   middleware.RateLimiter
	SecureCookies bool
}

// NewRouter wires every handler into a chi router. Everything under /api/v1
// except registration, login, and token refresh sits behind the session
// middleware.
func NewRouter(deps Dependencies) http.Handler {
	users := UserHandler{
		Users:         deps.Users,
		Sessions:      deps.Sessions,
		Media:         deps.Media,
		Subscriptions: deps.Subscriptions,
		SecureCookies: deps.SecureCookies,
	}
	videos := VideoHandler{Videos: deps.Videos, Users: deps.Users, Media: deps.Media}
	comments := CommentHandler{Comments: deps.Comments}
	likes := LikeHandler{Likes: deps.Likes}
	playlists := PlaylistHandler{Playlists: deps.Playlists}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(deps.Logger))

	r.Get("/healthz", HealthHandler{}.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		// Credential endpoints stay public and rate limited.
		r.Group(func(r chi.Router) {
			if deps.AuthLimiter != nil {
				r.Use(middleware.Throttle(deps.AuthLimiter))
			}
			r.Post("/users/register", users.Register)
			r.Post("/users/login", users.Login)
			r.Post("/users/refresh-token", users.RefreshToken)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(deps.Verifier, deps.Identity))

			r.Post("/users/logout", users.Logout)
			r.Get("/users/current-user", users.CurrentUser)
			r.Post("/users/password-reset", users.ChangePassword)
			r.Patch("/users/update-profile", users.UpdateProfile)
			r.Patch("/users/update-avatar", users.UpdateAvatar)
			r.Patch("/users/update-cover-image", users.UpdateCoverImage)
			r.Get("/users/channel/{username}", users.Channel)
			r.Get("/users/watch-history", users.WatchHistory)
			r.Post("/subscriptions/{username}", users.ToggleSubscription)

			r.Post("/videos", videos.Upload)
			r.Get("/videos", videos.List)
			r.Get("/videos/{videoId}", videos.Detail)
			r.Patch("/videos/{videoId}", videos.Update)
			r.Delete("/videos/{videoId}", videos.Delete)
			r.Patch("/videos/toggle-publish/{videoId}", videos.TogglePublish)

			r.Get("/comments", comments.ListForVideo)
			r.Post("/comments", comments.Create)
			r.Patch("/comments/{commentId}", comments.Update)
			r.Delete("/comments/{commentId}", comments.Delete)

			r.Get("/likes", likes.LikedVideos)
			r.Post("/likes/video-like", likes.ToggleVideo)
			r.Post("/likes/comment-like", likes.ToggleComment)

			r.Post("/playlists", playlists.Create)
			r.Get("/playlists", playlists.List)
			r.Patch("/playlists", playlists.UpdateProfile)
			r.Get("/playlists/{playlistId}", playlists.Get)
			r.Patch("/playlists/{playlistId}", playlists.UpdateVideos)
			r.Delete("/playlists/{playlistId}", playlists.Delete)
		})
	})

	return r
}
