package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/config"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/handlers"
	"github.com/clipstream/backend/internal/media"
	"github.com/clipstream/backend/internal/middleware"
	"github.com/clipstream/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, error) {
	tokens, err := auth.NewTokenService(cfg.Tokens)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	store, err := media.NewS3Store(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	credentials := repositories.NewCredentialStore(users)

	return handlers.Dependencies{
		Logger:        logger,
		Users:         users,
		Sessions:      auth.NewSessionManager(tokens, credentials),
		Identity:      credentials,
		Verifier:      tokens,
		Media:         media.NewManager(store),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		AuthLimiter:   middleware.NewIPRateLimiter(10, time.Minute, 20, 10*time.Minute),
		SecureCookies: cfg.Production(),
	}, nil
}
