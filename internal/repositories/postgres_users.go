package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/auth"
	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// watchHistoryCap bounds per-user watch history; older entries are trimmed on
// insert so the list cannot grow without limit.
const watchHistoryCap = 100

const userColumns = `id, username, email, full_name, password_hash,
        avatar_url, avatar_key, cover_url, cover_key,
        COALESCE(refresh_token, ''), created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Password,
		&u.Avatar.URL, &u.Avatar.Key, &u.CoverImage.URL, &u.CoverImage.Key,
		&u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// Create persists a new user record. Username and email are stored
// case-normalized; a duplicate of either yields ErrConflict.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash,
                avatar_url, avatar_key, cover_url, cover_key, created_at, updated_at)
        VALUES ($1, lower($2), lower($3), $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Username, user.Email, user.FullName, user.Password,
		user.Avatar.URL, user.Avatar.Key, user.CoverImage.URL, user.CoverImage.Key,
		user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE id = $1
    `, id))
}

// FindByUsernameOrEmail resolves a login identifier to a user.
func (r *PostgresUserRepository) FindByUsernameOrEmail(ctx context.Context, login string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE username = lower($1) OR email = lower($1)
    `, strings.TrimSpace(login)))
}

// UpdateAccount rewrites full name and/or email; an empty argument keeps the
// stored value. A duplicate email yields ErrConflict.
func (r *PostgresUserRepository) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        UPDATE users
        SET full_name = COALESCE(NULLIF($2, ''), full_name),
            email = COALESCE(NULLIF(lower($3), ''), email),
            updated_at = now()
        WHERE id = $1
        RETURNING `+userColumns+`
    `, userID, fullName, email))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, err
	}

	return user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
    `, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAvatar swaps the stored avatar reference and returns the previous one
// so the caller can release the remote asset.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, userID string, avatar models.MediaReference) (models.MediaReference, error) {
	return r.swapMediaColumn(ctx, userID, "avatar_url", "avatar_key", avatar)
}

// UpdateCoverImage swaps the stored cover-image reference and returns the
// previous one.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, userID string, cover models.MediaReference) (models.MediaReference, error) {
	return r.swapMediaColumn(ctx, userID, "cover_url", "cover_key", cover)
}

func (r *PostgresUserRepository) swapMediaColumn(ctx context.Context, userID, urlCol, keyCol string, ref models.MediaReference) (models.MediaReference, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.MediaReference{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var prev models.MediaReference
	row := conn.QueryRow(ctx, fmt.Sprintf(`
        UPDATE users u
        SET %[1]s = $2, %[2]s = $3, updated_at = now()
        FROM (SELECT id, %[1]s AS old_url, %[2]s AS old_key FROM users WHERE id = $1) prev
        WHERE u.id = prev.id
        RETURNING prev.old_url, prev.old_key
    `, urlCol, keyCol), userID, ref.URL, ref.Key)
	if err := row.Scan(&prev.URL, &prev.Key); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MediaReference{}, ErrNotFound
		}
		return models.MediaReference{}, fmt.Errorf("update %s: %w", urlCol, err)
	}

	return prev, nil
}

// SaveRefreshToken overwrites the stored refresh token, invalidating any prior
// value.
func (r *PostgresUserRepository) SaveRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2, updated_at = now()
        WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SwapRefreshToken replaces the stored refresh token only when it still equals
// current. The conditional WHERE makes the compare-and-set a single atomic
// statement, so concurrent rotations cannot both succeed.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, current, next string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $3, updated_at = now()
        WHERE id = $1 AND refresh_token = $2
    `, userID, current, next)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrTokenReuse
	}

	return nil
}

// ClearRefreshToken revokes the user's active session.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = NULL, updated_at = now()
        WHERE id = $1
    `, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

// RecordWatch prepends the video to the user's watch history. A repeat watch
// moves the entry to the front instead of duplicating it, and entries beyond
// the cap are trimmed.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, now())
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = now()
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("record watch: %w", err)
	}

	_, err = conn.Exec(ctx, `
        DELETE FROM watch_history
        WHERE user_id = $1 AND video_id NOT IN (
            SELECT video_id FROM watch_history
            WHERE user_id = $1
            ORDER BY watched_at DESC
            LIMIT $2
        )
    `, userID, watchHistoryCap)
	if err != nil {
		return fmt.Errorf("trim watch history: %w", err)
	}

	return nil
}

// WatchHistory resolves the user's watch list into full video documents with
// owner cards, most recent first. Videos deleted since being watched are
// dropped by the inner joins rather than reported as errors.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]models.WatchedVideo, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.watch_history")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`, wh.watched_at
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var history []models.WatchedVideo
	for rows.Next() {
		var entry models.WatchedVideo
		if err := scanVideoWithOwner(rows, &entry.VideoWithOwner, &entry.WatchedAt); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return history, nil
}

// ChannelProfile aggregates a channel's public profile: subscriber counts are
// computed at read time from the subscriptions table, never cached.
func (r *PostgresUserRepository) ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.channel_profile")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.username, u.email, u.full_name,
               u.avatar_url, u.avatar_key, u.cover_url, u.cover_key,
               (SELECT count(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT count(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.username = lower($1)
    `, username, viewerID)

	var p models.ChannelProfile
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.FullName,
		&p.Avatar.URL, &p.Avatar.Key, &p.CoverImage.URL, &p.CoverImage.Key,
		&p.SubscriberCount, &p.SubscribedTo, &p.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	return p, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
