package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create persists a new playlist. A duplicate name for the same owner yields
// ErrConflict; the same name under a different owner is allowed.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description,
		playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches the owner's playlist with its ordered video id set.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id, ownerID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := r.loadPlaylist(ctx, conn, id, ownerID)
	if err != nil {
		return models.Playlist{}, err
	}
	return playlist, nil
}

// ListForOwner returns all of the owner's playlists, newest first.
func (r *PostgresPlaylistRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
               COALESCE(array_agg(pv.video_id ORDER BY pv.position) FILTER (WHERE pv.video_id IS NOT NULL), '{}')
        FROM playlists p
        LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
        WHERE p.owner_id = $1
        GROUP BY p.id
        ORDER BY p.created_at DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description,
			&p.CreatedAt, &p.UpdatedAt, &p.VideoIDs); err != nil {
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	return playlists, nil
}

// UpdateProfile renames the owner's playlist. A wrong owner yields
// ErrForbidden, a missing id ErrNotFound, a name already used by the same
// owner ErrConflict.
func (r *PostgresPlaylistRepository) UpdateProfile(ctx context.Context, id, ownerID, name, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET name = $3, description = $4, updated_at = now()
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID, name, description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Playlist{}, ErrConflict
		}
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, r.missingOrForbidden(ctx, conn, id)
	}

	return r.loadPlaylist(ctx, conn, id, ownerID)
}

// AddVideo performs set-insertion: adding a video already in the playlist is a
// no-op rather than a duplicate entry.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := r.requireOwned(ctx, conn, id, ownerID); err != nil {
		return models.Playlist{}, err
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, position)
        SELECT $1, $2, COALESCE(MAX(position), 0) + 1
        FROM playlist_videos WHERE playlist_id = $1
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, id, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("add playlist video: %w", err)
	}

	return r.loadPlaylist(ctx, conn, id, ownerID)
}

// RemoveVideo deletes every entry matching the video id, wherever it sits.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, id, ownerID, videoID string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := r.requireOwned(ctx, conn, id, ownerID); err != nil {
		return models.Playlist{}, err
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2
    `, id, videoID); err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}

	return r.loadPlaylist(ctx, conn, id, ownerID)
}

// Delete removes the owner's playlist and its video entries.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlists WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrForbidden(ctx, conn, id)
	}

	return nil
}

func (r *PostgresPlaylistRepository) loadPlaylist(ctx context.Context, conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id, ownerID string) (models.Playlist, error) {
	var p models.Playlist
	err := conn.QueryRow(ctx, `
        SELECT p.id, p.owner_id, p.name, p.description, p.created_at, p.updated_at,
               COALESCE(array_agg(pv.video_id ORDER BY pv.position) FILTER (WHERE pv.video_id IS NOT NULL), '{}')
        FROM playlists p
        LEFT JOIN playlist_videos pv ON pv.playlist_id = p.id
        WHERE p.id = $1 AND p.owner_id = $2
        GROUP BY p.id
    `, id, ownerID).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description,
		&p.CreatedAt, &p.UpdatedAt, &p.VideoIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, r.missingOrForbidden(ctx, conn, id)
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	return p, nil
}

func (r *PostgresPlaylistRepository) requireOwned(ctx context.Context, conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id, ownerID string) error {
	var dbOwner string
	err := conn.QueryRow(ctx, `SELECT owner_id FROM playlists WHERE id = $1`, id).Scan(&dbOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("check playlist owner: %w", err)
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	return nil
}

func (r *PostgresPlaylistRepository) missingOrForbidden(ctx context.Context, conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check playlist existence: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrNotFound
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
