package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Toggle deletes the caller's like on the target when one exists, otherwise
// creates it. The delete doubles as the existence check. Two identical toggles
// racing can still interleave delete/insert; the partial unique index keeps
// duplicates out, so the loser of an insert race is folded into "added".
func (r *PostgresLikeRepository) Toggle(ctx context.Context, likerID string, target models.LikeTarget, targetID string) (bool, error) {
	column, err := targetColumn(target)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		fmt.Sprintf(`DELETE FROM likes WHERE liker_id = $1 AND %s = $2`, column),
		likerID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx,
		fmt.Sprintf(`INSERT INTO likes (id, liker_id, %s, created_at) VALUES ($1, $2, $3, $4)`, column),
		uuid.NewString(), likerID, targetID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				// Concurrent toggle inserted first; the like exists, which is
				// the outcome this call wanted.
				return true, nil
			case "23503":
				return false, ErrNotFound
			}
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}

// LikedVideos resolves the caller's video likes into full video documents with
// owner cards, newest like first. Likes on comments are excluded, and likes
// whose video has since been deleted are dropped by the join.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, likerID string) ([]models.VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.liked_videos")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE l.liker_id = $1 AND l.video_id IS NOT NULL
        ORDER BY l.created_at DESC
    `, likerID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoWithOwner
	for rows.Next() {
		var v models.VideoWithOwner
		if err := scanVideoWithOwner(rows, &v); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

func targetColumn(target models.LikeTarget) (string, error) {
	switch target {
	case models.LikeTargetVideo:
		return "video_id", nil
	case models.LikeTargetComment:
		return "comment_id", nil
	default:
		return "", fmt.Errorf("unknown like target %q", target)
	}
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
