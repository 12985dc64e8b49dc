package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream/backend/internal/db"
	"github.com/clipstream/backend/internal/logging"
	"github.com/clipstream/backend/internal/models"
)

const commentColumns = `c.id, c.video_id, c.owner_id, c.content, c.created_at, c.updated_at`

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create persists a new comment. A dangling video or owner reference surfaces
// as ErrNotFound via the foreign keys.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content,
		comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// Update rewrites the comment's content. A wrong owner yields ErrForbidden, a
// missing id ErrNotFound.
func (r *PostgresCommentRepository) Update(ctx context.Context, id, ownerID, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var c models.Comment
	err = conn.QueryRow(ctx, `
        UPDATE comments c
        SET content = $3, updated_at = now()
        WHERE c.id = $1 AND c.owner_id = $2
        RETURNING `+commentColumns+`
    `, id, ownerID, content).Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Content, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, r.missingOrForbidden(ctx, conn, id)
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return c, nil
}

// Delete removes the owner's comment.
func (r *PostgresCommentRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrForbidden(ctx, conn, id)
	}

	return nil
}

// ListForVideo joins each comment to a subset of its parent video and to its
// author's card, oldest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string) ([]models.CommentView, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.video_comments")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`,
               v.id, v.title, v.description, v.views, v.is_published,
               u.id, u.username, u.full_name, u.avatar_url, u.avatar_key
        FROM comments c
        JOIN videos v ON v.id = c.video_id
        JOIN users u ON u.id = c.owner_id
        WHERE c.video_id = $1
        ORDER BY c.created_at ASC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query video comments: %w", err)
	}
	defer rows.Close()

	var views []models.CommentView
	for rows.Next() {
		var cv models.CommentView
		if err := rows.Scan(&cv.ID, &cv.VideoID, &cv.OwnerID, &cv.Content, &cv.CreatedAt, &cv.UpdatedAt,
			&cv.Video.ID, &cv.Video.Title, &cv.Video.Description, &cv.Video.Views, &cv.Video.Published,
			&cv.Owner.ID, &cv.Owner.Username, &cv.Owner.FullName, &cv.Owner.Avatar.URL, &cv.Owner.Avatar.Key); err != nil {
			return nil, fmt.Errorf("scan comment view: %w", err)
		}
		views = append(views, cv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video comments: %w", err)
	}

	return views, nil
}

func (r *PostgresCommentRepository) missingOrForbidden(ctx context.Context, conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check comment existence: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrNotFound
}

var _ CommentRepository = (*PostgresCommentRepository)(nil)
