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

const videoColumns = `v.id, v.owner_id, v.file_url, v.file_key, v.thumb_url, v.thumb_key,
        v.title, v.description, v.duration, v.views, v.is_published, v.created_at, v.updated_at`

const videoWithOwnerColumns = videoColumns + `,
        u.id, u.username, u.email, u.full_name, u.avatar_url, u.avatar_key`

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

func scanVideo(row pgx.Row, v *models.Video) error {
	return row.Scan(&v.ID, &v.OwnerID, &v.File.URL, &v.File.Key,
		&v.Thumbnail.URL, &v.Thumbnail.Key, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.Published, &v.CreatedAt, &v.UpdatedAt)
}

func scanVideoWithOwner(row pgx.Row, out *models.VideoWithOwner, extra ...any) error {
	dest := []any{
		&out.ID, &out.OwnerID, &out.File.URL, &out.File.Key,
		&out.Thumbnail.URL, &out.Thumbnail.Key, &out.Title, &out.Description,
		&out.Duration, &out.Views, &out.Published, &out.CreatedAt, &out.UpdatedAt,
		&out.Owner.ID, &out.Owner.Username, &out.Owner.Email, &out.Owner.FullName,
		&out.Owner.Avatar.URL, &out.Owner.Avatar.Key,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return fmt.Errorf("scan video row: %w", err)
	}
	return nil
}

// Create stores a new video record. The owner must exist; a dangling owner
// reference surfaces as ErrNotFound via the foreign key.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, file_url, file_key, thumb_url, thumb_key,
                title, description, duration, views, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.File.URL, video.File.Key,
		video.Thumbnail.URL, video.Thumbnail.Key, video.Title, video.Description,
		video.Duration, video.Views, video.Published, video.CreatedAt, video.UpdatedAt)
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
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a bare video record.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var video models.Video
	if err := scanVideo(conn.QueryRow(ctx, `
        SELECT `+videoColumns+` FROM videos v WHERE v.id = $1
    `, id), &video); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}

	return video, nil
}

// Detail joins the owner card onto the video and increments the stored view
// count as a side effect of the fetch.
func (r *PostgresVideoRepository) Detail(ctx context.Context, id string) (models.VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "repositories.video_detail")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoWithOwner{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var detail models.VideoWithOwner
	err = scanVideoWithOwner(conn.QueryRow(ctx, `
        WITH bumped AS (
            UPDATE videos SET views = views + 1
            WHERE id = $1
            RETURNING *
        )
        SELECT `+videoWithOwnerColumns+`
        FROM bumped v
        JOIN users u ON u.id = v.owner_id
    `, id), &detail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.VideoWithOwner{}, ErrNotFound
		}
		return models.VideoWithOwner{}, err
	}

	return detail, nil
}

// List returns one keyset-paginated page ordered by creation time descending.
// An empty cursor starts from the newest video.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoFilter, cursor string, limit int) (models.VideoPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	after, err := decodeCursor(cursor)
	if err != nil {
		return models.VideoPage{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+videoWithOwnerColumns+`
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE ($1 = '' OR v.owner_id = $1::uuid)
          AND (NOT $2 OR v.is_published)
          AND ($3 = '' OR v.title ILIKE '%' || $3 || '%')
          AND ($4::timestamptz IS NULL OR (v.created_at, v.id) < ($4::timestamptz, $5::uuid))
        ORDER BY v.created_at DESC, v.id DESC
        LIMIT $6
    `, filter.OwnerID, filter.PublishedOnly, filter.Query, after.createdAt, after.id, limit+1)
	if err != nil {
		return models.VideoPage{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoWithOwner
	for rows.Next() {
		var v models.VideoWithOwner
		if err := scanVideoWithOwner(rows, &v); err != nil {
			return models.VideoPage{}, err
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return models.VideoPage{}, fmt.Errorf("iterate videos: %w", err)
	}

	page := models.VideoPage{Videos: videos}
	if len(videos) > limit {
		page.Videos = videos[:limit]
		last := page.Videos[limit-1]
		page.NextCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

// UpdateProfile rewrites the video's title and description, and the thumbnail
// when a new reference is supplied. It returns the previous thumbnail so the
// caller can release the remote asset. A wrong owner yields ErrForbidden, a
// missing id ErrNotFound.
func (r *PostgresVideoRepository) UpdateProfile(ctx context.Context, id, ownerID, title, description string, thumbnail *models.MediaReference) (models.Video, models.MediaReference, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, models.MediaReference{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	newThumb := models.MediaReference{}
	swapThumb := thumbnail != nil
	if swapThumb {
		newThumb = *thumbnail
	}

	var video models.Video
	var prevThumb models.MediaReference
	row := conn.QueryRow(ctx, `
        UPDATE videos v
        SET title = $3, description = $4,
            thumb_url = CASE WHEN $5 THEN $6 ELSE thumb_url END,
            thumb_key = CASE WHEN $5 THEN $7 ELSE thumb_key END,
            updated_at = now()
        FROM (SELECT id, thumb_url AS old_url, thumb_key AS old_key FROM videos WHERE id = $1) prev
        WHERE v.id = prev.id AND v.owner_id = $2
        RETURNING `+videoColumns+`, prev.old_url, prev.old_key
    `, id, ownerID, title, description, swapThumb, newThumb.URL, newThumb.Key)
	err = row.Scan(&video.ID, &video.OwnerID, &video.File.URL, &video.File.Key,
		&video.Thumbnail.URL, &video.Thumbnail.Key, &video.Title, &video.Description,
		&video.Duration, &video.Views, &video.Published, &video.CreatedAt, &video.UpdatedAt,
		&prevThumb.URL, &prevThumb.Key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, models.MediaReference{}, r.missingOrForbidden(ctx, conn, id)
		}
		return models.Video{}, models.MediaReference{}, fmt.Errorf("update video: %w", err)
	}

	if !swapThumb {
		prevThumb = models.MediaReference{}
	}
	return video, prevThumb, nil
}

// TogglePublish flips the stored published flag for the owner's video.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, id, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var video models.Video
	err = scanVideo(conn.QueryRow(ctx, `
        UPDATE videos v
        SET is_published = NOT is_published, updated_at = now()
        WHERE v.id = $1 AND v.owner_id = $2
        RETURNING `+videoColumns+`
    `, id, ownerID), &video)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, r.missingOrForbidden(ctx, conn, id)
		}
		return models.Video{}, fmt.Errorf("toggle publish: %w", err)
	}

	return video, nil
}

// Delete removes the owner's video and returns the deleted record so the
// caller can release both remote assets.
func (r *PostgresVideoRepository) Delete(ctx context.Context, id, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var video models.Video
	err = scanVideo(conn.QueryRow(ctx, `
        DELETE FROM videos v
        WHERE v.id = $1 AND v.owner_id = $2
        RETURNING `+videoColumns+`
    `, id, ownerID), &video)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, r.missingOrForbidden(ctx, conn, id)
		}
		return models.Video{}, fmt.Errorf("delete video: %w", err)
	}

	return video, nil
}

// missingOrForbidden disambiguates a zero-row owned mutation: the id either
// does not exist (ErrNotFound) or belongs to someone else (ErrForbidden).
func (r *PostgresVideoRepository) missingOrForbidden(ctx context.Context, conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, id string) error {
	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check video existence: %w", err)
	}
	if exists {
		return ErrForbidden
	}
	return ErrNotFound
}

var _ VideoRepository = (*PostgresVideoRepository)(nil)
