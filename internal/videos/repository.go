package videos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-ar/backend/internal/models"
)

// Repository handles video asset persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a video repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new video row.
func (r *Repository) Create(ctx context.Context, v *models.Video) error {
	const q = `INSERT INTO videos (content_id, file_url, file_type, file_size, s3_key, is_active, schedule_start, schedule_end, rotation_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, v.ContentID, v.FileURL, v.FileType, v.FileSize, v.S3Key, v.IsActive, v.ScheduleStart, v.ScheduleEnd, v.RotationOrder).
		Scan(&v.ID, &v.CreatedAt)
}

// GetByID returns a video by id, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Video, error) {
	const q = `SELECT id, content_id, file_url, file_type, file_size, COALESCE(s3_key,''), is_active, schedule_start, schedule_end, rotation_order, created_at
		FROM videos WHERE id = $1`
	var v models.Video
	err := r.pool.QueryRow(ctx, q, id).Scan(&v.ID, &v.ContentID, &v.FileURL, &v.FileType, &v.FileSize, &v.S3Key, &v.IsActive, &v.ScheduleStart, &v.ScheduleEnd, &v.RotationOrder, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByContent returns all videos of a content item ordered by id.
func (r *Repository) ListByContent(ctx context.Context, contentID int64) ([]models.Video, error) {
	const q = `SELECT id, content_id, file_url, file_type, file_size, COALESCE(s3_key,''), is_active, schedule_start, schedule_end, rotation_order, created_at
		FROM videos WHERE content_id = $1 ORDER BY id`
	rows, err := r.pool.Query(ctx, q, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.ContentID, &v.FileURL, &v.FileType, &v.FileSize, &v.S3Key, &v.IsActive, &v.ScheduleStart, &v.ScheduleEnd, &v.RotationOrder, &v.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// UpdateSettings modifies the validity window and rotation order.
func (r *Repository) UpdateSettings(ctx context.Context, v *models.Video) error {
	const q = `UPDATE videos SET schedule_start = $1, schedule_end = $2, rotation_order = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, v.ScheduleStart, v.ScheduleEnd, v.RotationOrder, v.ID)
	return err
}

// Delete removes a video. The pinned pointer on the owning content is
// cleared when it referenced this video; rotation sequences are left as-is
// and the driver tolerates the dangling id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if _, err := tx.Exec(ctx, `UPDATE contents SET active_video_id = NULL, updated_at = NOW() WHERE active_video_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
