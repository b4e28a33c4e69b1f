package contents

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-ar/backend/internal/models"
)

// Repository handles content item persistence. It also implements
// rotation.ContentStore for the active-video resolver.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a content repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new content item.
func (r *Repository) Create(ctx context.Context, c *models.ContentItem) error {
	const q = `INSERT INTO contents (title, description, marker_url, marker_s3_key, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, c.Title, c.Description, c.MarkerURL, c.MarkerS3Key, c.CreatedBy).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetContent returns a content item by id, or nil when it does not exist.
func (r *Repository) GetContent(ctx context.Context, id int64) (*models.ContentItem, error) {
	const q = `SELECT id, title, COALESCE(description,''), COALESCE(marker_url,''), COALESCE(marker_s3_key,''), active_video_id, created_by, created_at, updated_at
		FROM contents WHERE id = $1`
	var c models.ContentItem
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.Title, &c.Description, &c.MarkerURL, &c.MarkerS3Key, &c.ActiveVideoID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all content items, newest first.
func (r *Repository) List(ctx context.Context) ([]models.ContentItem, error) {
	const q = `SELECT id, title, COALESCE(description,''), COALESCE(marker_url,''), COALESCE(marker_s3_key,''), active_video_id, created_by, created_at, updated_at
		FROM contents ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.ContentItem
	for rows.Next() {
		var c models.ContentItem
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.MarkerURL, &c.MarkerS3Key, &c.ActiveVideoID, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Update modifies title, description and marker fields.
func (r *Repository) Update(ctx context.Context, c *models.ContentItem) error {
	const q = `UPDATE contents SET title = $1, description = $2, marker_url = $3, marker_s3_key = $4, updated_at = NOW()
		WHERE id = $5 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, c.Title, c.Description, c.MarkerURL, c.MarkerS3Key, c.ID).Scan(&c.UpdatedAt)
}

// Delete removes a content item. Videos and schedule rows cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM contents WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

// SetActiveVideo points the content at a pinned active video, or clears the
// pin when videoID is nil. The rotation driver repoints this on every fire.
func (r *Repository) SetActiveVideo(ctx context.Context, contentID int64, videoID *int64) error {
	const q = `UPDATE contents SET active_video_id = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, videoID, contentID)
	return err
}

// ListVideos returns all videos of a content item ordered by id.
func (r *Repository) ListVideos(ctx context.Context, contentID int64) ([]models.Video, error) {
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
