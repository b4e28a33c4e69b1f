package schedules

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumen-ar/backend/internal/models"
	"github.com/lumen-ar/backend/internal/rotation"
)

const scheduleColumns = `id, content_id, kind, hour, minute, day_of_week, day_of_month, video_ids, cursor, is_enabled, last_fired_at, next_fire_at, created_at, updated_at`

// Repository handles rotation schedule persistence and implements
// rotation.ScheduleStore for the driver.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a schedule repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSchedule(row pgx.Row, s *models.RotationSchedule) error {
	return row.Scan(&s.ID, &s.ContentID, &s.Kind, &s.Hour, &s.Minute, &s.DayOfWeek, &s.DayOfMonth,
		&s.VideoIDs, &s.Cursor, &s.IsEnabled, &s.LastFiredAt, &s.NextFireAt, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a new schedule. One schedule per content item.
func (r *Repository) Create(ctx context.Context, s *models.RotationSchedule) error {
	const q = `INSERT INTO rotation_schedules (content_id, kind, hour, minute, day_of_week, day_of_month, video_ids, cursor, is_enabled, next_fire_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.ContentID, s.Kind, s.Hour, s.Minute, s.DayOfWeek, s.DayOfMonth,
		s.VideoIDs, s.Cursor, s.IsEnabled, s.NextFireAt).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update replaces pattern, sequence and next_fire_at of an existing schedule.
// The cursor is reset by the caller when the sequence changed.
func (r *Repository) Update(ctx context.Context, s *models.RotationSchedule) error {
	const q = `UPDATE rotation_schedules SET kind = $1, hour = $2, minute = $3, day_of_week = $4, day_of_month = $5,
		video_ids = $6, cursor = $7, is_enabled = $8, next_fire_at = $9, updated_at = NOW()
		WHERE id = $10 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, s.Kind, s.Hour, s.Minute, s.DayOfWeek, s.DayOfMonth,
		s.VideoIDs, s.Cursor, s.IsEnabled, s.NextFireAt, s.ID).Scan(&s.UpdatedAt)
}

// GetByContent returns the schedule for a content item, or nil when none exists.
func (r *Repository) GetByContent(ctx context.Context, contentID int64) (*models.RotationSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM rotation_schedules WHERE content_id = $1`
	var s models.RotationSchedule
	err := scanSchedule(r.pool.QueryRow(ctx, q, contentID), &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SetEnabled flips is_enabled for a content item's schedule.
func (r *Repository) SetEnabled(ctx context.Context, contentID int64, enabled bool) error {
	const q = `UPDATE rotation_schedules SET is_enabled = $1, updated_at = NOW() WHERE content_id = $2`
	_, err := r.pool.Exec(ctx, q, enabled, contentID)
	return err
}

// DeleteByContent removes the schedule of a content item.
func (r *Repository) DeleteByContent(ctx context.Context, contentID int64) error {
	const q = `DELETE FROM rotation_schedules WHERE content_id = $1`
	_, err := r.pool.Exec(ctx, q, contentID)
	return err
}

// ListDue returns enabled schedules with next_fire_at <= now, most overdue
// first, so staleness stays bounded when a backlog builds up.
func (r *Repository) ListDue(ctx context.Context, now time.Time) ([]models.RotationSchedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM rotation_schedules
		WHERE is_enabled AND next_fire_at <= $1 ORDER BY next_fire_at ASC`
	rows, err := r.pool.Query(ctx, q, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.RotationSchedule
	for rows.Next() {
		var s models.RotationSchedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Rotate runs one rotation step in a transaction. The schedule row is locked
// with SELECT ... FOR UPDATE and re-checked as due, so at most one driver
// instance rotates a schedule per fire even when several run concurrently.
func (r *Repository) Rotate(ctx context.Context, scheduleID int64, now time.Time, fn rotation.StepFunc) (*rotation.StepResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	q := `SELECT ` + scheduleColumns + ` FROM rotation_schedules WHERE id = $1 FOR UPDATE`
	var s models.RotationSchedule
	if err := scanSchedule(tx.QueryRow(ctx, q, scheduleID), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, rotation.ErrNotDue
		}
		return nil, err
	}
	if !s.IsEnabled || s.NextFireAt.After(now) {
		return nil, rotation.ErrNotDue
	}

	step, err := fn(&s)
	if err != nil {
		return nil, err
	}

	res := &rotation.StepResult{ContentID: s.ContentID, VideoID: step.VideoID}
	var exists bool
	const existsQ = `SELECT EXISTS (SELECT 1 FROM videos WHERE id = $1 AND content_id = $2)`
	if err := tx.QueryRow(ctx, existsQ, step.VideoID, s.ContentID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		if _, err := tx.Exec(ctx, `UPDATE videos SET is_active = FALSE WHERE content_id = $1 AND is_active`, s.ContentID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE videos SET is_active = TRUE WHERE id = $1`, step.VideoID); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE contents SET active_video_id = $1, updated_at = NOW() WHERE id = $2`, step.VideoID, s.ContentID); err != nil {
			return nil, err
		}
		res.Activated = true
	}

	const upd = `UPDATE rotation_schedules SET cursor = $1, last_fired_at = $2, next_fire_at = $3, updated_at = NOW() WHERE id = $4`
	if _, err := tx.Exec(ctx, upd, step.Cursor, now, step.NextFireAt, scheduleID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return res, nil
}
