package rotation

import (
	"context"
	"time"

	"github.com/lumen-ar/backend/internal/models"
)

// Step is the decided outcome of one rotation for a schedule.
type Step struct {
	Cursor     int
	VideoID    int64
	NextFireAt time.Time
}

// StepFunc decides the step from the schedule row as loaded inside the
// rotation transaction, so the decision always works on fresh state.
type StepFunc func(s *models.RotationSchedule) (Step, error)

// StepResult reports what the store committed for one rotation step.
type StepResult struct {
	ContentID int64
	VideoID   int64
	// Activated is false when VideoID no longer exists; the schedule still
	// advanced so it does not stall on the deleted video.
	Activated bool
}

// ScheduleStore is the persistence surface the rotation driver needs.
type ScheduleStore interface {
	// ListDue returns enabled schedules with next_fire_at <= now, ordered by
	// next_fire_at ascending so the most overdue rotate first.
	ListDue(ctx context.Context, now time.Time) ([]models.RotationSchedule, error)

	// Rotate runs one rotation step inside a transaction. The schedule row
	// is locked and re-checked as due (ErrNotDue when a concurrent driver
	// instance already advanced it), fn decides the step from the fresh row,
	// and the mutation commits atomically: the previously active video is
	// cleared, the target activated when it still exists, the content's
	// active-video pointer updated, and cursor/last_fired_at/next_fire_at
	// persisted. An fn error rolls everything back.
	Rotate(ctx context.Context, scheduleID int64, now time.Time, fn StepFunc) (*StepResult, error)
}

// ContentStore is the read-only surface the resolver needs.
type ContentStore interface {
	GetContent(ctx context.Context, id int64) (*models.ContentItem, error)
	ListVideos(ctx context.Context, contentID int64) ([]models.Video, error)
}
