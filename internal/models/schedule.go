package models

import "time"

// PatternKind is the rotation cadence for a schedule.
type PatternKind string

const (
	PatternDaily   PatternKind = "daily"
	PatternWeekly  PatternKind = "weekly"
	PatternMonthly PatternKind = "monthly"
	PatternRandom  PatternKind = "random"
	PatternUnknown PatternKind = "unknown"
)

// RotationSchedule drives periodic video activation for one content item.
// VideoIDs is the ordered rotation sequence; Cursor indexes into it and is
// only ever mutated by the rotation driver.
type RotationSchedule struct {
	ID          int64       `json:"id"`
	ContentID   int64       `json:"content_id"`
	Kind        PatternKind `json:"kind"`
	Hour        int         `json:"hour"`
	Minute      int         `json:"minute"`
	DayOfWeek   *int        `json:"day_of_week,omitempty"`  // ISO 1 (Mon) .. 7 (Sun)
	DayOfMonth  *int        `json:"day_of_month,omitempty"` // 1 .. 31, clamped to month length
	VideoIDs    []int64     `json:"video_ids"`
	Cursor      int         `json:"cursor"`
	IsEnabled   bool        `json:"is_enabled"`
	LastFiredAt *time.Time  `json:"last_fired_at,omitempty"`
	NextFireAt  time.Time   `json:"next_fire_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
