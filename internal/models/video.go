package models

import "time"

// Video is one video asset belonging to a content item.
// ScheduleStart/ScheduleEnd form a half-open validity window [start, end).
// RotationOrder is the deterministic fallback order when nothing is active.
type Video struct {
	ID            int64      `json:"id"`
	ContentID     int64      `json:"content_id"`
	FileURL       string     `json:"file_url"`
	FileType      string     `json:"file_type"`
	FileSize      int64      `json:"file_size"`
	S3Key         string     `json:"s3_key,omitempty"`
	IsActive      bool       `json:"is_active"`
	ScheduleStart *time.Time `json:"schedule_start,omitempty"`
	ScheduleEnd   *time.Time `json:"schedule_end,omitempty"`
	RotationOrder *int       `json:"rotation_order,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// InWindow reports whether now falls inside the video's validity window.
// A single missing bound is open on that side; a video with no window set
// at all has no window and never matches.
func (v *Video) InWindow(now time.Time) bool {
	if v.ScheduleStart == nil && v.ScheduleEnd == nil {
		return false
	}
	if v.ScheduleStart != nil && now.Before(*v.ScheduleStart) {
		return false
	}
	if v.ScheduleEnd != nil && !now.Before(*v.ScheduleEnd) {
		return false
	}
	return true
}
