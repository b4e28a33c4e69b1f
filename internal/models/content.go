package models

import "time"

// ContentItem is an AR marker target. Viewers scan the marker image and the
// backend serves the currently active video for the item.
type ContentItem struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MarkerURL     string    `json:"marker_url,omitempty"`
	MarkerS3Key   string    `json:"marker_s3_key,omitempty"`
	ActiveVideoID *int64    `json:"active_video_id,omitempty"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
