package model

import "time"

// Progress tracks how far a user got through a location's audio. One row
// per (user, location) pair, maintained by an atomic upsert: writes either
// insert the row or replace percentage/completed/last_position in place.
type Progress struct {
	UserID             uint64    `json:"user_id"`
	LocationID         uint64    `json:"location_id"`
	ProgressPercentage int       `json:"progress_percentage"`
	Completed          bool      `json:"completed"`
	LastPosition       int       `json:"last_position"` // seconds into the audio
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProgressEntry is a progress row joined with the location it belongs to,
// used in the recent-activity part of user stats.
type ProgressEntry struct {
	LocationID         uint64    `json:"location_id"`
	LocationName       string    `json:"location_name"`
	LocationCategory   string    `json:"location_category"`
	ProgressPercentage int       `json:"progress_percentage"`
	Completed          bool      `json:"completed"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserStats is the per-user aggregate for GET /api/users/stats.
// AverageProgress averages progress_percentage over all progress rows,
// zeros included (unlike location ratings there is no sentinel here).
type UserStats struct {
	FavoritesCount  int             `json:"favorites_count"`
	TotalStarted    int             `json:"total_started"`
	TotalCompleted  int             `json:"total_completed"`
	AverageProgress float64         `json:"average_progress"`
	RecentProgress  []ProgressEntry `json:"recent_progress"`
}
