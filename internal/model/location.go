package model

import "time"

// Categories allowed on locations.category. The set is fixed; anything
// else is rejected at the API boundary and by the DB enum.
var LocationCategories = []string{"Architecture", "Religion", "History", "Culture", "Nature"}

// ValidLocationCategory reports whether c is a known category.
func ValidLocationCategory(c string) bool {
	for _, v := range LocationCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Location is one audio-tour entry as stored in the `locations` table.
// Rating uses 0 as the "unrated" sentinel; aggregate queries must exclude
// zero-rated rows from averages. Latitude/Longitude are nullable because
// indoor tours may carry no coordinates.
type Location struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Duration    int       `json:"duration,omitempty"` // seconds of audio
	Rating      float64   `json:"rating"`
	Listeners   int       `json:"listeners"`
	IsPremium   bool      `json:"is_premium"`
	ImageURL    string    `json:"image_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   uint64    `json:"created_by"`
}

// CategoryCount is one row of the overview category distribution.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// LocationStats is the aggregate returned by the stats overview endpoint.
// FreeCount is always Total-PremiumCount. AverageRating ignores rows whose
// rating is the zero sentinel.
type LocationStats struct {
	Total         int             `json:"total"`
	PremiumCount  int             `json:"premium_count"`
	FreeCount     int             `json:"free_count"`
	Categories    []CategoryCount `json:"categories"`
	AverageRating float64         `json:"average_rating"`
}
