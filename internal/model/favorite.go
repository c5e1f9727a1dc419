package model

import "time"

// Favorite is a (user, location) bookmark. The pair is unique in the
// `favorites` table and both foreign keys cascade on delete.
type Favorite struct {
	UserID     uint64    `json:"user_id"`
	LocationID uint64    `json:"location_id"`
	CreatedAt  time.Time `json:"created_at"`
}
