// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// TourCompletedEvent is published the first time a user finishes a
// location's audio. It carries enough context for downstream consumers
// (analytics, notifications) to act without querying the primary
// database.
type TourCompletedEvent struct {
	UserID           uint64 `json:"user_id"`
	LocationID       uint64 `json:"location_id"`
	LocationName     string `json:"location_name"`
	LocationCategory string `json:"location_category"`
	CompletedAt      string `json:"completed_at"`
}
