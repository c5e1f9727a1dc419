package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roamio/audio-tour-api/internal/model"
)

var (
	// ErrFavoriteExists is returned when the (user, location) pair is
	// already bookmarked. A duplicate add is a conflict, not a no-op.
	ErrFavoriteExists = errors.New("favorite already exists")
	// ErrFavoriteNotFound is returned when removing a bookmark that does
	// not exist. Removal is not a silent success.
	ErrFavoriteNotFound = errors.New("favorite not found")
)

type FavoriteRepo struct{ DB *sql.DB }

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{DB: db} }

// Add bookmarks a location for a user. The UNIQUE(user_id, location_id)
// index turns a concurrent duplicate into ErrFavoriteExists.
func (r *FavoriteRepo) Add(ctx context.Context, userID, locationID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO favorites (user_id, location_id) VALUES (?,?)", userID, locationID)
	if isDuplicateKey(err) {
		return ErrFavoriteExists
	}
	return err
}

// Remove deletes the bookmark, ErrFavoriteNotFound when it was absent.
func (r *FavoriteRepo) Remove(ctx context.Context, userID, locationID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM favorites WHERE user_id=? AND location_id=?", userID, locationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

// ListByUser returns the user's bookmarked locations, most recently
// bookmarked first.
func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Location, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT l.id,l.name,l.description,l.category,l.duration,l.rating,l.listeners,
		        l.is_premium,l.image_url,l.audio_url,l.latitude,l.longitude,
		        l.created_at,l.updated_at,l.created_by
		 FROM favorites f
		 JOIN locations l ON l.id = f.location_id
		 WHERE f.user_id = ?
		 ORDER BY f.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Location{}
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// CountByUser returns how many locations the user has bookmarked.
func (r *FavoriteRepo) CountByUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM favorites WHERE user_id=?", userID).Scan(&n)
	return n, err
}
