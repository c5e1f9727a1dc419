package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roamio/audio-tour-api/internal/model"
)

// ErrProgressNotFound indicates no progress row exists for the pair.
var ErrProgressNotFound = errors.New("progress not found")

type ProgressRepo struct{ DB *sql.DB }

func NewProgressRepo(db *sql.DB) *ProgressRepo { return &ProgressRepo{DB: db} }

// Upsert writes the progress row for (user, location) atomically: insert
// when the pair is new, otherwise replace percentage/completed/position
// and refresh updated_at. The single statement rides on the UNIQUE index,
// so concurrent submissions for the same pair never duplicate a row. The
// stored row is read back into p afterwards.
func (r *ProgressRepo) Upsert(ctx context.Context, p *model.Progress) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO progress (user_id, location_id, progress_percentage, completed, last_position)
		 VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   progress_percentage = VALUES(progress_percentage),
		   completed           = VALUES(completed),
		   last_position       = VALUES(last_position),
		   updated_at          = CURRENT_TIMESTAMP`,
		p.UserID, p.LocationID, p.ProgressPercentage, p.Completed, p.LastPosition)
	if err != nil {
		return err
	}
	fresh, err := r.Get(ctx, p.UserID, p.LocationID)
	if err != nil {
		return err
	}
	*p = *fresh
	return nil
}

// Get fetches the progress row for one (user, location) pair.
func (r *ProgressRepo) Get(ctx context.Context, userID, locationID uint64) (*model.Progress, error) {
	var p model.Progress
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, location_id, progress_percentage, completed, last_position, updated_at
		 FROM progress WHERE user_id=? AND location_id=? LIMIT 1`,
		userID, locationID).
		Scan(&p.UserID, &p.LocationID, &p.ProgressPercentage, &p.Completed, &p.LastPosition, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListByUser returns all progress rows for a user, most recent first.
func (r *ProgressRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Progress, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, location_id, progress_percentage, completed, last_position, updated_at
		 FROM progress WHERE user_id=? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Progress{}
	for rows.Next() {
		var p model.Progress
		if err := rows.Scan(&p.UserID, &p.LocationID, &p.ProgressPercentage,
			&p.Completed, &p.LastPosition, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StatsByUser aggregates a user's listening history: rows started, rows
// completed, and the average percentage across every row (zeros count —
// a tour opened and abandoned at 0% still drags the average down).
func (r *ProgressRepo) StatsByUser(ctx context.Context, userID uint64) (started, completed int, avg float64, err error) {
	var avgN sql.NullFloat64
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(completed),0), AVG(progress_percentage)
		 FROM progress WHERE user_id=?`, userID).
		Scan(&started, &completed, &avgN)
	avg = avgN.Float64
	return
}

// RecentByUser returns the user's most recently touched progress rows,
// each annotated with the joined location's name and category.
func (r *ProgressRepo) RecentByUser(ctx context.Context, userID uint64, limit int) ([]model.ProgressEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.location_id, l.name, l.category, p.progress_percentage, p.completed, p.updated_at
		 FROM progress p
		 JOIN locations l ON l.id = p.location_id
		 WHERE p.user_id = ?
		 ORDER BY p.updated_at DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ProgressEntry{}
	for rows.Next() {
		var e model.ProgressEntry
		if err := rows.Scan(&e.LocationID, &e.LocationName, &e.LocationCategory,
			&e.ProgressPercentage, &e.Completed, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
