package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roamio/audio-tour-api/internal/model"
)

// ErrLocationNotFound indicates that a location was not located in the DB.
var ErrLocationNotFound = errors.New("location not found")

// LocationFilter narrows List results. Zero values mean "no filter";
// Premium is a pointer so false can be filtered on explicitly.
type LocationFilter struct {
	Category string
	Premium  *bool
	Limit    int
	Offset   int
}

type LocationRepo struct{ DB *sql.DB }

func NewLocationRepo(db *sql.DB) *LocationRepo { return &LocationRepo{DB: db} }

const locationColumns = "id,name,description,category,duration,rating,listeners,is_premium,image_url,audio_url,latitude,longitude,created_at,updated_at,created_by"

// Create inserts a location and re-reads the stored row so DB defaults
// (timestamps) land back on l.
func (r *LocationRepo) Create(ctx context.Context, l *model.Location) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO locations
		 (name, description, category, duration, rating, listeners, is_premium, image_url, audio_url, latitude, longitude, created_by)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.Name, nullStr(l.Description), l.Category, l.Duration, l.Rating, l.Listeners,
		l.IsPremium, nullStr(l.ImageURL), nullStr(l.AudioURL), l.Latitude, l.Longitude, l.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*l = *fresh
	return nil
}

// GetByID retrieves a location by id, ErrLocationNotFound when absent.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (*model.Location, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+locationColumns+" FROM locations WHERE id=? LIMIT 1", id)
	l, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// List returns locations newest-first, optionally filtered by category
// and premium flag, with limit/offset paging. The WHERE clause is built
// incrementally so arguments always line up with placeholders.
func (r *LocationRepo) List(ctx context.Context, f LocationFilter) ([]model.Location, error) {
	q := "SELECT " + locationColumns + " FROM locations"
	args := []any{}
	where := ""
	if f.Category != "" {
		where = " WHERE category=?"
		args = append(args, f.Category)
	}
	if f.Premium != nil {
		if where == "" {
			where = " WHERE is_premium=?"
		} else {
			where += " AND is_premium=?"
		}
		args = append(args, *f.Premium)
	}
	q += where + " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
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

// Update performs a full-field replace of an existing location. Callers
// verify existence first; RowsAffected is not consulted because MySQL
// reports 0 for a no-op update of identical values.
func (r *LocationRepo) Update(ctx context.Context, l *model.Location) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE locations SET
		 name=?, description=?, category=?, duration=?, rating=?, listeners=?,
		 is_premium=?, image_url=?, audio_url=?, latitude=?, longitude=?
		 WHERE id=?`,
		l.Name, nullStr(l.Description), l.Category, l.Duration, l.Rating, l.Listeners,
		l.IsPremium, nullStr(l.ImageURL), nullStr(l.AudioURL), l.Latitude, l.Longitude, l.ID)
	if err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}
	*l = *fresh
	return nil
}

// Delete removes a location. Favorites and progress rows go with it via
// ON DELETE CASCADE. Zero affected rows means the target never existed.
func (r *LocationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM locations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLocationNotFound
	}
	return nil
}

// IncrementListeners bumps the listener counter by one. Best-effort side
// effect of a first tour completion; failures are the caller's to ignore.
func (r *LocationRepo) IncrementListeners(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE locations SET listeners=listeners+1 WHERE id=?", id)
	return err
}

// Overview aggregates catalogue statistics. The average skips zero-rated
// rows via NULLIF because 0 is the "unrated" sentinel, not a rating.
func (r *LocationRepo) Overview(ctx context.Context) (*model.LocationStats, error) {
	var s model.LocationStats
	var avg sql.NullFloat64
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_premium),0), AVG(NULLIF(rating,0)) FROM locations`).
		Scan(&s.Total, &s.PremiumCount, &avg)
	if err != nil {
		return nil, err
	}
	s.FreeCount = s.Total - s.PremiumCount
	s.AverageRating = avg.Float64 // stays 0 when every row is unrated

	rows, err := r.DB.QueryContext(ctx,
		`SELECT category, COUNT(*) AS cnt FROM locations GROUP BY category ORDER BY cnt DESC, category ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	s.Categories = []model.CategoryCount{}
	for rows.Next() {
		var cc model.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		s.Categories = append(s.Categories, cc)
	}
	return &s, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface{ Scan(dest ...any) error }

func scanLocation(row scanner) (*model.Location, error) {
	var l model.Location
	var desc, img, audio sql.NullString
	var dur sql.NullInt64
	err := row.Scan(&l.ID, &l.Name, &desc, &l.Category, &dur, &l.Rating, &l.Listeners,
		&l.IsPremium, &img, &audio, &l.Latitude, &l.Longitude, &l.CreatedAt, &l.UpdatedAt, &l.CreatedBy)
	if err != nil {
		return nil, err
	}
	l.Description = desc.String
	l.Duration = int(dur.Int64)
	l.ImageURL = img.String
	l.AudioURL = audio.String
	return &l, nil
}
