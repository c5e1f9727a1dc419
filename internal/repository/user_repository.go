package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/roamio/audio-tour-api/internal/auth"
	"github.com/roamio/audio-tour-api/internal/model"
)

var (
	ErrEmailExists  = errors.New("email already exists")
	ErrUserNotFound = errors.New("user not found")
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,password_hash,first_name,last_name,is_premium,subscription_type,created_at,updated_at"

// Create inserts a user with a freshly hashed password and returns its ID.
// Email is normalized (trimmed, lowercased) before the write; the UNIQUE
// index on users.email is the authority on duplicates.
func (r *UserRepo) Create(ctx context.Context, email, password, firstName, lastName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, subscription_type) VALUES (?,?,?,?,?)",
		email, hash, nullStr(firstName), nullStr(lastName), model.SubscriptionFree)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// EmailTakenByOther reports whether email belongs to a user other than
// excludeID. Used by profile updates so a user keeps the right to their
// own address.
func (r *UserRepo) EmailTakenByOther(ctx context.Context, email string, excludeID uint64) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=? AND id<>?", email, excludeID).Scan(&n)
	return n > 0, err
}

// UpdateProfile replaces first/last name and email for the user. The
// handler merges unchanged fields in beforehand; a duplicate email races
// past the pre-check into the UNIQUE index and comes back as
// ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, firstName, lastName, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET first_name=?, last_name=?, email=? WHERE id=?",
		nullStr(firstName), nullStr(lastName), email, id)
	if isDuplicateKey(err) {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateSubscription stores subscription_type and is_premium exactly as
// submitted. The two fields are independent by contract; no derivation.
func (r *UserRepo) UpdateSubscription(ctx context.Context, id uint64, subscriptionType string, isPremium bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET subscription_type=?, is_premium=? WHERE id=?",
		subscriptionType, isPremium, id)
	return err
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	var first, last sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last,
		&u.IsPremium, &u.SubscriptionType, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.FirstName = first.String
	u.LastName = last.String
	return u, nil
}

// nullStr maps "" to NULL so optional columns stay NULL instead of
// accumulating empty strings.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
