package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/auth"
	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/model"
	"github.com/roamio/audio-tour-api/internal/repository"
)

// minPasswordLen applies to registration and password changes alike.
const minPasswordLen = 6

// AuthHandler bundles dependencies for the /api/auth endpoints.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type profileReq struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type authResp struct {
	User      model.User `json:"user"`
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
}

func validateRegister(req registerReq) []fieldError {
	var fields []fieldError
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		fields = append(fields, fieldError{"email", "email is required"})
	} else if !strings.Contains(email, "@") {
		fields = append(fields, fieldError{"email", "email is not valid"})
	}
	if len(req.Password) < minPasswordLen {
		fields = append(fields, fieldError{"password", "password must be at least 6 characters"})
	}
	return fields
}

func (h *AuthHandler) tokenTTL() time.Duration {
	return time.Duration(h.Cfg.TokenTTLDays) * 24 * time.Hour
}

// Register creates the user and returns a token immediately so the
// client skips a follow-up login.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if fields := validateRegister(req); fields != nil {
		return failValidation(c, fields)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "email already exists")
		}
		return internalError(c, h.Cfg.IsProd(), err, "create user failed")
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}
	token, exp, err := auth.Issue(h.Cfg.JWTSecret, u, h.tokenTTL())
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "issue token failed")
	}
	return respond(c, http.StatusCreated, authResp{User: u, Token: token, ExpiresAt: exp})
}

// Login verifies credentials and returns a fresh token. A missing email
// and a wrong password produce the same response on purpose: the caller
// learns nothing about which half was wrong.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "email and password are required")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, "invalid credentials")
		}
		return internalError(c, h.Cfg.IsProd(), err, "query failed")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}

	token, exp, err := auth.Issue(h.Cfg.JWTSecret, u, h.tokenTTL())
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "issue token failed")
	}
	return respond(c, http.StatusOK, authResp{User: u, Token: token, ExpiresAt: exp})
}

// Me returns the current user row, re-read from the store rather than
// echoing claims, so stale tokens still show fresh profile data.
func (h *AuthHandler) Me(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, cl.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}
	return respond(c, http.StatusOK, u)
}

// UpdateProfile patches first/last name and email. At least one field
// must be supplied; an email change must not collide with another user.
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	var req profileReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.FirstName == nil && req.LastName == nil && req.Email == nil {
		return fail(c, http.StatusBadRequest, "no updates provided")
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" || !strings.Contains(email, "@") {
			return failValidation(c, []fieldError{{"email", "email is not valid"}})
		}
		taken, err := h.Users.EmailTakenByOther(ctx, email, cl.UserID)
		if err != nil {
			return internalError(c, h.Cfg.IsProd(), err, "query failed")
		}
		if taken {
			return fail(c, http.StatusConflict, "email already exists")
		}
		u.Email = email
	}

	if err := h.Users.UpdateProfile(ctx, cl.UserID, u.FirstName, u.LastName, u.Email); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			// Lost the race with a concurrent registration; the index caught it.
			return fail(c, http.StatusConflict, "email already exists")
		}
		return internalError(c, h.Cfg.IsProd(), err, "update profile failed")
	}
	fresh, err := h.Users.GetByID(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}
	return respond(c, http.StatusOK, fresh)
}

// ChangePassword verifies the current password before writing anything.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if len(req.NewPassword) < minPasswordLen {
		return failValidation(c, []fieldError{{"new_password", "password must be at least 6 characters"}})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}
	if !auth.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusUnauthorized, "current password is incorrect")
	}
	if err := h.Users.UpdatePassword(ctx, cl.UserID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "update password failed")
	}
	return respondMsg(c, http.StatusOK, nil, "password updated")
}
