package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/model"
	"github.com/roamio/audio-tour-api/internal/queue"
	"github.com/roamio/audio-tour-api/internal/repository"
	queue_publisher "github.com/roamio/audio-tour-api/internal/service"
)

const recentProgressLimit = 5

// UserHandler serves the authenticated /api/users endpoints: favorites,
// progress, subscription and per-user stats.
type UserHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Locations *repository.LocationRepo
	Favorites *repository.FavoriteRepo
	Progress  *repository.ProgressRepo

	// publishCompleted is swapped for a stub in tests; by default it
	// publishes to RabbitMQ.
	publishCompleted func(context.Context, queue.TourCompletedEvent) error
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, l *repository.LocationRepo,
	f *repository.FavoriteRepo, p *repository.ProgressRepo) *UserHandler {
	return &UserHandler{
		Cfg: cfg, Users: u, Locations: l, Favorites: f, Progress: p,
		publishCompleted: queue_publisher.PublishTourCompleted,
	}
}

// ----- DTOs -----

type progressReq struct {
	ProgressPercentage int  `json:"progress_percentage"`
	Completed          bool `json:"completed"`
	LastPosition       int  `json:"last_position"`
}

type subscriptionReq struct {
	SubscriptionType string `json:"subscription_type"`
	IsPremium        bool   `json:"is_premium"`
}

func userLocationID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("locationID"), 10, 64)
}

// ListFavorites returns the user's bookmarked locations.
func (h *UserHandler) ListFavorites(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	locs, err := h.Favorites.ListByUser(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "list favorites failed")
	}
	return respond(c, http.StatusOK, echo.Map{"favorites": locs})
}

// AddFavorite bookmarks a location. The target must exist and the pair
// must be new; a repeat add is a conflict, not a silent success.
func (h *UserHandler) AddFavorite(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	locID, err := userLocationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Locations.GetByID(ctx, locID); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return fail(c, http.StatusNotFound, "location not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "load location failed")
	}
	if err := h.Favorites.Add(ctx, cl.UserID, locID); err != nil {
		if errors.Is(err, repository.ErrFavoriteExists) {
			return fail(c, http.StatusConflict, "location already in favorites")
		}
		return internalError(c, h.Cfg.IsProd(), err, "add favorite failed")
	}
	return respondMsg(c, http.StatusCreated, nil, "favorite added")
}

// RemoveFavorite deletes the bookmark; removing a non-existent one is a
// 404 so clients notice desynced state.
func (h *UserHandler) RemoveFavorite(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	locID, err := userLocationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Favorites.Remove(ctx, cl.UserID, locID); err != nil {
		if errors.Is(err, repository.ErrFavoriteNotFound) {
			return fail(c, http.StatusNotFound, "favorite not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "remove favorite failed")
	}
	return respondMsg(c, http.StatusOK, nil, "favorite removed")
}

// ListProgress returns every progress row for the user, most recent
// first, for client-side sync.
func (h *UserHandler) ListProgress(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	rows, err := h.Progress.ListByUser(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "list progress failed")
	}
	return respond(c, http.StatusOK, echo.Map{"progress": rows})
}

// UpsertProgress records playback state for (user, location). The write
// is a single insert-or-update statement, so repeated or concurrent
// submissions for the same pair converge on one row. The first time a
// pair reaches completed=true the location's listener counter is bumped
// and a tour.completed event goes out; both are best-effort.
func (h *UserHandler) UpsertProgress(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	locID, err := userLocationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	var req progressReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	var fields []fieldError
	if req.ProgressPercentage < 0 || req.ProgressPercentage > 100 {
		fields = append(fields, fieldError{"progress_percentage", "progress_percentage must be between 0 and 100"})
	}
	if req.LastPosition < 0 {
		fields = append(fields, fieldError{"last_position", "last_position must not be negative"})
	}
	if fields != nil {
		return failValidation(c, fields)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	loc, err := h.Locations.GetByID(ctx, locID)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return fail(c, http.StatusNotFound, "location not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "load location failed")
	}

	// Detect a first completion before the upsert overwrites the row.
	// This read only gates the side effects below; the upsert itself
	// stays a single atomic statement.
	newlyCompleted := false
	if req.Completed {
		prev, err := h.Progress.Get(ctx, cl.UserID, locID)
		switch {
		case errors.Is(err, repository.ErrProgressNotFound):
			newlyCompleted = true
		case err != nil:
			return internalError(c, h.Cfg.IsProd(), err, "load progress failed")
		default:
			newlyCompleted = !prev.Completed
		}
	}

	p := model.Progress{
		UserID:             cl.UserID,
		LocationID:         locID,
		ProgressPercentage: req.ProgressPercentage,
		Completed:          req.Completed,
		LastPosition:       req.LastPosition,
	}
	if err := h.Progress.Upsert(ctx, &p); err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "save progress failed")
	}

	if newlyCompleted {
		if err := h.Locations.IncrementListeners(ctx, locID); err != nil {
			log.Printf("increment listeners for location %d: %v", locID, err)
		}
		ev := queue.TourCompletedEvent{
			UserID:           cl.UserID,
			LocationID:       locID,
			LocationName:     loc.Name,
			LocationCategory: loc.Category,
			CompletedAt:      time.Now().UTC().Format(time.RFC3339),
		}
		_ = h.publishCompleted(ctx, ev) // errors already logged by the publisher
	}
	return respond(c, http.StatusOK, p)
}

// UpdateSubscription stores the submitted tier and premium flag as-is.
// The two fields are independent by contract, so {subscription_type:
// "free", is_premium: true} is accepted and persisted verbatim.
func (h *UserHandler) UpdateSubscription(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	var req subscriptionReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !model.ValidSubscriptionType(req.SubscriptionType) {
		return failValidation(c, []fieldError{{"subscription_type", "subscription_type must be one of free, premium, pro"}})
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Users.UpdateSubscription(ctx, cl.UserID, req.SubscriptionType, req.IsPremium); err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "update subscription failed")
	}
	u, err := h.Users.GetByID(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load user failed")
	}
	return respond(c, http.StatusOK, u)
}

// Stats aggregates the user's listening history.
func (h *UserHandler) Stats(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	favs, err := h.Favorites.CountByUser(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "count favorites failed")
	}
	started, completed, avg, err := h.Progress.StatsByUser(ctx, cl.UserID)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load progress stats failed")
	}
	recent, err := h.Progress.RecentByUser(ctx, cl.UserID, recentProgressLimit)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load recent progress failed")
	}
	return respond(c, http.StatusOK, model.UserStats{
		FavoritesCount:  favs,
		TotalStarted:    started,
		TotalCompleted:  completed,
		AverageProgress: avg,
		RecentProgress:  recent,
	})
}
