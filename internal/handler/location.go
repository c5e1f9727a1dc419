package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/model"
	"github.com/roamio/audio-tour-api/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// LocationHandler serves the /api/locations endpoints.
type LocationHandler struct {
	Cfg       config.Config
	Locations *repository.LocationRepo
}

func NewLocationHandler(cfg config.Config, l *repository.LocationRepo) *LocationHandler {
	return &LocationHandler{Cfg: cfg, Locations: l}
}

// locationReq is the write DTO. Create and update share it because an
// update is a full-field replace, never a partial patch.
type locationReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Duration    int      `json:"duration"`
	Rating      float64  `json:"rating"`
	Listeners   int      `json:"listeners"`
	IsPremium   bool     `json:"is_premium"`
	ImageURL    string   `json:"image_url"`
	AudioURL    string   `json:"audio_url"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

func validateLocation(req locationReq) []fieldError {
	var fields []fieldError
	if strings.TrimSpace(req.Name) == "" {
		fields = append(fields, fieldError{"name", "name is required"})
	}
	if !model.ValidLocationCategory(req.Category) {
		fields = append(fields, fieldError{"category", "category must be one of " + strings.Join(model.LocationCategories, ", ")})
	}
	if req.Rating < 0 || req.Rating > 5 {
		fields = append(fields, fieldError{"rating", "rating must be between 0 and 5"})
	}
	if req.Listeners < 0 {
		fields = append(fields, fieldError{"listeners", "listeners must not be negative"})
	}
	if req.Duration < 0 {
		fields = append(fields, fieldError{"duration", "duration must not be negative"})
	}
	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		fields = append(fields, fieldError{"latitude", "latitude must be between -90 and 90"})
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		fields = append(fields, fieldError{"longitude", "longitude must be between -180 and 180"})
	}
	return fields
}

func (req locationReq) toModel() model.Location {
	return model.Location{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Duration:    req.Duration,
		Rating:      req.Rating,
		Listeners:   req.Listeners,
		IsPremium:   req.IsPremium,
		ImageURL:    strings.TrimSpace(req.ImageURL),
		AudioURL:    strings.TrimSpace(req.AudioURL),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}
}

// parseListFilter reads the query string into a LocationFilter, applying
// the default/maximum page size and ignoring malformed values.
func parseListFilter(c echo.Context) (repository.LocationFilter, []fieldError) {
	f := repository.LocationFilter{Limit: defaultListLimit}
	var fields []fieldError

	if cat := c.QueryParam("category"); cat != "" {
		if !model.ValidLocationCategory(cat) {
			fields = append(fields, fieldError{"category", "unknown category"})
		}
		f.Category = cat
	}
	if p := c.QueryParam("premium"); p != "" {
		b, err := strconv.ParseBool(p)
		if err != nil {
			fields = append(fields, fieldError{"premium", "premium must be a boolean"})
		} else {
			f.Premium = &b
		}
	}
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if s := c.QueryParam("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			f.Offset = n
		}
	}
	return f, fields
}

func locationID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// List returns locations newest-first with optional category/premium
// filters and limit/offset paging.
func (h *LocationHandler) List(c echo.Context) error {
	f, fields := parseListFilter(c)
	if fields != nil {
		return failValidation(c, fields)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	locs, err := h.Locations.List(ctx, f)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "list locations failed")
	}
	return respond(c, http.StatusOK, echo.Map{
		"locations": locs,
		"limit":     f.Limit,
		"offset":    f.Offset,
	})
}

// Get returns one location by id.
func (h *LocationHandler) Get(c echo.Context) error {
	id, err := locationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	l, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return fail(c, http.StatusNotFound, "location not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "load location failed")
	}
	return respond(c, http.StatusOK, l)
}

// Create adds a catalogue entry owned by the authenticated user.
func (h *LocationHandler) Create(c echo.Context) error {
	cl, ok := identity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "token required")
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if fields := validateLocation(req); fields != nil {
		return failValidation(c, fields)
	}

	l := req.toModel()
	l.CreatedBy = cl.UserID

	ctx, cancel := dbCtx(c)
	defer cancel()
	if err := h.Locations.Create(ctx, &l); err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "create location failed")
	}
	return respond(c, http.StatusCreated, l)
}

// Update replaces every mutable field of an existing location. The
// target must exist; partial payloads are not merged, missing fields
// fall back to their zero values like any full replace.
func (h *LocationHandler) Update(c echo.Context) error {
	id, err := locationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if fields := validateLocation(req); fields != nil {
		return failValidation(c, fields)
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	existing, err := h.Locations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return fail(c, http.StatusNotFound, "location not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "load location failed")
	}

	l := req.toModel()
	l.ID = id
	l.CreatedBy = existing.CreatedBy
	if err := h.Locations.Update(ctx, &l); err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "update location failed")
	}
	return respond(c, http.StatusOK, l)
}

// Delete removes a location and, via cascade, its favorites and progress.
func (h *LocationHandler) Delete(c echo.Context) error {
	id, err := locationID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid location id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Locations.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLocationNotFound) {
			return fail(c, http.StatusNotFound, "location not found")
		}
		return internalError(c, h.Cfg.IsProd(), err, "delete location failed")
	}
	return respondMsg(c, http.StatusOK, nil, "location deleted")
}

// Overview returns catalogue-wide statistics.
func (h *LocationHandler) Overview(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	stats, err := h.Locations.Overview(ctx)
	if err != nil {
		return internalError(c, h.Cfg.IsProd(), err, "load stats failed")
	}
	return respond(c, http.StatusOK, stats)
}
