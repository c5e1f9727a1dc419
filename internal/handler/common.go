// Package handler contains the HTTP handlers. Every response uses the
// same JSON envelope {success, data?, message?, error?, details?} so
// clients parse one shape for both outcomes.
package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roamio/audio-tour-api/internal/auth"
	"github.com/roamio/audio-tour-api/internal/middleware"
)

// envelope is the uniform response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

// fieldError is one entry of the itemized validation detail list.
type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondMsg(c echo.Context, status int, data any, msg string) error {
	return c.JSON(status, envelope{Success: true, Data: data, Message: msg})
}

func fail(c echo.Context, status int, errMsg string) error {
	return c.JSON(status, envelope{Success: false, Error: errMsg})
}

func failValidation(c echo.Context, fields []fieldError) error {
	return c.JSON(http.StatusBadRequest, envelope{
		Success: false,
		Error:   "validation failed",
		Details: fields,
	})
}

// internalError logs the underlying error and returns a 500. The real
// error text is exposed only outside prod; production clients get the
// generic message.
func internalError(c echo.Context, prod bool, err error, public string) error {
	log.Printf("%s %s: %s: %v", c.Request().Method, c.Path(), public, err)
	msg := public
	if !prod && err != nil {
		msg = public + ": " + err.Error()
	}
	return fail(c, http.StatusInternalServerError, msg)
}

// dbCtx bounds repository calls to 5 seconds so a slow query cannot hold
// a request open indefinitely. Cancellation from the transport layer
// propagates through the parent.
func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// identity returns the authenticated claims; routes behind RequireAuth
// always have them, so a miss here is a wiring bug answered with 401.
func identity(c echo.Context) (*auth.Claims, bool) {
	return middleware.ClaimsFrom(c)
}
