package handler

// Shared fixtures for handler tests. Repositories run against sqlmock so
// the full bind→validate→query→envelope path is exercised without a
// MySQL server; expectations are ordered, mirroring real query order.

import (
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/roamio/audio-tour-api/internal/auth"
	"github.com/roamio/audio-tour-api/internal/config"
	"github.com/roamio/audio-tour-api/internal/middleware"
	"github.com/roamio/audio-tour-api/internal/model"
	"github.com/roamio/audio-tour-api/internal/repository"
)

func testCfg() config.Config {
	return config.Config{
		Env:          "test",
		JWTSecret:    "handler-test-secret",
		TokenTTLDays: 7,
		BcryptCost:   4, // keep bcrypt fast in tests
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name",
	"is_premium", "subscription_type", "created_at", "updated_at"}

func userRow(id uint64, email, hash string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userCols).
		AddRow(id, email, hash, nil, nil, false, model.SubscriptionFree, now, now)
}

var locationCols = []string{"id", "name", "description", "category", "duration", "rating",
	"listeners", "is_premium", "image_url", "audio_url", "latitude", "longitude",
	"created_at", "updated_at", "created_by"}

func locationRow(id uint64, name, category string, rating float64, premium bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(locationCols).
		AddRow(id, name, nil, category, nil, rating, 0, premium, nil, nil, nil, nil, now, now, 1)
}

// request builds an echo context for a handler call. claims may be nil
// for anonymous requests; body is raw JSON.
func request(t *testing.T, method, target, body string, claims *auth.Claims,
	params map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if claims != nil {
		c.Set(middleware.IdentityKey, claims)
	}
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

func testClaims(id uint64) *auth.Claims {
	return &auth.Claims{UserID: id, Email: "a@x.com", SubscriptionType: model.SubscriptionFree}
}

// decode unmarshals the response envelope.
func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// dataMap returns env.Data as a map for field assertions.
func dataMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	m, ok := env.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %#v", env.Data)
	return m
}

func newRepos(db *sql.DB) (*repository.UserRepo, *repository.LocationRepo, *repository.FavoriteRepo, *repository.ProgressRepo) {
	return repository.NewUserRepo(db), repository.NewLocationRepo(db),
		repository.NewFavoriteRepo(db), repository.NewProgressRepo(db)
}
