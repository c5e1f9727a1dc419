package handler

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamio/audio-tour-api/internal/repository"
)

func TestValidateLocation(t *testing.T) {
	fp := func(v float64) *float64 { return &v }

	valid := locationReq{Name: "Sagrada Familia", Category: "Architecture", Rating: 4.5,
		Latitude: fp(41.4), Longitude: fp(2.17)}
	assert.Nil(t, validateLocation(valid))

	cases := map[string]struct {
		mutate func(*locationReq)
		field  string
	}{
		"missing name":      {func(r *locationReq) { r.Name = " " }, "name"},
		"unknown category":  {func(r *locationReq) { r.Category = "Food" }, "category"},
		"rating too high":   {func(r *locationReq) { r.Rating = 5.1 }, "rating"},
		"rating negative":   {func(r *locationReq) { r.Rating = -0.1 }, "rating"},
		"listeners":         {func(r *locationReq) { r.Listeners = -1 }, "listeners"},
		"latitude range":    {func(r *locationReq) { r.Latitude = fp(90.5) }, "latitude"},
		"longitude range":   {func(r *locationReq) { r.Longitude = fp(-180.5) }, "longitude"},
		"negative duration": {func(r *locationReq) { r.Duration = -10 }, "duration"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			fields := validateLocation(req)
			require.Len(t, fields, 1)
			assert.Equal(t, tc.field, fields[0].Field)
		})
	}
}

func TestParseListFilterDefaults(t *testing.T) {
	c, _ := request(t, http.MethodGet, "/api/locations", "", nil, nil)
	f, fields := parseListFilter(c)
	assert.Nil(t, fields)
	assert.Equal(t, repository.LocationFilter{Limit: 50}, f)
}

func TestParseListFilterCapsLimit(t *testing.T) {
	c, _ := request(t, http.MethodGet, "/api/locations?limit=500&offset=20", "", nil, nil)
	f, fields := parseListFilter(c)
	assert.Nil(t, fields)
	assert.Equal(t, 100, f.Limit)
	assert.Equal(t, 20, f.Offset)
}

func TestParseListFilterBadPremium(t *testing.T) {
	c, _ := request(t, http.MethodGet, "/api/locations?premium=maybe", "", nil, nil)
	_, fields := parseListFilter(c)
	require.Len(t, fields, 1)
	assert.Equal(t, "premium", fields[0].Field)
}

func TestListPassesPaginationThrough(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM locations ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs(1, 1).
		WillReturnRows(locationRow(3, "Second Newest", "History", 4, false))

	c, rec := request(t, http.MethodGet, "/api/locations?limit=1&offset=1", "", nil, nil)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	data := dataMap(t, decode(t, rec))
	locs, _ := data["locations"].([]any)
	require.Len(t, locs, 1)
	first, _ := locs[0].(map[string]any)
	assert.Equal(t, "Second Newest", first["name"])
}

func TestGetLocationNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id=").
		WillReturnRows(sqlmock.NewRows(locationCols))

	c, rec := request(t, http.MethodGet, "/api/locations/99", "", nil, map[string]string{"id": "99"})
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateLocationValidationDetails(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	c, rec := request(t, http.MethodPost, "/api/locations",
		`{"name":"","category":"Food","rating":9}`, testClaims(1), nil)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decode(t, rec)
	details, _ := env.Details.([]any)
	assert.Len(t, details, 3)
}

func TestCreateLocationSetsCreator(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	mock.ExpectExec("INSERT INTO locations").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id=").
		WillReturnRows(locationRow(5, "Pantheon", "History", 0, false))

	c, rec := request(t, http.MethodPost, "/api/locations",
		`{"name":"Pantheon","category":"History"}`, testClaims(9), nil)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestUpdateLocationMissingTarget(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM locations WHERE id=").
		WillReturnRows(sqlmock.NewRows(locationCols))

	c, rec := request(t, http.MethodPut, "/api/locations/404",
		`{"name":"Renamed","category":"Nature"}`, testClaims(1), map[string]string{"id": "404"})
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLocationNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	mock.ExpectExec("DELETE FROM locations WHERE id=").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := request(t, http.MethodDelete, "/api/locations/404", "", testClaims(1), map[string]string{"id": "404"})
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOverviewAssemblesStats(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewLocationHandler(testCfg(), repository.NewLocationRepo(db))

	// 4 rows with ratings [0, 0, 4, 5]: the DB-side AVG(NULLIF(rating,0))
	// yields 4.5 because zero means unrated.
	mock.ExpectQuery("SELECT COUNT(.+) FROM locations").
		WillReturnRows(sqlmock.NewRows([]string{"total", "premium", "avg"}).AddRow(4, 1, 4.5))
	mock.ExpectQuery("SELECT category, COUNT(.+) FROM locations GROUP BY category").
		WillReturnRows(sqlmock.NewRows([]string{"category", "cnt"}).
			AddRow("History", 3).AddRow("Nature", 1))

	c, rec := request(t, http.MethodGet, "/api/locations/stats/overview", "", nil, nil)
	require.NoError(t, h.Overview(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	data := dataMap(t, decode(t, rec))
	assert.EqualValues(t, 4, data["total"])
	assert.EqualValues(t, 1, data["premium_count"])
	assert.EqualValues(t, 3, data["free_count"])
	assert.EqualValues(t, 4.5, data["average_rating"])
	cats, _ := data["categories"].([]any)
	require.Len(t, cats, 2)
	first, _ := cats[0].(map[string]any)
	assert.Equal(t, "History", first["category"])
}
