package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamio/audio-tour-api/internal/auth"
	"github.com/roamio/audio-tour-api/internal/repository"
)

var errDuplicate = errors.New("Error 1062 (23000): Duplicate entry 'a@x.com' for key 'users.email'")

func TestRegisterSuccessIssuesVerifiableToken(t *testing.T) {
	db, mock := newMockDB(t)
	users := repository.NewUserRepo(db)
	h := NewAuthHandler(testCfg(), users)

	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(1, "a@x.com", "irrelevant"))

	c, rec := request(t, http.MethodPost, "/api/auth/register",
		`{"email":"A@X.com ","password":"secret1"}`, nil, nil)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	env := decode(t, rec)
	assert.True(t, env.Success)
	data := dataMap(t, env)
	token, _ := data["token"].(string)
	require.NotEmpty(t, token)

	claims, err := auth.Verify(testCfg().JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	users := repository.NewUserRepo(db)
	h := NewAuthHandler(testCfg(), users)

	mock.ExpectExec("INSERT INTO users").WillReturnError(errDuplicate)

	c, rec := request(t, http.MethodPost, "/api/auth/register",
		`{"email":"a@x.com","password":"secret1"}`, nil, nil)
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "email already exists", env.Error)
}

func TestRegisterValidation(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	for name, body := range map[string]string{
		"short password": `{"email":"a@x.com","password":"12345"}`,
		"missing email":  `{"password":"secret1"}`,
		"bad email":      `{"email":"nope","password":"secret1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := request(t, http.MethodPost, "/api/auth/register", body, nil, nil)
			require.NoError(t, h.Register(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, "validation failed", env.Error)
			assert.NotEmpty(t, env.Details)
		})
	}
}

// Unknown email and wrong password must be indistinguishable to the
// caller.
func TestLoginDoesNotLeakWhichPartWasWrong(t *testing.T) {
	hash, err := auth.HashPassword("rightpass", 4)
	require.NoError(t, err)

	db, mock := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows(userCols)) // no such user
	c1, rec1 := request(t, http.MethodPost, "/api/auth/login",
		`{"email":"ghost@x.com","password":"rightpass"}`, nil, nil)
	require.NoError(t, h.Login(c1))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(1, "a@x.com", hash))
	c2, rec2 := request(t, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"wrongpass"}`, nil, nil)
	require.NoError(t, h.Login(c2))

	assert.Equal(t, http.StatusUnauthorized, rec1.Code)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.Equal(t, rec1.Body.String(), rec2.Body.String())
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("secret1", 4)
	require.NoError(t, err)

	db, mock := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(userRow(1, "a@x.com", hash))

	c, rec := request(t, http.MethodPost, "/api/auth/login",
		`{"email":"a@x.com","password":"secret1"}`, nil, nil)
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	data := dataMap(t, decode(t, rec))
	user, _ := data["user"].(map[string]any)
	require.NotNil(t, user)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, rec.Body.String(), hash, "password hash must never be serialized")
}

func TestMeReturnsFreshUser(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "a@x.com", "hash"))

	c, rec := request(t, http.MethodGet, "/api/auth/me", "", testClaims(7), nil)
	require.NoError(t, h.Me(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decode(t, rec))
	assert.Equal(t, "a@x.com", data["email"])
}

func TestUpdateProfileRequiresAField(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	c, rec := request(t, http.MethodPut, "/api/auth/profile", `{}`, testClaims(7), nil)
	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no updates provided", decode(t, rec).Error)
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	db, mock := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "a@x.com", "hash"))
	mock.ExpectQuery("SELECT COUNT(.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	c, rec := request(t, http.MethodPut, "/api/auth/profile",
		`{"email":"taken@x.com"}`, testClaims(7), nil)
	require.NoError(t, h.UpdateProfile(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "email already exists", decode(t, rec).Error)
}

func TestChangePasswordVerifiesCurrentFirst(t *testing.T) {
	hash, err := auth.HashPassword("oldpass", 4)
	require.NoError(t, err)

	db, mock := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	// Wrong current password: no UPDATE must be issued.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "a@x.com", hash))
	c, rec := request(t, http.MethodPut, "/api/auth/change-password",
		`{"current_password":"nope","new_password":"newpass1"}`, testClaims(7), nil)
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Correct current password.
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(7, "a@x.com", hash))
	mock.ExpectExec("UPDATE users SET password_hash=").
		WillReturnResult(sqlmock.NewResult(0, 1))
	c, rec = request(t, http.MethodPut, "/api/auth/change-password",
		`{"current_password":"oldpass","new_password":"newpass1"}`, testClaims(7), nil)
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePasswordTooShort(t *testing.T) {
	db, _ := newMockDB(t)
	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db))

	c, rec := request(t, http.MethodPut, "/api/auth/change-password",
		`{"current_password":"oldpass","new_password":"short"}`, testClaims(7), nil)
	require.NoError(t, h.ChangePassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
