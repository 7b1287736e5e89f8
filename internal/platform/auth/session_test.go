package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eurobrokers/leadcapture/internal/repo/sqlite"
	"github.com/eurobrokers/leadcapture/pkg/database"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/gorilla/securecookie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "leads.sid"

type authFixture struct {
	auth   *Authenticator
	userID int64
}

func setupAuth(t *testing.T) *authFixture {
	t.Helper()
	logger.UseTestLogger(t)

	db, err := database.Open(context.Background(), filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	hasher := fastHasher()
	hash, err := hasher.Hash("changeme123")
	require.NoError(t, err)

	users := sqlite.NewUsersRepo(db)
	u, err := users.Create(context.Background(), "admin@example.com", hash)
	require.NoError(t, err)

	store := sqlite.NewSessionStore(db, time.Hour, []byte("0123456789abcdef0123456789abcdef"))
	return &authFixture{
		auth:   NewAuthenticator(users, hasher, store, cookieName),
		userID: u.ID,
	}
}

func (f *authFixture) login(t *testing.T, email, password string, remember bool, cookies ...*http.Cookie) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	_, err := f.auth.Login(rec, req, email, password, remember)
	return rec, err
}

// protected serves 200 with the bound user id, or redirects anonymous callers.
func (f *authFixture) protected(cookies ...*http.Cookie) *httptest.ResponseRecorder {
	h := f.auth.LoadSession(nil)(RequireAuthenticated("/admin/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", cookieName)
	return nil
}

func TestLoginWithoutRemember(t *testing.T) {
	f := setupAuth(t)

	rec, err := f.login(t, "admin@example.com", "changeme123", false)
	require.NoError(t, err)

	c := sessionCookie(t, rec)
	assert.Zero(t, c.MaxAge, "browser-session cookie")
	assert.True(t, c.HttpOnly)

	assert.Equal(t, http.StatusOK, f.protected(c).Code)
}

func TestLoginWithRemember(t *testing.T) {
	f := setupAuth(t)

	rec, err := f.login(t, "admin@example.com", "changeme123", true)
	require.NoError(t, err)

	c := sessionCookie(t, rec)
	assert.Equal(t, int(RememberFor/time.Second), c.MaxAge)
	assert.Equal(t, 30*24*60*60, c.MaxAge)

	assert.Equal(t, http.StatusOK, f.protected(c).Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := setupAuth(t)

	for _, tc := range []struct {
		name, email, password string
	}{
		{"wrong password", "admin@example.com", "wrong"},
		{"unknown email", "nobody@example.com", "changeme123"},
		{"email case differs", "Admin@example.com", "changeme123"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := f.login(t, tc.email, tc.password, false)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, rec.Result().Cookies())
		})
	}
}

func TestLoginIssuesFreshSessionID(t *testing.T) {
	f := setupAuth(t)

	first, err := f.login(t, "admin@example.com", "changeme123", false)
	require.NoError(t, err)
	old := sessionCookie(t, first)

	second, err := f.login(t, "admin@example.com", "changeme123", false, old)
	require.NoError(t, err)
	fresh := sessionCookie(t, second)

	assert.NotEqual(t, old.Value, fresh.Value)
	assert.Equal(t, http.StatusFound, f.protected(old).Code, "old id must be dropped")
	assert.Equal(t, http.StatusOK, f.protected(fresh).Code)
}

func TestLogout(t *testing.T) {
	f := setupAuth(t)

	rec, err := f.login(t, "admin@example.com", "changeme123", true)
	require.NoError(t, err)
	c := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	req.AddCookie(c)
	out := httptest.NewRecorder()
	require.NoError(t, f.auth.Logout(out, req))
	assert.Less(t, sessionCookie(t, out).MaxAge, 0, "cookie is cleared")

	res := f.protected(c)
	assert.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/admin/login", res.Header().Get("Location"))
}

func TestLogoutWithoutSession(t *testing.T) {
	f := setupAuth(t)

	req := httptest.NewRequest(http.MethodPost, "/admin/logout", nil)
	assert.NoError(t, f.auth.Logout(httptest.NewRecorder(), req))
}

func TestRequireAuthenticatedAnonymous(t *testing.T) {
	f := setupAuth(t)

	res := f.protected()
	assert.Equal(t, http.StatusFound, res.Code)
	assert.Equal(t, "/admin/login", res.Header().Get("Location"))

	forged := &http.Cookie{Name: cookieName, Value: "forged"}
	assert.Equal(t, http.StatusFound, f.protected(forged).Code)
}

func TestSessionFrom(t *testing.T) {
	f := setupAuth(t)
	rec, err := f.login(t, "admin@example.com", "changeme123", true)
	require.NoError(t, err)

	var got *Session
	h := f.auth.LoadSession(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r)
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, rec))
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, f.userID, got.UserID)
	assert.True(t, got.Persistent)

	bare := SessionFrom(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, bare.Authenticated())
}

func TestLoadSessionStoreFailure(t *testing.T) {
	logger.UseTestLogger(t)
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	key := []byte("0123456789abcdef0123456789abcdef")
	store := sqlite.NewSessionStore(database.New(sqlDB), time.Hour, key)
	authn := NewAuthenticator(nil, fastHasher(), store, cookieName)

	signed, err := securecookie.EncodeMulti(cookieName, "SESSIONID", securecookie.CodecsFromPairs(key)...)
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data, expires_at FROM sessions WHERE id = ?`)).
		WithArgs("SESSIONID").
		WillReturnError(errors.New("disk I/O error"))

	reached := false
	h := authn.LoadSession(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "store down", http.StatusInternalServerError)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: signed})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, reached, "handler must not run as anonymous")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "store down\n", rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

var (
	_ SessionStore = (*sqlite.SessionStore)(nil)
	_ UserFinder   = (*sqlite.UsersRepoImpl)(nil)
)
