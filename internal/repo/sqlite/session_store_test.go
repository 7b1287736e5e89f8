package sqlite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "leads.sid"

func newTestSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	return NewSessionStore(setupTestDB(t), time.Hour, []byte("test-secret-key-32-bytes-long!!"))
}

func requestWith(cookies ...*http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

func saveSession(t *testing.T, store *SessionStore, maxAge int, values map[any]any) *http.Cookie {
	t.Helper()
	r := requestWith()
	s, err := store.Get(r, testCookie)
	require.NoError(t, err)
	require.True(t, s.IsNew)
	for k, v := range values {
		s.Values[k] = v
	}
	s.Options.MaxAge = maxAge

	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(r, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func countSessions(t *testing.T, store *SessionStore) int {
	t.Helper()
	var n int
	_, err := store.db.FetchOne(context.Background(), `SELECT COUNT(*) FROM sessions`, nil, &n)
	require.NoError(t, err)
	return n
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store := newTestSessionStore(t)
	cookie := saveSession(t, store, 0, map[any]any{"user_id": int64(7)})

	assert.Equal(t, testCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Zero(t, cookie.MaxAge, "browser-session cookie")
	assert.True(t, cookie.Expires.IsZero())
	assert.Equal(t, 1, countSessions(t, store))

	s, err := store.Get(requestWith(cookie), testCookie)
	require.NoError(t, err)
	assert.False(t, s.IsNew)
	assert.Equal(t, int64(7), s.Values["user_id"])
}

func TestSessionStorePersistentCookie(t *testing.T) {
	store := newTestSessionStore(t)
	cookie := saveSession(t, store, 30*24*60*60, map[any]any{"user_id": int64(1)})

	assert.Equal(t, 30*24*60*60, cookie.MaxAge)

	var expiresAt int64
	_, err := store.db.FetchOne(context.Background(), `SELECT expires_at FROM sessions`, nil, &expiresAt)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), time.UnixMilli(expiresAt), time.Minute)
}

func TestSessionStoreRejectsForgedCookie(t *testing.T) {
	store := newTestSessionStore(t)
	saveSession(t, store, 0, map[any]any{"user_id": int64(7)})

	s, err := store.Get(requestWith(&http.Cookie{Name: testCookie, Value: "forged"}), testCookie)
	require.NoError(t, err)
	assert.True(t, s.IsNew)
	assert.Empty(t, s.ID)
	assert.Empty(t, s.Values)
}

func TestSessionStoreExpiry(t *testing.T) {
	store := newTestSessionStore(t)
	cookie := saveSession(t, store, 0, map[any]any{"user_id": int64(7)})

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	s, err := store.Get(requestWith(cookie), testCookie)
	require.NoError(t, err)
	assert.True(t, s.IsNew)
	assert.Nil(t, s.Values["user_id"])
	assert.Equal(t, 0, countSessions(t, store), "expired row removed on read")
}

func expiresAtOf(t *testing.T, store *SessionStore) time.Time {
	t.Helper()
	var ms int64
	found, err := store.db.FetchOne(context.Background(), `SELECT expires_at FROM sessions`, nil, &ms)
	require.NoError(t, err)
	require.True(t, found)
	return time.UnixMilli(ms)
}

func TestSessionStoreTouchSlidesIdleExpiry(t *testing.T) {
	store := newTestSessionStore(t)
	start := time.Now()
	store.now = func() time.Time { return start }
	cookie := saveSession(t, store, 0, map[any]any{"user_id": int64(7)})

	s, err := store.Get(requestWith(cookie), testCookie)
	require.NoError(t, err)

	// Fresh rows are left as they are.
	require.NoError(t, store.Touch(context.Background(), s.ID))
	assert.WithinDuration(t, start.Add(time.Hour), expiresAtOf(t, store), time.Millisecond)

	active := start.Add(45 * time.Minute)
	store.now = func() time.Time { return active }
	require.NoError(t, store.Touch(context.Background(), s.ID))
	assert.WithinDuration(t, active.Add(time.Hour), expiresAtOf(t, store), time.Millisecond)

	// Past the original expiry but inside the slid window.
	store.now = func() time.Time { return start.Add(90 * time.Minute) }
	s, err = store.Get(requestWith(cookie), testCookie)
	require.NoError(t, err)
	assert.False(t, s.IsNew)
	assert.Equal(t, int64(7), s.Values["user_id"])
}

func TestSessionStoreTouchUnknownID(t *testing.T) {
	store := newTestSessionStore(t)
	require.NoError(t, store.Touch(context.Background(), "missing"))
	assert.Equal(t, 0, countSessions(t, store))
}

func TestSessionStoreDestroy(t *testing.T) {
	store := newTestSessionStore(t)
	cookie := saveSession(t, store, 0, map[any]any{"user_id": int64(7)})

	r := requestWith(cookie)
	s, err := store.Get(r, testCookie)
	require.NoError(t, err)
	s.Options.MaxAge = -1
	rec := httptest.NewRecorder()
	require.NoError(t, s.Save(r, rec))

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Less(t, cleared[0].MaxAge, 0)
	assert.Equal(t, 0, countSessions(t, store))

	s, err = store.Get(requestWith(cookie), testCookie)
	require.NoError(t, err)
	assert.True(t, s.IsNew)
}

func TestSessionStorePurgeExpired(t *testing.T) {
	store := newTestSessionStore(t)
	saveSession(t, store, 0, map[any]any{"user_id": int64(1)})
	saveSession(t, store, 30*24*60*60, map[any]any{"user_id": int64(2)})

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err := store.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, countSessions(t, store))
}
