package sqlite

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eurobrokers/leadcapture/pkg/database"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

// SessionStore keeps session values server-side in the sessions table.
// The browser only holds the signed session id.
type SessionStore struct {
	db      *database.DB
	Codecs  []securecookie.Codec
	Options *sessions.Options

	// TTL is the idle limit for sessions whose cookie lives until the
	// browser closes (Options.MaxAge == 0). Touch keeps active ones alive.
	TTL time.Duration

	now func() time.Time
}

func NewSessionStore(db *database.DB, ttl time.Duration, keyPairs ...[]byte) *SessionStore {
	return &SessionStore{
		db:     db,
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		TTL: ttl,
		now: time.Now,
	}
}

// MaxAge caps how old a signed cookie may be before it is rejected.
func (s *SessionStore) MaxAge(age int) {
	for _, c := range s.Codecs {
		if codec, ok := c.(*securecookie.SecureCookie); ok {
			codec.MaxAge(age)
		}
	}
}

func (s *SessionStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request cookie, or a fresh one when
// the cookie is missing, forged or points at an expired row.
func (s *SessionStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, nil
	}

	found, err := s.load(r.Context(), session)
	if err != nil {
		session.ID = ""
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save persists the session, or removes it when Options.MaxAge < 0.
func (s *SessionStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.Delete(ctx, session.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}

	data, err := securecookie.EncodeMulti(session.Name(), session.Values, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	const q = `INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`
	if _, err := s.db.Exec(ctx, q, session.ID, data, s.expiresAt(session.Options).UnixMilli()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return fmt.Errorf("encode session id: %w", err)
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Delete drops a stored session. Unknown ids are not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Touch slides a browser-session row forward to now+TTL. Rows that still
// have more than half a TTL left are not rewritten.
func (s *SessionStore) Touch(ctx context.Context, id string) error {
	now := s.now()
	const q = `UPDATE sessions SET expires_at = ? WHERE id = ? AND expires_at < ?`
	if _, err := s.db.Exec(ctx, q, now.Add(s.TTL).UnixMilli(), id, now.Add(s.TTL/2).UnixMilli()); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// PurgeExpired removes rows past their expiry and reports how many.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected, nil
}

func (s *SessionStore) expiresAt(opts *sessions.Options) time.Time {
	if opts.MaxAge > 0 {
		return s.now().Add(time.Duration(opts.MaxAge) * time.Second)
	}
	return s.now().Add(s.TTL)
}

func (s *SessionStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	var (
		data      string
		expiresAt int64
	)
	found, err := s.db.FetchOne(ctx, `SELECT data, expires_at FROM sessions WHERE id = ?`,
		[]any{session.ID}, &data, &expiresAt)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return false, nil
	}
	if expiresAt <= s.now().UnixMilli() {
		return false, s.Delete(ctx, session.ID)
	}
	if err := securecookie.DecodeMulti(session.Name(), data, &session.Values, s.Codecs...); err != nil {
		return false, nil
	}
	return true, nil
}

func newSessionID() (string, error) {
	key := securecookie.GenerateRandomKey(32)
	if key == nil {
		return "", errors.New("generate session id")
	}
	return strings.TrimRight(base32.StdEncoding.EncodeToString(key), "="), nil
}

var _ sessions.Store = (*SessionStore)(nil)
