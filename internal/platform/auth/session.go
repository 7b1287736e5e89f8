package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/gorilla/sessions"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// RememberFor is how long a remember-me login stays valid.
const RememberFor = 30 * 24 * time.Hour

const (
	valueUserID   = "user_id"
	valueRemember = "remember"
)

type ctxKey string

const ctxSession ctxKey = "session"

type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

// SessionStore is a gorilla session store that can drop a session by id
// and extend the idle expiry of a browser session.
type SessionStore interface {
	sessions.Store
	Delete(ctx context.Context, id string) error
	Touch(ctx context.Context, id string) error
}

// Session is the resolved login state of one request.
type Session struct {
	UserID int64
	// Persistent sessions survive browser restarts for RememberFor;
	// others end with the browser session.
	Persistent bool
}

func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

type Authenticator struct {
	users      UserFinder
	hasher     PasswordHasher
	store      SessionStore
	cookieName string
	decoy      decoy
}

func NewAuthenticator(users UserFinder, hasher PasswordHasher, store SessionStore, cookieName string) *Authenticator {
	return &Authenticator{
		users:      users,
		hasher:     hasher,
		store:      store,
		cookieName: cookieName,
	}
}

// Login checks the credentials and binds a fresh session to the user.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (a *Authenticator) Login(w http.ResponseWriter, r *http.Request, email, password string, remember bool) (*domain.User, error) {
	ctx := r.Context()

	u, err := a.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		a.decoy.compare(a.hasher, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := a.hasher.Compare(password, u.PasswordHash)
	if err != nil {
		logger.WarnContext(ctx, "Stored password hash is unusable", "error", err, "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	s, err := a.store.Get(r, a.cookieName)
	if err != nil {
		logger.WarnContext(ctx, "Discarding unreadable session", "error", err)
	}
	// Never reuse an id issued before authentication.
	if s.ID != "" {
		if err := a.store.Delete(ctx, s.ID); err != nil {
			return nil, err
		}
		s.ID = ""
	}

	s.Values = map[interface{}]interface{}{
		valueUserID:   u.ID,
		valueRemember: remember,
	}
	if remember {
		s.Options.MaxAge = int(RememberFor / time.Second)
	} else {
		s.Options.MaxAge = 0
	}
	if err := s.Save(r, w); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return u, nil
}

// Logout destroys the current session, if any.
func (a *Authenticator) Logout(w http.ResponseWriter, r *http.Request) error {
	s, err := a.store.Get(r, a.cookieName)
	if err != nil {
		logger.WarnContext(r.Context(), "Discarding unreadable session", "error", err)
	}
	s.Options.MaxAge = -1
	return s.Save(r, w)
}

// LoadSession resolves the session cookie before the handler runs and
// exposes the result through SessionFrom. A store that cannot be read
// ends the request through fail; a nil fail writes a bare 500.
// Browser sessions have their idle expiry pushed forward on each request.
func (a *Authenticator) LoadSession(fail http.HandlerFunc) func(http.Handler) http.Handler {
	if fail == nil {
		fail = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := a.store.Get(r, a.cookieName)
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to load session", "error", err)
				fail(w, r)
				return
			}

			sess := &Session{}
			if id, ok := raw.Values[valueUserID].(int64); ok {
				sess.UserID = id
			}
			if remember, ok := raw.Values[valueRemember].(bool); ok {
				sess.Persistent = remember
			}

			ctx := context.WithValue(r.Context(), ctxSession, sess)
			if sess.Authenticated() {
				ctx = context.WithValue(ctx, logger.UserIDKey, sess.UserID)
				if !sess.Persistent {
					if err := a.store.Touch(ctx, raw.ID); err != nil {
						logger.WarnContext(ctx, "Failed to extend session", "error", err)
					}
				}
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session resolved by LoadSession. Requests that
// did not pass through it get an anonymous session.
func SessionFrom(r *http.Request) *Session {
	if s, ok := r.Context().Value(ctxSession).(*Session); ok {
		return s
	}
	return &Session{}
}

// RequireAuthenticated redirects anonymous requests to loginPath. It only
// checks that a user id is bound; the user is not reloaded.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionFrom(r).Authenticated() {
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
