package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxRequestIDLen bounds a caller-supplied X-Request-ID; longer values are
// replaced rather than echoed into logs.
const maxRequestIDLen = 64

// RequestID tags the request with the caller's X-Request-ID or a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), logger.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AccessLog writes one line per finished request. Context attributes set
// by earlier middleware, such as the signed-in user, ride along.
func AccessLog(next http.Handler) http.Handler {
	return middleware.RequestLogger(accessLogFormatter{})(next)
}

type accessLogFormatter struct{}

func (accessLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &accessLogEntry{r: r}
}

type accessLogEntry struct {
	r *http.Request
}

func (e *accessLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	log := logger.InfoContext
	if status >= http.StatusInternalServerError {
		log = logger.WarnContext
	}
	log(e.r.Context(), "Request served",
		"method", e.r.Method,
		"path", e.r.URL.Path,
		"status", status,
		"bytes", bytes,
		"elapsed_ms", elapsed.Milliseconds(),
		"remote_addr", e.r.RemoteAddr,
	)
}

func (e *accessLogEntry) Panic(v interface{}, stack []byte) {
	logger.ErrorContext(e.r.Context(), "Request panicked",
		"panic", v,
		"stack", string(stack),
		"path", e.r.URL.Path,
	)
}

// Recover turns a panic into a plain-text 500 response.
func Recover(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.ErrorContext(r.Context(), "Panic recovered", "error", err)
					http.Error(w, message, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ServiceName stamps every log line of the request with the service name.
func ServiceName(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), logger.ServiceKey, name)))
		})
	}
}

type healthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health answers GET /healthz ahead of the rest of the stack. When check
// fails the answer is 503 so a supervisor can restart the process.
func Health(check func(context.Context) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			body := healthStatus{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)}
			code := http.StatusOK
			if check != nil {
				if err := check(r.Context()); err != nil {
					logger.ErrorContext(r.Context(), "Health check failed", "error", err)
					body.Status = "unavailable"
					code = http.StatusServiceUnavailable
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "no-store")
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(body)
		})
	}
}

const contentSecurityPolicy = "default-src 'self'; " +
	"base-uri 'self'; " +
	"font-src 'self' https: data:; " +
	"form-action 'self'; " +
	"frame-ancestors 'self'; " +
	"img-src 'self' data:; " +
	"object-src 'none'; " +
	"script-src 'self' 'unsafe-inline' https://cdn.tailwindcss.com; " +
	"script-src-attr 'none'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"upgrade-insecure-requests"

// SecureHeaders sets the browser hardening headers served with every page.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=15552000; includeSubDomains")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "SAMEORIGIN")
		next.ServeHTTP(w, r)
	})
}
