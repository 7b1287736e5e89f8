package handlers

import (
	"context"
	"net/http"

	"github.com/eurobrokers/leadcapture/internal/http/response"
	"github.com/eurobrokers/leadcapture/internal/web"
	"github.com/eurobrokers/leadcapture/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

const serviceName = "leadcapture"

// NewRouter wires every route behind the shared middleware stack. ping
// backs /healthz and may be nil.
func NewRouter(public *PublicHandler, admin *AdminHandler, ping func(context.Context) error) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ServiceName(serviceName))
	r.Use(middleware.Recover(response.MsgInternal))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Health(ping))

	r.Handle("/static/*", web.Static())

	r.Group(func(r chi.Router) {
		// Sessions resolve before the access log so its lines carry user_id.
		r.Use(admin.Auth.LoadSession(func(w http.ResponseWriter, _ *http.Request) {
			response.InternalError(w)
		}))
		r.Use(middleware.AccessLog)
		public.Routes(r)
		admin.Routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, response.MsgNotFound)
	})

	return r
}

