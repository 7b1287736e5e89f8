package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/internal/http/response"
	"github.com/eurobrokers/leadcapture/internal/platform/auth"
	"github.com/eurobrokers/leadcapture/internal/service"
	"github.com/eurobrokers/leadcapture/internal/web"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	loginPath     = "/admin/login"
	dashboardPath = "/admin"
)

type AdminHandler struct {
	Leads service.LeadService
	Auth  *auth.Authenticator
	Views *web.Renderer
}

func NewAdminHandler(leads service.LeadService, authn *auth.Authenticator, views *web.Renderer) *AdminHandler {
	return &AdminHandler{Leads: leads, Auth: authn, Views: views}
}

func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/admin/login", h.loginForm)
	r.Post("/admin/login", h.login)
	r.Get("/admin/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuthenticated(loginPath))
		r.Get("/admin", h.dashboard)
		r.Post("/admin/leads/{id}/contacted", h.toggleContacted)
		r.Get("/admin/leads/{id}", h.lead)
	})
}

func (h *AdminHandler) loginForm(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFrom(r).Authenticated() {
		http.Redirect(w, r, dashboardPath, http.StatusFound)
		return
	}
	render(w, r, h.Views, http.StatusOK, web.PageLogin, web.LoginPage{})
}

// A login form that cannot be parsed fails like wrong credentials.
func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.InfoContext(r.Context(), "Admin login rejected", "error", err)
		h.loginRejected(w, r, "")
		return
	}
	email := r.PostForm.Get("email")
	remember := r.PostForm.Get("remember") == "on"

	u, err := h.Auth.Login(w, r, email, r.PostForm.Get("password"), remember)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		logger.InfoContext(r.Context(), "Admin login rejected")
		h.loginRejected(w, r, email)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Admin login failed", "error", err)
		response.InternalError(w)
		return
	}

	logger.InfoContext(r.Context(), "Admin logged in", "user_id", u.ID, "remember", remember)
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

func (h *AdminHandler) loginRejected(w http.ResponseWriter, r *http.Request, email string) {
	render(w, r, h.Views, http.StatusUnauthorized, web.PageLogin,
		web.LoginPage{Error: response.MsgInvalidCredentials, Email: email})
}

func (h *AdminHandler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(w, r); err != nil {
		logger.ErrorContext(r.Context(), "Failed to destroy session", "error", err)
		response.InternalError(w)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Leads.List(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to list leads", "error", err)
		response.InternalError(w)
		return
	}
	render(w, r, h.Views, http.StatusOK, web.PageDashboard, web.DashboardPage{Leads: leads})
}

func (h *AdminHandler) toggleContacted(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		response.NotFound(w, response.MsgNotFound)
		return
	}

	err := h.Leads.ToggleContacted(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrLeadNotFound):
		response.NotFound(w, response.MsgNotFound)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Failed to toggle lead", "error", err, "lead_id", id)
		response.InternalError(w)
		return
	}
	http.Redirect(w, r, dashboardPath, http.StatusFound)
}

func (h *AdminHandler) lead(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(r)
	if !ok {
		response.NotFound(w, response.MsgLeadNotFound)
		return
	}

	lead, err := h.Leads.Get(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrLeadNotFound):
		response.NotFound(w, response.MsgLeadNotFound)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Failed to load lead", "error", err, "lead_id", id)
		response.InternalError(w)
		return
	}
	render(w, r, h.Views, http.StatusOK, web.PageLead, web.LeadPage{Lead: lead})
}

// leadID reads the {id} path segment. Anything but a positive integer
// cannot name a lead.
func leadID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
