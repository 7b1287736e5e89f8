package handlers

import (
	"errors"
	"net/http"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/internal/http/response"
	"github.com/eurobrokers/leadcapture/internal/service"
	"github.com/eurobrokers/leadcapture/internal/web"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type PublicHandler struct {
	Leads service.LeadService
	Views *web.Renderer
	Agent web.Agent
}

func NewPublicHandler(leads service.LeadService, views *web.Renderer, agent web.Agent) *PublicHandler {
	return &PublicHandler{Leads: leads, Views: views, Agent: agent}
}

func (h *PublicHandler) Routes(r chi.Router) {
	r.Get("/", h.index)
	r.Post("/lead", h.submit)
	r.Get("/thanks", h.thanks)
}

func (h *PublicHandler) index(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Views, http.StatusOK, web.PageIndex, web.IndexPage{Agent: h.Agent})
}

func (h *PublicHandler) submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logger.DebugContext(r.Context(), "Unreadable lead form", "error", err)
		response.BadRequest(w)
		return
	}

	lead, err := h.Leads.Submit(r.Context(), leadForm(r))
	switch {
	case errors.Is(err, domain.ErrInvalidLead):
		logger.DebugContext(r.Context(), "Lead rejected", "error", err)
		response.BadRequest(w)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Failed to submit lead", "error", err)
		response.InternalError(w)
		return
	}

	logger.InfoContext(r.Context(), "Lead submitted", "lead_id", lead.ID)
	http.Redirect(w, r, "/thanks", http.StatusFound)
}

func (h *PublicHandler) thanks(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Views, http.StatusOK, web.PageThanks, nil)
}

func leadForm(r *http.Request) domain.LeadForm {
	f := r.PostForm
	return domain.LeadForm{
		City:         f.Get("city"),
		PostalCode:   f.Get("psc"),
		PropertyType: f.Get("type"),
		Area:         f.Get("area"),
		Layout:       f.Get("layout"),
		Balcony:      f.Get("balcony"),
		Condition:    f.Get("condition"),
		FirstName:    f.Get("first_name"),
		LastName:     f.Get("last_name"),
		Email:        f.Get("email"),
		Phone:        f.Get("phone"),
	}
}

// render writes a page, falling back to the generic 500 when the
// template fails.
func render(w http.ResponseWriter, r *http.Request, views *web.Renderer, status int, page string, data any) {
	if err := views.Render(w, status, page, data); err != nil {
		logger.ErrorContext(r.Context(), "Failed to render page", "page", page, "error", err)
		response.InternalError(w)
	}
}
