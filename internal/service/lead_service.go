package service

import (
	"context"
	"fmt"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/internal/platform/notify"
	"github.com/eurobrokers/leadcapture/internal/repo/sqlite"
	"github.com/eurobrokers/leadcapture/pkg/logger"
)

type LeadService interface {
	Submit(ctx context.Context, form domain.LeadForm) (*domain.Lead, error)
	List(ctx context.Context) ([]domain.Lead, error)
	Get(ctx context.Context, id int64) (*domain.Lead, error)
	ToggleContacted(ctx context.Context, id int64) error
}

type leadService struct {
	leads     sqlite.LeadsRepo
	validator *domain.LeadValidator
	notifier  notify.Notifier
}

func NewLeadService(leads sqlite.LeadsRepo, validator *domain.LeadValidator, notifier notify.Notifier) LeadService {
	if validator == nil {
		validator = domain.DefaultLeadValidator()
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &leadService{
		leads:     leads,
		validator: validator,
		notifier:  notifier,
	}
}

// Submit validates and stores a public submission, then notifies. A
// notification failure is logged and does not fail the submission.
func (s *leadService) Submit(ctx context.Context, form domain.LeadForm) (*domain.Lead, error) {
	in, err := s.validator.Validate(form)
	if err != nil {
		return nil, err
	}

	lead, err := s.leads.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to store lead: %w", err)
	}
	logger.InfoContext(ctx, "Lead stored", "lead_id", lead.ID, "type", lead.PropertyType)

	if err := s.notifier.LeadCreated(ctx, lead); err != nil {
		logger.ErrorContext(ctx, "Failed to send lead notification", "error", err, "lead_id", lead.ID)
	}
	return lead, nil
}

func (s *leadService) List(ctx context.Context) ([]domain.Lead, error) {
	return s.leads.List(ctx)
}

func (s *leadService) Get(ctx context.Context, id int64) (*domain.Lead, error) {
	return s.leads.GetByID(ctx, id)
}

func (s *leadService) ToggleContacted(ctx context.Context, id int64) error {
	return s.leads.ToggleContacted(ctx, id)
}
