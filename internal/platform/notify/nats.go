package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/nats-io/nats.go"
)

// SubjectLeadCreated carries a LeadCreatedEvent for every stored lead.
const SubjectLeadCreated = "leads.created"

type LeadCreatedEvent struct {
	LeadID       int64     `json:"lead_id"`
	City         string    `json:"city"`
	PostalCode   string    `json:"psc"`
	PropertyType string    `json:"type"`
	Area         float64   `json:"area"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CreatedAt    time.Time `json:"created_at"`
}

type publisher interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	conn publisher
	nc   *nats.Conn
}

func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("leadcapture"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: nc, nc: nc}, nil
}

func (p *NATSPublisher) LeadCreated(ctx context.Context, l *domain.Lead) error {
	payload, err := json.Marshal(LeadCreatedEvent{
		LeadID:       l.ID,
		City:         l.City,
		PostalCode:   l.PostalCode,
		PropertyType: l.PropertyType,
		Area:         l.Area,
		Name:         l.FullName(),
		Email:        l.Email,
		Phone:        l.Phone,
		CreatedAt:    l.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", SubjectLeadCreated, "lead_id", l.ID)
	return p.conn.Publish(SubjectLeadCreated, payload)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
