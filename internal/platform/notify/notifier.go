package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/config"
	"github.com/eurobrokers/leadcapture/pkg/logger"
)

// Notifier is told about every lead after it has been stored.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *domain.Lead) error
}

type Noop struct{}

func (Noop) LeadCreated(context.Context, *domain.Lead) error { return nil }

// Multi fans a lead out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) LeadCreated(ctx context.Context, lead *domain.Lead) error {
	var errs []error
	for _, n := range m {
		if err := n.LeadCreated(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig assembles the notifiers enabled by cfg. The returned func
// releases their connections.
func FromConfig(cfg config.NotifyConfig) (Notifier, func(), error) {
	var (
		out     Multi
		closers []func()
	)

	switch {
	case cfg.Email == "":
	case cfg.DevMode:
		out = append(out, NewLogNotifier(cfg.Email))
	case cfg.MailerSendKey != "":
		m := NewMailerSendNotifier(cfg.MailerSendKey, cfg.MailerName, cfg.MailerFrom, cfg.Email)
		if !m.Enabled {
			return nil, nil, errors.New("MAILERSEND_API_KEY set without MAILER_FROM")
		}
		out = append(out, m)
	case cfg.SMTPHost != "":
		out = append(out, NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.MailerFrom,
			cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS, cfg.Email))
	default:
		logger.Warn("NOTIFY_EMAIL set but no mail transport configured; email disabled")
	}

	if cfg.NATSURL != "" {
		p, err := ConnectNATS(cfg.NATSURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect nats: %w", err)
		}
		out = append(out, p)
		closers = append(closers, p.Close)
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	switch len(out) {
	case 0:
		return Noop{}, closeAll, nil
	case 1:
		return out[0], closeAll, nil
	}
	return out, closeAll, nil
}

var (
	_ Notifier = Noop{}
	_ Notifier = Multi(nil)
	_ Notifier = (*LogNotifier)(nil)
	_ Notifier = (*MailerSendNotifier)(nil)
	_ Notifier = (*SMTPNotifier)(nil)
	_ Notifier = (*NATSPublisher)(nil)
)
