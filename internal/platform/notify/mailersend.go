package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/logger"
	"github.com/mailersend/mailersend-go"
)

const sendTimeout = 10 * time.Second

type MailerSendNotifier struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	to      string
	Enabled bool
}

func NewMailerSendNotifier(apiKey, fromName, fromEmail, to string) *MailerSendNotifier {
	m := &MailerSendNotifier{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
		to: to,
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSendNotifier) LeadCreated(ctx context.Context, l *domain.Lead) error {
	id, err := m.send(ctx, leadSubject(l), leadText(l), leadHTML(l))
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "Lead notification sent", "lead_id", l.ID, "message_id", id)
	return nil
}

func (m *MailerSendNotifier) send(ctx context.Context, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailersend disabled (missing MAILERSEND_API_KEY or MAILER_FROM)")
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Email: m.to}})
	msg.SetSubject(subject)
	msg.SetText(text)
	msg.SetHTML(html)

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return res.Header.Get("X-Message-Id"), nil
}
