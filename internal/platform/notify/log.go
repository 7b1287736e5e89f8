package notify

import (
	"context"

	"github.com/eurobrokers/leadcapture/internal/domain"
	"github.com/eurobrokers/leadcapture/pkg/logger"
)

// LogNotifier writes the notification to the log instead of sending it.
type LogNotifier struct {
	To string
}

func NewLogNotifier(to string) *LogNotifier {
	return &LogNotifier{To: to}
}

func (n *LogNotifier) LeadCreated(ctx context.Context, l *domain.Lead) error {
	logger.InfoContext(ctx, "[DEV MAIL] New lead",
		"to", n.To,
		"subject", leadSubject(l),
		"body", leadText(l),
	)
	return nil
}
