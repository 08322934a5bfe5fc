package mail

import (
	"context"
	"log/slog"

	"github.com/viralforge/tshirtstore/internal/ports"
)

// LoggingMailer records that a message would have been sent. The body holds the
// reset link, so only its size is logged.
type LoggingMailer struct {
	logger *slog.Logger
}

func NewLoggingMailer(logger *slog.Logger) *LoggingMailer {
	return &LoggingMailer{logger: logger}
}

func (m *LoggingMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	m.logger.InfoContext(ctx, "mail dispatched",
		"module", "mail",
		"layer", "adapter",
		"operation", "send_mail",
		"outcome", "success",
		"subject", msg.Subject,
		"body_bytes", len(msg.Body),
	)
	return nil
}
