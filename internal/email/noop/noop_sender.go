package noop

import (
	"context"

	"go.uber.org/zap"

	"authbridge/internal/logger"
	"authbridge/internal/port"
)

type noopSender struct {
	frontendURL string
}

// NewNoopSender creates an EmailSender that only logs what it would have sent.
func NewNoopSender(frontendURL string) port.EmailSender {
	return &noopSender{frontendURL: frontendURL}
}

func (s *noopSender) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	logger.From(ctx).Info("[NOOP EMAIL] welcome email",
		logger.Email(toEmail), zap.String("name", toName), zap.String("link", s.frontendURL))
	return nil
}
