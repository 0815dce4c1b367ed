package mailer

import (
	"context"
	"log/slog"
)

// Dev logs messages instead of sending them. Used when no provider API key is
// configured.
type Dev struct {
	logger *slog.Logger
}

func NewDev(logger *slog.Logger) *Dev {
	return &Dev{logger: logger}
}

func (d *Dev) Send(_ context.Context, msg Message) error {
	d.logger.Info("DEV email",
		"to", msg.To,
		"cc", msg.Cc,
		"subject", msg.Subject)
	return nil
}
