package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/secretsanta/internal/models"
	"github.com/mmynk/secretsanta/pkg/logging"
)

// WithLogging wraps next so that opening a session and every send are
// logged with their duration. Recipients are redacted and message content is
// never logged.
func WithLogging(next Opener) Opener {
	return &loggingOpener{next: next}
}

type loggingOpener struct {
	next Opener
}

func (o *loggingOpener) Open(ctx context.Context, sender models.Sender) (Session, error) {
	start := time.Now()

	sess, err := o.next.Open(ctx, sender)
	if err != nil {
		slog.Error("Mail session failed",
			"server", sender.HostPort(),
			"user", logging.RedactEmail(sender.Email),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	slog.Info("Mail session opened",
		"server", sender.HostPort(),
		"user", logging.RedactEmail(sender.Email),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &loggingSession{next: sess}, nil
}

type loggingSession struct {
	next Session
}

func (s *loggingSession) Send(ctx context.Context, msg models.Message) error {
	start := time.Now()
	recipient := logging.RedactEmail(msg.To)

	if err := s.next.Send(ctx, msg); err != nil {
		slog.Error("Message failed",
			"recipient", recipient,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	slog.Info("Message sent",
		"recipient", recipient,
		"message_id", msg.MessageID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *loggingSession) Close() error {
	err := s.next.Close()
	slog.Debug("Mail session closed", "error", err)
	return err
}
