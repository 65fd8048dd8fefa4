// Package delivery transmits composed messages over a single mail session.
package delivery

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/secretsanta/internal/models"
)

// Session is an open, authenticated mail session.
type Session interface {
	// Send transmits one message. A failed Send leaves the session usable
	// for the next message.
	Send(ctx context.Context, msg models.Message) error

	// Close ends the session and releases the connection.
	Close() error
}

// Opener establishes sessions against a sender's mail server.
type Opener interface {
	Open(ctx context.Context, sender models.Sender) (Session, error)
}

// Summary counts what Deliver did.
type Summary struct {
	Attempted int
	Sent      int
}

// Deliver opens one session and sends every message over it.
//
// Every message is attempted even after a failure; failures are collected
// into a single *models.DeliveryError with Op "send". If the session cannot
// be opened, nothing is sent and the open error is returned as a
// *models.DeliveryError. The session is closed on every path.
func Deliver(ctx context.Context, opener Opener, sender models.Sender, msgs []models.Message) (*Summary, error) {
	summary := &Summary{}

	sess, err := opener.Open(ctx, sender)
	if err != nil {
		var de *models.DeliveryError
		if errors.As(err, &de) {
			return summary, err
		}
		return summary, &models.DeliveryError{Op: "connect", Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			slog.Warn("Failed to close mail session", "error", cerr)
		}
	}()

	var failures []models.DeliveryFailure
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			for _, skipped := range msgs[i:] {
				failures = append(failures, models.DeliveryFailure{Recipient: skipped.To, Err: err})
			}
			break
		}

		summary.Attempted++
		if err := sess.Send(ctx, msg); err != nil {
			failures = append(failures, models.DeliveryFailure{Recipient: msg.To, Err: err})
			continue
		}
		summary.Sent++
	}

	if len(failures) > 0 {
		return summary, &models.DeliveryError{Op: "send", Failures: failures}
	}
	return summary, nil
}
