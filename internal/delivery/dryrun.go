package delivery

import (
	"context"
	"fmt"
	"io"

	"github.com/mmynk/secretsanta/internal/models"
)

// DryRunOpener opens sessions that transmit nothing. Each message is
// reported as one line on W naming only its addressee and size, so a dry run
// never reveals who drew whom.
type DryRunOpener struct {
	W io.Writer
}

// Open never fails and never touches the network.
func (o DryRunOpener) Open(_ context.Context, sender models.Sender) (Session, error) {
	fmt.Fprintf(o.W, "dry run: not connecting to %s\n", sender.HostPort())
	return &dryRunSession{w: o.W}, nil
}

type dryRunSession struct {
	w     io.Writer
	count int
}

func (s *dryRunSession) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := msg.Bytes()
	if err != nil {
		return err
	}
	s.count++
	_, err = fmt.Fprintf(s.w, "dry run: message %d to %s (%d bytes)\n", s.count, msg.To, len(raw))
	return err
}

func (s *dryRunSession) Close() error {
	_, err := fmt.Fprintf(s.w, "dry run: %d message(s) prepared, none sent\n", s.count)
	return err
}
