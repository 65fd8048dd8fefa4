package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"github.com/mmynk/secretsanta/internal/models"
)

// ImplicitTLSPort is the submission port that speaks TLS from the first byte.
// Every other port must offer STARTTLS.
const ImplicitTLSPort = 465

// Client is the subset of *smtp.Client used by a session.
type Client interface {
	Extension(ext string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Reset() error
	Quit() error
	Close() error
}

var _ Client = (*smtp.Client)(nil)

// DialFunc connects to addr and returns a client that has read the server
// greeting. When tlsConfig is non-nil the connection is TLS from the start.
type DialFunc func(ctx context.Context, addr string, tlsConfig *tls.Config, timeout time.Duration) (Client, error)

// SMTPOpener opens authenticated, encrypted SMTP sessions.
type SMTPOpener struct {
	secret  SecretFunc
	dial    DialFunc
	timeout time.Duration
}

// SMTPOption configures an SMTPOpener.
type SMTPOption func(*SMTPOpener)

// WithDialer replaces the network dialer.
func WithDialer(dial DialFunc) SMTPOption {
	return func(o *SMTPOpener) { o.dial = dial }
}

// WithTimeout bounds connection setup.
func WithTimeout(d time.Duration) SMTPOption {
	return func(o *SMTPOpener) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// DefaultTimeout bounds dialing and each SMTP exchange.
const DefaultTimeout = 30 * time.Second

// NewSMTPOpener creates an opener that asks secret for the password each
// time a session is opened. The password is used for AUTH and then dropped.
func NewSMTPOpener(secret SecretFunc, opts ...SMTPOption) *SMTPOpener {
	o := &SMTPOpener{
		secret:  secret,
		dial:    dialSMTP,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open connects to the sender's server, secures the connection and logs in
// as sender.Email. On any failure the connection is closed and a
// *models.DeliveryError is returned.
func (o *SMTPOpener) Open(ctx context.Context, sender models.Sender) (Session, error) {
	password, err := o.secret()
	if err != nil {
		return nil, &models.DeliveryError{Op: "auth", Err: err}
	}

	tlsConfig := &tls.Config{
		ServerName: sender.Address,
		MinVersion: tls.VersionTLS12,
	}
	implicit := sender.Port == ImplicitTLSPort

	var dialTLS *tls.Config
	if implicit {
		dialTLS = tlsConfig
	}
	c, err := o.dial(ctx, sender.HostPort(), dialTLS, o.timeout)
	if err != nil {
		return nil, &models.DeliveryError{Op: "connect", Err: fmt.Errorf("SMTP connect to %s: %w", sender.HostPort(), err)}
	}

	if !implicit {
		if ok, _ := c.Extension("STARTTLS"); !ok {
			c.Close()
			return nil, &models.DeliveryError{Op: "tls", Err: errors.New("server does not offer STARTTLS")}
		}
		if err := c.StartTLS(tlsConfig); err != nil {
			c.Close()
			return nil, &models.DeliveryError{Op: "tls", Err: fmt.Errorf("STARTTLS: %w", err)}
		}
	}

	if err := c.Auth(chooseAuth(c, sender.Email, password, sender.Address)); err != nil {
		c.Close()
		return nil, &models.DeliveryError{Op: "auth", Err: fmt.Errorf("AUTH as %s: %w", sender.Email, err)}
	}

	return &smtpSession{client: c, from: sender.Email}, nil
}

func dialSMTP(ctx context.Context, addr string, tlsConfig *tls.Config, timeout time.Duration) (Client, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: timeout}
	var conn net.Conn
	if tlsConfig != nil {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}

	// bound the greeting read; sessions themselves rely on the server's timeouts
	_ = conn.SetDeadline(time.Now().Add(timeout))
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	return c, nil
}

type smtpSession struct {
	client Client
	from   string
}

// Send runs one MAIL/RCPT/DATA transaction. A failed transaction is reset so
// the next message can reuse the session.
func (s *smtpSession) Send(ctx context.Context, msg models.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := msg.Bytes()
	if err != nil {
		return err
	}

	if err := s.client.Mail(s.from); err != nil {
		return s.abort(fmt.Errorf("MAIL FROM: %w", err))
	}
	if err := s.client.Rcpt(msg.To); err != nil {
		return s.abort(fmt.Errorf("RCPT TO: %w", err))
	}
	w, err := s.client.Data()
	if err != nil {
		return s.abort(fmt.Errorf("DATA: %w", err))
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return s.abort(fmt.Errorf("write: %w", err))
	}
	if err := w.Close(); err != nil {
		return s.abort(fmt.Errorf("DATA close: %w", err))
	}
	return nil
}

func (s *smtpSession) abort(err error) error {
	_ = s.client.Reset()
	return err
}

// Close sends QUIT and drops the connection even if QUIT fails.
func (s *smtpSession) Close() error {
	if err := s.client.Quit(); err != nil {
		s.client.Close()
		return err
	}
	return nil
}
