package models

import (
	"bytes"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is one rendered notification addressed to a single santa.
// It carries only that santa's own assignment.
type Message struct {
	// To is the santa's email address.
	To string

	// ToName is the santa's display name.
	ToName string

	// FromName is the constant display name of the notifier.
	FromName string

	// FromAddress is the sender's email address.
	FromAddress string

	Subject string
	Body    string

	Date time.Time

	// MessageID is the full Message-ID header value, including angle brackets.
	MessageID string
}

// Bytes renders the message as an RFC 5322 document with CRLF line endings,
// a UTF-8 plain text body, and a quoted-printable transfer encoding.
// Addresses and the Message-ID must not contain line breaks.
func (m Message) Bytes() ([]byte, error) {
	for _, h := range []struct{ name, value string }{
		{"To", m.To},
		{"From", m.FromAddress},
		{"Message-ID", m.MessageID},
	} {
		if strings.ContainsAny(h.value, "\r\n") {
			return nil, fmt.Errorf("%s header contains a line break: %q", h.name, h.value)
		}
	}

	var buf bytes.Buffer

	from := mail.Address{Name: m.FromName, Address: m.FromAddress}
	to := mail.Address{Name: m.ToName, Address: m.To}

	fmt.Fprintf(&buf, "From: %s\r\n", from.String())
	fmt.Fprintf(&buf, "To: %s\r\n", to.String())
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", m.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", m.Date.Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: %s\r\n", m.MessageID)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode body: %w", err)
	}
	buf.WriteString("\r\n")

	return buf.Bytes(), nil
}
