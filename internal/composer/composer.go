// Package composer renders one notification message per santa from the
// sender's subject and body templates.
package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/secretsanta/internal/models"
)

// Placeholders recognized in subject and body templates.
const (
	SantaName      = "{santa.name}"
	SantaEmail     = "{santa.email}"
	RecipientName  = "{recipient.name}"
	RecipientEmail = "{recipient.email}"
)

// Defaults used when the sender has no templates.
const (
	DefaultSubject  = "Your Secret Santa draw"
	DefaultBody     = "Hi {santa.name},\n\nyou are the Secret Santa of {recipient.name} ({recipient.email}).\n\nKeep it secret and happy gifting!\n"
	DefaultFromName = "Secret Santa"
)

// Composer renders messages for one sender.
type Composer struct {
	sender   models.Sender
	subject  string
	body     string
	fromName string
	now      func() time.Time
	newID    func() string
}

// Option configures a Composer.
type Option func(*Composer)

// WithFromName sets the display name of the From header.
func WithFromName(name string) Option {
	return func(c *Composer) {
		if name != "" {
			c.fromName = name
		}
	}
}

// WithClock replaces time.Now for the Date header.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithIDGenerator replaces the random local part of Message-ID.
func WithIDGenerator(newID func() string) Option {
	return func(c *Composer) { c.newID = newID }
}

// New creates a Composer for sender. Empty templates fall back to
// DefaultSubject and DefaultBody.
func New(sender models.Sender, opts ...Option) *Composer {
	c := &Composer{
		sender:   sender,
		subject:  sender.Subject,
		body:     sender.Body,
		fromName: DefaultFromName,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	if strings.TrimSpace(c.subject) == "" {
		c.subject = DefaultSubject
	}
	if strings.TrimSpace(c.body) == "" {
		c.body = DefaultBody
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Render substitutes every occurrence of the recognized placeholders in
// template. Unrecognized text passes through unchanged.
func Render(template string, santa, recipient models.Participant) string {
	return strings.NewReplacer(
		SantaName, santa.Name,
		SantaEmail, santa.Email,
		RecipientName, recipient.Name,
		RecipientEmail, recipient.Email,
	).Replace(template)
}

// Compose renders the message telling santa whom to gift.
func (c *Composer) Compose(santa, recipient models.Participant) models.Message {
	return models.Message{
		To:          santa.Email,
		ToName:      santa.Name,
		FromName:    c.fromName,
		FromAddress: c.sender.Email,
		Subject:     Render(c.subject, santa, recipient),
		Body:        Render(c.body, santa, recipient),
		Date:        c.now(),
		MessageID:   fmt.Sprintf("<%s@%s>", c.newID(), messageIDDomain(c.sender)),
	}
}

// ComposeAll renders one message per santa in the assignment, in original
// participant order.
func (c *Composer) ComposeAll(a models.Assignment) []models.Message {
	pairs := a.Pairs()
	msgs := make([]models.Message, len(pairs))
	for i, pair := range pairs {
		msgs[i] = c.Compose(pair.Santa, pair.Recipient)
	}
	return msgs
}

func messageIDDomain(s models.Sender) string {
	if _, domain, ok := strings.Cut(s.Email, "@"); ok && domain != "" {
		return domain
	}
	return s.Address
}
