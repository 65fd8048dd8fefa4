package models

import (
	"fmt"
	"net"
	"strconv"
)

// MinParticipants is the smallest group that admits a derangement.
const MinParticipants = 2

// Participant represents one member of the gifting group.
//
// Two participants are equal iff both Name and Email are equal. The struct is
// comparable and is used directly as a map key.
type Participant struct {
	// Name is the display name used in message templates. Not unique.
	Name string

	// Email is the delivery address. Treated as an opaque identifier and
	// unique within a group.
	Email string
}

// String renders the participant as "Name <email>".
func (p Participant) String() string {
	return fmt.Sprintf("%s <%s>", p.Name, p.Email)
}

// Sender represents the mail server and identity used for notifications.
// Constructed once per run from the config document and never modified.
type Sender struct {
	// Address is the mail server host name, in ASCII (IDNA) form.
	Address string

	// Port is the mail server port. 465 means implicit TLS; anything else
	// requires STARTTLS.
	Port int

	// Email is the authenticating identity and the envelope sender.
	Email string

	// Subject is the optional subject template. Empty means the default.
	Subject string

	// Body is the optional body template. Empty means the default.
	Body string
}

// HostPort returns the "host:port" dial address of the mail server.
func (s Sender) HostPort() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.Port))
}
