package models

import (
	"fmt"
	"strings"
)

// ConfigReadError reports that the config file could not be opened or read.
type ConfigReadError struct {
	Path string
	Err  error
}

func (e *ConfigReadError) Error() string {
	return fmt.Sprintf("cannot read config file %s: %v", e.Path, e.Err)
}

func (e *ConfigReadError) Unwrap() error { return e.Err }

// ConfigParseError reports that the config file is not valid structured data.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("cannot parse config file %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

// MalformedConfigError reports a required field that is missing or has the
// wrong shape. Field is a dotted path such as "sender.port" or "santas[2].email".
type MalformedConfigError struct {
	Field  string
	Reason string
}

func (e *MalformedConfigError) Error() string {
	return fmt.Sprintf("malformed config: %s: %s", e.Field, e.Reason)
}

// TooFewParticipantsError reports a config with fewer than MinParticipants santas.
type TooFewParticipantsError struct {
	Count int
}

func (e *TooFewParticipantsError) Error() string {
	return fmt.Sprintf("too few participants: need at least %d, got %d", MinParticipants, e.Count)
}

// DuplicateEmailError reports two participants sharing an email address.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("duplicate participant email %q", e.Email)
}

// InsufficientParticipantsError is returned by the assignment engine when it
// is called with fewer than MinParticipants participants.
type InsufficientParticipantsError struct {
	Count int
}

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("cannot assign %d participant(s): a derangement needs at least %d", e.Count, MinParticipants)
}

// DeliveryFailure is one message that could not be transmitted.
type DeliveryFailure struct {
	Recipient string
	Err       error
}

// DeliveryError reports an authentication, connection or transmission failure.
//
// Op is the phase that failed ("connect", "tls", "auth", "send"). For "send",
// Failures lists every message that was not transmitted.
type DeliveryError struct {
	Op       string
	Err      error
	Failures []DeliveryFailure
}

func (e *DeliveryError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("delivery %s failed: %v", e.Op, e.Err)
	}

	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Recipient, f.Err)
	}
	return fmt.Sprintf("delivery %s failed for %d message(s): %s",
		e.Op, len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the session-level cause and every per-message cause.
func (e *DeliveryError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
