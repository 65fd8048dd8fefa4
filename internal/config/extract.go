package config

import (
	"fmt"
	"math"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/mmynk/secretsanta/internal/models"
)

// DuplicateNameWarning flags a display name used by more than one participant.
// Names are not identities, so this never fails validation.
type DuplicateNameWarning struct {
	Name string
}

func (w DuplicateNameWarning) String() string {
	return fmt.Sprintf("participant name %q is used more than once", w.Name)
}

// Roster is the validated content of an input document.
type Roster struct {
	Sender       models.Sender
	Participants []models.Participant
	Warnings     []DuplicateNameWarning
}

// Extract validates doc and builds the sender and the ordered participant
// list. Keys are matched case-insensitively.
func Extract(doc Document) (*Roster, error) {
	sender, err := extractSender(doc)
	if err != nil {
		return nil, err
	}

	participants, err := extractSantas(doc)
	if err != nil {
		return nil, err
	}

	if len(participants) < models.MinParticipants {
		return nil, &models.TooFewParticipantsError{Count: len(participants)}
	}

	// Mailbox addresses are compared case-insensitively.
	emails := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		key := strings.ToLower(p.Email)
		if _, dup := emails[key]; dup {
			return nil, &models.DuplicateEmailError{Email: p.Email}
		}
		emails[key] = struct{}{}
	}

	return &Roster{
		Sender:       sender,
		Participants: participants,
		Warnings:     duplicateNames(participants),
	}, nil
}

func extractSender(doc Document) (models.Sender, error) {
	raw, ok := lookup(doc, "sender")
	if !ok {
		return models.Sender{}, missing("sender")
	}
	m, ok := asMap(raw)
	if !ok {
		return models.Sender{}, wrongShape("sender", "expected a mapping")
	}

	address, err := requiredString(m, "sender", "address")
	if err != nil {
		return models.Sender{}, err
	}
	host, err := normalizeHost(address)
	if err != nil {
		return models.Sender{}, wrongShape("sender.address", fmt.Sprintf("invalid host name: %v", err))
	}

	email, err := requiredString(m, "sender", "email")
	if err != nil {
		return models.Sender{}, err
	}

	port, err := requiredPort(m)
	if err != nil {
		return models.Sender{}, err
	}

	subject, err := optionalString(m, "sender", "subject")
	if err != nil {
		return models.Sender{}, err
	}
	body, err := optionalString(m, "sender", "body")
	if err != nil {
		return models.Sender{}, err
	}

	return models.Sender{
		Address: host,
		Port:    port,
		Email:   email,
		Subject: subject,
		Body:    body,
	}, nil
}

// normalizeHost lowercases a host name and converts internationalized names
// to their ASCII form. IP literals, bracketed or not, are returned bare.
func normalizeHost(address string) (string, error) {
	if ip := net.ParseIP(strings.TrimSuffix(strings.TrimPrefix(address, "["), "]")); ip != nil {
		return ip.String(), nil
	}
	if isASCII(address) {
		return strings.ToLower(address), nil
	}
	return idna.Lookup.ToASCII(address)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func extractSantas(doc Document) ([]models.Participant, error) {
	raw, ok := lookup(doc, "santas")
	if !ok {
		return nil, missing("santas")
	}
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, wrongShape("santas", "expected a list")
	}

	participants := make([]models.Participant, 0, len(list))
	for i, item := range list {
		field := fmt.Sprintf("santas[%d]", i)
		m, ok := asMap(item)
		if !ok {
			return nil, wrongShape(field, "expected a mapping with name and email")
		}
		name, err := requiredString(m, field, "name")
		if err != nil {
			return nil, err
		}
		email, err := requiredString(m, field, "email")
		if err != nil {
			return nil, err
		}
		participants = append(participants, models.Participant{Name: name, Email: email})
	}
	return participants, nil
}

func duplicateNames(participants []models.Participant) []DuplicateNameWarning {
	var warnings []DuplicateNameWarning
	counts := make(map[string]int, len(participants))
	for _, p := range participants {
		counts[p.Name]++
		if counts[p.Name] == 2 {
			warnings = append(warnings, DuplicateNameWarning{Name: p.Name})
		}
	}
	return warnings
}

func requiredString(m map[string]any, parent, key string) (string, error) {
	field := parent + "." + key
	raw, ok := lookup(m, key)
	if !ok || raw == nil {
		return "", missing(field)
	}
	s, ok := raw.(string)
	if !ok {
		return "", wrongShape(field, fmt.Sprintf("expected a string, got %T", raw))
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", wrongShape(field, "must not be empty")
	}
	return s, nil
}

func optionalString(m map[string]any, parent, key string) (string, error) {
	raw, ok := lookup(m, key)
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", wrongShape(parent+"."+key, fmt.Sprintf("expected a string, got %T", raw))
	}
	return s, nil
}

func requiredPort(m map[string]any) (int, error) {
	const field = "sender.port"

	raw, ok := lookup(m, "port")
	if !ok || raw == nil {
		return 0, missing(field)
	}

	var port int
	switch v := raw.(type) {
	case int:
		port = v
	case float64:
		if v != math.Trunc(v) {
			return 0, wrongShape(field, "expected an integer")
		}
		port = int(v)
	default:
		return 0, wrongShape(field, fmt.Sprintf("expected an integer, got %T", raw))
	}

	if port < 1 || port > 65535 {
		return 0, wrongShape(field, fmt.Sprintf("port %d out of range 1-65535", port))
	}
	return port, nil
}

// lookup finds key in m ignoring case. An exact match wins over a folded one.
func lookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// asMap accepts both mapping shapes yaml.v3 may produce for untyped values.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

func missing(field string) error {
	return &models.MalformedConfigError{Field: field, Reason: "required field is missing"}
}

func wrongShape(field, reason string) error {
	return &models.MalformedConfigError{Field: field, Reason: reason}
}
