package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/secretsanta/internal/assigner"
	"github.com/mmynk/secretsanta/internal/composer"
	"github.com/mmynk/secretsanta/internal/delivery"
	"github.com/mmynk/secretsanta/internal/models"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validJSON = `{
  "sender": {
    "address": "smtp.example.com",
    "port": 465,
    "email": "santa@example.com",
    "subject": "Your draw, {santa.name}",
    "body": "Hi {santa.name}, gift {recipient.name}"
  },
  "santas": [
    {"name": "Alice", "email": "alice@example.com"},
    {"name": "Bob", "email": "bob@example.com"},
    {"name": "Carol", "email": "carol@example.com"}
  ]
}`

func TestLoadAndExtractJSON(t *testing.T) {
	doc, err := Load(writeTempConfig(t, "santas.json", validJSON))
	require.NoError(t, err)

	roster, err := Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, models.Sender{
		Address: "smtp.example.com",
		Port:    465,
		Email:   "santa@example.com",
		Subject: "Your draw, {santa.name}",
		Body:    "Hi {santa.name}, gift {recipient.name}",
	}, roster.Sender)
	assert.Equal(t, []models.Participant{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	}, roster.Participants)
	assert.Empty(t, roster.Warnings)
}

func TestLoadAndExtractYAMLWithMixedCaseKeys(t *testing.T) {
	doc, err := Load(writeTempConfig(t, "santas.yaml", `
Sender:
  Address: " SMTP.Example.com "
  PORT: 587
  Email: santa@example.com
Santas:
  - Name: Alice
    Email: alice@example.com
  - name: Bob
    EMAIL: bob@example.com
`))
	require.NoError(t, err)

	roster, err := Extract(doc)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", roster.Sender.Address)
	assert.Equal(t, 587, roster.Sender.Port)
	assert.Empty(t, roster.Sender.Subject)
	assert.Len(t, roster.Participants, 2)
}

func TestParseJSONWithEscapedSlash(t *testing.T) {
	doc, err := Parse("escaped.json", []byte(`{
	"sender": {"address": "h", "port": 465, "email": "s@x", "body": "see http:\/\/x"},
	"santas": [{"name": "A", "email": "a@x"}, {"name": "B", "email": "b@x"}]
}`))
	require.NoError(t, err)

	roster, err := Extract(doc)
	require.NoError(t, err)
	assert.Equal(t, "see http://x", roster.Sender.Body)
	assert.Equal(t, 465, roster.Sender.Port)
}

func TestParseFlowMappingFallsBackToYAML(t *testing.T) {
	doc, err := Parse("flow.yaml", []byte(`{sender: {address: h, port: 465, email: s@x}, santas: [{name: A, email: a@x}, {name: B, email: b@x}]}`))
	require.NoError(t, err)

	roster, err := Extract(doc)
	require.NoError(t, err)
	assert.Len(t, roster.Participants, 2)
}

func TestExtractSenderAddress(t *testing.T) {
	tests := []struct {
		address string
		want    string
	}{
		{address: "127.0.0.1", want: "127.0.0.1"},
		{address: "::1", want: "::1"},
		{address: "[::1]", want: "::1"},
		{address: "mail_relay.local", want: "mail_relay.local"},
		{address: "SMTP.Example.com", want: "smtp.example.com"},
		{address: "mail.bücher.example", want: "mail.xn--bcher-kva.example"},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			doc := Document{
				"sender": map[string]any{"address": tt.address, "port": 25, "email": "s@x"},
				"santas": []any{
					map[string]any{"name": "A", "email": "a@x"},
					map[string]any{"name": "B", "email": "b@x"},
				},
			}

			roster, err := Extract(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, roster.Sender.Address)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.json"))

		var readErr *models.ConfigReadError
		require.True(t, errors.As(err, &readErr))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(t.TempDir())

		var readErr *models.ConfigReadError
		require.True(t, errors.As(err, &readErr))
	})

	t.Run("not structured data", func(t *testing.T) {
		_, err := Load(writeTempConfig(t, "broken.json", `{"sender": [`))

		var parseErr *models.ConfigParseError
		require.True(t, errors.As(err, &parseErr))
	})

	t.Run("top level list", func(t *testing.T) {
		_, err := Load(writeTempConfig(t, "list.yaml", "- a\n- b\n"))

		var parseErr *models.ConfigParseError
		require.True(t, errors.As(err, &parseErr))
	})
}

func TestExtractMalformed(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "empty document",
			doc:       "",
			wantField: "sender",
		},
		{
			name:      "sender not a mapping",
			doc:       `{"sender": "smtp.example.com", "santas": []}`,
			wantField: "sender",
		},
		{
			name:      "missing address",
			doc:       `{"sender": {"port": 465, "email": "s@x"}, "santas": []}`,
			wantField: "sender.address",
		},
		{
			name:      "missing email",
			doc:       `{"sender": {"address": "h", "port": 465}, "santas": []}`,
			wantField: "sender.email",
		},
		{
			name:      "missing port",
			doc:       `{"sender": {"address": "h", "email": "s@x"}, "santas": []}`,
			wantField: "sender.port",
		},
		{
			name:      "port as string",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": "465"}, "santas": []}`,
			wantField: "sender.port",
		},
		{
			name:      "port out of range",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 70000}, "santas": []}`,
			wantField: "sender.port",
		},
		{
			name:      "subject not a string",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465, "subject": [1]}, "santas": []}`,
			wantField: "sender.subject",
		},
		{
			name:      "missing santas",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465}}`,
			wantField: "santas",
		},
		{
			name:      "santas not a list",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465}, "santas": {"name": "A"}}`,
			wantField: "santas",
		},
		{
			name:      "santa not a mapping",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465}, "santas": ["Alice"]}`,
			wantField: "santas[0]",
		},
		{
			name:      "santa without email",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465}, "santas": [{"name": "A", "email": "a@x"}, {"name": "B"}]}`,
			wantField: "santas[1].email",
		},
		{
			name:      "santa with blank name",
			doc:       `{"sender": {"address": "h", "email": "s@x", "port": 465}, "santas": [{"name": "  ", "email": "a@x"}]}`,
			wantField: "santas[0].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse("inline", []byte(tt.doc))
			require.NoError(t, err)

			_, err = Extract(doc)

			var malformed *models.MalformedConfigError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, tt.wantField, malformed.Field)
		})
	}
}

func TestExtractTooFewParticipants(t *testing.T) {
	for _, santas := range []string{`[]`, `[{"name": "A", "email": "a@x"}]`} {
		doc, err := Parse("inline", []byte(`{"sender": {"address": "h", "email": "s@x", "port": 465}, "santas": `+santas+`}`))
		require.NoError(t, err)

		_, err = Extract(doc)

		var tooFew *models.TooFewParticipantsError
		require.True(t, errors.As(err, &tooFew), "got %v", err)
		assert.Contains(t, err.Error(), "got")
	}
}

func TestExtractDuplicateEmail(t *testing.T) {
	doc, err := Parse("inline", []byte(`
sender: {address: h, email: s@x, port: 465}
santas:
  - {name: Alice, email: alice@x}
  - {name: Bob, email: bob@x}
  - {name: Alice Two, email: ALICE@x}
`))
	require.NoError(t, err)

	_, err = Extract(doc)

	var dup *models.DuplicateEmailError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "ALICE@x", dup.Email)
}

func TestExtractDuplicateNameWarns(t *testing.T) {
	doc, err := Parse("inline", []byte(`
sender: {address: h, email: s@x, port: 465}
santas:
  - {name: Alex, email: alex1@x}
  - {name: Alex, email: alex2@x}
  - {name: Alex, email: alex3@x}
  - {name: Sam, email: sam@x}
`))
	require.NoError(t, err)

	roster, err := Extract(doc)
	require.NoError(t, err)

	assert.Len(t, roster.Participants, 4)
	require.Len(t, roster.Warnings, 1)
	assert.Equal(t, "Alex", roster.Warnings[0].Name)
	assert.Contains(t, roster.Warnings[0].String(), `"Alex"`)
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, string(assigner.StrategyRejection), s.Strategy)
	assert.Equal(t, assigner.DefaultMaxAttempts, s.MaxAttempts)
	assert.Equal(t, delivery.DefaultTimeout, s.SMTPTimeout)
	assert.Equal(t, composer.DefaultFromName, s.FromName)
}

func TestLoadSettingsEmptyValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SANTA_STRATEGY", "")
	t.Setenv("SANTA_MAX_ATTEMPTS", "0")
	t.Setenv("SANTA_SMTP_TIMEOUT", "0s")
	t.Setenv("SANTA_FROM_NAME", "")

	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, string(assigner.StrategyRejection), s.Strategy)
	assert.Equal(t, assigner.DefaultMaxAttempts, s.MaxAttempts)
	assert.Equal(t, delivery.DefaultTimeout, s.SMTPTimeout)
	assert.Equal(t, composer.DefaultFromName, s.FromName)
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SANTA_STRATEGY", "cycle")
	t.Setenv("SANTA_MAX_ATTEMPTS", "-3")
	t.Setenv("SANTA_SMTP_TIMEOUT", "5s")
	t.Setenv("SANTA_METRICS_FILE", "/tmp/santa.prom")

	s, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "cycle", s.Strategy)
	assert.Equal(t, assigner.DefaultMaxAttempts, s.MaxAttempts)
	assert.Equal(t, 5*time.Second, s.SMTPTimeout)
	assert.Equal(t, "/tmp/santa.prom", s.MetricsFile)
}

func TestLoadSettingsRejectsBadDuration(t *testing.T) {
	t.Setenv("SANTA_SMTP_TIMEOUT", "soon")

	_, err := LoadSettings()
	require.Error(t, err)
}
