package logging

import (
	"bytes"
	"log/slog"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			require.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-address"))
	assert.Equal(t, "***@***", RedactEmail("a@b@c"))
}

func TestRedactEmailKeepsMultiByteRunesWhole(t *testing.T) {
	got := RedactEmail("ñandú@example.com")

	assert.Equal(t, "ña***@example.com", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "***@example.com", RedactEmail("ñú@example.com"))
}

func TestSetupWithLevelInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWithLevel(&buf, slog.LevelWarn)

	slog.Info("quiet")
	slog.Warn("Rejection ceiling hit", "attempts", 1000)

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "attempts=1000")
}

func TestNewWritesPlainTextToBuffers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("Assignment drawn", "participants", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "Assignment drawn")
	assert.Contains(t, out, "participants=3")
	assert.NotContains(t, out, "\x1b[")
}
