package corelog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Warn)

	l.Infof("connection %d created", 1)
	assert.Empty(t, buf.String())

	l.Warnf("boundary muted lane %d", 0)
	assert.Contains(t, buf.String(), "[WARN]")
	assert.Contains(t, buf.String(), "boundary muted lane 0")
}

func TestLoggerNilIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Errorf("whatever %s", "happens") })
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error"} {
		_, ok := ParseLevel(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseLevel("bogus")
	assert.False(t, ok)
}

func TestLevelString(t *testing.T) {
	assert.True(t, strings.EqualFold("debug", Debug.String()))
}
