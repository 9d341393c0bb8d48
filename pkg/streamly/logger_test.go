package streamly

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlogLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))

	logger.Debug("hidden", "k", 1)
	logger.Info("login ok", "user", "u1")
	logger.Warn("retrying", "attempt", 2)
	logger.Error("failed", "kind", "server")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO msg=\"login ok\" user=u1")
	assert.Contains(t, out, "level=WARN msg=retrying attempt=2")
	assert.Contains(t, out, "level=ERROR msg=failed kind=server")
}

func TestSlogLogger_NilUsesDefault(t *testing.T) {
	assert.NotNil(t, NewSlogLogger(nil))
}
