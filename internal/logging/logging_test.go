package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewInstallsGlobal(t *testing.T) {
	var buf bytes.Buffer
	_, closeFn := New(Options{Output: &buf})
	defer closeFn()

	zap.S().Infow("Snapshot loaded", "responses", 12)
	zap.S().Debug("hidden at info level")
	_ = zap.L().Sync()

	out := buf.String()
	assert.Contains(t, out, `"message":"Snapshot loaded"`)
	assert.Contains(t, out, `"responses":12`)
	assert.Contains(t, out, `"log.level":"info"`)
	assert.NotContains(t, out, "hidden at info level")
}

func TestDevelopmentEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	_, closeFn := New(Options{Development: true, Output: &buf})
	defer closeFn()

	zap.S().Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestGelfEncoderKeys(t *testing.T) {
	cfg := gelfEncoderConfig()
	assert.Equal(t, "msg", cfg.MessageKey)
	assert.Equal(t, "ts", cfg.TimeKey)
}
