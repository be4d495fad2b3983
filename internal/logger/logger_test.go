// internal/logger/logger_test.go
package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesRotatedFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "porg.log")
	cfg := DefaultConfig()
	cfg.LogFile = logFile

	log, err := New(cfg)
	require.NoError(t, err)

	log.Info("fee updated")
	_ = log.Sync()

	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fee updated"`)
	assert.Contains(t, string(raw), `"timestamp"`)
}

func TestNew_NilConfigDefaults(t *testing.T) {
	log, err := New(nil)
	require.NoError(t, err)
	require.NotNil(t, log)
	assert.Equal(t, DefaultConfig().LogFile, log.config.LogFile)
}

func TestWithHelpers(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "porg.log")
	cfg := DefaultConfig()
	cfg.LogFile = logFile

	log, err := New(cfg)
	require.NoError(t, err)

	log.WithOperation("batch_liquidate").Info("started")
	log.WithTransaction("5igSig").Info("confirmed")
	log.WithComponent("bridge").Info("submitted")
	_ = log.Sync()

	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, `"operation":"batch_liquidate"`)
	assert.Contains(t, content, `"correlation_id"`)
	assert.Contains(t, content, `"tx_signature":"5igSig"`)
	assert.Contains(t, content, `"component":"bridge"`)
}
