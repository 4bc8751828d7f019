package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.Tracking.URI)
	assert.Equal(t, 30*time.Second, cfg.Tracking.Timeout)
	assert.Equal(t, 5001, cfg.Serve.Port)
	assert.Equal(t, ServeTargetLocal, cfg.Serve.Target)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Kubernetes.Enabled)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TRACKING_URI", "http://tracking:5000")
	t.Setenv("TRACKING_TIMEOUT", "5s")
	t.Setenv("SERVE_PORT", "5002")
	t.Setenv("DATABASE_URL", "postgres://localhost/registry")
	t.Setenv("KUBERNETES_READY_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://tracking:5000", cfg.Tracking.URI)
	assert.Equal(t, 5*time.Second, cfg.Tracking.Timeout)
	assert.Equal(t, 5002, cfg.Serve.Port)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.Kubernetes.ReadyTimeout)
}
