package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Mode)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(32768), cfg.ReadLimit)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, 5*time.Second, cfg.WriteWait)
	assert.Equal(t, 168*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEURLs)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_GeneratesEphemeralSecret(t *testing.T) {
	t.Setenv("CONFIG_ENV", "nonexistent")

	cfg, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Secret, "an unset secret must never stay empty")

	other, err := Load()
	require.NoError(t, err)
	assert.NotEqual(t, cfg.Secret, other.Secret, "ephemeral secrets are per process load")
}
