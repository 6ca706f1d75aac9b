package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TCK_LISTEN_ADDR",
		"TCK_CALLBACK_ADDRESS",
		"TCK_COUNTERPART_URL",
		"TCK_PARTICIPANT_ID",
		"TCK_LOCAL_CONNECTOR",
		"TCK_WAIT_TIMEOUT",
		"TCK_POOL_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost:8083", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:8083", cfg.CallbackAddress)
	assert.Equal(t, "http://localhost:8080", cfg.CounterpartURL)
	assert.Equal(t, "urn:tck:participant", cfg.ParticipantID)
	assert.True(t, cfg.LocalConnector)
	assert.Equal(t, 5*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 4, cfg.PoolSize)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TCK_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("TCK_CALLBACK_ADDRESS", "http://tck.example.com:9090")
	t.Setenv("TCK_COUNTERPART_URL", "http://sut.example.com:8080")
	t.Setenv("TCK_PARTICIPANT_ID", "urn:tck:other")
	t.Setenv("TCK_LOCAL_CONNECTOR", "false")
	t.Setenv("TCK_WAIT_TIMEOUT", "30s")
	t.Setenv("TCK_POOL_SIZE", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "http://tck.example.com:9090", cfg.CallbackAddress)
	assert.Equal(t, "http://sut.example.com:8080", cfg.CounterpartURL)
	assert.Equal(t, "urn:tck:other", cfg.ParticipantID)
	assert.False(t, cfg.LocalConnector)
	assert.Equal(t, 30*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 8, cfg.PoolSize)
}

func TestLoadCallbackDerivedFromListenAddr(t *testing.T) {
	clearEnv(t)
	t.Setenv("TCK_LISTEN_ADDR", "127.0.0.1:7070")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7070", cfg.CallbackAddress)
}

func TestLoadFallsBackOnUnparsableValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("TCK_LOCAL_CONNECTOR", "not-a-bool")
	t.Setenv("TCK_WAIT_TIMEOUT", "soon")
	t.Setenv("TCK_POOL_SIZE", "-3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.LocalConnector)
	assert.Equal(t, 5*time.Second, cfg.WaitTimeout)
	assert.Equal(t, 4, cfg.PoolSize)
}
