package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_URL", "")
	t.Setenv("STORE_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3, cfg.NeedsUpdateDays)
	assert.Equal(t, 7, cfg.OverdueDays)
	assert.Equal(t, 2, cfg.UrgentDays)
	assert.Equal(t, 500*time.Millisecond, cfg.WriteDebounce)
	assert.True(t, cfg.DemoMode())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_URL", "postgres://localhost:5432/servicer")
	t.Setenv("STORE_KEY", "secret")
	t.Setenv("OVERDUE_DAYS", "10")
	t.Setenv("WRITE_DEBOUNCE", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.DemoMode())
	assert.Equal(t, 10, cfg.OverdueDays)
	assert.Equal(t, time.Second, cfg.WriteDebounce)
}

func TestDemoModeNeedsBothSettings(t *testing.T) {
	assert.True(t, Config{StoreURL: "postgres://x"}.DemoMode())
	assert.True(t, Config{StoreKey: "k"}.DemoMode())
	assert.False(t, Config{StoreURL: "postgres://x", StoreKey: "k"}.DemoMode())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Config{}.Location())
	assert.Equal(t, time.UTC, Config{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, "Pacific/Auckland", Config{Timezone: "Pacific/Auckland"}.Location().String())
}
