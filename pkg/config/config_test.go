package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2*time.Minute, cfg.Routine.CacheTTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Routine.MaxImportBytes)
	assert.Equal(t, 24*time.Hour, cfg.Exports.SignedURLTTL)
	assert.False(t, cfg.Notifications.Enabled)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ROUTINE_CACHE_TTL", "45s")
	t.Setenv("ROUTINE_TIMEZONE", "UTC")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ENABLE_NOTIFICATIONS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Routine.CacheTTL)
	assert.Equal(t, time.UTC, cfg.Routine.Location())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Notifications.Enabled)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}

func TestRoutineLocationFallback(t *testing.T) {
	assert.Equal(t, time.UTC, RoutineConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, time.UTC, RoutineConfig{}.Location())
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
