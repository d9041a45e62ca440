package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, ClassifierRemote, cfg.ClassifierMode)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 1000, cfg.MaxTextLength)
	assert.Equal(t, 30, cfg.AnalyticsDefaultDays)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("CLASSIFIER_TIMEOUT", "1500ms")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 1500*time.Millisecond, cfg.ClassifierTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_DRIVER")
}

func TestLoadRejectsNonPositiveTextLimit(t *testing.T) {
	t.Setenv("MAX_TEXT_LENGTH", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositivePersistTimeout(t *testing.T) {
	t.Setenv("PERSIST_TIMEOUT", "0s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSIST_TIMEOUT")
}
