package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("JWT_ISSUER", "tradesense")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("INTERNAL_API_TOKEN", "internal")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, key := range []string{"DB_DSN", "WS_ORIGIN", "APP_MODE", "LOCK_TIMEOUT", "QUOTE_MAX_AGE", "QUOTE_SOURCE", "DAILY_RESET_CRON", "SWEEP_CRON", "PLANS_FILE", "RECORDER_SQLITE_PATH"} {
		t.Setenv(key, "")
	}

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 24*time.Hour, c.JWTTTL)
	assert.Equal(t, "*", c.WebSocketOrigin)
	assert.Equal(t, "development", c.AppMode)
	assert.Equal(t, 5*time.Second, c.LockTimeout)
	assert.Equal(t, 30*time.Second, c.QuoteMaxAge)
	assert.Equal(t, "yahoo", c.QuoteSource)
	assert.Equal(t, "0 0 0 * * *", c.DailyResetCron)
	assert.Equal(t, "0 */5 * * * *", c.SweepCron)
	assert.Empty(t, c.DBDSN)
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "JWT_ISSUER", "JWT_SECRET", "JWT_TTL", "INTERNAL_API_TOKEN"} {
		t.Setenv(key, "")
	}
	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, "missing required env: HTTP_ADDR,JWT_ISSUER,JWT_SECRET,JWT_TTL,INTERNAL_API_TOKEN", err.Error())
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad mode", "APP_MODE", "staging"},
		{"bad lock timeout", "LOCK_TIMEOUT", "soon"},
		{"negative quote age", "QUOTE_MAX_AGE", "-1s"},
		{"bad quote source", "QUOTE_SOURCE", "bloomberg"},
		{"bad jwt ttl", "JWT_TTL", "forever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsStaticQuotesInProduction(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_MODE", "production")
	t.Setenv("QUOTE_SOURCE", "static")
	_, err := Load()
	assert.Error(t, err)
}
