package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{"BOT_TOKEN": "123:abc"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "schedulebot", cfg.DBName)
	assert.Equal(t, "logs/bot.log", cfg.LogFile)
	assert.Equal(t, 20, cfg.RateLimitMessages)
	assert.Equal(t, 60, cfg.RateLimitWindowSeconds)
	assert.Equal(t, 5, cfg.BanDurationMinutes)
	assert.Equal(t, 5, cfg.QueueMaxWorkers)
	assert.Equal(t, 30, cfg.QueueRateLimit)
	assert.Equal(t, 3600, cfg.InlineKeyboardTTLSeconds)
	assert.Equal(t, ":8000", cfg.MetricsAddr)
	assert.True(t, cfg.MigrationsAuto)
	assert.Empty(t, cfg.AdminUserIDs)
}

func TestFromEnv_RequiresToken(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{}))
	require.Error(t, err)
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"BOT_TOKEN":           "t",
		"DB_HOST":             "db",
		"DB_PORT":             "6543",
		"DB_USER":             "bot",
		"DB_PASSWORD":         "p@ss word",
		"DB_NAME":             "poly",
		"ADMIN_USER_IDS":      " 1, 2 ,,3",
		"RATE_LIMIT_MESSAGES": "not-a-number",
		"METRICS_ADDR":        "off",
		"MIGRATIONS_AUTO":     "false",
		"API_BASE_URL":        "http://localhost:9000/",
	}))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, cfg.AdminUserIDs)
	assert.Equal(t, 20, cfg.RateLimitMessages)
	assert.Equal(t, "", cfg.MetricsAddr)
	assert.False(t, cfg.MigrationsAuto)
	assert.Equal(t, "http://localhost:9000", cfg.APIBaseURL)
	assert.Equal(t, "postgres://bot:p%40ss%20word@db:6543/poly?sslmode=disable", cfg.DSN())
	assert.True(t, cfg.IsGlobalAdmin(2))
	assert.False(t, cfg.IsGlobalAdmin(4))
}

func TestParseAdminIDs_Invalid(t *testing.T) {
	_, err := ParseAdminIDs("1,abc")
	require.Error(t, err)
}
