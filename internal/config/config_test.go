package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 15*time.Minute, cfg.MagicLinkTTL)
	assert.Equal(t, "0 20 * * *", cfg.ReminderSchedule)
	assert.Equal(t, "@hourly", cfg.PurgeSchedule)
	assert.True(t, cfg.RemindersEnabled)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REMINDERS_ENABLED", "false")
	t.Setenv("TIMEZONE", "Local")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.False(t, cfg.RemindersEnabled)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"DB_CONN", "", "DB_CONN is required"},
		{"JWT_SECRET", "", "JWT_SECRET is required"},
		{"HMAC_SECRET", "", "HMAC_SECRET is required"},
		{"JWT_TTL", "soon", "invalid JWT_TTL"},
		{"JWT_TTL", "-1h", "JWT_TTL must be positive"},
		{"MAGIC_LINK_TTL", "0s", "MAGIC_LINK_TTL must be positive"},
		{"AUTO_MIGRATE", "maybe", "invalid AUTO_MIGRATE"},
		{"TIMEZONE", "Mars/Olympus", "invalid TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
