package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/vehirent?sslmode=disable")
	t.Setenv("JWT_SECRET", "jwt-secret")
	t.Setenv("PAYMENT_KEY_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "inr", cfg.Payment.Currency)
	assert.Equal(t, 10*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Email.Timeout)
	assert.Equal(t, "0 9 * * *", cfg.Scheduler.ReminderSpec)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IsEmailConfigured())
	assert.False(t, cfg.IsSMSConfigured())
	assert.False(t, cfg.IsS3Configured())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PAYMENT_CURRENCY", "EUR")
	t.Setenv("PAYMENT_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	t.Setenv("SENDGRID_FROM_EMAIL", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "eur", cfg.Payment.Currency)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.IsEmailConfigured())
}

func TestLoadRequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		missing string
	}{
		{"database", "DATABASE_URL"},
		{"jwt", "JWT_SECRET"},
		{"payment", "PAYMENT_KEY_SECRET"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.missing, "")
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}
