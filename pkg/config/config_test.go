package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	require.NoError(t, bindConfig(v, cfg))
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, "bookfair", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "bookfair_db", cfg.Database.DBName)
	assert.True(t, cfg.Stripe.UseMock)
	assert.Equal(t, 3, cfg.Reservation.VendorQuota)
	assert.Equal(t, 15*time.Minute, cfg.Reservation.HoldTTL)
	assert.Equal(t, "usd", cfg.Reservation.Currency)
	assert.Equal(t, 30*time.Second, cfg.Workers.ExpiryScanInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Workers.OutboxPollInterval)
	assert.Equal(t, 7*24*time.Hour, cfg.Workers.OutboxCleanupAfter)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing app name",
			mutate:  func(c *Config) { c.App.Name = "" },
			wantErr: "app name is required",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name: "default jwt secret rejected in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: "JWT secret must be changed in production",
		},
		{
			name: "stripe key required without mock",
			mutate: func(c *Config) {
				c.Stripe.UseMock = false
				c.Stripe.SecretKey = ""
			},
			wantErr: "STRIPE_SECRET_KEY is required",
		},
		{
			name: "stripe key satisfies live mode",
			mutate: func(c *Config) {
				c.Stripe.UseMock = false
				c.Stripe.SecretKey = "sk_test_123"
			},
		},
		{
			name:    "zero vendor quota",
			mutate:  func(c *Config) { c.Reservation.VendorQuota = 0 },
			wantErr: "invalid vendor quota",
		},
		{
			name:    "negative hold ttl",
			mutate:  func(c *Config) { c.Reservation.HoldTTL = -time.Minute },
			wantErr: "invalid hold TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := defaultConfig(t)
	dsn := cfg.Database.DSN()

	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=bookfair_db")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddr(t *testing.T) {
	cfg := defaultConfig(t)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestEnvironmentHelpers(t *testing.T) {
	cfg := defaultConfig(t)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.App.Environment = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
}
