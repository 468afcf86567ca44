package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, "hobi", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "mock", cfg.Gateway.Provider)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.OTel.Enabled)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DBNAME", "hobi_test")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := LoadWithPath("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "hobi_test", cfg.Database.DBName)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadWithPath("nonexistent.env")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
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
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.DBName = "" },
			wantErr: "DATABASE_DBNAME is required",
		},
		{
			name: "default jwt secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
			},
			wantErr: "JWT secret must be changed in production",
		},
		{
			name: "razorpay without credentials",
			mutate: func(c *Config) {
				c.Gateway.Provider = "razorpay"
			},
			wantErr: "razorpay credentials are required",
		},
		{
			name: "stripe without key",
			mutate: func(c *Config) {
				c.Gateway.Provider = "stripe"
			},
			wantErr: "stripe key is required",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Gateway.Provider = "paypal" },
			wantErr: "unknown gateway provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
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
