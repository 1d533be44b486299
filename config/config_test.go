package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "simulate", cfg.Checkout.Mode)
	assert.Equal(t, 2*time.Second, cfg.Checkout.SimulatedDelay)
	assert.Equal(t, map[string]int{"SAVE10": 10}, cfg.Checkout.Coupons)
	assert.Equal(t, "dg_session", cfg.Session.CookieName)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("STORE_API_BASE_URL", "https://api.example.com/v1/")
	t.Setenv("COUPONS", "welcome:15, diwali:25")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("AWS_S3_BUCKET", "media")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "https://api.example.com/v1", cfg.StoreAPI.BaseURL)
	assert.Equal(t, map[string]int{"WELCOME": 15, "DIWALI": 25}, cfg.Checkout.Coupons)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "etcd")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseCoupons(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]int
		wantErr bool
	}{
		{name: "single", input: "SAVE10:10", want: map[string]int{"SAVE10": 10}},
		{name: "empty", input: "", want: map[string]int{}},
		{name: "missing percent", input: "SAVE10", wantErr: true},
		{name: "over hundred", input: "FREE:150", wantErr: true},
		{name: "not a number", input: "X:ten", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCoupons(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevel(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Environment: "development"}}
	assert.Equal(t, "debug", cfg.LogLevel())

	cfg.Server.Environment = "production"
	assert.Equal(t, "info", cfg.LogLevel())

	cfg.Log.Level = "warn"
	assert.Equal(t, "warn", cfg.LogLevel())
}
