package config_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentcast/parentcast/pkg/parentcast/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(config.WithOptions(func(c *config.ServerConfig) {
		c.RequireAuth = false
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Equal(t, "audio", cfg.Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults with secret pass",
			mutate: func(c *config.ServerConfig) { c.JWTSecret = "secret" },
		},
		{
			name:    "auth without secret fails",
			mutate:  func(c *config.ServerConfig) { c.JWTSecret = "" },
			wantErr: "jwt secret",
		},
		{
			name: "postgres without url fails",
			mutate: func(c *config.ServerConfig) {
				c.JWTSecret = "secret"
				c.DatabaseType = "postgres"
			},
			wantErr: "database url",
		},
		{
			name: "unknown storage type fails",
			mutate: func(c *config.ServerConfig) {
				c.JWTSecret = "secret"
				c.StorageType = "ftp"
			},
			wantErr: "storage type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(config.WithOptions(tt.mutate))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAuthDisabledOnlyInDevelopment(t *testing.T) {
	cfg, err := config.Load(config.WithOptions(func(c *config.ServerConfig) {
		c.RequireAuth = false
		c.Environment = "development"
	}))
	require.NoError(t, err)
	assert.True(t, cfg.AuthDisabled())

	cfg, err = config.Load(config.WithOptions(func(c *config.ServerConfig) {
		c.RequireAuth = false
		c.Environment = "production"
	}))
	require.NoError(t, err)
	assert.False(t, cfg.AuthDisabled())
}

func TestBuildServiceWithMemoryBackends(t *testing.T) {
	cfg, err := config.Load(config.WithOptions(func(c *config.ServerConfig) {
		c.RequireAuth = false
	}))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := cfg.BuildService(logger)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
