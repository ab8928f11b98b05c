// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/bmv-platform/identity/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// runWithArgs parses args through the flag set and returns the built config.
func runWithArgs(t *testing.T, args ...string) *config.Config {
	t.Helper()
	var cfg *config.Config
	cmd := &cli.Command{
		Name:  "test",
		Flags: config.Flags(),
		Action: func(_ context.Context, c *cli.Command) error {
			cfg = config.NewFromCLI(c)
			return nil
		},
	}
	err := cmd.Run(context.Background(), append([]string{"test"}, args...))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

func TestNewFromCLI_Defaults(t *testing.T) {
	cfg := runWithArgs(t)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "./data/identity.db", cfg.Database.DSN)
	assert.Equal(t, 24*time.Hour, cfg.Token.SessionTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.True(t, cfg.SMTP.TLS)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
	assert.InDelta(t, 20.0, cfg.RateLimit.RPS, 0.01)
}

func TestNewFromCLI_Overrides(t *testing.T) {
	cfg := runWithArgs(t,
		"--host", "0.0.0.0",
		"--port", "9090",
		"--base-url", "https://id.example.com",
		"--token-secret", "s3cret",
		"--session-ttl", "2",
		"--cors-origins", "https://a.example.com, https://b.example.com",
	)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://id.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "s3cret", cfg.Token.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Token.SessionTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}

func TestNewFromCLI_BaseURLHidesDefaultPort(t *testing.T) {
	cfg := runWithArgs(t, "--port", "80")

	assert.Equal(t, "http://localhost", cfg.Server.BaseURL)
}
