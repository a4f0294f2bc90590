package config

import (
	"context"
	"fmt"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookci/internal/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.ListenAddr)
	assert.False(t, cfg.Server.Tracing)
	assert.Equal(t, "pipelines", cfg.Pipelines.Dir)
	assert.Empty(t, cfg.Pipelines.LogDir)
	assert.True(t, cfg.Pipelines.Execute)
	assert.Equal(t, TokenSourceManifest, cfg.Webhook.TokenSource)
	assert.Empty(t, cfg.Webhook.Token)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"HOOKCI_SERVER_LISTEN_ADDR":   "127.0.0.1:9000",
		"HOOKCI_SERVER_TRACING":       "true",
		"HOOKCI_PIPELINES_DIR":        "/srv/pipelines",
		"HOOKCI_PIPELINES_LOG_DIR":    "/var/log/hookci",
		"HOOKCI_PIPELINES_EXECUTE":    "false",
		"HOOKCI_WEBHOOK_TOKEN_SOURCE": "env",
		"HOOKCI_WEBHOOK_TOKEN":        "s3cret",
		"HOOKCI_LOG_LEVEL":            "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.ListenAddr)
	assert.True(t, cfg.Server.Tracing)
	assert.Equal(t, "/srv/pipelines", cfg.Pipelines.Dir)
	assert.Equal(t, "/var/log/hookci", cfg.Pipelines.LogDir)
	assert.False(t, cfg.Pipelines.Execute)
	assert.Equal(t, TokenSourceEnv, cfg.Webhook.TokenSource)
	assert.Equal(t, core.Secret("s3cret"), cfg.Webhook.Token)
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.NotContains(t, fmt.Sprintf("%+v", cfg), "s3cret")
}

func TestLoadRejectsUnknownTokenSource(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"HOOKCI_WEBHOOK_TOKEN_SOURCE": "vault",
	}))
	assert.ErrorContains(t, err, "vault")
}
