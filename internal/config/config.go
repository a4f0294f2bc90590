package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"

	"hookci/internal/core"
)

const (
	TokenSourceManifest = "manifest"
	TokenSourceEnv      = "env"
)

type Server struct {
	ListenAddr string `env:"LISTEN_ADDR, default=0.0.0.0:8080"`
	Tracing    bool   `env:"TRACING, default=false"`
}

type Pipelines struct {
	Dir     string `env:"DIR, default=pipelines"`
	LogDir  string `env:"LOG_DIR"`
	Execute bool   `env:"EXECUTE, default=true"`
}

type Webhook struct {
	TokenSource string      `env:"TOKEN_SOURCE, default=manifest"`
	Token       core.Secret `env:"TOKEN"`
}

type Config struct {
	Server    Server    `env:",prefix=HOOKCI_SERVER_"`
	Pipelines Pipelines `env:",prefix=HOOKCI_PIPELINES_"`
	Webhook   Webhook   `env:",prefix=HOOKCI_WEBHOOK_"`
	LogLevel  string    `env:"HOOKCI_LOG_LEVEL, default=info"`
}

func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration through l instead of the process
// environment.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Webhook.TokenSource {
	case TokenSourceManifest, TokenSourceEnv:
	default:
		return nil, fmt.Errorf("unknown webhook token source %q", cfg.Webhook.TokenSource)
	}

	return &cfg, nil
}
