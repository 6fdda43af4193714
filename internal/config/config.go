// Package config loads CLI and dev gateway settings from LOGGATE_*
// environment variables using koanf. Double underscores map to nesting:
// LOGGATE_CLIENT__APP_ID becomes client.app_id.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	loggate "github.com/loggate/loggate-go"
)

const envPrefix = "LOGGATE_"

// Config is the full CLI configuration.
type Config struct {
	Client  loggate.Config `koanf:"client"`
	Gateway GatewayConfig  `koanf:"gateway"`
}

// GatewayConfig configures the bundled dev gateway (the serve subcommand).
type GatewayConfig struct {
	Port        string         `koanf:"port" validate:"required"`
	Token       string         `koanf:"token"`
	DatabaseURL string         `koanf:"database_url"`
	Archive     *ArchiveConfig `koanf:"archive"`
}

// ArchiveConfig configures the S3-compatible batch archive. Endpoint and
// Bucket empty means the archive is disabled.
type ArchiveConfig struct {
	Endpoint      string `koanf:"endpoint"`
	Region        string `koanf:"region"`
	Bucket        string `koanf:"bucket"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	MaxBatchSize  int    `koanf:"max_batch_size"`
	FlushInterval string `koanf:"flush_interval"`
}

// Load reads LOGGATE_* environment variables into a Config. Client settings
// are not validated here; loggate.New does that when a client is built.
func Load() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Gateway.Port == "" {
		cfg.Gateway.Port = "8080"
	}
	if err := validator.New().Struct(cfg.Gateway); err != nil {
		return nil, fmt.Errorf("validate gateway config: %w", err)
	}
	return cfg, nil
}
