package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath        string     `env:"DB_PATH" envDefault:"data/invitequest.db"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	AdminEmail    string     `env:"ADMIN_EMAIL" envDefault:"admin@invitequest.local"`
	AdminPassword string     `env:"ADMIN_PASSWORD" envDefault:""`
	InviteDedup   bool       `env:"INVITE_DEDUP" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
