package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env            string   `env:"APP_ENV" envDefault:"dev"`
	ServerAddr     string   `env:"SERVER_ADDR" envDefault:":8080"`
	StaticDir      string   `env:"STATIC_DIR"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://127.0.0.1:3000" envSeparator:","`

	PingInterval     time.Duration `env:"PING_INTERVAL" envDefault:"54s"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT" envDefault:"60s"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ClientSendBuffer int           `env:"CLIENT_SEND_BUFFER" envDefault:"256"`
	MaxFrameBytes    int64         `env:"MAX_FRAME_BYTES" envDefault:"8192"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PingInterval >= c.ReadTimeout {
		return errors.New("config: PING_INTERVAL must be shorter than READ_TIMEOUT")
	}
	if c.ClientSendBuffer <= 0 {
		return errors.New("config: CLIENT_SEND_BUFFER must be positive")
	}
	if c.MaxFrameBytes <= 0 {
		return errors.New("config: MAX_FRAME_BYTES must be positive")
	}
	return nil
}
