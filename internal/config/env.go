package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DefaultAddr is the listen address of the history API.
const DefaultAddr = "127.0.0.1:8080"

// Env holds path and address overrides read from the environment.
type Env struct {
	ConfigPath string `env:"CHORDQUIZ_CONFIG"`
	DBPath     string `env:"CHORDQUIZ_DB"`
	Addr       string `env:"CHORDQUIZ_ADDR" envDefault:"127.0.0.1:8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadEnv reads Env and fills unset paths with the XDG defaults.
func LoadEnv() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	if e.ConfigPath == "" {
		e.ConfigPath = DefaultConfigPath()
	}
	if e.DBPath == "" {
		e.DBPath = DefaultDBPath()
	}
	if e.Addr == "" {
		e.Addr = DefaultAddr
	}
	return e, nil
}
