// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Quiz QuizConfig `toml:"quiz"`
}

// QuizConfig maps quiz settings. Nil fields are unset and keep flag defaults.
type QuizConfig struct {
	Key            *string   `toml:"key"`
	Accidentals    *string   `toml:"accidentals"`
	Length         *int      `toml:"length"`
	Types          *[]string `toml:"types"`
	Disabled       *[]string `toml:"disabled"`
	Diatonic       *bool     `toml:"diatonic"`
	AllowOmissions *bool     `toml:"allow-omissions"`
	List           *string   `toml:"list"`
	Octave         *int      `toml:"octave"`
	FocusWeak      *bool     `toml:"focus-weak"`
	WeakTop        *int      `toml:"weak-top"`
	WeakFactor     *float64  `toml:"weak-factor"`
	WeakWindow     *int      `toml:"weak-window"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
