package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds defaults read from the environment. Command-line flags
// override every value.
type Config struct {
	Database string `env:"POSTSYS_DB"`
	MaxSteps int    `env:"POSTSYS_MAX_STEPS" envDefault:"0"`
	Format   string `env:"POSTSYS_FORMAT"    envDefault:"text"`
	Verbose  bool   `env:"POSTSYS_VERBOSE"   envDefault:"false"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.MaxSteps < 0 {
		return Config{}, fmt.Errorf("POSTSYS_MAX_STEPS must be non-negative, got %d", cfg.MaxSteps)
	}
	return cfg, nil
}
