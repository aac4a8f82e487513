package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// FromEnv overlays SEGURO_* environment variables onto cfg. Unset variables
// leave the current values in place.
func FromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}
