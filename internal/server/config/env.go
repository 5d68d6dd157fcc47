package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays MANUP_* variables onto config. Variables that are not
// set leave the current value alone. A nil environ means the process
// environment.
func parseEnv(config *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
