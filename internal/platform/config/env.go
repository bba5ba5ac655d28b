// Package config loads service configuration from environment variables.
//
// All frontoffice configuration is environment-driven; variables use the
// FRONTOFFICE_ prefix declared on each config struct's env tags.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
