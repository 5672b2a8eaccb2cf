// Package logging builds the process-wide zap logger and scrubs sensitive
// material (credentials, connection strings, full SQL text) before it is logged.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger appropriate for the environment.
// "local" uses the human-readable development config at debug level;
// everything else uses the JSON production config.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
