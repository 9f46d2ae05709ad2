package main

import (
	"fmt"

	"github.com/emberidx/emberidx/pkg/config"
	"github.com/emberidx/emberidx/pkg/logger"
)

// loadConfig reads the config file at path (applying the same
// EMBERIDX_*-prefixed env overrides as every other entry point) and installs
// the resulting logging setup as the process-wide slog default.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
