package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/vault/pkg/vault/config"
	"github.com/jamesainslie/vault/pkg/vault/logging"
	"github.com/jamesainslie/vault/pkg/vault/types"
)

// defaultLogMaxSize is used when logging.rotation.max_size is empty or
// unparseable.
const defaultLogMaxSize = 10 * 1024 * 1024

// initializeLogging creates the vault directories and starts file logging.
// It runs before every command.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	if err := config.EnsureStateDir(); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if cfg, err := config.LoadFile(cfgFile); err == nil {
		logCfg.Level = cfg.Logging.Level
		logCfg.Components = cfg.Logging.Components
		logCfg.Rotation = parseRotationConfig(cfg.Logging.Rotation)
		if cfg.Logging.Path != "" {
			logCfg.Path = cfg.Logging.Path
		}
	}

	if getVerbose() {
		logCfg.ConsoleLevel = "debug"
	}

	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// closeLogging flushes and closes the log file.
func closeLogging() {
	_ = logging.Close()
}

// parseRotationConfig converts the configured rotation settings.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	maxSize := int64(defaultLogMaxSize)
	if rc.MaxSize != "" {
		if n, err := types.ParseSize(rc.MaxSize); err == nil && n > 0 {
			maxSize = n
		}
	}

	return logging.RotationConfig{
		MaxSize:    maxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
}
