package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/mapx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded example, leaving an existing file untouched.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file already exists", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return err
	}
	r.config = config
	r.wire()

	r.writePlain("✓ Configuration ready: %s\n", configPath)
	r.writePlain("Service: %s\n", config.Service.BaseURL)
	r.writePlain("Downloads: %s\n", config.Output.DownloadDir)

	if !cmd.Bool("check") {
		r.writePlain("\nNext: run 'mapx health' to check the service, or 'mapx stub' to start a local one\n")
		return nil
	}

	health, err := r.service.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	r.writePlain("Health: %s (model ready: %t)\n", health.Status, health.ModelReady)
	return nil
}
