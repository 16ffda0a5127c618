package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mapx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Health calls the service health endpoint. An unhealthy or unready service is an error.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	health, err := r.service.Health(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(health, true); err != nil {
			return err
		}
	} else {
		r.writePlain("Service: %s\n", health.Service)
		r.writePlain("Status: %s\n", health.Status)
		r.writePlain("Model ready: %t\n", health.ModelReady)
	}

	if health.Status != "healthy" || !health.ModelReady {
		return fmt.Errorf("%w: status %q, model ready %t", shared.ErrServiceUnavailable, health.Status, health.ModelReady)
	}
	return nil
}
