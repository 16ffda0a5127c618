package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mapx/internal/server"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Stub serves the mapping service API locally until interrupted.
func (r *Runner) Stub(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Stub
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}
	if dir := cmd.String("output-dir"); dir != "" {
		cfg.OutputDir = dir
	}

	stub, err := server.NewStub(server.StubOpts{
		OutputDir:     cfg.OutputDir,
		ViewsPerImage: cfg.ViewsPerImage,
		Logger:        shared.WithLogger(r.logger, "component", "stub"),
	})
	if err != nil {
		return err
	}

	r.writePlain("Mapping stub listening on http://%s (ctrl+c to stop)\n", cfg.Addr())
	if err := stub.Run(ctx, cfg.Addr()); err != nil {
		return fmt.Errorf("stub stopped: %w", err)
	}
	return nil
}
