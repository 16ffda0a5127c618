package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mapx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Download saves the model behind a download URL, absolute or service-relative.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	target := cmd.Args().First()
	if target == "" {
		return fmt.Errorf("%w: download URL is required", shared.ErrMissingArgument)
	}

	path, err := r.service.Download(ctx, target, r.downloadDir(cmd))
	if err != nil {
		return err
	}

	return r.writePlain("✓ Saved to %s\n", path)
}

func (r *Runner) downloadDir(cmd *cli.Command) string {
	if dir := cmd.String("output"); dir != "" {
		return dir
	}
	return r.config.Output.DownloadDir
}
