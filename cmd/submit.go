package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/desertthunder/mapx/internal/formatter"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/desertthunder/mapx/internal/tasks"
	"github.com/desertthunder/mapx/internal/upload"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// Submit runs one submission of the files named by the arguments and prints the summary.
//
// It drives the same controller as the TUI, so validation and error messages are identical.
func (r *Runner) Submit(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := formatter.CheckFormat(format); err != nil {
		return err
	}

	files, err := shared.ResolveFiles(cmd.Args().Slice())
	if err != nil {
		return err
	}

	controller := upload.NewController(upload.ControllerOpts{Logger: r.logger})
	set := controller.Select(files)
	r.logger.Info("submitting", "files", set.Len(), "bytes", set.TotalSize())

	var bar *progressbar.ProgressBar
	if !cmd.Bool("quiet") {
		bar = newUploadBar(r.progress)
	}

	if err := controller.Run(ctx, r.submitWith(bar)); err != nil {
		if bar != nil {
			_ = bar.Exit()
		}
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	report := formatter.NewReport(controller.View().Result, set, r.service.ResolveURL)

	if cmd.Bool("download") {
		path, err := r.service.Download(ctx, report.Result.DownloadURL, r.downloadDir(cmd))
		if err != nil {
			return err
		}
		report.SavedTo = path
	}

	data, err := formatter.Format(report, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if path := cmd.String("report"); path != "" {
		written, err := formatter.WriteReport(report, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written)
	}

	return nil
}

// submitWith returns the network step for [upload.Controller.Run], drawing engine progress on bar when set.
func (r *Runner) submitWith(bar *progressbar.ProgressBar) upload.SubmitFunc {
	return func(ctx context.Context, set models.FileSet) (*models.Reconstruction, error) {
		progressCh := make(chan tasks.ProgressUpdate, 50)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for update := range progressCh {
				r.logger.Debug("progress", "phase", update.Phase, "message", update.Message)
				if bar != nil {
					showProgress(bar, update)
				}
			}
		}()

		result, err := r.engine.Submit(ctx, set, progressCh)
		close(progressCh)
		<-done
		return result, err
	}
}

func newUploadBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Preparing"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

func showProgress(bar *progressbar.ProgressBar, update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.Transmit:
		if update.Total > 0 && bar.GetMax64() != update.Total {
			bar.ChangeMax64(update.Total)
		}
		_ = bar.Set64(update.Sent)
		bar.Describe("Uploading")
	case tasks.Await:
		_ = bar.Set64(update.Total)
		bar.Describe("Generating 3D model")
	default:
		bar.Describe(update.Message)
	}
}
