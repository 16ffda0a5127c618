package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/desertthunder/mapx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive upload flow, preselecting any files named by the arguments.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	var files []models.File
	if cmd.Args().Present() {
		resolved, err := shared.ResolveFiles(cmd.Args().Slice())
		if err != nil {
			return err
		}
		files = resolved
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, ui.ModelOpts{
		Renderer:    r.renderer,
		Submitter:   r.engine,
		Service:     r.service,
		DownloadDir: r.config.Output.DownloadDir,
		Files:       files,
		Logger:      r.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
