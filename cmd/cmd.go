// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/mapx/internal/formatter"
	"github.com/urfave/cli/v3"
)

// setupCommand writes a starter configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a configuration file from the built-in defaults",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "check",
				Usage: "Call the health endpoint after writing the config",
			},
		},
		Action: r.Setup,
	}
}

// healthCommand checks the mapping service
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the mapping service is up and its model is loaded",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Health,
	}
}

// submitCommand uploads images without the TUI
func submitCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Aliases:   []string{"upload"},
		Usage:     "Upload images and print the reconstruction summary",
		ArgsUsage: "<files, globs or directories...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Summary format (" + strings.Join(formatter.Formats, ", ") + ")",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:    "download",
				Aliases: []string{"d"},
				Usage:   "Download the model after a successful submission",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Download directory (default: output.download_dir)",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Also write the summary to this file",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Hide the upload progress bar",
			},
		},
		Action: r.Submit,
	}
}

// downloadCommand fetches a generated model
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "Download a generated model by its download URL",
		ArgsUsage: "<download_url>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Download directory (default: output.download_dir)",
			},
		},
		Action: r.Download,
	}
}

// stubCommand runs the local stand-in for the mapping service
func stubCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stub",
		Usage: "Run a local mapping service stub for development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: stub.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: stub.port)",
			},
			&cli.StringFlag{
				Name:  "output-dir",
				Usage: "Where generated models are written (default: stub.output_dir)",
			},
		},
		Action: r.Stub,
	}
}

// tuiCommand returns the top-level TUI command for the interactive upload flow.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "tui",
		Aliases:   []string{"interactive", "ui"},
		Usage:     "Launch the interactive upload flow",
		ArgsUsage: "[files, globs or directories...]",
		Action:    r.TUI,
	}
}
