package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/preview"
	"github.com/desertthunder/mapx/internal/services"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/desertthunder/mapx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	injected   services.Service // kept across rewiring when set
	service    services.Service
	engine     tasks.Submitter
	renderer   *preview.Renderer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	progress   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.Service // defaults to a [services.MappingService] built from Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer // reports and command output
	Progress   io.Writer // progress bars, defaults to stderr
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Progress == nil {
		opts.Progress = os.Stderr
	}

	r := &Runner{
		config:     opts.Config,
		injected:   opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		progress:   opts.Progress,
	}
	r.wire()
	return r
}

// wire builds the service, engine and renderer from the current config and logger.
func (r *Runner) wire() {
	r.service = r.injected
	if r.service == nil {
		r.service = services.NewMappingService(services.MappingOpts{
			Service:    r.config.Service,
			Transport:  r.config.Transport,
			HTTPClient: r.httpClient,
			Logger:     shared.WithLogger(r.logger, "component", "client"),
		})
	}
	r.engine = tasks.NewSubmissionEngine(r.service, tasks.EngineOpts{Logger: shared.WithLogger(r.logger, "component", "engine")})
	r.renderer = preview.NewRenderer(preview.RendererOpts{
		Width:         r.config.Preview.Width,
		MaxConcurrent: r.config.Preview.MaxConcurrent,
		Logger:        r.logger,
	})
}

// SetLogger replaces the logger of the runner and everything it built.
func (r *Runner) SetLogger(logger *log.Logger) {
	logger.SetLevel(r.logger.GetLevel())
	r.logger = logger
	r.wire()
}

// Before loads the config named by --config, applies the log level and rewires the dependencies.
// A missing config file is not an error; the defaults are used.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", path)
	}

	level := shared.ParseLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)

	r.wire()
	return ctx, nil
}

func init() {
	// -v is --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "mapx",
		Usage:   "Upload images to a 3D mapping service and fetch the reconstructed model",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, healthCommand, submitCommand, downloadCommand, stubCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
