// package server contains the routes & handlers for the local mapping service stub
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultBodyLimit     = "50M"
	defaultViewsPerImage = 12
	shutdownTimeout      = 5 * time.Second
)

// StubOpts configures a [Stub].
type StubOpts struct {
	OutputDir     string        // where generated models are written
	ViewsPerImage int           // views reported per decodable image
	BodyLimit     string        // echo size string, e.g. "50M"
	Logger        *log.Logger
	NewID         func() string // output name source, defaults to [shared.GenerateID]
}

// Stub serves the mapping service API from the local machine.
type Stub struct {
	echo          *echo.Echo
	outputDir     string
	viewsPerImage int
	logger        *log.Logger
	newID         func() string
}

// NewStub creates the stub and its output directory and registers all routes.
func NewStub(opts StubOpts) (*Stub, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = shared.DefaultConfig().Stub.OutputDir
	}
	if opts.ViewsPerImage <= 0 {
		opts.ViewsPerImage = defaultViewsPerImage
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = defaultBodyLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.NewID == nil {
		opts.NewID = shared.GenerateID
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	s := &Stub{
		echo:          echo.New(),
		outputDir:     opts.OutputDir,
		viewsPerImage: opts.ViewsPerImage,
		logger:        opts.Logger,
		newID:         opts.NewID,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = ErrorHandler(s.logger)

	s.echo.Use(RequestLogger(s.logger))
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.BodyLimit(opts.BodyLimit))

	s.routes()
	return s, nil
}

func (s *Stub) routes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.HandleHealth)
	api.POST("/upload", s.HandleUpload)
	api.GET("/download/:filename", s.HandleDownload)
}

// ServeHTTP implements [http.Handler] for the whole API.
func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Stub) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("stub service listening", "addr", addr, "output", s.outputDir)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stub service failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("stub service shutting down")
		return s.echo.Shutdown(shutdownCtx)
	}
}
