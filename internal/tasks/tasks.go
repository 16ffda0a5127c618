package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/services"
	"github.com/desertthunder/mapx/internal/shared"
	"golang.org/x/time/rate"
)

const defaultProgressInterval = 100 * time.Millisecond

var (
	_ Submitter = (*SubmissionEngine)(nil)
	_ Uploader  = (*services.MappingService)(nil)
)

// Submitter defines the submission operation.
type Submitter interface {
	// Submit validates set, assembles the multipart request, transmits it and awaits the response.
	Submit(ctx context.Context, set models.FileSet, progress chan<- ProgressUpdate) (*models.Reconstruction, error)
}

// Uploader sends an assembled request to the mapping service.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type Uploader interface {
	Upload(ctx context.Context, req *services.SubmissionRequest, onSent services.SentFunc) (*models.Reconstruction, error)
}

// EngineOpts configures a [SubmissionEngine].
type EngineOpts struct {
	ProgressInterval time.Duration // minimum gap between transmit updates
	Logger           *log.Logger
}

// SubmissionEngine implements [Submitter] on top of an [Uploader].
type SubmissionEngine struct {
	uploader Uploader
	interval time.Duration
	logger   *log.Logger
}

// NewSubmissionEngine creates a new SubmissionEngine with the provided uploader.
func NewSubmissionEngine(uploader Uploader, opts EngineOpts) *SubmissionEngine {
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = defaultProgressInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &SubmissionEngine{uploader: uploader, interval: opts.ProgressInterval, logger: opts.Logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *SubmissionEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Submit runs the pipeline: validate, assemble, transmit, await. Each phase starts only after the previous one finished.
//
// Every failure is returned as a [shared.SubmissionError], including a panic inside the pipeline.
// No progress is sent once Submit has returned, so the caller may close progress afterwards.
func (e *SubmissionEngine) Submit(ctx context.Context, set models.FileSet, progress chan<- ProgressUpdate) (result *models.Reconstruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("submission panicked", "panic", r)
			result, err = nil, shared.NewProcessingError(fmt.Errorf("%v", r))
		}
	}()

	if e.uploader == nil {
		return nil, shared.NewProcessingError(fmt.Errorf("%w: uploader not initialized", shared.ErrServiceUnavailable))
	}

	e.sendProgress(progress, validateUpdate(set))
	if set.Empty() {
		return nil, shared.NewValidationError()
	}

	e.sendProgress(progress, assembleUpdate(set))
	req, err := services.NewSubmissionRequest(set.Files)
	if err != nil {
		return nil, shared.NewProcessingError(err)
	}

	size := req.Size()
	e.sendProgress(progress, transmitUpdate(0, size))

	var (
		mu       sync.Mutex
		finished bool
	)
	emit := func(u ProgressUpdate) {
		mu.Lock()
		defer mu.Unlock()
		if !finished {
			e.sendProgress(progress, u)
		}
	}
	stop := func() {
		mu.Lock()
		finished = true
		mu.Unlock()
	}
	defer stop()

	throttle := rate.Sometimes{Interval: e.interval}
	onSent := func(sent, total int64) {
		if sent >= total {
			emit(transmitUpdate(sent, total))
			emit(awaitUpdate(total))
			return
		}
		throttle.Do(func() { emit(transmitUpdate(sent, total)) })
	}

	e.logger.Debug("transmitting submission", "selection", set.ID, "files", set.Len(), "bytes", size)
	result, err = e.uploader.Upload(ctx, req, onSent)
	stop()

	if err != nil {
		return nil, shared.AsSubmissionError(err)
	}
	if result == nil {
		return nil, shared.NewProcessingError(fmt.Errorf("empty response"))
	}

	e.sendProgress(progress, completeUpdate(size, result))
	return result, nil
}
