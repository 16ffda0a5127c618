// package upload owns the selection and submission state of the upload flow
package upload

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/shared"
)

// Placeholder is the selection label shown while nothing is selected.
const Placeholder = "Choose images..."

// SubmitFunc performs the network part of one submission for a snapshot of the selection.
type SubmitFunc func(ctx context.Context, set models.FileSet) (*models.Reconstruction, error)

// View is a read-only snapshot of the controller, enough to render every region.
type View struct {
	State          models.UIState
	Label          string
	Selection      models.FileSet
	Previews       []models.PreviewEntry // completion order
	Loading        bool
	SubmitDisabled bool
	Result         *models.Reconstruction
	Err            *shared.SubmissionError
}

// Region returns the one visible region for the snapshot.
func (v View) Region() models.Region {
	return v.State.Region()
}

// ControllerOpts configures a [Controller].
type ControllerOpts struct {
	NewID  func() string // selection ID source, defaults to [shared.GenerateID]
	Logger *log.Logger
}

// Controller is the single owner of the selection, its previews and the submission state.
//
// It is not safe for concurrent use. Callers mutate it from one goroutine (the TUI update loop or a CLI command)
// and hand results of background work back to that goroutine.
type Controller struct {
	newID  func() string
	logger *log.Logger

	state          models.UIState
	label          string
	selection      models.FileSet
	previews       []models.PreviewEntry
	loading        bool
	submitDisabled bool
	result         *models.Reconstruction
	err            *shared.SubmissionError
}

// NewController creates a Controller in the Idle state with an empty selection.
func NewController(opts ControllerOpts) *Controller {
	if opts.NewID == nil {
		opts.NewID = shared.GenerateID
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Controller{
		newID:     opts.NewID,
		logger:    opts.Logger,
		state:     models.Idle,
		label:     Placeholder,
		selection: models.NewFileSet(opts.NewID(), nil),
	}
}

// Select replaces the selection with files and discards every preview entry.
//
// The returned set carries a new ID; previews decoded for any earlier set are rejected by [Controller.AddPreview].
// Submission state is untouched, so a submission already in flight still resolves.
func (c *Controller) Select(files []models.File) models.FileSet {
	c.selection = models.NewFileSet(c.newID(), files)
	c.previews = nil
	c.label = SelectionLabel(c.selection.Len())

	c.logger.Debug("selection changed", "id", c.selection.ID, "files", c.selection.Len())
	return c.selection
}

// SelectionLabel returns the label text for n selected files.
func SelectionLabel(n int) string {
	if n == 0 {
		return Placeholder
	}
	return fmt.Sprintf("%d image(s) selected", n)
}

// AddPreview appends entry when it belongs to the current selection and reports whether it was kept.
func (c *Controller) AddPreview(entry models.PreviewEntry) bool {
	if entry.SelectionID != c.selection.ID {
		c.logger.Debug("stale preview dropped", "file", entry.File.Name, "selection", entry.SelectionID)
		return false
	}
	c.previews = append(c.previews, entry)
	return true
}

// BeginSubmit starts a submission of the current selection.
//
// While a submission is outstanding it returns [shared.ErrSubmitInFlight] and changes nothing.
// An empty selection moves straight to Failed and returns the validation error.
// Otherwise the result and error regions are hidden, loading is shown, submit is disabled
// and the selection snapshot to transmit is returned.
func (c *Controller) BeginSubmit() (models.FileSet, error) {
	if c.submitDisabled {
		return models.FileSet{}, shared.ErrSubmitInFlight
	}

	c.state = models.Validating
	c.result = nil
	c.err = nil

	if c.selection.Empty() {
		c.fail(shared.NewValidationError())
		return models.FileSet{}, c.err
	}

	c.loading = true
	c.submitDisabled = true
	c.state = models.Submitting

	c.logger.Info("submission started", "selection", c.selection.ID, "files", c.selection.Len())
	return c.selection, nil
}

// Resolve records the outcome of the outstanding submission.
//
// Loading is hidden and submit re-enabled on every path. A nil result without an error is a processing failure.
// Calls made while no submission is outstanding are ignored and reported as false.
func (c *Controller) Resolve(result *models.Reconstruction, err error) bool {
	if c.state != models.Submitting {
		c.logger.Warn("resolve without submission", "state", c.state)
		return false
	}

	defer func() {
		c.loading = false
		c.submitDisabled = false
	}()

	switch {
	case err != nil:
		c.fail(shared.AsSubmissionError(err))
	case result == nil:
		c.fail(shared.NewProcessingError(fmt.Errorf("empty response")))
	default:
		c.result = result
		c.state = models.Succeeded
		c.logger.Info("submission succeeded", "output", result.OutputFile, "views", result.NumViewsProcessed)
	}

	return true
}

// Run performs a complete submission synchronously with fn as the network step.
//
// A panic in fn is recovered into a processing error so cleanup always happens.
func (c *Controller) Run(ctx context.Context, fn SubmitFunc) (err error) {
	set, err := c.BeginSubmit()
	if err != nil {
		return err
	}

	var result *models.Reconstruction
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, shared.NewProcessingError(fmt.Errorf("%v", r))
		}
		c.Resolve(result, err)
		if c.state == models.Failed {
			err = c.err
		}
	}()

	result, err = fn(ctx, set)
	return err
}

func (c *Controller) fail(err *shared.SubmissionError) {
	c.err = err
	c.result = nil
	c.state = models.Failed
	c.logger.Warn("submission failed", "kind", err.Kind, "message", err.Message)
}

// State returns the submission state.
func (c *Controller) State() models.UIState { return c.state }

// Selection returns the current selection.
func (c *Controller) Selection() models.FileSet { return c.selection }

// SubmitDisabled reports whether a submission is outstanding.
func (c *Controller) SubmitDisabled() bool { return c.submitDisabled }

// View returns a snapshot safe to keep after further transitions.
func (c *Controller) View() View {
	return View{
		State:          c.state,
		Label:          c.label,
		Selection:      c.selection,
		Previews:       slices.Clone(c.previews),
		Loading:        c.loading,
		SubmitDisabled: c.submitDisabled,
		Result:         c.result,
		Err:            c.err,
	}
}
