package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mapx/internal/models"
	"github.com/desertthunder/mapx/internal/preview"
	"github.com/desertthunder/mapx/internal/services"
	"github.com/desertthunder/mapx/internal/shared"
	"github.com/desertthunder/mapx/internal/tasks"
	"github.com/desertthunder/mapx/internal/upload"
)

const (
	chromeHeight   = 8 // title, input, help and the gaps between them
	progressBuffer = 50
)

// ModelOpts holds the dependencies of a [Model]. Nil fields get defaults where one exists.
type ModelOpts struct {
	Controller  *upload.Controller
	Renderer    *preview.Renderer
	Submitter   tasks.Submitter  // defaults to a [tasks.SubmissionEngine] over Service
	Service     services.Service // downloads and download URL resolution
	DownloadDir string
	Files       []models.File      // initial selection
	OpenURL     func(string) error // defaults to [shared.OpenBrowser]
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	controller  *upload.Controller
	renderer    *preview.Renderer
	engine      tasks.Submitter
	service     services.Service
	downloadDir string
	openURL     func(string) error
	logger      *log.Logger
	initial     []models.File

	input    textinput.Model
	spinner  spinner.Model
	bar      progress.Model
	viewport viewport.Model
	help     help.Model
	keys     keyMap

	width        int
	height       int
	progressChan chan tasks.ProgressUpdate
	doneChan     chan submissionDoneMsg
	progress     tasks.ProgressUpdate
	notice       string
	warning      bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts ModelOpts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Controller == nil {
		opts.Controller = upload.NewController(upload.ControllerOpts{Logger: opts.Logger})
	}
	if opts.Renderer == nil {
		opts.Renderer = preview.NewRenderer(preview.RendererOpts{Logger: opts.Logger})
	}
	if opts.Submitter == nil {
		opts.Submitter = tasks.NewSubmissionEngine(opts.Service, tasks.EngineOpts{Logger: opts.Logger})
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	keys := newKeyMap()

	input := textinput.New()
	input.Placeholder = "path/to/images/*.jpg  photo.png  \"dir with spaces\""
	input.Prompt = "› "
	input.Focus()

	vp := viewport.New(80, 16)
	vp.KeyMap = viewport.KeyMap{PageUp: keys.pageUp, PageDown: keys.pageDown}

	m := &Model{
		ctx:         ctx,
		controller:  opts.Controller,
		renderer:    opts.Renderer,
		engine:      opts.Submitter,
		service:     opts.Service,
		downloadDir: opts.DownloadDir,
		openURL:     opts.OpenURL,
		logger:      opts.Logger,
		initial:     opts.Files,
		input:       input,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.label)),
		bar:         progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		viewport:    vp,
		help:        help.New(),
		keys:        keys,
	}
	m.refresh()
	return m
}

// Init applies the initial selection, if any, and starts the cursor.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if len(m.initial) > 0 {
		cmds = append(cmds, m.selectFiles(m.initial))
		m.initial = nil
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case previewDecodedMsg:
		if msg.err != nil {
			m.logger.Warn("preview failed", "file", msg.file.Name, "error", msg.err)
			return m, nil
		}
		if m.controller.AddPreview(msg.entry) {
			m.refresh()
		}
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		m.refresh()
		return m, m.waitForProgress()

	case submissionDoneMsg:
		m.controller.Resolve(msg.result, msg.err)
		m.progressChan = nil
		m.doneChan = nil
		m.progress = tasks.ProgressUpdate{}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case downloadDoneMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Download failed: %v", msg.err), true)
		} else {
			m.setNotice("Saved to "+msg.path, false)
		}
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil

	case browserOpenedMsg:
		if msg.err != nil {
			m.setNotice(fmt.Sprintf("Could not open %s: %v", msg.url, msg.err), true)
			m.refresh()
			m.viewport.GotoBottom()
		}
		return m, nil

	case spinner.TickMsg:
		if m.controller.State() != models.Submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the header, the scrolling body and the key help.
func (m *Model) View() string {
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s",
		styles.title.Render("3D Mapping"),
		m.input.View(),
		m.viewport.View(),
		m.help.View(m.keys),
	)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.apply):
		return m, m.applyInput()
	case key.Matches(msg, m.keys.submit):
		return m, m.startSubmission()
	case key.Matches(msg, m.keys.download):
		return m, m.download()
	case key.Matches(msg, m.keys.open):
		return m, m.openResult()
	case key.Matches(msg, m.keys.pageUp, m.keys.pageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// applyInput resolves the typed patterns into a new selection. Invalid input keeps the current selection.
func (m *Model) applyInput() tea.Cmd {
	files, err := shared.ResolveFiles(shared.SplitPatterns(m.input.Value()))
	if err != nil {
		m.setNotice(err.Error(), true)
		m.refresh()
		return nil
	}
	m.input.Reset()
	return m.selectFiles(files)
}

// selectFiles replaces the selection and posts one decode task per image.
func (m *Model) selectFiles(files []models.File) tea.Cmd {
	set := m.controller.Select(files)
	m.setNotice("", false)
	m.refresh()
	m.viewport.GotoTop()

	images := preview.Images(set.Files)
	cmds := make([]tea.Cmd, 0, len(images))
	for _, f := range images {
		cmds = append(cmds, m.decodePreview(set.ID, f))
	}
	return tea.Batch(cmds...)
}

func (m *Model) decodePreview(sel string, f models.File) tea.Cmd {
	ctx, renderer := m.ctx, m.renderer
	return func() tea.Msg {
		entry, err := renderer.Decode(ctx, sel, f)
		return previewDecodedMsg{file: f, entry: entry, err: err}
	}
}

// startSubmission runs the engine on a goroutine. Updates arrive through progressChan and the outcome through doneChan,
// which is filled before progressChan is closed.
func (m *Model) startSubmission() tea.Cmd {
	set, err := m.controller.BeginSubmit()
	if err != nil {
		if !errors.Is(err, shared.ErrSubmitInFlight) {
			m.refresh()
			m.viewport.GotoBottom()
		}
		return nil
	}

	m.setNotice("", false)
	m.progress = tasks.ProgressUpdate{}
	m.progressChan = make(chan tasks.ProgressUpdate, progressBuffer)
	m.doneChan = make(chan submissionDoneMsg, 1)

	ctx, engine, progress, done := m.ctx, m.engine, m.progressChan, m.doneChan
	go func() {
		result, err := engine.Submit(ctx, set, progress)
		done <- submissionDoneMsg{result: result, err: err}
		close(progress)
	}()

	m.refresh()
	m.viewport.GotoBottom()
	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) download() tea.Cmd {
	result := m.controller.View().Result
	if result == nil || m.service == nil {
		return nil
	}

	m.setNotice(fmt.Sprintf("Downloading %s...", result.OutputFile), false)
	m.refresh()

	ctx, service, target, dir := m.ctx, m.service, result.DownloadURL, m.downloadDir
	return func() tea.Msg {
		path, err := service.Download(ctx, target, dir)
		return downloadDoneMsg{path: path, err: err}
	}
}

func (m *Model) openResult() tea.Cmd {
	result := m.controller.View().Result
	if result == nil {
		return nil
	}

	target, open := m.resolve(result.DownloadURL), m.openURL
	return func() tea.Msg {
		return browserOpenedMsg{url: target, err: open(target)}
	}
}

func (m *Model) setNotice(msg string, warning bool) {
	m.notice = msg
	m.warning = warning
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(10, width-4)
	m.bar.Width = min(60, max(10, width-4))
	m.help.Width = width
	m.viewport.Width = width
	m.viewport.Height = max(3, height-chromeHeight)
	m.refresh()
}

// refresh redraws the body from the controller snapshot and syncs the key bindings with it.
func (m *Model) refresh() {
	v := m.controller.View()
	m.keys.sync(v.SubmitDisabled, v.Result != nil)
	m.viewport.SetContent(Render(v, m.frame()))
}

// resolve returns the absolute form of a download URL. Without a service it is returned unchanged.
func (m *Model) resolve(p string) string {
	if m.service == nil {
		return p
	}
	return m.service.ResolveURL(p)
}

func (m *Model) frame() Frame {
	return Frame{
		Resolve:  m.resolve,
		Spinner:  m.spinner.View(),
		Bar:      m.bar.ViewAs(m.progress.Fraction()),
		Progress: m.progress,
		Notice:   m.notice,
		Warning:  m.warning,
	}
}
