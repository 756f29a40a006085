// Package tui is the terminal front end. It drives the same editor state
// and dispatcher as the desktop window; bubbletea's Update loop is the
// single owner of the state and dispatcher tasks run as tea.Cmds.
package tui

import (
	"context"
	"strings"

	"marky/internal/buffer"
	"marky/internal/config"
	"marky/internal/dispatch"
	"marky/internal/editor"
	"marky/internal/errors"
	"marky/internal/fileio"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// promptMsg carries a path question from the prompt picker.
type promptMsg struct {
	req *fileio.PromptRequest
}

type Model struct {
	ctx        context.Context
	cfg        *config.Config
	state      *editor.State
	dispatcher *dispatch.Dispatcher
	keymap     *dispatch.Keymap
	keys       keyMap
	picker     *fileio.PromptPicker
	// startup reads the file named on the command line
	startup dispatch.Task

	width  int
	height int
	// editor scroll: first visual row shown, first column shown when
	// lines do not wrap
	top  int
	left int

	preview      viewport.Model
	previewID    string
	previewLinks []string

	prompt *fileio.PromptRequest
	input  textinput.Model

	help     help.Model
	showHelp bool
	quitting bool
}

type options struct {
	files   dispatch.Files
	opener  dispatch.Opener
	watcher dispatch.Watcher
	path    string
}

// Option configures a Model.
type Option func(*options)

// WithFiles replaces the default file service, which asks for paths on
// the prompt line.
func WithFiles(f dispatch.Files) Option {
	return func(o *options) { o.files = f }
}

// WithOpener sets how links are opened.
func WithOpener(op dispatch.Opener) Option {
	return func(o *options) { o.opener = op }
}

// WithWatcher reports outside changes to open files.
func WithWatcher(w dispatch.Watcher) Option {
	return func(o *options) { o.watcher = w }
}

// WithPath loads path into the first tab on start.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// New creates the terminal editor. ctx bounds every task it starts.
func New(ctx context.Context, cfg *config.Config, opts ...Option) *Model {
	o := &options{opener: fileio.SystemOpener{}}
	for _, opt := range opts {
		opt(o)
	}

	picker := fileio.NewPromptPicker()
	if o.files == nil {
		o.files = fileio.NewService(picker, fileio.WithMaxSize(cfg.MaxFileSize()))
	}
	dopts := []dispatch.Option{
		dispatch.WithOpener(o.opener),
		dispatch.WithIOErrorStatus(cfg.Status.ShowIOErrors),
	}
	if o.watcher != nil {
		dopts = append(dopts, dispatch.WithWatcher(o.watcher))
	}

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 4096

	km := NewKeymap()
	m := &Model{
		ctx: ctx,
		cfg: cfg,
		state: editor.NewState(
			editor.WithFontSize(cfg.Editor.FontSize),
			editor.WithWordWrap(cfg.Editor.WordWrap),
		),
		dispatcher: dispatch.NewDispatcher(o.files, dopts...),
		keymap:     km,
		keys:       newKeyMap(km),
		picker:     picker,
		width:      defaultWidth,
		height:     defaultHeight,
		input:      input,
		help:       help.New(),
		preview:    viewport.New(defaultWidth, defaultHeight-3),
	}
	m.startup = m.dispatcher.StartupTask(m.state, o.path)
	return m
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForPrompt(m.picker.Requests())}
	if m.startup != nil {
		cmds = append(cmds, m.run(m.startup))
	}
	return tea.Batch(cmds...)
}

func waitForPrompt(reqs <-chan *fileio.PromptRequest) tea.Cmd {
	return func() tea.Msg {
		return promptMsg{req: <-reqs}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.layoutPreview()
		m.scrollToCursor()
		return m, nil
	case promptMsg:
		return m, m.startPrompt(msg.req)
	case dispatch.Message:
		return m, m.apply(msg)
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.MouseMsg:
		if m.state.Mode() == editor.ModePreview {
			var cmd tea.Cmd
			m.preview, cmd = m.preview.Update(msg)
			return m, cmd
		}
	}

	if m.prompt != nil {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply runs msg through the dispatcher and turns any resulting task into
// a command.
func (m *Model) apply(msg dispatch.Message) tea.Cmd {
	res := m.dispatcher.Update(m.state, msg)
	m.syncPreview()
	m.scrollToCursor()
	if res.Quit {
		m.quitting = true
		return tea.Quit
	}
	return m.run(res.Task)
}

func (m *Model) run(task dispatch.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		if msg := task(ctx); msg != nil {
			return msg
		}
		return nil
	}
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layoutPreview()
		return m, nil
	}

	if k, ok := chord(msg); ok {
		if dm, ok := m.keymap.Lookup(k); ok {
			return m, m.apply(dm)
		}
	}

	if m.state.Mode() == editor.ModePreview {
		return m.handlePreviewKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Paste):
		return m, m.paste()
	case key.Matches(msg, m.keys.CopyLine):
		return m, m.copyLine()
	}

	cur := m.state.Active().Buffer().Cursor()
	if action := editAction(msg, cur, m.editorHeight()); action != nil {
		return m, m.apply(dispatch.Edit{Action: action})
	}
	return m, nil
}

func (m *Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && !msg.Alt {
		if r := msg.Runes[0]; r >= '1' && r <= '9' {
			if n := int(r - '0'); n <= len(m.previewLinks) {
				return m, m.apply(dispatch.LinkClicked{URL: m.previewLinks[n-1]})
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

func (m *Model) startPrompt(req *fileio.PromptRequest) tea.Cmd {
	if req == nil {
		return nil
	}
	m.prompt = req
	m.input.Reset()
	if req.Kind == fileio.PromptSave {
		m.input.Placeholder = "path to save to"
	} else {
		m.input.Placeholder = "path to open"
	}
	m.input.SetValue(req.Suggested)
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.prompt.Answer(strings.TrimSpace(m.input.Value()))
		return m, m.endPrompt()
	case tea.KeyEsc, tea.KeyCtrlC:
		m.prompt.Cancel()
		return m, m.endPrompt()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endPrompt() tea.Cmd {
	m.prompt = nil
	m.input.Blur()
	return waitForPrompt(m.picker.Requests())
}

func (m *Model) paste() tea.Cmd {
	id := m.state.Active().ID()
	return func() tea.Msg {
		text, err := clipboard.ReadAll()
		if err != nil {
			return dispatch.IOFailed{Op: dispatch.OpClipboard, Err: errors.Wrap(err, "reading clipboard")}
		}
		return dispatch.Edit{ID: id, Action: buffer.Insert{Text: text}}
	}
}

func (m *Model) copyLine() tea.Cmd {
	buf := m.state.Active().Buffer()
	line := buf.Line(buf.Cursor().Line)
	return func() tea.Msg {
		if err := clipboard.WriteAll(line); err != nil {
			return dispatch.IOFailed{Op: dispatch.OpClipboard, Err: errors.Wrap(err, "writing clipboard")}
		}
		return nil
	}
}

// syncPreview refreshes the preview pane from the active file's cached
// blocks while in Preview mode.
func (m *Model) syncPreview() {
	if m.state.Mode() != editor.ModePreview {
		m.previewID = ""
		return
	}
	f := m.state.Active()
	content, links := renderPreview(f.Preview(), m.width)
	m.preview.SetContent(content)
	m.previewLinks = links
	if f.ID() != m.previewID {
		m.previewID = f.ID()
		m.preview.GotoTop()
	}
}

func (m *Model) layoutPreview() {
	m.preview.Width = m.width
	m.preview.Height = m.editorHeight()
	if m.state.Mode() == editor.ModePreview {
		content, links := renderPreview(m.state.Active().Preview(), m.width)
		m.preview.SetContent(content)
		m.previewLinks = links
	}
}

// State exposes the editor state for inspection.
func (m *Model) State() *editor.State {
	return m.state
}

// Quitting reports whether the model has asked the program to exit.
func (m *Model) Quitting() bool {
	return m.quitting
}
