package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marky/internal/config"
	"marky/internal/dispatch"
	"marky/internal/editor"
	"marky/internal/errors"
	"marky/internal/markdown"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFiles is an in-memory file collaborator.
type memFiles struct {
	disk     map[string]string
	openPath string
	savePath string
}

func (m *memFiles) PickAndRead(ctx context.Context) (string, string, error) {
	if m.openPath == "" {
		return "", "", errors.ErrDialogCancelled
	}
	return m.openPath, m.disk[m.openPath], nil
}

func (m *memFiles) Read(ctx context.Context, path string) (string, error) {
	content, ok := m.disk[path]
	if !ok {
		return "", errors.NewFileError("file not found", path, errors.FileNotFound, nil)
	}
	return content, nil
}

func (m *memFiles) Write(ctx context.Context, path, suggested, content string) (string, error) {
	if path == "" {
		path = m.savePath
	}
	if path == "" {
		return "", errors.ErrDialogCancelled
	}
	m.disk[path] = content
	return path, nil
}

type recordingOpener struct {
	urls []string
}

func (o *recordingOpener) Open(url string) error {
	o.urls = append(o.urls, url)
	return nil
}

type harness struct {
	m      *Model
	files  *memFiles
	opener *recordingOpener
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{files: &memFiles{disk: map[string]string{}}, opener: &recordingOpener{}}
	opts = append([]Option{WithFiles(h.files), WithOpener(h.opener)}, opts...)
	h.m = New(context.Background(), config.New(), opts...)
	return h
}

// send feeds msg to the model and keeps feeding the results of any
// commands it returns, so tasks complete synchronously.
func (h *harness) send(msg tea.Msg) {
	for msg != nil {
		_, cmd := h.m.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
	}
}

func (h *harness) typeText(s string) {
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func alt(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func TestModelInitialization(t *testing.T) {
	h := newHarness(t)
	s := h.m.State()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, editor.ModeEdit, s.Mode())
	assert.Equal(t, config.DefaultFontSize, s.FontSize())
	assert.False(t, h.m.Quitting())

	view := h.m.View()
	assert.Contains(t, view, editor.NewFileLabel)
	assert.Contains(t, view, "Ln 1, Col 1")
}

func TestTypeThenSave(t *testing.T) {
	h := newHarness(t)
	h.files.savePath = "/docs/p.md"

	h.typeText("a")
	f := h.m.State().Active()
	assert.True(t, f.Dirty())
	assert.Equal(t, "a", f.Text())

	h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, f.Dirty())
	assert.Equal(t, "/docs/p.md", f.Path())
	assert.Equal(t, "a", h.files.disk["/docs/p.md"])
	assert.Contains(t, h.m.View(), "p.md")
	assert.Contains(t, h.m.statusBar(), "/docs/p.md")
}

func TestCursorKeysDoNotDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.md")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo"), 0o600))
	h := newHarness(t, WithPath(path))
	h.files.disk[path] = "one\ntwo"
	h.send(h.m.Init()().(tea.BatchMsg)[1]())

	f := h.m.State().Active()
	require.Equal(t, "one\ntwo", f.Text())
	for _, k := range []tea.KeyType{tea.KeyDown, tea.KeyEnd, tea.KeyLeft, tea.KeyUp, tea.KeyCtrlEnd, tea.KeyPgUp} {
		h.send(tea.KeyMsg{Type: k})
	}
	assert.False(t, f.Dirty())

	h.send(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, f.Dirty())
}

func TestChords(t *testing.T) {
	h := newHarness(t)
	s := h.m.State()

	h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.ActiveIndex())

	h.send(alt('z'))
	assert.True(t, s.WordWrap())

	h.send(alt('='))
	h.send(alt('='))
	assert.Equal(t, config.DefaultFontSize+2*config.FontStep, s.FontSize())
	h.send(alt('0'))
	assert.Equal(t, config.DefaultFontSize, s.FontSize())

	h.send(alt('n'))
	assert.Equal(t, 0, s.ActiveIndex())

	h.send(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, 1, s.Len())
	assert.False(t, h.m.Quitting())

	h.send(tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, 1, s.Len(), "the last tab is never removed")
	assert.True(t, h.m.Quitting())
}

func TestOpenSamePathTwice(t *testing.T) {
	h := newHarness(t)
	h.files.disk["/docs/a.md"] = "first"
	h.files.openPath = "/docs/a.md"

	h.send(tea.KeyMsg{Type: tea.KeyCtrlO})
	h.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	h.files.disk["/docs/a.md"] = "second"
	h.send(tea.KeyMsg{Type: tea.KeyCtrlO})

	s := h.m.State()
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1, s.ActiveIndex())
	assert.Equal(t, "second", s.Active().Text())
}

func TestCancelledOpenChangesNothing(t *testing.T) {
	h := newHarness(t)
	h.send(tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, 1, h.m.State().Len())
	assert.Empty(t, h.m.State().Status())
}

func TestPreviewMode(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 60, Height: 20})
	h.typeText("# Title")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	s := h.m.State()
	require.Equal(t, editor.ModePreview, s.Mode())
	blocks := s.Active().Preview()
	require.Len(t, blocks, 1)
	assert.Equal(t, markdown.Heading, blocks[0].Kind)
	assert.Contains(t, h.m.View(), "Title")

	h.typeText("x")
	assert.Equal(t, "# Title", s.Active().Text(), "typing is ignored in preview")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, editor.ModeEdit, s.Mode())
	assert.Equal(t, "# Title", s.Active().Text())
}

func TestPreviewLinkKeys(t *testing.T) {
	h := newHarness(t)
	h.typeText("see [go](https://go.dev) and [docs](https://pkg.go.dev)")
	h.send(tea.KeyMsg{Type: tea.KeyCtrlP})

	assert.Equal(t, []string{"https://go.dev", "https://pkg.go.dev"}, h.m.previewLinks)
	h.typeText("2")
	h.typeText("9")
	assert.Equal(t, []string{"https://pkg.go.dev"}, h.opener.urls)
}

func TestIOFailedLeavesState(t *testing.T) {
	h := newHarness(t)
	h.typeText("keep")
	h.send(dispatch.IOFailed{Op: dispatch.OpSave, Err: errors.New("disk full")})

	f := h.m.State().Active()
	assert.Equal(t, "keep", f.Text())
	assert.True(t, f.Dirty())
	assert.Empty(t, h.m.State().Status())
}

func TestWordWrapRows(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 14, Height: 10})
	h.typeText(strings.Repeat("x", 30))

	// gutter is "1 ", leaving 12 columns
	assert.Len(t, h.m.rows(), 1)
	assert.Equal(t, 30-12+1, h.m.left, "no wrap scrolls sideways to the cursor")

	h.send(alt('z'))
	rows := h.m.rows()
	require.Len(t, rows, 3)
	assert.Equal(t, row{line: 0, start: 24, end: 30}, rows[2])
	assert.Equal(t, 2, cursorRow(rows, h.m.State().Active().Buffer().Cursor()))
	assert.Equal(t, 0, h.m.left)
}

func TestScrollFollowsCursor(t *testing.T) {
	h := newHarness(t)
	h.send(tea.WindowSizeMsg{Width: 40, Height: 8})
	for i := 0; i < 20; i++ {
		h.typeText("line")
		h.send(tea.KeyMsg{Type: tea.KeyEnter})
	}
	height := h.m.editorHeight()
	assert.Equal(t, 20-height+1, h.m.top)
	assert.Contains(t, h.m.View(), "21 ")

	h.send(tea.KeyMsg{Type: tea.KeyCtrlHome})
	assert.Equal(t, 0, h.m.top)
}

func TestPromptPickerOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Notes"), 0o600))

	m := New(context.Background(), config.New())
	_, openCmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	require.NotNil(t, openCmd)

	result := make(chan tea.Msg, 1)
	go func() { result <- openCmd() }()

	prompt := waitForPrompt(m.picker.Requests())()
	m.Update(prompt)
	require.NotNil(t, m.prompt)
	assert.Contains(t, m.View(), "Open file")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(path)})
	_, next := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, next, "listens for the next prompt")
	assert.Nil(t, m.prompt)

	m.Update(<-result)
	s := m.State()
	require.Equal(t, 2, s.Len())
	assert.Equal(t, path, s.Active().Path())
	assert.Equal(t, "# Notes", s.Active().Text())
}

func TestPromptPickerCancel(t *testing.T) {
	m := New(context.Background(), config.New())
	_, saveCmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, saveCmd)

	result := make(chan tea.Msg, 1)
	go func() { result <- saveCmd() }()

	m.Update(waitForPrompt(m.picker.Requests())())
	require.NotNil(t, m.prompt)
	assert.Equal(t, "untitled.md", m.input.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	msg := <-result
	failed, ok := msg.(dispatch.IOFailed)
	require.True(t, ok)
	assert.True(t, errors.IsCancelled(failed.Err))

	m.Update(msg)
	assert.Empty(t, m.State().Active().Path())
}
