//go:build !nogui

package gui

import (
	"context"
	"testing"

	"marky/internal/config"
	"marky/internal/dispatch"
	"marky/internal/editor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/theme"
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
	return m.openPath, m.disk[m.openPath], nil
}

func (m *memFiles) Read(ctx context.Context, path string) (string, error) {
	return m.disk[path], nil
}

func (m *memFiles) Write(ctx context.Context, path, suggested, content string) (string, error) {
	if path == "" {
		path = m.savePath
	}
	m.disk[path] = content
	return path, nil
}

type testApp struct {
	*App
	files *memFiles
	quit  bool
}

// newTestApp builds an App whose messages are applied synchronously,
// running tasks inline.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	a := NewApp(test.NewTempApp(t), config.New(), Options{}, nil)
	ta := &testApp{App: a, files: &memFiles{disk: map[string]string{}}}
	a.dispatcher = dispatch.NewDispatcher(ta.files)
	a.send = ta.apply
	return ta
}

func (ta *testApp) apply(msg dispatch.Message) {
	for msg != nil {
		res := ta.handle(msg)
		ta.render()
		if res.Quit {
			ta.quit = true
			return
		}
		if res.Task == nil {
			return
		}
		msg = res.Task(context.Background())
	}
}

func ctrl(key fyne.KeyName) *desktop.CustomShortcut {
	return &desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierControl}
}

func TestNewApp(t *testing.T) {
	a := newTestApp(t)
	require.NotNil(t, a.GetMainWindow())
	assert.Len(t, a.tabs.Items, 1)
	assert.Equal(t, editor.NewFileLabel, a.tabs.Items[0].Text)
	assert.Equal(t, "marky - New file", a.mainWindow.Title())
	assert.Equal(t, "Edit", a.status.mode.Text)
	assert.Equal(t, "16pt", a.status.font.Text)
	assert.True(t, IsGUIAvailable())
}

func TestTypingMarksDirty(t *testing.T) {
	a := newTestApp(t)
	test.Type(a.editorEntry, "# Hi")

	assert.Equal(t, "# Hi", a.state.Active().Text())
	assert.True(t, a.state.Active().Dirty())
	assert.Equal(t, "● New file", a.tabs.Items[0].Text)
	assert.Equal(t, "Markdown", a.status.kind.Text)
}

func TestShortcutsReachKeymap(t *testing.T) {
	a := newTestApp(t)

	a.editorEntry.TypedShortcut(ctrl(fyne.KeyN))
	assert.Equal(t, 2, a.state.Len())
	assert.Len(t, a.tabs.Items, 2)
	assert.Equal(t, 1, a.tabs.SelectedIndex())

	a.editorEntry.TypedShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierAlt})
	assert.True(t, a.state.WordWrap())
	assert.Equal(t, fyne.TextWrapWord, a.editorEntry.Wrapping)

	a.editorEntry.TypedShortcut(ctrl(fyne.KeyEqual))
	assert.Equal(t, 18, a.state.FontSize())
	assert.Equal(t, float32(18), a.fontTheme.Size(theme.SizeNameText))
	assert.Equal(t, "18pt", a.status.font.Text)
	base := theme.DefaultTheme().Size(theme.SizeNameText)
	assert.Equal(t, base, a.theme.Size(theme.SizeNameText), "tabs, menus and status bar keep their size")
	assert.Equal(t, base, a.fyneApp.Settings().Theme().Size(theme.SizeNameText))

	a.editorEntry.TypedShortcut(ctrl(fyne.Key0))
	assert.Equal(t, float32(16), a.fontTheme.Size(theme.SizeNameText))

	assert.False(t, a.shortcut(ctrl(fyne.KeyQ)), "unbound chords fall through")
}

func TestSaveFlow(t *testing.T) {
	a := newTestApp(t)
	a.files.savePath = "/tmp/p.md"
	test.Type(a.editorEntry, "a")

	a.editorEntry.TypedShortcut(ctrl(fyne.KeyS))
	assert.Equal(t, "a", a.files.disk["/tmp/p.md"])
	assert.False(t, a.state.Active().Dirty())
	assert.Equal(t, "p.md", a.tabs.Items[0].Text)
	assert.Equal(t, "Saved p.md", a.status.message.Text)
	assert.Equal(t, "/tmp/p.md", a.status.path.Text)
}

func TestOpenAndSwitchTabs(t *testing.T) {
	a := newTestApp(t)
	a.files.disk["/docs/a.md"] = "# A"
	a.files.openPath = "/docs/a.md"

	a.send(dispatch.Open{})
	require.Len(t, a.tabs.Items, 2)
	assert.Equal(t, "a.md", a.tabs.Items[1].Text)
	assert.Equal(t, "# A", a.editorEntry.Text)

	a.tabs.Select(a.tabs.Items[0])
	assert.Equal(t, 0, a.state.ActiveIndex())
	assert.Equal(t, "", a.editorEntry.Text)
}

func TestCloseInterceptClosesTab(t *testing.T) {
	a := newTestApp(t)
	a.send(dispatch.New{})
	a.send(dispatch.New{})
	require.Len(t, a.tabs.Items, 3)

	a.tabs.CloseIntercept(a.tabs.Items[0])
	assert.Len(t, a.tabs.Items, 2)
	assert.Equal(t, 1, a.state.ActiveIndex())
	assert.False(t, a.quit)

	a.send(dispatch.Close{})
	a.send(dispatch.Close{})
	assert.True(t, a.quit)
}

func TestPreviewMode(t *testing.T) {
	a := newTestApp(t)
	test.Type(a.editorEntry, "# Title")

	a.editorEntry.TypedShortcut(ctrl(fyne.KeyP))
	assert.Equal(t, editor.ModePreview, a.state.Mode())
	assert.True(t, a.previewScroll.Visible())
	assert.False(t, a.editorEntry.Visible())
	assert.Equal(t, "Title", a.preview.String())
	assert.Equal(t, "Preview", a.status.mode.Text)

	a.editorEntry.TypedShortcut(ctrl(fyne.KeyP))
	assert.True(t, a.editorEntry.Visible())
	assert.Equal(t, "# Title", a.editorEntry.Text)
}

func TestChangedOnDiskShowsInStatus(t *testing.T) {
	a := newTestApp(t)
	a.files.disk["/a.md"] = "one"
	a.send(dispatch.Opened{Path: "/a.md", Content: "one"})

	a.send(dispatch.FileChangedOnDisk{Path: "/a.md"})
	assert.Contains(t, a.status.message.Text, "changed on disk")

	a.files.disk["/a.md"] = "two"
	a.editorEntry.TypedShortcut(ctrl(fyne.KeyR))
	assert.Equal(t, "two", a.editorEntry.Text)
	assert.False(t, a.state.Active().Dirty())
}

func TestWindowContent(t *testing.T) {
	a := newTestApp(t)
	root, ok := a.mainWindow.Content().(*fyne.Container)
	require.True(t, ok, "Window content should be a *fyne.Container")
	assert.Contains(t, root.Objects, fyne.CanvasObject(a.tabs))
	assert.Contains(t, root.Objects, fyne.CanvasObject(a.status.container))
}
