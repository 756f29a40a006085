//go:build !nogui

package gui

import (
	"context"
	"fmt"
	"sync/atomic"

	"marky/internal/config"
	"marky/internal/dispatch"
	"marky/internal/editor"
	"marky/internal/fileio"
	"marky/internal/log"
	"marky/internal/loop"
	"marky/internal/watch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// AppID is the fyne application identifier.
const AppID = "io.github.marky"

// Options are the command line choices that shape the window.
type Options struct {
	// Path is opened into the first tab when set.
	Path string
	// NativeDialogs uses the operating system file dialogs instead of fyne's.
	NativeDialogs bool
}

// App is the GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	cfg        *config.Config
	keymap     *dispatch.Keymap

	// owned by the event loop goroutine
	state      *editor.State
	dispatcher *dispatch.Dispatcher
	shownID    string
	shownGen   uint64
	fontShown  int

	// send posts a message to the event loop. Tests swap it for a
	// synchronous version.
	send func(dispatch.Message)
	loop *loop.Loop

	// active tab and file as last rendered, read by widget callbacks
	activeShown atomic.Int32
	fileShown   atomic.Value

	tabs          *container.DocTabs
	editorEntry   *editorEntry
	preview       *widget.RichText
	previewScroll *container.Scroll
	status        *statusBar
	theme         *editorTheme
	// fontTheme scales only the editor and preview
	fontTheme  *editorTheme
	editorArea *container.ThemeOverride
}

// NewApp builds the window and wires it to a fresh editor state. Files are
// picked with fyne dialogs unless native dialogs are asked for. watcher
// may be nil.
func NewApp(fyneApp fyne.App, cfg *config.Config, opts Options, watcher dispatch.Watcher) *App {
	a := &App{
		fyneApp: fyneApp,
		cfg:     cfg,
		keymap:  dispatch.NewKeymap(dispatch.DefaultBindings()),
		state: editor.NewState(
			editor.WithFontSize(cfg.Editor.FontSize),
			editor.WithWordWrap(cfg.Editor.WordWrap),
		),
	}
	a.mainWindow = fyneApp.NewWindow("marky")

	var picker fileio.Picker = &filePicker{window: a.mainWindow}
	if opts.NativeDialogs || cfg.Dialogs.Native {
		picker = NativePicker{}
	}
	dopts := []dispatch.Option{
		dispatch.WithOpener(&urlOpener{app: fyneApp}),
		dispatch.WithIOErrorStatus(cfg.Status.ShowIOErrors),
	}
	if watcher != nil {
		dopts = append(dopts, dispatch.WithWatcher(watcher))
	}
	a.dispatcher = dispatch.NewDispatcher(fileio.NewService(picker, fileio.WithMaxSize(cfg.MaxFileSize())), dopts...)

	a.loop = loop.New(a.handle, loop.WithRender(a.render))
	a.send = a.loop.Send

	a.theme = newEditorTheme(cfg.Theme.Name, 0)
	a.fontTheme = newEditorTheme(cfg.Theme.Name, a.state.FontSize())
	fyneApp.Settings().SetTheme(a.theme)
	a.fontShown = a.state.FontSize()

	a.setupMainWindow()
	a.activeShown.Store(-1)
	a.render()
	return a
}

// GetMainWindow returns the main window instance
func (a *App) GetMainWindow() fyne.Window {
	return a.mainWindow
}

// Run shows the window and blocks until it closes or the last tab is
// closed. A non-empty path names the first tab and is loaded into it when
// it exists.
func (a *App) Run(ctx context.Context, path string) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if task := a.dispatcher.StartupTask(a.state, path); task != nil {
		go func() { a.send(task(ctx)) }()
	}
	a.render()

	go func() {
		if err := a.loop.Run(ctx); err != nil && ctx.Err() == nil {
			log.LogError(err, "Event loop stopped")
		}
		a.fyneApp.Quit()
	}()

	a.mainWindow.ShowAndRun()
}

// handle runs on the event loop goroutine.
func (a *App) handle(msg dispatch.Message) dispatch.Result {
	return a.dispatcher.Update(a.state, msg)
}

// setupMainWindow sets up the main window content
func (a *App) setupMainWindow() {
	a.mainWindow.Resize(fyne.NewSize(900, 700))
	a.mainWindow.SetMainMenu(a.mainMenu())

	a.tabs = container.NewDocTabs()
	a.tabs.CloseIntercept = func(item *container.TabItem) {
		for i, it := range a.tabs.Items {
			if it == item {
				i := i
				a.send(dispatch.Close{Index: &i})
				return
			}
		}
	}
	a.tabs.OnSelected = func(item *container.TabItem) {
		i := a.tabs.SelectedIndex()
		if int32(i) != a.activeShown.Load() {
			a.send(dispatch.SwitchTab{Index: i})
		}
	}

	a.editorEntry = newEditorEntry(a.shortcut)
	a.editorEntry.OnChanged = func(text string) {
		a.send(dispatch.Edit{ID: a.shownFile(), Action: replaceAction(text)})
	}
	a.editorEntry.OnCursorChanged = func() {
		action := moveToAction(a.editorEntry.CursorRow, a.editorEntry.CursorColumn)
		a.send(dispatch.Edit{ID: a.shownFile(), Action: action})
	}

	a.preview = widget.NewRichText()
	a.preview.Wrapping = fyne.TextWrapWord
	a.previewScroll = container.NewVScroll(a.preview)
	a.previewScroll.Hide()

	a.status = newStatusBar()

	for _, b := range a.keymap.Bindings() {
		msg := b.Msg
		a.mainWindow.Canvas().AddShortcut(toShortcut(b.Key), func(fyne.Shortcut) { a.send(msg) })
	}

	a.editorArea = container.NewThemeOverride(container.NewStack(a.editorEntry, a.previewScroll), a.fontTheme)
	a.mainWindow.SetContent(container.NewBorder(
		a.tabs,
		a.status.container,
		nil,
		nil,
		a.editorArea,
	))
	a.mainWindow.Canvas().Focus(a.editorEntry)
}

// shownFile is the ID of the file the editor widget currently holds.
func (a *App) shownFile() string {
	id, _ := a.fileShown.Load().(string)
	return id
}

// shortcut resolves a shortcut typed into the editor against the keymap.
func (a *App) shortcut(s fyne.Shortcut) bool {
	key, ok := fromShortcut(s)
	if !ok {
		return false
	}
	msg, ok := a.keymap.Lookup(key)
	if !ok {
		return false
	}
	a.send(msg)
	return true
}

func (a *App) mainMenu() *fyne.MainMenu {
	item := func(label string, msg dispatch.Message) *fyne.MenuItem {
		mi := fyne.NewMenuItem(label, func() { a.send(msg) })
		for _, b := range a.keymap.Bindings() {
			if b.Msg == msg {
				mi.Shortcut = toShortcut(b.Key)
				break
			}
		}
		return mi
	}
	file := fyne.NewMenu("File",
		item("New", dispatch.New{}),
		item("Open…", dispatch.Open{}),
		fyne.NewMenuItemSeparator(),
		item("Save", dispatch.Save{}),
		item("Save As…", dispatch.SaveAs{}),
		item("Reload", dispatch.Reload{}),
		fyne.NewMenuItemSeparator(),
		item("Close", dispatch.Close{}),
	)
	view := fyne.NewMenu("View",
		item("Toggle Preview", dispatch.TogglePreview{}),
		item("Word Wrap", dispatch.ToggleWordWrap{}),
		fyne.NewMenuItemSeparator(),
		item("Increase Font", dispatch.IncreaseFont{}),
		item("Decrease Font", dispatch.DecreaseFont{}),
		item("Reset Font", dispatch.ResetFont{}),
	)
	help := fyne.NewMenu("Help",
		fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
	)
	return fyne.NewMainMenu(file, view, help)
}

func (a *App) showShortcuts() {
	text := ""
	for _, b := range a.keymap.Bindings() {
		text += fmt.Sprintf("%-14s %s\n", b.Key, b.Help)
	}
	label := widget.NewLabel(text)
	label.TextStyle.Monospace = true
	dialog.ShowCustom("Keyboard Shortcuts", "Close", label, a.mainWindow)
}

// render maps the editor state onto the widgets. It runs on the event loop
// goroutine after every message.
func (a *App) render() {
	s := a.state
	f := s.Active()

	a.renderTabs()

	if f.ID() != a.shownID || f.Generation() != a.shownGen {
		a.shownID = f.ID()
		a.shownGen = f.Generation()
		a.fileShown.Store(f.ID())
		a.editorEntry.SetText(f.Text())
		cur := f.Buffer().Cursor()
		a.editorEntry.CursorRow = cur.Line
		a.editorEntry.CursorColumn = cur.Col
	}

	wrap := fyne.TextWrapOff
	if s.WordWrap() {
		wrap = fyne.TextWrapWord
	}
	if a.editorEntry.Wrapping != wrap {
		a.editorEntry.Wrapping = wrap
		a.editorEntry.Refresh()
	}

	if s.FontSize() != a.fontShown {
		a.fontShown = s.FontSize()
		a.fontTheme.setTextSize(float32(s.FontSize()))
		a.editorArea.Refresh()
	}

	if s.Mode() == editor.ModePreview {
		a.preview.Segments = previewSegments(f.Preview(), func(url string) {
			a.send(dispatch.LinkClicked{URL: url})
		})
		a.preview.Refresh()
		a.editorEntry.Hide()
		a.previewScroll.Show()
	} else {
		a.previewScroll.Hide()
		a.editorEntry.Show()
	}

	a.status.update(s, a.cfg)
	a.mainWindow.SetTitle("marky - " + f.Label())
}

func (a *App) renderTabs() {
	s := a.state
	files := s.Files()

	if len(a.tabs.Items) != len(files) {
		items := make([]*container.TabItem, len(files))
		for i, f := range files {
			items[i] = container.NewTabItem(f.Label(), emptyTab())
		}
		a.tabs.Items = items
		a.tabs.Refresh()
	} else {
		changed := false
		for i, f := range files {
			if a.tabs.Items[i].Text != f.Label() {
				a.tabs.Items[i].Text = f.Label()
				changed = true
			}
		}
		if changed {
			a.tabs.Refresh()
		}
	}

	a.activeShown.Store(int32(s.ActiveIndex()))
	if a.tabs.SelectedIndex() != s.ActiveIndex() {
		a.tabs.SelectIndex(s.ActiveIndex())
	}
}

// emptyTab is the per-tab content; the editor itself lives below the tab
// bar and is shared by all tabs.
func emptyTab() fyne.CanvasObject {
	return container.NewWithoutLayout()
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return true
}

// Run starts the fyne front end
func Run(ctx context.Context, cfg *config.Config, opts Options) error {
	fyneApp := app.NewWithID(AppID)

	var w dispatch.Watcher
	watcher, err := watch.NewStarted()
	if err != nil {
		log.LogError(err, "File watching disabled")
	} else {
		w = watcher
		defer watcher.Stop()
	}

	a := NewApp(fyneApp, cfg, opts, w)
	if w != nil {
		go watch.Forward(watcher, a.send)
	}
	a.Run(ctx, opts.Path)
	return nil
}
