// Package dispatch turns user actions and task results into editor state
// changes. Update is the only place EditorState is mutated; anything that
// blocks is handed back as a Task for the caller to run.
package dispatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"marky/internal/editor"
	"marky/internal/errors"
	"marky/internal/log"
)

// Files is the file collaborator: dialogs plus disk access.
type Files interface {
	// PickAndRead asks the user for a file and reads it.
	PickAndRead(ctx context.Context) (path, content string, err error)
	// Read reads path.
	Read(ctx context.Context, path string) (string, error)
	// Write writes content to path, asking for a path first when path is
	// empty. suggested seeds that dialog. It returns where it wrote.
	Write(ctx context.Context, path, suggested, content string) (string, error)
}

// Opener hands URLs to the system.
type Opener interface {
	Open(url string) error
}

// Watcher follows open files for outside changes. Implementations must be
// safe for use from task goroutines.
type Watcher interface {
	Add(path string) error
	Remove(path string) error
	// Ignore suppresses the change event our own write of path is about to
	// cause.
	Ignore(path string)
}

// Result is what Update asks of its caller.
type Result struct {
	// Task, if set, must be run and its Message sent back.
	Task Task
	// Quit means the application should exit.
	Quit bool
}

// Dispatcher applies Messages to an editor.State.
type Dispatcher struct {
	files        Files
	opener       Opener
	watcher      Watcher
	showIOErrors bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithOpener sets the URL opener used for LinkClicked.
func WithOpener(o Opener) Option {
	return func(d *Dispatcher) { d.opener = o }
}

// WithWatcher registers opened and saved files with w.
func WithWatcher(w Watcher) Option {
	return func(d *Dispatcher) { d.watcher = w }
}

// WithIOErrorStatus makes failed reads and writes show in the status line.
func WithIOErrorStatus(on bool) Option {
	return func(d *Dispatcher) { d.showIOErrors = on }
}

// NewDispatcher creates a Dispatcher backed by files.
func NewDispatcher(files Files, opts ...Option) *Dispatcher {
	d := &Dispatcher{files: files}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Update applies msg to s.
func (d *Dispatcher) Update(s *editor.State, msg Message) Result {
	switch m := msg.(type) {
	case New:
		s.NewFile()
	case Open:
		return Result{Task: d.openTask()}
	case Opened:
		s.OpenFile(m.Path, m.Content)
		d.watch(m.Path)
		s.SetStatus("")
	case Save:
		f := s.Active()
		return Result{Task: d.saveTask(f.ID(), f.Path(), "", f.Text())}
	case SaveAs:
		f := s.Active()
		return Result{Task: d.saveTask(f.ID(), "", suggestName(f.Path()), f.Text())}
	case Saved:
		f := s.FileByID(m.ID)
		if f == nil {
			log.Debugf("Saved file %s was closed before the write finished", m.Path)
			return Result{}
		}
		old := f.Path()
		f.MarkSaved(m.Path, m.Content)
		if old != m.Path {
			d.unwatch(old)
			d.watch(m.Path)
			dropDuplicate(s, f)
		}
		s.SetStatus("Saved " + filepath.Base(m.Path))
	case Close:
		return d.close(s, m.Index)
	case Edit:
		if m.Action == nil || (m.ID != "" && m.ID != s.Active().ID()) {
			return Result{}
		}
		s.ApplyEdit(m.Action)
	case SwitchTab:
		s.SwitchTab(m.Index)
	case NextTab:
		s.NextTab()
	case IncreaseFont:
		s.IncreaseFont()
	case DecreaseFont:
		s.DecreaseFont()
	case ResetFont:
		s.ResetFont()
	case TogglePreview:
		s.TogglePreview()
	case ToggleWordWrap:
		s.ToggleWordWrap()
	case LinkClicked:
		return Result{Task: d.linkTask(m.URL)}
	case IOFailed:
		d.failed(s, m)
	case Loaded:
		if !s.Load(m.ID, m.Path, m.Content) {
			return Result{}
		}
		d.watch(m.Path)
		s.SetStatus("")
	case FileChangedOnDisk:
		if i := s.FindByPath(m.Path); i >= 0 {
			s.Files()[i].MarkChangedOnDisk()
			s.SetStatus(filepath.Base(m.Path) + " changed on disk, Ctrl+R reloads")
		}
	case Reload:
		f := s.Active()
		if f.Path() == "" {
			return Result{}
		}
		return Result{Task: d.reloadTask(f.ID(), f.Path())}
	default:
		log.Warnf("Unhandled message %T", msg)
	}
	return Result{}
}

func (d *Dispatcher) close(s *editor.State, index *int) Result {
	target := s.ActiveIndex()
	if index != nil {
		target = *index
	}
	var path string
	if target >= 0 && target < s.Len() {
		path = s.Files()[target].Path()
	}

	before := s.Len()
	if s.CloseFile(index) {
		log.Debug("Closing the last file, quitting")
		return Result{Quit: true}
	}
	if s.Len() < before && s.FindByPath(path) < 0 {
		d.unwatch(path)
	}
	return Result{}
}

// dropDuplicate keeps one tab per path after f was saved over a file open
// in another tab. A clean duplicate is closed; a dirty one keeps its edits
// but loses the path.
func dropDuplicate(s *editor.State, f *editor.File) {
	want := filepath.Clean(f.Path())
	for i, other := range s.Files() {
		if other == f || other.Path() == "" || filepath.Clean(other.Path()) != want {
			continue
		}
		entry := log.LogWithFields(log.F("path", f.Path()))
		if other.Dirty() {
			other.SetPath("")
			entry.Info("Overwrote a file with unsaved edits in another tab, detached that tab")
			return
		}
		s.CloseFile(&i)
		entry.Debug("Closed the other tab showing the overwritten file")
		return
	}
}

// failed reports an async failure. The state is left as it was.
func (d *Dispatcher) failed(s *editor.State, m IOFailed) {
	entry := log.LogWithError(m.Err).With(log.F("op", string(m.Op)))
	status := fmt.Sprintf("%s failed: %v", m.Op, m.Err)
	switch {
	case errors.IsCancelled(m.Err):
		entry.Debug("Dialog cancelled")
		return
	case errors.IsFileNotFound(m.Err):
		// usually a file deleted behind our back, not a fault
		entry.Info("File not found")
		status = fmt.Sprintf("%s: file not found", m.Op)
	case errors.IsReadFailure(m.Err):
		entry.Warn("Read failed")
	case errors.IsWriteFailure(m.Err):
		entry.Warn("Write failed")
	default:
		entry.Warn("File operation failed")
	}
	if d.showIOErrors {
		s.SetStatus(status)
	}
}

func (d *Dispatcher) openTask() Task {
	return func(ctx context.Context) Message {
		path, content, err := d.files.PickAndRead(ctx)
		if err != nil {
			return IOFailed{Op: OpOpen, Err: err}
		}
		return Opened{Path: path, Content: content}
	}
}

func (d *Dispatcher) saveTask(id, path, suggested, content string) Task {
	return func(ctx context.Context) Message {
		if path != "" && d.watcher != nil {
			d.watcher.Ignore(path)
		}
		written, err := d.files.Write(ctx, path, suggested, content)
		if err != nil {
			return IOFailed{Op: OpSave, Err: err}
		}
		return Saved{ID: id, Path: written, Content: content}
	}
}

func (d *Dispatcher) reloadTask(id, path string) Task {
	return func(ctx context.Context) Message {
		content, err := d.files.Read(ctx, path)
		if err != nil {
			return IOFailed{Op: OpReload, Err: err}
		}
		return Loaded{ID: id, Path: path, Content: content}
	}
}

// StartupTask names the active file after path, the file given on the
// command line, and returns the task that reads it in. A path that does not
// exist yet gets no task; saving creates it.
func (d *Dispatcher) StartupTask(s *editor.State, path string) Task {
	if path == "" {
		return nil
	}
	s.SetActivePath(path)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.LogWithFields(log.F("path", path)).Debug("Startup file does not exist yet")
		return nil
	}
	return d.reloadTask(s.Active().ID(), path)
}

func (d *Dispatcher) linkTask(url string) Task {
	return func(ctx context.Context) Message {
		if d.opener == nil {
			return IOFailed{Op: OpLink, Err: errors.Newf("no opener for %s", url)}
		}
		if err := d.opener.Open(url); err != nil {
			return IOFailed{Op: OpLink, Err: errors.Wrapf(err, "opening %s", url)}
		}
		return nil
	}
}

func (d *Dispatcher) watch(path string) {
	if d.watcher == nil || path == "" {
		return
	}
	if err := d.watcher.Add(path); err != nil {
		log.LogWithError(err).With(log.F("path", path)).Debug("Not watching file")
	}
}

func (d *Dispatcher) unwatch(path string) {
	if d.watcher == nil || path == "" {
		return
	}
	if err := d.watcher.Remove(path); err != nil {
		log.LogWithError(err).With(log.F("path", path)).Debug("Unwatch failed")
	}
}

func suggestName(path string) string {
	if path == "" {
		return "untitled.md"
	}
	return filepath.Base(path)
}
