package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"marky/internal/dispatch"
	"marky/internal/log"

	"github.com/fsnotify/fsnotify"
)

// DefaultIgnoreWindow is how long after Ignore(path) events for path are
// treated as our own.
const DefaultIgnoreWindow = time.Second

// Change is an outside modification of a watched file
type Change struct {
	Path      string
	Op        fsnotify.Op
	Timestamp time.Time
}

// Watcher follows individual files for changes using fsnotify. It watches
// their parent directories so that editors which save by renaming a new
// file into place are still seen.
type Watcher struct {
	// Watched files by cleaned path
	files map[string]bool

	// Watched directories with the number of files in each
	dirs map[string]int

	// Paths whose events are suppressed until the given time
	ignore map[string]time.Time

	ignoreWindow time.Duration

	// Channel to receive changes
	changes chan Change

	// Channel to signal stop
	stopChan chan struct{}

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	mutex sync.Mutex

	running bool
	// closed once Stop has released the fsnotify watcher
	closed bool

	// now is replaceable in tests
	now func() time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnoreWindow sets how long self-write suppression lasts.
func WithIgnoreWindow(d time.Duration) Option {
	return func(w *Watcher) { w.ignoreWindow = d }
}

// New creates a file watcher using fsnotify
func New(opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		files:        make(map[string]bool),
		dirs:         make(map[string]int),
		ignore:       make(map[string]time.Time),
		ignoreWindow: DefaultIgnoreWindow,
		changes:      make(chan Change, 16),
		stopChan:     make(chan struct{}),
		fsWatcher:    fsWatcher,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// NewStarted creates a watcher and starts it. A watcher that fails to start
// is stopped before the error is returned.
func NewStarted(opts ...Option) (*Watcher, error) {
	w, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

// Add starts following path. Adding a path twice is harmless.
func (w *Watcher) Add(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.files[path] {
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
		}
	}
	w.files[path] = true
	w.dirs[dir]++
	log.LogWithFields(log.F("file", path)).Debug("Watching file")
	return nil
}

// Remove stops following path.
func (w *Watcher) Remove(path string) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.files[path] {
		return nil
	}
	delete(w.files, path)
	delete(w.ignore, path)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return nil
	}
	delete(w.dirs, dir)
	if err := w.fsWatcher.Remove(dir); err != nil {
		return fmt.Errorf("failed to remove directory %s from watcher: %w", dir, err)
	}
	return nil
}

// Ignore suppresses events for path for the ignore window. Call it just
// before writing path ourselves.
func (w *Watcher) Ignore(path string) {
	w.mutex.Lock()
	w.ignore[filepath.Clean(path)] = w.now().Add(w.ignoreWindow)
	w.mutex.Unlock()
}

// Files returns the watched paths.
func (w *Watcher) Files() []string {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Changes delivers outside modifications of watched files.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Start begins processing fsnotify events
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.closed {
		w.mutex.Unlock()
		return fmt.Errorf("watcher is stopped")
	}
	if w.running {
		w.mutex.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mutex.Unlock()

	go func() {
		defer close(w.changes)
		log.Debug("Watcher event loop started")

		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if change, ok := w.filter(event); ok {
					// never block the fsnotify loop on a slow consumer
					select {
					case w.changes <- change:
					default:
						log.LogWithFields(log.F("file", change.Path)).Warn("Change channel is full, dropped event")
					}
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				log.Debug("Watcher event loop received stop signal")
				return
			}
		}
	}()

	return nil
}

// filter turns a raw event into a Change for a watched, not ignored file.
func (w *Watcher) filter(event fsnotify.Event) (Change, bool) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return Change{}, false
	}
	path := filepath.Clean(event.Name)

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.files[path] {
		return Change{}, false
	}
	now := w.now()
	if until, ok := w.ignore[path]; ok {
		if now.Before(until) {
			return Change{}, false
		}
		delete(w.ignore, path)
	}
	return Change{Path: path, Op: event.Op, Timestamp: now}, true
}

// Stop halts the watcher and releases the fsnotify watcher, whether or not
// it was started. The Changes channel closes once the event loop has exited.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	if w.running {
		close(w.stopChan)
		w.running = false
	}
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.running
}

// Forward posts a FileChangedOnDisk for every change until the watcher stops.
func Forward(w *Watcher, send func(dispatch.Message)) {
	for change := range w.Changes() {
		send(dispatch.FileChangedOnDisk{Path: change.Path})
	}
}
