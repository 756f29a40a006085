// Package editor holds the in-memory editor state: the open files in tab
// order, which one is active, the view mode and the view settings. All
// methods expect to be called from a single owner; nothing here locks.
package editor

import (
	"path/filepath"

	"marky/internal/buffer"
	"marky/internal/config"
)

// Mode selects what the active file shows.
type Mode int

const (
	ModeEdit Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "Preview"
	}
	return "Edit"
}

// State is the editor state. files is never empty.
type State struct {
	files    []*File
	active   int
	mode     Mode
	fontSize int
	// fontDefault is what ResetFont returns to
	fontDefault int
	wordWrap    bool
	status      string
}

// Option configures a new State.
type Option func(*State)

// WithFontSize sets the initial and reset font size, clamped.
func WithFontSize(size int) Option {
	return func(s *State) {
		s.fontDefault = config.ClampFontSize(size)
		s.fontSize = s.fontDefault
	}
}

// WithWordWrap sets the initial word wrap flag.
func WithWordWrap(on bool) Option {
	return func(s *State) { s.wordWrap = on }
}

// NewState creates the boot state: one empty file, Edit mode.
func NewState(opts ...Option) *State {
	s := &State{
		files:       []*File{NewEmptyFile()},
		fontSize:    config.DefaultFontSize,
		fontDefault: config.DefaultFontSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Files returns the open files in tab order. The slice must not be modified.
func (s *State) Files() []*File { return s.files }

// Len returns the number of open files.
func (s *State) Len() int { return len(s.files) }

// ActiveIndex returns the index of the active file.
func (s *State) ActiveIndex() int { return s.active }

// Active returns the active file.
func (s *State) Active() *File { return s.files[s.active] }

// Mode returns the current view mode.
func (s *State) Mode() Mode { return s.mode }

// FontSize returns the editor font size.
func (s *State) FontSize() int { return s.fontSize }

// WordWrap reports whether long lines wrap.
func (s *State) WordWrap() bool { return s.wordWrap }

// Status returns the status line message, if any.
func (s *State) Status() string { return s.status }

// SetStatus sets the status line message.
func (s *State) SetStatus(msg string) { s.status = msg }

// NewFile appends an empty file and makes it active.
func (s *State) NewFile() {
	s.files = append(s.files, NewEmptyFile())
	s.active = len(s.files) - 1
}

// CloseFile closes the file at index, or the active file when index is nil.
// Closing the only file removes nothing and returns true: the caller should
// terminate the application. An out of range index is ignored.
func (s *State) CloseFile(index *int) (terminate bool) {
	target := s.active
	if index != nil {
		target = *index
	}
	if target < 0 || target >= len(s.files) {
		return false
	}
	if len(s.files) == 1 {
		return true
	}

	s.files = append(s.files[:target], s.files[target+1:]...)

	switch {
	case target < s.active:
		// keep the same file active at its new index
		s.active--
	case s.active >= len(s.files):
		// closed the last tab while it was active: its left neighbour
		s.active = len(s.files) - 1
	}
	// target == active otherwise: the right neighbour slid into place
	s.refreshIfPreviewing()
	return false
}

// OpenFile activates the file already open at path, replacing its content,
// or appends a new file holding content.
func (s *State) OpenFile(path, content string) {
	if i := s.FindByPath(path); i >= 0 {
		s.files[i].SetContent(content)
		s.active = i
		s.refreshIfPreviewing()
		return
	}
	s.files = append(s.files, NewFile(content, path))
	s.active = len(s.files) - 1
	s.refreshIfPreviewing()
}

// Load puts freshly read content into the file with id, wherever its tab is
// now. It reports false when that file has been closed.
func (s *State) Load(id, path, content string) bool {
	i := s.IndexOf(id)
	if i < 0 {
		return false
	}
	f := s.files[i]
	f.SetContent(content)
	if path != "" {
		f.SetPath(path)
	}
	if i == s.active {
		s.refreshIfPreviewing()
	}
	return true
}

// SwitchTab activates index; out of range is a no-op.
func (s *State) SwitchTab(index int) {
	if index < 0 || index >= len(s.files) {
		return
	}
	s.active = index
	s.refreshIfPreviewing()
}

// NextTab activates the tab after the active one, wrapping around.
func (s *State) NextTab() {
	s.SwitchTab((s.active + 1) % len(s.files))
}

// ApplyEdit applies action to the active file.
func (s *State) ApplyEdit(action buffer.Action) {
	s.Active().ApplyEdit(action)
}

// SetActivePath records path on the active file.
func (s *State) SetActivePath(path string) {
	s.Active().SetPath(path)
}

// TogglePreview flips between Edit and Preview. Entering Preview refreshes
// the active file's preview first.
func (s *State) TogglePreview() {
	if s.mode == ModeEdit {
		s.Active().RefreshPreview()
		s.mode = ModePreview
		return
	}
	s.mode = ModeEdit
}

// refreshIfPreviewing keeps the shown preview current when a different or
// reloaded file becomes visible while in Preview mode.
func (s *State) refreshIfPreviewing() {
	if s.mode == ModePreview {
		s.Active().RefreshPreview()
	}
}

// IncreaseFont grows the font by one step, up to MaxFontSize.
func (s *State) IncreaseFont() {
	s.fontSize = config.ClampFontSize(s.fontSize + config.FontStep)
}

// DecreaseFont shrinks the font by one step, down to MinFontSize.
func (s *State) DecreaseFont() {
	s.fontSize = config.ClampFontSize(s.fontSize - config.FontStep)
}

// ResetFont restores the default font size.
func (s *State) ResetFont() {
	s.fontSize = s.fontDefault
}

// ToggleWordWrap flips word wrap.
func (s *State) ToggleWordWrap() {
	s.wordWrap = !s.wordWrap
}

// FileByID returns the file with id, or nil once it has been closed.
func (s *State) FileByID(id string) *File {
	if i := s.IndexOf(id); i >= 0 {
		return s.files[i]
	}
	return nil
}

// IndexOf returns the tab index of the file with id, or -1.
func (s *State) IndexOf(id string) int {
	for i, f := range s.files {
		if f.id == id {
			return i
		}
	}
	return -1
}

// FindByPath returns the index of the file open at path, or -1.
func (s *State) FindByPath(path string) int {
	if path == "" {
		return -1
	}
	want := filepath.Clean(path)
	for i, f := range s.files {
		if f.path != "" && filepath.Clean(f.path) == want {
			return i
		}
	}
	return -1
}

// Paths returns the paths of all saved files.
func (s *State) Paths() []string {
	var out []string
	for _, f := range s.files {
		if f.path != "" {
			out = append(out, f.path)
		}
	}
	return out
}
