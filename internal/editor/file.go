package editor

import (
	"path/filepath"

	"marky/internal/buffer"
	"marky/internal/markdown"

	"github.com/google/uuid"
)

// NewFileLabel is shown for files that have never been saved.
const NewFileLabel = "New file"

// DirtyMarker prefixes the label of a file with unsaved changes.
const DirtyMarker = "● "

// File is one open document.
type File struct {
	id      string
	buf     *buffer.Buffer
	path    string
	dirty   bool
	preview []markdown.Block

	changedOnDisk bool
	// generation counts whole-content replacements
	generation uint64
}

// NewEmptyFile returns an unsaved file with no content.
func NewEmptyFile() *File {
	return &File{id: uuid.NewString(), buf: buffer.New("")}
}

// NewFile returns a clean file holding content loaded from path. The
// preview stays empty until RefreshPreview.
func NewFile(content, path string) *File {
	return &File{id: uuid.NewString(), buf: buffer.New(content), path: path}
}

// ID identifies the file for the lifetime of the process. Async results
// address files by ID because tab indices shift.
func (f *File) ID() string { return f.id }

// Path returns the file location, or "" for a new file.
func (f *File) Path() string { return f.path }

// Dirty reports unsaved changes.
func (f *File) Dirty() bool { return f.dirty }

// Buffer exposes the text buffer for rendering.
func (f *File) Buffer() *buffer.Buffer { return f.buf }

// Text returns the buffer content.
func (f *File) Text() string { return f.buf.Text() }

// Preview returns the cached preview blocks. They reflect the buffer as of
// the last RefreshPreview.
func (f *File) Preview() []markdown.Block { return f.preview }

// ChangedOnDisk reports whether another program wrote to the file since it
// was loaded or saved.
func (f *File) ChangedOnDisk() bool { return f.changedOnDisk }

// ApplyEdit applies action to the buffer. Only text changes dirty the file.
func (f *File) ApplyEdit(action buffer.Action) {
	if f.buf.Apply(action) {
		f.dirty = true
	}
}

// RefreshPreview re-parses the buffer into preview blocks.
func (f *File) RefreshPreview() {
	f.preview = markdown.Parse(f.buf.Text())
}

// Generation changes whenever the content is replaced from outside the
// editor, so views holding their own copy of the text know to resync.
func (f *File) Generation() uint64 { return f.generation }

// Label returns the tab title: the file name or NewFileLabel, prefixed with
// DirtyMarker when there are unsaved changes.
func (f *File) Label() string {
	name := NewFileLabel
	if f.path != "" {
		name = filepath.Base(f.path)
	}
	if f.dirty {
		return DirtyMarker + name
	}
	return name
}

// SetContent replaces the whole document with freshly loaded content.
func (f *File) SetContent(content string) {
	f.buf = buffer.New(content)
	f.generation++
	f.dirty = false
	f.preview = nil
	f.changedOnDisk = false
}

// SetPath records where the file lives.
func (f *File) SetPath(path string) {
	f.path = path
}

// MarkSaved records a successful write of content to path. Edits made while
// the write was in flight keep the file dirty.
func (f *File) MarkSaved(path, content string) {
	if path != "" {
		f.path = path
	}
	f.dirty = f.buf.Text() != content
	f.changedOnDisk = false
}

// MarkChangedOnDisk flags an external modification.
func (f *File) MarkChangedOnDisk() {
	f.changedOnDisk = true
}
