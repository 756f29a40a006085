package dispatch

import (
	"context"

	"marky/internal/buffer"
)

// Message is anything the dispatcher can apply. The set is closed.
type Message interface {
	message()
}

// Task is deferred work. It runs off the event loop and its result is fed
// back in as a Message. A nil Message means there is nothing to report.
type Task func(ctx context.Context) Message

// Op names the operation an IOFailed came from.
type Op string

const (
	OpOpen   Op = "open"
	OpSave   Op = "save"
	OpReload Op = "reload"
	OpLink   Op = "link"

	// OpClipboard is used by front ends that reach the system clipboard.
	OpClipboard Op = "clipboard"
)

type (
	// New opens an empty tab.
	New struct{}
	// Open asks for a file and loads it.
	Open struct{}
	// Opened carries a file read by an Open task.
	Opened struct {
		Path    string
		Content string
	}
	// Save writes the active file, asking for a path if it has none.
	Save struct{}
	// SaveAs always asks for a path.
	SaveAs struct{}
	// Saved reports a completed write of Content for the file with ID.
	Saved struct {
		ID      string
		Path    string
		Content string
	}
	// Close closes the tab at Index, or the active tab when Index is nil.
	Close struct{ Index *int }
	// Edit applies an action to the active buffer. ID, when set, is the
	// file the edit was made in; the edit is dropped if that file is no
	// longer active.
	Edit struct {
		ID     string
		Action buffer.Action
	}
	// SwitchTab activates the tab at Index.
	SwitchTab struct{ Index int }
	// NextTab activates the tab to the right, wrapping.
	NextTab struct{}

	IncreaseFont   struct{}
	DecreaseFont   struct{}
	ResetFont      struct{}
	TogglePreview  struct{}
	ToggleWordWrap struct{}

	// LinkClicked opens URL with the system handler.
	LinkClicked struct{ URL string }
	// IOFailed reports a failed or cancelled task. It never changes state.
	IOFailed struct {
		Op  Op
		Err error
	}
	// Loaded carries content read for an existing file, by ID.
	Loaded struct {
		ID      string
		Path    string
		Content string
	}
	// FileChangedOnDisk reports an outside write to an open file.
	FileChangedOnDisk struct{ Path string }
	// Reload re-reads the active file from disk.
	Reload struct{}
)

func (New) message()               {}
func (Open) message()              {}
func (Opened) message()            {}
func (Save) message()              {}
func (SaveAs) message()            {}
func (Saved) message()             {}
func (Close) message()             {}
func (Edit) message()              {}
func (SwitchTab) message()         {}
func (NextTab) message()           {}
func (IncreaseFont) message()      {}
func (DecreaseFont) message()      {}
func (ResetFont) message()         {}
func (TogglePreview) message()     {}
func (ToggleWordWrap) message()    {}
func (LinkClicked) message()       {}
func (IOFailed) message()          {}
func (Loaded) message()            {}
func (FileChangedOnDisk) message() {}
func (Reload) message()            {}
