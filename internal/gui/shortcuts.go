//go:build !nogui

package gui

import (
	"marky/internal/buffer"
	"marky/internal/dispatch"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// editorEntry is a multi-line entry that offers shortcuts to the keymap
// before handling them itself. A focused widget.Entry swallows every
// shortcut, so canvas shortcuts alone never fire while typing.
type editorEntry struct {
	widget.Entry
	onShortcut func(fyne.Shortcut) bool
}

func newEditorEntry(onShortcut func(fyne.Shortcut) bool) *editorEntry {
	e := &editorEntry{onShortcut: onShortcut}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapOff
	e.TextStyle = fyne.TextStyle{Monospace: true}
	e.ExtendBaseWidget(e)
	return e
}

// TypedShortcut implements fyne.Shortcutable
func (e *editorEntry) TypedShortcut(s fyne.Shortcut) {
	if e.onShortcut != nil && e.onShortcut(s) {
		return
	}
	e.Entry.TypedShortcut(s)
}

// toShortcut converts a keymap chord to a fyne shortcut. Key names in the
// keymap match fyne's KeyName values.
func toShortcut(k dispatch.Key) *desktop.CustomShortcut {
	var mod fyne.KeyModifier
	if k.Ctrl {
		mod |= fyne.KeyModifierControl
	}
	if k.Shift {
		mod |= fyne.KeyModifierShift
	}
	if k.Alt {
		mod |= fyne.KeyModifierAlt
	}
	return &desktop.CustomShortcut{KeyName: fyne.KeyName(k.Name), Modifier: mod}
}

func fromShortcut(s fyne.Shortcut) (dispatch.Key, bool) {
	cs, ok := s.(*desktop.CustomShortcut)
	if !ok {
		return dispatch.Key{}, false
	}
	return dispatch.Key{
		Name:  string(cs.KeyName),
		Ctrl:  cs.Modifier&fyne.KeyModifierControl != 0,
		Shift: cs.Modifier&fyne.KeyModifierShift != 0,
		Alt:   cs.Modifier&fyne.KeyModifierAlt != 0,
	}, true
}

// replaceAction reports the entry's whole text; the entry edits its own
// copy, so the buffer follows it.
func replaceAction(text string) buffer.Action {
	return buffer.Replace{Text: text}
}

func moveToAction(row, col int) buffer.Action {
	return buffer.MoveTo{Pos: buffer.Pos{Line: row, Col: col}}
}
