package tui

import (
	"strings"

	"marky/internal/buffer"
	"marky/internal/dispatch"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// terminalBindings cover chords most terminals cannot send: Ctrl+Shift,
// Ctrl+= and friends arrive as plain keys or not at all.
func terminalBindings() []dispatch.Binding {
	alt := func(name string) dispatch.Key { return dispatch.Key{Name: name, Alt: true} }
	return []dispatch.Binding{
		{Key: alt("S"), Msg: dispatch.SaveAs{}, Help: "save as"},
		{Key: alt("="), Msg: dispatch.IncreaseFont{}, Help: "font +"},
		{Key: alt("-"), Msg: dispatch.DecreaseFont{}, Help: "font -"},
		{Key: alt("0"), Msg: dispatch.ResetFont{}, Help: "font reset"},
		{Key: alt("N"), Msg: dispatch.NextTab{}, Help: "next tab"},
	}
}

// NewKeymap returns the editor keymap extended with terminal friendly
// aliases.
func NewKeymap() *dispatch.Keymap {
	return dispatch.NewKeymap(append(dispatch.DefaultBindings(), terminalBindings()...))
}

// chord converts a key press with Ctrl or Alt held into a keymap chord.
func chord(msg tea.KeyMsg) (dispatch.Key, bool) {
	if msg.Paste {
		return dispatch.Key{}, false
	}
	s := msg.String()
	if !strings.HasPrefix(s, "ctrl+") && !strings.HasPrefix(s, "alt+") {
		return dispatch.Key{}, false
	}
	k, err := dispatch.ParseKey(s)
	if err != nil {
		return dispatch.Key{}, false
	}
	return k, true
}

// editAction maps a key press in the editor to a buffer action, or nil.
// page is the number of lines PgUp and PgDown move.
func editAction(msg tea.KeyMsg, cur buffer.Pos, page int) buffer.Action {
	if msg.Paste {
		return buffer.Insert{Text: string(msg.Runes)}
	}
	switch msg.Type {
	case tea.KeyRunes:
		if msg.Alt {
			return nil
		}
		return buffer.Insert{Text: string(msg.Runes)}
	case tea.KeySpace:
		return buffer.Insert{Text: " "}
	case tea.KeyEnter:
		return buffer.Insert{Text: "\n"}
	case tea.KeyTab:
		return buffer.Insert{Text: "\t"}
	case tea.KeyBackspace:
		return buffer.Backspace{}
	case tea.KeyDelete:
		return buffer.Delete{}
	case tea.KeyLeft:
		return buffer.Move{Motion: buffer.Left}
	case tea.KeyRight:
		return buffer.Move{Motion: buffer.Right}
	case tea.KeyUp:
		return buffer.Move{Motion: buffer.Up}
	case tea.KeyDown:
		return buffer.Move{Motion: buffer.Down}
	case tea.KeyHome:
		return buffer.Move{Motion: buffer.Home}
	case tea.KeyEnd:
		return buffer.Move{Motion: buffer.End}
	case tea.KeyCtrlHome:
		return buffer.Move{Motion: buffer.DocStart}
	case tea.KeyCtrlEnd:
		return buffer.Move{Motion: buffer.DocEnd}
	case tea.KeyCtrlLeft:
		return buffer.Move{Motion: buffer.WordLeft}
	case tea.KeyCtrlRight:
		return buffer.Move{Motion: buffer.WordRight}
	case tea.KeyPgUp:
		return buffer.MoveTo{Pos: buffer.Pos{Line: cur.Line - page, Col: cur.Col}}
	case tea.KeyPgDown:
		return buffer.MoveTo{Pos: buffer.Pos{Line: cur.Line + page, Col: cur.Col}}
	}
	return nil
}

// keyMap feeds the help bar.
type keyMap struct {
	Paste    key.Binding
	CopyLine key.Binding
	Help     key.Binding
	Quit     key.Binding

	editor []key.Binding
}

func newKeyMap(km *dispatch.Keymap) keyMap {
	k := keyMap{
		Paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste"),
		),
		CopyLine: key.NewBinding(
			key.WithKeys("alt+c"),
			key.WithHelp("alt+c", "copy line"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
	}
	for _, b := range km.Bindings() {
		name := strings.ToLower(b.Key.String())
		k.editor = append(k.editor, key.NewBinding(
			key.WithKeys(name),
			key.WithHelp(name, b.Help),
		))
	}
	return k
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	short := []key.Binding{k.Help, k.Quit}
	if len(k.editor) >= 5 {
		// open, new, save as, save, close
		short = append(k.editor[:5:5], short...)
	}
	return short
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	var cols [][]key.Binding
	for i := 0; i < len(k.editor); i += 6 {
		cols = append(cols, k.editor[i:min(i+6, len(k.editor))])
	}
	return append(cols, []key.Binding{k.Paste, k.CopyLine, k.Help, k.Quit})
}
