package dispatch

import (
	"strings"

	"marky/internal/errors"
)

// Key is a key chord. Name is the key itself, upper case for letters
// ("S", "0", "=", "Tab").
type Key struct {
	Name  string
	Ctrl  bool
	Shift bool
	Alt   bool
}

func (k Key) String() string {
	var parts []string
	if k.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if k.Shift {
		parts = append(parts, "Shift")
	}
	if k.Alt {
		parts = append(parts, "Alt")
	}
	return strings.Join(append(parts, k.Name), "+")
}

// ParseKey reads chords like "ctrl+shift+s" or "Alt+Z". Modifier names are
// case insensitive.
func ParseKey(s string) (Key, error) {
	var k Key
	fields := strings.Split(s, "+")
	// "ctrl++" and "ctrl+-" name the plus and minus keys
	if strings.HasSuffix(s, "++") {
		fields = append(strings.Split(strings.TrimSuffix(s, "++"), "+"), "+")
	}
	for i, f := range fields {
		if i == len(fields)-1 {
			if f == "" {
				return Key{}, errors.Newf("key %q has no key name", s)
			}
			k.Name = normalizeName(f)
			break
		}
		switch strings.ToLower(f) {
		case "ctrl", "control":
			k.Ctrl = true
		case "shift":
			k.Shift = true
		case "alt", "option":
			k.Alt = true
		default:
			return Key{}, errors.Newf("unknown modifier %q in %q", f, s)
		}
	}
	return k, nil
}

func normalizeName(name string) string {
	if len([]rune(name)) == 1 {
		return strings.ToUpper(name)
	}
	switch strings.ToLower(name) {
	case "tab":
		return "Tab"
	case "plus":
		return "+"
	case "minus":
		return "-"
	case "equal":
		return "="
	}
	return name
}

// Binding ties a chord to the message it sends.
type Binding struct {
	Key  Key
	Msg  Message
	Help string
}

// Keymap resolves chords to messages. Both front ends share it.
type Keymap struct {
	bindings []Binding
	index    map[Key]Message
}

// DefaultBindings returns the standard editor bindings.
func DefaultBindings() []Binding {
	ctrl := func(name string) Key { return Key{Name: name, Ctrl: true} }
	return []Binding{
		{ctrl("O"), Open{}, "open"},
		{ctrl("N"), New{}, "new"},
		{Key{Name: "S", Ctrl: true, Shift: true}, SaveAs{}, "save as"},
		{ctrl("S"), Save{}, "save"},
		{ctrl("W"), Close{}, "close"},
		{ctrl("P"), TogglePreview{}, "preview"},
		{ctrl("="), IncreaseFont{}, "font +"},
		{ctrl("-"), DecreaseFont{}, "font -"},
		{ctrl("0"), ResetFont{}, "font reset"},
		{Key{Name: "Z", Alt: true}, ToggleWordWrap{}, "wrap"},
		{ctrl("R"), Reload{}, "reload"},
		{ctrl("Tab"), NextTab{}, "next tab"},
	}
}

// NewKeymap indexes bindings. Later bindings win for a repeated chord.
func NewKeymap(bindings []Binding) *Keymap {
	km := &Keymap{bindings: bindings, index: make(map[Key]Message, len(bindings))}
	for _, b := range bindings {
		km.index[b.Key] = b.Msg
	}
	// Ctrl+Shift+= is how Ctrl++ arrives on most layouts
	if msg, ok := km.index[Key{Name: "=", Ctrl: true}]; ok {
		if _, taken := km.index[Key{Name: "+", Ctrl: true}]; !taken {
			km.index[Key{Name: "+", Ctrl: true}] = msg
		}
		if _, taken := km.index[Key{Name: "=", Ctrl: true, Shift: true}]; !taken {
			km.index[Key{Name: "=", Ctrl: true, Shift: true}] = msg
		}
	}
	return km
}

// Lookup returns the message bound to k.
func (km *Keymap) Lookup(k Key) (Message, bool) {
	msg, ok := km.index[k]
	return msg, ok
}

// Bindings returns the bindings in declaration order.
func (km *Keymap) Bindings() []Binding {
	return km.bindings
}
