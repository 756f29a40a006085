//go:build !nogui

package gui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// editorTheme wraps the default theme to apply an optional fixed light or
// dark variant and, when textSize is set, the editor font size.
type editorTheme struct {
	base    fyne.Theme
	variant *fyne.ThemeVariant

	mu sync.RWMutex
	// textSize zero keeps the base sizes
	textSize float32
}

func newEditorTheme(name string, size int) *editorTheme {
	t := &editorTheme{base: theme.DefaultTheme(), textSize: float32(size)}
	switch name {
	case "dark":
		v := theme.VariantDark
		t.variant = &v
	case "light":
		v := theme.VariantLight
		t.variant = &v
	}
	return t
}

func (t *editorTheme) setTextSize(size float32) {
	t.mu.Lock()
	t.textSize = size
	t.mu.Unlock()
}

func (t *editorTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.variant != nil {
		variant = *t.variant
	}
	return t.base.Color(name, variant)
}

func (t *editorTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *editorTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *editorTheme) Size(name fyne.ThemeSizeName) float32 {
	t.mu.RLock()
	size := t.textSize
	t.mu.RUnlock()
	if size == 0 {
		return t.base.Size(name)
	}

	base := t.base.Size(theme.SizeNameText)
	switch name {
	case theme.SizeNameText:
		return size
	case theme.SizeNameHeadingText, theme.SizeNameSubHeadingText:
		// keep headings proportional to the body text
		return t.base.Size(name) * size / base
	}
	return t.base.Size(name)
}
