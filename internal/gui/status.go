//go:build !nogui

package gui

import (
	"fmt"

	"marky/internal/config"
	"marky/internal/editor"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

// statusBar shows the active file and view settings along the bottom of
// the window.
type statusBar struct {
	container *fyne.Container

	mode     *widget.Label
	position *widget.Label
	size     *widget.Label
	path     *widget.Label
	kind     *widget.Label
	font     *widget.Label
	wrap     *widget.Label
	message  *widget.Label
}

func newStatusBar() *statusBar {
	sb := &statusBar{
		mode:     widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		position: widget.NewLabel(""),
		size:     widget.NewLabel(""),
		path:     widget.NewLabel(""),
		kind:     widget.NewLabel(""),
		font:     widget.NewLabel(""),
		wrap:     widget.NewLabel(""),
		message:  widget.NewLabel(""),
	}
	sb.message.Truncation = fyne.TextTruncateEllipsis
	sb.path.Truncation = fyne.TextTruncateEllipsis
	sb.container = container.NewBorder(nil, nil,
		container.NewHBox(sb.mode, widget.NewSeparator(), sb.position, widget.NewSeparator(), sb.size),
		container.NewHBox(sb.kind, widget.NewSeparator(), sb.font, widget.NewSeparator(), sb.wrap),
		container.NewGridWithColumns(2, sb.path, container.NewHBox(layout.NewSpacer(), sb.message)),
	)
	return sb
}

func (sb *statusBar) update(s *editor.State, cfg *config.Config) {
	f := s.Active()
	buf := f.Buffer()
	cur := buf.Cursor()

	sb.mode.SetText(s.Mode().String())
	sb.position.SetText(fmt.Sprintf("Ln %d, Col %d · %d lines", cur.Line+1, cur.Col+1, buf.LineCount()))
	sb.size.SetText(humanize.Bytes(uint64(buf.Len())))
	sb.path.SetText(f.Path())
	sb.kind.SetText(fileKind(cfg, f.Path()))
	sb.font.SetText(fmt.Sprintf("%dpt", s.FontSize()))
	if s.WordWrap() {
		sb.wrap.SetText("Wrap")
	} else {
		sb.wrap.SetText("No wrap")
	}

	msg := s.Status()
	if msg == "" && f.ChangedOnDisk() {
		msg = "Changed on disk"
	}
	sb.message.SetText(msg)
}

func fileKind(cfg *config.Config, path string) string {
	if cfg.IsMarkdown(path) {
		return "Markdown"
	}
	return "Text"
}
