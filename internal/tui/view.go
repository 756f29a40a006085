package tui

import (
	"fmt"
	"strconv"
	"strings"

	"marky/internal/buffer"
	"marky/internal/editor"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var body string
	if m.state.Mode() == editor.ModePreview {
		body = m.preview.View()
	} else {
		body = m.editorView()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.tabBar(),
		body,
		m.statusBar(),
		m.bottomLine(),
	)
}

// editorHeight is the number of rows left for the editor or preview.
func (m *Model) editorHeight() int {
	h := m.height - 2 - lipgloss.Height(m.bottomLine())
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) tabBar() string {
	files := m.state.Files()
	tabs := make([]string, len(files))
	for i, f := range files {
		label := f.Label()
		if f.ChangedOnDisk() {
			label += " !"
		}
		if i == m.state.ActiveIndex() {
			tabs[i] = ActiveTabStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m *Model) statusBar() string {
	s := m.state
	f := s.Active()
	buf := f.Buffer()
	cur := buf.Cursor()

	kind := "Text"
	if m.cfg.IsMarkdown(f.Path()) {
		kind = "Markdown"
	}
	wrap := "No wrap"
	if s.WordWrap() {
		wrap = "Wrap"
	}

	left := StatusModeStyle.Render(s.Mode().String()) + " " + StatusStyle.Render(fmt.Sprintf(
		"Ln %d, Col %d · %d lines · %s", cur.Line+1, cur.Col+1, buf.LineCount(), humanize.Bytes(uint64(buf.Len()))))
	if p := f.Path(); p != "" {
		left += " " + StatusStyle.Render(p)
	}
	right := StatusStyle.Render(fmt.Sprintf("%s · %dpt · %s", kind, s.FontSize(), wrap))

	msg := s.Status()
	if msg == "" && f.ChangedOnDisk() {
		msg = "Changed on disk"
	}
	if msg != "" {
		right = ErrorStyle.Render(msg) + "  " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) bottomLine() string {
	if m.prompt != nil {
		return PromptStyle.Render(m.prompt.Title+": ") + m.input.View()
	}
	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}

// row is one screen line of the editor: runes [start, end) of a buffer
// line.
type row struct {
	line, start, end int
}

func (m *Model) gutterWidth() int {
	return len(strconv.Itoa(m.state.Active().Buffer().LineCount())) + 1
}

func (m *Model) textWidth() int {
	w := m.width - m.gutterWidth()
	if w < 1 {
		return 1
	}
	return w
}

// rows lays the active buffer out into screen lines. With word wrap on,
// long lines are split into chunks of the text width; otherwise each
// buffer line is one row.
func (m *Model) rows() []row {
	buf := m.state.Active().Buffer()
	w := m.textWidth()
	var out []row
	for i := 0; i < buf.LineCount(); i++ {
		n := len([]rune(buf.Line(i)))
		if !m.state.WordWrap() {
			out = append(out, row{line: i, start: 0, end: n})
			continue
		}
		// one extra chunk when the line fills the width exactly, so the
		// cursor past its end has a cell
		for start := 0; ; start += w {
			out = append(out, row{line: i, start: start, end: min(start+w, n)})
			if start+w > n {
				break
			}
		}
	}
	return out
}

// cursorRow finds the screen row holding the cursor.
func cursorRow(rows []row, cur buffer.Pos) int {
	for i, r := range rows {
		if r.line != cur.Line {
			continue
		}
		if cur.Col < r.end || (cur.Col == r.end && (i+1 == len(rows) || rows[i+1].line != r.line)) {
			return i
		}
	}
	return 0
}

// scrollToCursor moves the editor viewport so the cursor is visible.
func (m *Model) scrollToCursor() {
	if m.state.Mode() != editor.ModeEdit {
		return
	}
	rows := m.rows()
	cur := m.state.Active().Buffer().Cursor()
	at := cursorRow(rows, cur)
	h := m.editorHeight()

	if at < m.top {
		m.top = at
	} else if at >= m.top+h {
		m.top = at - h + 1
	}
	if m.top > len(rows)-1 {
		m.top = max(len(rows)-1, 0)
	}

	if m.state.WordWrap() {
		m.left = 0
		return
	}
	w := m.textWidth()
	if cur.Col < m.left {
		m.left = cur.Col
	} else if cur.Col >= m.left+w {
		m.left = cur.Col - w + 1
	}
}

func (m *Model) editorView() string {
	buf := m.state.Active().Buffer()
	cur := buf.Cursor()
	rows := m.rows()
	at := cursorRow(rows, cur)
	h := m.editorHeight()
	gutter := m.gutterWidth()
	w := m.textWidth()

	lines := make([]string, 0, h)
	for i := m.top; i < len(rows) && len(lines) < h; i++ {
		r := rows[i]
		num := strings.Repeat(" ", gutter)
		if r.start == 0 {
			num = fmt.Sprintf("%*d ", gutter-1, r.line+1)
		}

		text := []rune(buf.Line(r.line))[r.start:r.end]
		from := 0
		if !m.state.WordWrap() {
			from = min(m.left, len(text))
			text = text[from:min(from+w, len(text))]
		}

		cursorAt := -1
		if i == at {
			cursorAt = cur.Col - r.start - from
		}
		lines = append(lines, LineNumberStyle.Render(num)+renderRow(text, cursorAt))
	}
	for len(lines) < h {
		lines = append(lines, LineNumberStyle.Render(strings.Repeat(" ", gutter-1)+"~"))
	}
	return strings.Join(lines, "\n")
}

// renderRow draws text with the cursor cell at column at, or no cursor
// when at is negative.
func renderRow(text []rune, at int) string {
	show := func(rs []rune) string {
		return strings.ReplaceAll(string(rs), "\t", " ")
	}
	if at < 0 {
		return show(text)
	}
	if at >= len(text) {
		return show(text) + CursorStyle.Render(" ")
	}
	return show(text[:at]) + CursorStyle.Render(show(text[at:at+1])) + show(text[at+1:])
}
