// Package buffer holds the text of one document as lines of runes plus a
// cursor. Edits are expressed as Actions; applying an action reports whether
// the text changed so callers can track unsaved modifications.
package buffer

import (
	"strings"
	"unicode"
)

// Pos points into the document by (line, column). Both are 0-based and the
// column counts runes.
type Pos struct {
	Line int
	Col  int
}

// Buffer is a mutable text document with a single cursor.
type Buffer struct {
	lines  [][]rune
	cursor Pos
	// preferred column for vertical motion; -1 when unset
	goalCol int
}

// New creates a buffer holding text with the cursor at the start.
func New(text string) *Buffer {
	b := &Buffer{goalCol: -1}
	b.setText(text)
	return b
}

func (b *Buffer) setText(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\n")
	b.lines = make([][]rune, len(parts))
	for i, p := range parts {
		b.lines[i] = []rune(p)
	}
}

// Text returns the full document with '\n' line separators.
func (b *Buffer) Text() string {
	var sb strings.Builder
	for i, l := range b.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(l))
	}
	return sb.String()
}

// Lines returns a copy of the document lines.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = string(l)
	}
	return out
}

// Line returns line i, or "" if i is out of range.
func (b *Buffer) Line(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	return string(b.lines[i])
}

// LineCount returns the number of lines. An empty buffer has one line.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Len returns the size of the document in bytes.
func (b *Buffer) Len() int {
	n := 0
	for i, l := range b.lines {
		if i > 0 {
			n++
		}
		n += len(string(l))
	}
	return n
}

// IsEmpty reports whether the buffer holds no text.
func (b *Buffer) IsEmpty() bool {
	return len(b.lines) == 1 && len(b.lines[0]) == 0
}

// Cursor returns the cursor position.
func (b *Buffer) Cursor() Pos {
	return b.cursor
}

// Apply performs action and reports whether the text changed.
func (b *Buffer) Apply(a Action) bool {
	if a == nil {
		return false
	}
	return a.apply(b)
}

func (b *Buffer) clamp(p Pos) Pos {
	if p.Line < 0 {
		p.Line = 0
	}
	if p.Line >= len(b.lines) {
		p.Line = len(b.lines) - 1
	}
	if p.Col < 0 {
		p.Col = 0
	}
	if n := len(b.lines[p.Line]); p.Col > n {
		p.Col = n
	}
	return p
}

func (b *Buffer) insert(text string) bool {
	if text == "" {
		return false
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	cur := b.clamp(b.cursor)
	line := b.lines[cur.Line]
	head := append([]rune(nil), line[:cur.Col]...)
	tail := append([]rune(nil), line[cur.Col:]...)

	parts := strings.Split(text, "\n")
	if len(parts) == 1 {
		ins := []rune(parts[0])
		b.lines[cur.Line] = append(append(head, ins...), tail...)
		b.cursor = Pos{Line: cur.Line, Col: cur.Col + len(ins)}
		b.goalCol = -1
		return true
	}

	newLines := make([][]rune, 0, len(parts))
	newLines = append(newLines, append(head, []rune(parts[0])...))
	for _, p := range parts[1 : len(parts)-1] {
		newLines = append(newLines, []rune(p))
	}
	last := []rune(parts[len(parts)-1])
	newLines = append(newLines, append(append([]rune(nil), last...), tail...))

	rest := append([][]rune(nil), b.lines[cur.Line+1:]...)
	b.lines = append(append(b.lines[:cur.Line], newLines...), rest...)
	b.cursor = Pos{Line: cur.Line + len(parts) - 1, Col: len(last)}
	b.goalCol = -1
	return true
}

func (b *Buffer) backspace() bool {
	cur := b.clamp(b.cursor)
	b.goalCol = -1
	if cur.Col > 0 {
		line := b.lines[cur.Line]
		b.lines[cur.Line] = append(line[:cur.Col-1:cur.Col-1], line[cur.Col:]...)
		b.cursor = Pos{Line: cur.Line, Col: cur.Col - 1}
		return true
	}
	if cur.Line == 0 {
		return false
	}
	prev := b.lines[cur.Line-1]
	col := len(prev)
	b.lines[cur.Line-1] = append(append([]rune(nil), prev...), b.lines[cur.Line]...)
	b.lines = append(b.lines[:cur.Line], b.lines[cur.Line+1:]...)
	b.cursor = Pos{Line: cur.Line - 1, Col: col}
	return true
}

func (b *Buffer) deleteForward() bool {
	cur := b.clamp(b.cursor)
	b.goalCol = -1
	line := b.lines[cur.Line]
	if cur.Col < len(line) {
		b.lines[cur.Line] = append(line[:cur.Col:cur.Col], line[cur.Col+1:]...)
		b.cursor = cur
		return true
	}
	if cur.Line == len(b.lines)-1 {
		return false
	}
	b.lines[cur.Line] = append(append([]rune(nil), line...), b.lines[cur.Line+1]...)
	b.lines = append(b.lines[:cur.Line+1], b.lines[cur.Line+2:]...)
	b.cursor = cur
	return true
}

func (b *Buffer) replace(text string) bool {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == b.Text() {
		return false
	}
	b.setText(text)
	b.cursor = b.clamp(b.cursor)
	b.goalCol = -1
	return true
}

func (b *Buffer) move(m Motion) {
	cur := b.clamp(b.cursor)
	vertical := false

	switch m {
	case Left:
		if cur.Col > 0 {
			cur.Col--
		} else if cur.Line > 0 {
			cur.Line--
			cur.Col = len(b.lines[cur.Line])
		}
	case Right:
		if cur.Col < len(b.lines[cur.Line]) {
			cur.Col++
		} else if cur.Line < len(b.lines)-1 {
			cur.Line++
			cur.Col = 0
		}
	case Up, Down:
		vertical = true
		if b.goalCol < 0 {
			b.goalCol = cur.Col
		}
		if m == Up && cur.Line > 0 {
			cur.Line--
		} else if m == Down && cur.Line < len(b.lines)-1 {
			cur.Line++
		}
		cur.Col = b.goalCol
	case Home:
		cur.Col = 0
	case End:
		cur.Col = len(b.lines[cur.Line])
	case DocStart:
		cur = Pos{}
	case DocEnd:
		last := len(b.lines) - 1
		cur = Pos{Line: last, Col: len(b.lines[last])}
	case WordLeft:
		cur = b.wordLeft(cur)
	case WordRight:
		cur = b.wordRight(cur)
	}

	if !vertical {
		b.goalCol = -1
	}
	b.cursor = b.clamp(cur)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (b *Buffer) wordLeft(p Pos) Pos {
	if p.Col == 0 {
		if p.Line == 0 {
			return p
		}
		return Pos{Line: p.Line - 1, Col: len(b.lines[p.Line-1])}
	}
	line := b.lines[p.Line]
	i := p.Col
	for i > 0 && !isWordRune(line[i-1]) {
		i--
	}
	for i > 0 && isWordRune(line[i-1]) {
		i--
	}
	return Pos{Line: p.Line, Col: i}
}

func (b *Buffer) wordRight(p Pos) Pos {
	line := b.lines[p.Line]
	if p.Col >= len(line) {
		if p.Line == len(b.lines)-1 {
			return p
		}
		return Pos{Line: p.Line + 1, Col: 0}
	}
	i := p.Col
	for i < len(line) && !isWordRune(line[i]) {
		i++
	}
	for i < len(line) && isWordRune(line[i]) {
		i++
	}
	return Pos{Line: p.Line, Col: i}
}
