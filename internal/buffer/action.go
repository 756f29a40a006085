package buffer

// Motion is a cursor movement.
type Motion int

const (
	Left Motion = iota
	Right
	Up
	Down
	Home
	End
	DocStart
	DocEnd
	WordLeft
	WordRight
)

var motionNames = [...]string{"left", "right", "up", "down", "home", "end", "doc-start", "doc-end", "word-left", "word-right"}

func (m Motion) String() string {
	if int(m) < len(motionNames) {
		return motionNames[m]
	}
	return "unknown"
}

// Action is one edit applied to a Buffer. The set is closed: Insert,
// Backspace, Delete and Replace change text; Move and MoveTo only move the
// cursor.
type Action interface {
	apply(b *Buffer) bool
	// Mutates reports whether the action kind can change text.
	Mutates() bool
}

// Insert types Text at the cursor. Text may span lines.
type Insert struct{ Text string }

// Backspace removes the rune before the cursor, joining lines at column 0.
type Backspace struct{}

// Delete removes the rune under the cursor, joining lines at line end.
type Delete struct{}

// Replace swaps the whole document for Text, keeping the cursor clamped.
// It is how widgets that own their own text report edits.
type Replace struct{ Text string }

// Move moves the cursor by a Motion.
type Move struct{ Motion Motion }

// MoveTo places the cursor at Pos, clamped into the document.
type MoveTo struct{ Pos Pos }

func (a Insert) apply(b *Buffer) bool    { return b.insert(a.Text) }
func (a Backspace) apply(b *Buffer) bool { return b.backspace() }
func (a Delete) apply(b *Buffer) bool    { return b.deleteForward() }
func (a Replace) apply(b *Buffer) bool   { return b.replace(a.Text) }

func (a Move) apply(b *Buffer) bool {
	b.move(a.Motion)
	return false
}

func (a MoveTo) apply(b *Buffer) bool {
	b.cursor = b.clamp(a.Pos)
	b.goalCol = -1
	return false
}

func (Insert) Mutates() bool    { return true }
func (Backspace) Mutates() bool { return true }
func (Delete) Mutates() bool    { return true }
func (Replace) Mutates() bool   { return true }
func (Move) Mutates() bool      { return false }
func (MoveTo) Mutates() bool    { return false }
