package editor

import (
	"strings"

	"github.com/kobzarvs/podedit/internal/linetx"
)

// edit is one undo entry.
type edit struct {
	offset int
	old    []rune
	new    []rune
	before linetx.Range
	after  linetx.Range
}

// ChangeFunc is called once after every mutation of the buffer text.
type ChangeFunc func(b *Buffer)

// Buffer hosts the document text and its selection. Offsets and lengths
// count runes.
type Buffer struct {
	text       []rune
	sel        linetx.Range
	undo       []edit
	redo       []edit
	savePoint  int
	changeTick uint64
	listeners  []ChangeFunc
}

func NewBuffer(text string) *Buffer {
	b := &Buffer{}
	b.Reset(text)
	return b
}

func (b *Buffer) Text() string { return string(b.text) }

// Runes exposes the backing slice. Callers must not modify it.
func (b *Buffer) Runes() []rune { return b.text }

func (b *Buffer) Len() int { return len(b.text) }

func (b *Buffer) Selection() linetx.Range { return b.sel }

func (b *Buffer) SetSelection(r linetx.Range) {
	b.sel = r.Clamp(len(b.text))
}

func (b *Buffer) ChangeTick() uint64 { return b.changeTick }

func (b *Buffer) OnChange(fn ChangeFunc) {
	b.listeners = append(b.listeners, fn)
}

// Reset replaces the whole text without recording history or notifying
// listeners. The buffer is clean afterwards.
func (b *Buffer) Reset(text string) {
	b.text = []rune(normalizeNewlines(text))
	b.sel = b.sel.Clamp(len(b.text))
	b.undo = nil
	b.redo = nil
	b.savePoint = 0
	b.changeTick++
}

// Replace swaps the runes in r for text, selects after and records an undo
// entry. Listeners are notified once.
func (b *Buffer) Replace(r linetx.Range, text string, after linetx.Range) {
	b.replace(r, text, after, false)
}

// Insert types text over the selection. Consecutive single-rune inserts
// coalesce into one undo entry.
func (b *Buffer) Insert(text string) {
	r := b.sel
	end := r.Offset + len([]rune(text))
	b.replace(r, text, linetx.Range{Offset: end}, true)
}

func (b *Buffer) replace(r linetx.Range, text string, after linetx.Range, coalesce bool) {
	r = r.Clamp(len(b.text))
	repl := []rune(normalizeNewlines(text))
	old := append([]rune(nil), b.text[r.Offset:r.End()]...)
	if len(old) == 0 && len(repl) == 0 {
		b.SetSelection(after)
		return
	}
	before := b.sel
	b.splice(r.Offset, r.Length, repl)
	b.sel = after.Clamp(len(b.text))

	e := edit{offset: r.Offset, old: old, new: repl, before: before, after: b.sel}
	if coalesce && b.canCoalesce(e) {
		last := &b.undo[len(b.undo)-1]
		last.new = append(last.new, repl...)
		last.after = e.after
	} else {
		if b.savePoint > len(b.undo) {
			b.savePoint = -1
		}
		b.undo = append(b.undo, e)
	}
	b.redo = nil
	b.changed()
}

func (b *Buffer) canCoalesce(e edit) bool {
	if len(b.undo) == 0 || len(b.undo) == b.savePoint {
		return false
	}
	if len(e.old) != 0 || len(e.new) != 1 || e.new[0] == '\n' {
		return false
	}
	last := b.undo[len(b.undo)-1]
	if len(last.old) != 0 || len(last.new) == 0 || last.new[len(last.new)-1] == '\n' {
		return false
	}
	return last.offset+len(last.new) == e.offset
}

func (b *Buffer) splice(offset, length int, repl []rune) {
	out := make([]rune, 0, len(b.text)-length+len(repl))
	out = append(out, b.text[:offset]...)
	out = append(out, repl...)
	out = append(out, b.text[offset+length:]...)
	b.text = out
}

// Undo reverts the last edit and restores the selection it replaced.
func (b *Buffer) Undo() bool {
	if len(b.undo) == 0 {
		return false
	}
	e := b.undo[len(b.undo)-1]
	b.undo = b.undo[:len(b.undo)-1]
	b.splice(e.offset, len(e.new), e.old)
	b.sel = e.before.Clamp(len(b.text))
	b.redo = append(b.redo, e)
	b.changed()
	return true
}

func (b *Buffer) Redo() bool {
	if len(b.redo) == 0 {
		return false
	}
	e := b.redo[len(b.redo)-1]
	b.redo = b.redo[:len(b.redo)-1]
	b.splice(e.offset, len(e.old), e.new)
	b.sel = e.after.Clamp(len(b.text))
	b.undo = append(b.undo, e)
	b.changed()
	return true
}

func (b *Buffer) CanUndo() bool { return len(b.undo) > 0 }
func (b *Buffer) CanRedo() bool { return len(b.redo) > 0 }

// Dirty reports whether the text differs from the last save point.
func (b *Buffer) Dirty() bool { return b.savePoint != len(b.undo) }

func (b *Buffer) MarkSaved() { b.savePoint = len(b.undo) }

func (b *Buffer) changed() {
	b.changeTick++
	for _, fn := range b.listeners {
		fn(b)
	}
}

// LineCount counts lines the way a text view shows them: a trailing
// newline opens one more empty line.
func (b *Buffer) LineCount() int {
	n := 1
	for _, r := range b.text {
		if r == '\n' {
			n++
		}
	}
	return n
}

// Position converts an offset into a zero based row and column.
func (b *Buffer) Position(offset int) (row, col int) {
	if offset > len(b.text) {
		offset = len(b.text)
	}
	start := 0
	for i := 0; i < offset; i++ {
		if b.text[i] == '\n' {
			row++
			start = i + 1
		}
	}
	return row, offset - start
}

// Offset converts a row and column into an offset, clamping both.
func (b *Buffer) Offset(row, col int) int {
	start := b.lineStart(row)
	end := b.lineEnd(start)
	if col < 0 {
		col = 0
	}
	if start+col > end {
		return end
	}
	return start + col
}

// Line returns row without its terminator.
func (b *Buffer) Line(row int) []rune {
	start := b.lineStart(row)
	return b.text[start:b.lineEnd(start)]
}

func (b *Buffer) lineStart(row int) int {
	if row <= 0 {
		return 0
	}
	for i, r := range b.text {
		if r == '\n' {
			row--
			if row == 0 {
				return i + 1
			}
		}
	}
	return b.lastLineStart()
}

func (b *Buffer) lastLineStart() int {
	for i := len(b.text) - 1; i >= 0; i-- {
		if b.text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

func (b *Buffer) lineEnd(start int) int {
	for i := start; i < len(b.text); i++ {
		if b.text[i] == '\n' {
			return i
		}
	}
	return len(b.text)
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
