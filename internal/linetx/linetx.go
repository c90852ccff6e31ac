// Package linetx rewrites whole lines of a document under a selection and
// works out where the selection lands afterwards.
//
// Offsets and lengths are counted in runes. The line terminator is '\n'.
package linetx

import "strings"

const newline = '\n'

// Range is a selection inside a document: Offset runes from the start,
// Length runes long.
type Range struct {
	Offset int
	Length int
}

// End returns the offset just past the range.
func (r Range) End() int {
	return r.Offset + r.Length
}

// Clamp fits r into a document of n runes.
func (r Range) Clamp(n int) Range {
	if n < 0 {
		n = 0
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Offset > n {
		r.Offset = n
	}
	if r.Length < 0 {
		r.Length = 0
	}
	if r.End() > n {
		r.Length = n - r.Offset
	}
	return r
}

// LineSpan expands sel to the full lines it touches, including the trailing
// terminator of the last line when there is one.
func LineSpan(doc []rune, sel Range) Range {
	if len(doc) == 0 {
		return Range{}
	}
	sel = sel.Clamp(len(doc))

	start := sel.Offset
	for start > 0 && doc[start-1] != newline {
		start--
	}

	// The last touched line is the one holding the last selected rune.
	last := sel.Offset
	if sel.Length > 0 {
		last = sel.End() - 1
	}
	end := last
	for end < len(doc) && doc[end] != newline {
		end++
	}
	if end < len(doc) {
		end++
	}
	return Range{Offset: start, Length: end - start}
}

// Lines returns the lines under sel without their terminators.
func Lines(doc []rune, sel Range) []string {
	span := LineSpan(doc, sel)
	return splitSpan(doc[span.Offset:span.End()])
}

func splitSpan(text []rune) []string {
	if len(text) == 0 {
		return []string{}
	}
	s := string(text)
	s = strings.TrimSuffix(s, string(newline))
	return strings.Split(s, string(newline))
}
