package linetx

import (
	"strings"
	"unicode/utf8"
)

// Result describes one applied line edit.
type Result struct {
	// Document is the full text after the edit.
	Document []rune
	// Span is the region of the old document that was replaced.
	Span Range
	// Replacement is the text written over Span.
	Replacement string
	// Selection keeps the user's selection on the same text.
	Selection Range
}

// Apply runs fn over the lines touched by sel and splices the result back
// into doc. It reports false when there are no lines to edit, in which case
// the caller should leave the document alone.
//
// fn must return as many lines as it was given.
func Apply(doc []rune, sel Range, fn Transform) (Result, bool) {
	sel = sel.Clamp(len(doc))
	span := LineSpan(doc, sel)
	spanText := doc[span.Offset:span.End()]
	original := splitSpan(spanText)
	if len(original) == 0 {
		return Result{Document: doc, Span: span, Selection: sel}, false
	}

	processed := fn(original)
	if len(processed) != len(original) {
		panic("linetx: transform changed the number of lines")
	}

	replacement := strings.Join(processed, string(newline))
	if spanText[len(spanText)-1] == newline {
		replacement += string(newline)
	}
	repl := []rune(replacement)

	out := make([]rune, 0, len(doc)-span.Length+len(repl))
	out = append(out, doc[:span.Offset]...)
	out = append(out, repl...)
	out = append(out, doc[span.End():]...)

	return Result{
		Document:    out,
		Span:        span,
		Replacement: replacement,
		Selection:   shiftSelection(sel, span, len(repl), original[0], processed[0]),
	}, true
}

// shiftSelection moves sel across a rewrite of span into replLen runes.
// The start follows the change in length of the first line, never leaving
// the rewritten region; the end follows the total change in length.
func shiftSelection(sel, span Range, replLen int, firstBefore, firstAfter string) Range {
	lengthDelta := span.Length - replLen
	firstLineDelta := utf8.RuneCountInString(firstAfter) - utf8.RuneCountInString(firstBefore)

	offset := sel.Offset + firstLineDelta
	if sel.Length > 0 && sel.Offset == span.Offset {
		offset = span.Offset
	}
	offset = max(span.Offset, offset)
	replEnd := span.Offset + replLen
	offset = min(offset, replEnd)

	end := sel.End() - lengthDelta
	end = min(max(end, offset), replEnd)
	return Range{Offset: offset, Length: end - offset}
}
