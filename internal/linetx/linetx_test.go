package linetx

import (
	"reflect"
	"testing"
)

func TestLineSpan(t *testing.T) {
	doc := []rune("foo\nbar\nbaz")
	cases := []struct {
		name string
		sel  Range
		want Range
	}{
		{"caret in first line", Range{1, 0}, Range{0, 4}},
		{"caret at line start", Range{4, 0}, Range{4, 4}},
		{"across two lines", Range{2, 3}, Range{0, 8}},
		{"full first line with terminator", Range{0, 4}, Range{0, 4}},
		{"unterminated last line", Range{9, 1}, Range{8, 3}},
		{"caret at document end", Range{11, 0}, Range{8, 3}},
		{"out of bounds selection", Range{5, 100}, Range{4, 7}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LineSpan(doc, tc.sel); got != tc.want {
				t.Fatalf("LineSpan(%v) = %v, want %v", tc.sel, got, tc.want)
			}
		})
	}
}

func TestLineSpanEmptyDocument(t *testing.T) {
	if got := LineSpan(nil, Range{3, 2}); got != (Range{}) {
		t.Fatalf("LineSpan on empty doc = %v, want zero range", got)
	}
	if got := Lines(nil, Range{}); len(got) != 0 {
		t.Fatalf("Lines on empty doc = %q, want empty", got)
	}
}

func TestLinesDropsTrailingTerminator(t *testing.T) {
	doc := []rune("foo\nbar\n")
	got := Lines(doc, Range{0, len(doc)})
	want := []string{"foo", "bar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesBlankLine(t *testing.T) {
	doc := []rune("foo\n\nbar")
	got := Lines(doc, Range{4, 0})
	want := []string{""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesCaretAfterFinalTerminator(t *testing.T) {
	doc := []rune("foo\n")
	if got := Lines(doc, Range{4, 0}); len(got) != 0 {
		t.Fatalf("Lines = %q, want empty", got)
	}
}

func TestRangeClamp(t *testing.T) {
	if got := (Range{-3, 2}).Clamp(10); got != (Range{0, 2}) {
		t.Fatalf("Clamp negative offset = %v", got)
	}
	if got := (Range{8, 5}).Clamp(10); got != (Range{8, 2}) {
		t.Fatalf("Clamp long range = %v", got)
	}
	if got := (Range{12, 1}).Clamp(10); got != (Range{10, 0}) {
		t.Fatalf("Clamp past end = %v", got)
	}
}
