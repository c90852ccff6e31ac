package editor

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/kobzarvs/podedit/internal/config"
)

type styles struct {
	main             tcell.Style
	status           tcell.Style
	message          tcell.Style
	lineNumber       tcell.Style
	lineNumberActive tcell.Style
	lineNumberError  tcell.Style
	selection        tcell.Style
	errorText        tcell.Style
	syntax           map[string]tcell.Style
}

func newStyles(theme config.Theme) styles {
	mainFg := parseColor(theme.Foreground, tcell.ColorWhite)
	mainBg := parseColor(theme.Background, tcell.ColorBlack)
	statusFg := parseColor(theme.StatuslineForeground, tcell.ColorBlack)
	statusBg := parseColor(theme.StatuslineBackground, tcell.ColorGray)
	messageFg := parseColor(theme.MessageForeground, mainFg)
	messageBg := parseColor(theme.MessageBackground, mainBg)
	lineNumberFg := parseColor(theme.LineNumberForeground, tcell.ColorGray)
	lineNumberActiveFg := parseColor(theme.LineNumberActiveForeground, mainFg)
	selectionFg := parseColor(theme.SelectionForeground, mainFg)
	selectionBg := parseColor(theme.SelectionBackground, blend(mainBg, mainFg, 0.25))
	errorFg := parseColor(theme.ErrorForeground, tcell.ColorRed)

	base := tcell.StyleDefault.Background(mainBg)
	syntax := map[string]tcell.Style{
		"number":      base.Foreground(parseColor(theme.SyntaxNumber, mainFg)),
		"string":      base.Foreground(parseColor(theme.SyntaxString, mainFg)),
		"comment":     base.Foreground(parseColor(theme.SyntaxComment, mainFg)),
		"keyword":     base.Foreground(parseColor(theme.SyntaxKeyword, mainFg)),
		"variable":    base.Foreground(parseColor(theme.SyntaxVariable, mainFg)),
		"instruction": base.Foreground(parseColor(theme.SyntaxInstruction, mainFg)),
		"constant":    base.Foreground(parseColor(theme.SyntaxConstant, mainFg)),
	}
	return styles{
		main:             base.Foreground(mainFg),
		status:           tcell.StyleDefault.Foreground(statusFg).Background(statusBg),
		message:          tcell.StyleDefault.Foreground(messageFg).Background(messageBg),
		lineNumber:       base.Foreground(lineNumberFg),
		lineNumberActive: base.Foreground(lineNumberActiveFg),
		lineNumberError:  base.Foreground(errorFg),
		selection:        tcell.StyleDefault.Foreground(selectionFg).Background(selectionBg),
		errorText:        base.Foreground(errorFg).Underline(true),
		syntax:           syntax,
	}
}

func (e *Editor) styleForHighlight(kind string) (tcell.Style, bool) {
	style, ok := e.styles.syntax[kind]
	return style, ok
}

func highlightPriority(kind string) int {
	switch kind {
	case "comment":
		return 7
	case "string":
		return 6
	case "keyword":
		return 5
	case "constant":
		return 4
	case "instruction":
		return 3
	case "number":
		return 3
	case "variable":
		return 2
	default:
		return 0
	}
}

func highlightKindAt(spans []HighlightSpan, col int) (string, bool) {
	bestKind := ""
	bestPriority := 0
	for _, span := range spans {
		if col < span.StartCol || col >= span.EndCol {
			continue
		}
		if p := highlightPriority(span.Kind); p > bestPriority {
			bestPriority = p
			bestKind = span.Kind
		}
	}
	return bestKind, bestKind != ""
}

// Render draws the text area, the status line and the message line.
func (e *Editor) Render(s tcell.Screen) {
	w, h := s.Size()
	if w <= 0 || h <= 0 {
		return
	}
	viewHeight := max(h-2, 0)
	e.viewHeight = viewHeight
	caret := e.caret()
	caretRow, caretCol := e.buf.Position(caret)
	e.ensureRowVisible(caretRow, viewHeight)

	s.SetStyle(e.styles.main)
	s.Clear()

	gutter := e.gutterWidth()
	lineCount := e.buf.LineCount()
	offset := e.buf.Offset(e.scroll, 0)
	for y := 0; y < viewHeight; y++ {
		row := e.scroll + y
		if row >= lineCount {
			break
		}
		line := e.buf.Line(row)
		e.drawGutter(s, y, gutter, row, caretRow)
		e.drawLine(s, y, w, gutter, row, offset, line)
		offset += len(line) + 1
	}

	if h >= 2 {
		e.renderStatusline(s, w, h-2, caretRow, caretCol)
	}
	e.renderMessageLine(s, w, h-1, caretRow)

	cy := caretRow - e.scroll
	cx := gutter + visualCol(e.buf.Line(caretRow), caretCol, e.tabWidth)
	if cy < 0 || cy >= viewHeight || cx >= w {
		s.HideCursor()
	} else {
		s.ShowCursor(cx, cy)
	}
	s.Show()
}

func (e *Editor) ensureRowVisible(row, viewHeight int) {
	if viewHeight <= 0 {
		return
	}
	if row < e.scroll {
		e.scroll = row
	}
	if row >= e.scroll+viewHeight {
		e.scroll = row - viewHeight + 1
	}
	if e.scroll < 0 {
		e.scroll = 0
	}
}

func (e *Editor) gutterWidth() int {
	if e.lineNumberMode == LineNumberOff {
		return 0
	}
	digits := max(len(strconv.Itoa(e.buf.LineCount())), 2)
	// leading space + digits + marker column
	return 1 + digits + 1
}

func (e *Editor) drawGutter(s tcell.Screen, y, gutter, row, caretRow int) {
	if gutter == 0 {
		return
	}
	num := row + 1
	if e.lineNumberMode == LineNumberRelative && row != caretRow {
		num = max(row-caretRow, caretRow-row)
	}
	style := e.styles.lineNumber
	if row == caretRow {
		style = e.styles.lineNumberActive
	}
	marker := ' '
	if e.rowHasDiagnostic(row) {
		style = e.styles.lineNumberError
		marker = '●'
	}
	numStr := fmt.Sprintf(" %*d", gutter-2, num)
	for i, r := range numStr {
		s.SetContent(i, y, r, nil, style)
	}
	s.SetContent(gutter-1, y, marker, nil, style)
}

func (e *Editor) drawLine(s tcell.Screen, y, w, startX, row, lineOffset int, line []rune) {
	sel := e.buf.Selection()
	var spans []HighlightSpan
	if e.highlightStart >= 0 && row >= e.highlightStart && row <= e.highlightEnd {
		spans = e.highlights[row]
	}
	x := startX
	for col, r := range line {
		if x >= w {
			return
		}
		style := e.styles.main
		if kind, ok := highlightKindAt(spans, col); ok {
			if st, ok := e.styleForHighlight(kind); ok {
				style = st
			}
		}
		if e.inDiagnostic(row, col) {
			style = e.styles.errorText
		}
		off := lineOffset + col
		if off >= sel.Offset && off < sel.End() {
			style = e.styles.selection
		}
		width := 1
		if r == '\t' {
			width = e.tabWidth - (x-startX)%e.tabWidth
			r = ' '
		}
		for i := 0; i < width && x < w; i++ {
			s.SetContent(x, y, r, nil, style)
			x++
		}
	}
	// A selected line terminator shows as one selected cell.
	nl := lineOffset + len(line)
	if x < w && nl < e.buf.Len() && nl >= sel.Offset && nl < sel.End() {
		s.SetContent(x, y, ' ', nil, e.styles.selection)
	}
}

func (e *Editor) rowHasDiagnostic(row int) bool {
	for _, d := range e.diagnostics {
		if row >= d.Row && row <= d.EndRow {
			return true
		}
	}
	return false
}

func (e *Editor) inDiagnostic(row, col int) bool {
	for _, d := range e.diagnostics {
		if row < d.Row || row > d.EndRow {
			continue
		}
		if row == d.Row && col < d.Col {
			continue
		}
		end := d.EndCol
		if d.Row == d.EndRow {
			// zero-width MISSING nodes still mark one cell
			end = max(end, d.Col+1)
		}
		if row == d.EndRow && col >= end {
			continue
		}
		return true
	}
	return false
}

func (e *Editor) diagnosticAt(row int) (Diagnostic, bool) {
	for _, d := range e.diagnostics {
		if row >= d.Row && row <= d.EndRow {
			return d, true
		}
	}
	return Diagnostic{}, false
}

func (e *Editor) renderStatusline(s tcell.Screen, w, y, caretRow, caretCol int) {
	name := "[No Podfile]"
	if e.path != "" {
		name = filepath.Base(e.path)
	}
	if e.Dirty() {
		name += "*"
	}
	left := " " + name
	if e.gitBranch != "" {
		left += " | " + formatGitBranch(e.gitBranchSymbol, e.gitBranch)
	}
	if name := strings.TrimSpace(e.font.Name); name != "" {
		left += fmt.Sprintf(" | %s %dpt", name, e.fontSize)
	} else {
		left += fmt.Sprintf(" | %dpt", e.fontSize)
	}
	if n := len(e.diagnostics); n > 0 {
		left += fmt.Sprintf(" | %d %s", n, plural(n, "error", "errors"))
	}
	col := visualCol(e.buf.Line(caretRow), caretCol, e.tabWidth) + 1
	right := fmt.Sprintf("Ln %d, Col %d ", caretRow+1, col)

	clearLine(s, y, w, e.styles.status)
	rightWidth := uniseg.StringWidth(right)
	limit := w
	if rightWidth < w {
		limit = w - rightWidth - 1
		drawString(s, w-rightWidth, y, w, right, e.styles.status)
	}
	drawString(s, 0, y, limit, left, e.styles.status)
}

func (e *Editor) renderMessageLine(s tcell.Screen, w, y, caretRow int) {
	clearLine(s, y, w, e.styles.message)
	msg := e.statusMessage
	style := e.styles.message
	if msg == "" {
		if d, ok := e.diagnosticAt(caretRow); ok {
			msg = fmt.Sprintf("%d:%d %s", d.Row+1, d.Col+1, d.Message)
			style = style.Foreground(fgOf(e.styles.errorText))
		}
	}
	drawString(s, 0, y, w, msg, style)
}

// drawString draws str from x up to maxX by grapheme cluster and returns
// the next free column.
func drawString(s tcell.Screen, x, y, maxX int, str string, style tcell.Style) int {
	g := uniseg.NewGraphemes(str)
	for g.Next() {
		runes := g.Runes()
		width := g.Width()
		if width == 0 {
			continue
		}
		if x+width > maxX {
			break
		}
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}

func clearLine(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func formatGitBranch(symbol, branch string) string {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		symbol = "git:"
	}
	if strings.HasSuffix(symbol, ":") {
		return symbol + branch
	}
	return symbol + " " + branch
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func fgOf(style tcell.Style) tcell.Color {
	fg, _, _ := style.Decompose()
	return fg
}

// parseColor accepts "#rgb"/"#rrggbb" hex or a tcell color name.
func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") {
		c, err := colorful.Hex(name)
		if err != nil {
			return fallback
		}
		return fromColorful(c)
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}

// blend mixes a towards b in Lab space. Colors without an RGB value fall
// back to b.
func blend(a, b tcell.Color, t float64) tcell.Color {
	ca, okA := toColorful(a)
	cb, okB := toColorful(b)
	if !okA || !okB {
		return b
	}
	return fromColorful(ca.BlendLab(cb, t).Clamped())
}

func toColorful(c tcell.Color) (colorful.Color, bool) {
	r, g, b := c.RGB()
	if r < 0 || g < 0 || b < 0 {
		return colorful.Color{}, false
	}
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}, true
}

func fromColorful(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func visualCol(line []rune, logicalCol int, tabWidth int) int {
	if tabWidth < 1 {
		tabWidth = 1
	}
	logicalCol = max(0, min(logicalCol, len(line)))
	col := 0
	for i := 0; i < logicalCol; i++ {
		if line[i] == '\t' {
			col += tabWidth - (col % tabWidth)
			continue
		}
		col++
	}
	return col
}
