package editor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/podedit/internal/completion"
	"github.com/kobzarvs/podedit/internal/config"
	"github.com/kobzarvs/podedit/internal/linetx"
	"github.com/kobzarvs/podedit/internal/logger"
	"github.com/kobzarvs/podedit/internal/project"
)

const (
	actionMoveLeft          = "move_left"
	actionMoveRight         = "move_right"
	actionMoveUp            = "move_up"
	actionMoveDown          = "move_down"
	actionSelectLeft        = "select_left"
	actionSelectRight       = "select_right"
	actionSelectUp          = "select_up"
	actionSelectDown        = "select_down"
	actionLineStart         = "line_start"
	actionLineEnd           = "line_end"
	actionPageUp            = "page_up"
	actionPageDown          = "page_down"
	actionBackspace         = "backspace"
	actionDeleteChar        = "delete_char"
	actionNewline           = "newline"
	actionInsertTab         = "insert_tab"
	actionIndent            = "indent"
	actionOutdent           = "outdent"
	actionToggleComment     = "toggle_comment"
	actionUndo              = "undo"
	actionRedo              = "redo"
	actionSelectAll         = "select_all"
	actionComplete          = "complete"
	actionFontIncrease      = "font_increase"
	actionFontDecrease      = "font_decrease"
	actionSave              = "save"
	actionQuit              = "quit"
	actionCollapseSelection = "collapse_selection"
)

type LineNumberMode int

const (
	LineNumberOff LineNumberMode = iota
	LineNumberAbsolute
	LineNumberRelative
)

type HighlightSpan struct {
	StartCol int
	EndCol   int
	Kind     string
}

// Diagnostic marks a syntax error. Columns count runes.
type Diagnostic struct {
	Row     int
	Col     int
	EndRow  int
	EndCol  int
	Message string
}

// TextObserver is told about every text change, normally the syntax
// checker.
type TextObserver interface {
	TextDidChange(path, text string)
}

// FontSizeFunc receives the new font size and the direction of the change
// (+1 or -1).
type FontSizeFunc func(size, dir int)

type completionState struct {
	active bool
	start  int
	items  []string
	index  int
}

// Editor is the Podfile view-controller: it owns the buffer, maps keys to
// actions and keeps the project and the syntax checker in step with edits.
type Editor struct {
	buf     *Buffer
	anchor  int
	goalCol int

	project *project.Project
	path    string
	checker TextObserver
	loading bool

	keymap     map[string]string
	tabWidth   int
	withSpaces bool

	font       config.Font
	fontSize   int
	onFontSize FontSizeFunc

	words      *completion.Words
	completion completionState
	completing bool

	highlights     map[int][]HighlightSpan
	highlightStart int
	highlightEnd   int
	diagnostics    []Diagnostic

	lineNumberMode  LineNumberMode
	gitBranch       string
	gitBranchSymbol string
	statusMessage   string
	scroll          int
	viewHeight      int

	styles styles
}

func New(cfg config.Config) *Editor {
	keymap := make(map[string]string, len(cfg.Keymap))
	for k, v := range cfg.Keymap {
		keymap[k] = v
	}
	tabWidth := cfg.Editor.TabWidth
	if tabWidth < 1 {
		tabWidth = 1
	}
	words := completion.NewWords(completion.DefaultWords...)
	words.Add(cfg.Completion.Words...)

	e := &Editor{
		buf:             NewBuffer(""),
		goalCol:         -1,
		keymap:          keymap,
		tabWidth:        tabWidth,
		withSpaces:      cfg.Editor.IndentWithSpaces,
		font:            cfg.Font,
		fontSize:        cfg.Font.Clamp(cfg.Font.Size),
		words:           words,
		highlightStart:  -1,
		highlightEnd:    -1,
		lineNumberMode:  parseLineNumberMode(cfg.Editor.LineNumbers),
		gitBranchSymbol: strings.TrimSpace(cfg.Editor.GitBranchSymbol),
		styles:          newStyles(cfg.Theme),
	}
	e.buf.OnChange(e.textDidChange)
	return e
}

// Attach makes p the document shown by the editor and registers the editor
// as its observer.
func (e *Editor) Attach(p *project.Project) {
	e.project = p
	e.path = p.Path()
	p.SetObserver(e)
	e.load(p.Contents())
	e.gitBranch = p.Branch()
	e.notifyChecker()
}

// ContentDidChange reloads the buffer after the project changed outside the
// editor.
func (e *Editor) ContentDidChange(p *project.Project) {
	sel := e.buf.Selection()
	e.load(p.Contents())
	e.SetSelection(sel)
	e.highlights = nil
	e.highlightStart, e.highlightEnd = -1, -1
	e.notifyChecker()
	e.setStatus(filepath.Base(e.path) + " reloaded")
	logger.Info("podfile reloaded", "path", e.path)
}

func (e *Editor) load(text string) {
	e.loading = true
	e.buf.Reset(text)
	e.loading = false
	e.anchor = e.buf.Selection().Offset
	e.goalCol = -1
	e.completion = completionState{}
}

// SetChecker sets the observer told about text changes.
func (e *Editor) SetChecker(c TextObserver) {
	e.checker = c
}

func (e *Editor) textDidChange(b *Buffer) {
	if e.loading {
		return
	}
	if !e.completing {
		e.completion = completionState{}
	}
	text := b.Text()
	if e.project != nil {
		e.project.SetContents(text)
	}
	if e.checker != nil {
		e.checker.TextDidChange(e.path, text)
	}
}

func (e *Editor) notifyChecker() {
	if e.checker != nil {
		e.checker.TextDidChange(e.path, e.buf.Text())
	}
}

func (e *Editor) Content() string { return e.buf.Text() }

func (e *Editor) Path() string { return e.path }

// Dirty compares against the file on disk when a project is attached.
func (e *Editor) Dirty() bool {
	if e.project != nil {
		return e.project.Dirty()
	}
	return e.buf.Dirty()
}

func (e *Editor) ChangeTick() uint64 { return e.buf.ChangeTick() }

func (e *Editor) LineCount() int { return e.buf.LineCount() }

func (e *Editor) Selection() linetx.Range { return e.buf.Selection() }

// SetSelection selects r, clamped to the document. The caret sits at the
// end of the range.
func (e *Editor) SetSelection(r linetx.Range) {
	e.buf.SetSelection(r)
	e.syncAnchor()
}

func (e *Editor) syncAnchor() {
	e.anchor = e.buf.Selection().Offset
	e.goalCol = -1
}

func (e *Editor) caret() int {
	sel := e.buf.Selection()
	if sel.Length > 0 && e.anchor == sel.End() {
		return sel.Offset
	}
	return sel.End()
}

func (e *Editor) moveCaret(to int, extend bool) {
	e.goalCol = -1
	to = max(0, min(to, e.buf.Len()))
	if !extend {
		e.buf.SetSelection(linetx.Range{Offset: to})
		e.anchor = to
		return
	}
	a := e.anchor
	e.buf.SetSelection(linetx.Range{Offset: min(a, to), Length: max(a, to) - min(a, to)})
}

func (e *Editor) SetGitBranch(name string) { e.gitBranch = name }

func (e *Editor) SetStatusMessage(msg string) { e.setStatus(msg) }

func (e *Editor) setStatus(msg string) { e.statusMessage = msg }

func (e *Editor) FontSize() int { return e.fontSize }

// SetFontSize restores a persisted size without notifying.
func (e *Editor) SetFontSize(size int) {
	e.fontSize = e.font.Clamp(size)
}

func (e *Editor) SetFontSizeFunc(fn FontSizeFunc) { e.onFontSize = fn }

func (e *Editor) AddCompletions(words ...string) {
	e.words.Add(words...)
}

// SetHighlights stores spans for rows startLine..endLine. A negative start
// clears them.
func (e *Editor) SetHighlights(startLine, endLine int, spans map[int][]HighlightSpan) {
	if startLine < 0 || endLine < startLine {
		e.highlights = nil
		e.highlightStart, e.highlightEnd = -1, -1
		return
	}
	e.highlights = spans
	e.highlightStart, e.highlightEnd = startLine, endLine
}

func (e *Editor) HasHighlights() bool { return e.highlightStart >= 0 }

func (e *Editor) SetDiagnostics(diags []Diagnostic) {
	e.diagnostics = diags
}

// SetScroll sets the first visible row. Render still keeps the caret on screen.
func (e *Editor) SetScroll(row int) {
	e.scroll = max(0, min(row, e.buf.LineCount()-1))
}

// VisibleRange returns the rows on screen at the last render.
func (e *Editor) VisibleRange() (int, int) {
	h := e.viewHeight
	if h < 1 {
		h = 1
	}
	end := min(e.scroll+h, e.buf.LineCount()) - 1
	return e.scroll, max(end, e.scroll)
}

func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	if e.statusMessage != "" {
		e.statusMessage = ""
	}
	key := keyString(ev)
	if action, ok := e.keymap[key]; ok {
		return e.execAction(action)
	}
	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		e.insertText(string(ev.Rune()))
	}
	return false
}

func (e *Editor) execAction(action string) bool {
	switch action {
	case actionMoveLeft:
		e.moveLeft(false)
	case actionMoveRight:
		e.moveRight(false)
	case actionMoveUp:
		e.moveVertical(-1, false)
	case actionMoveDown:
		e.moveVertical(1, false)
	case actionSelectLeft:
		e.moveLeft(true)
	case actionSelectRight:
		e.moveRight(true)
	case actionSelectUp:
		e.moveVertical(-1, true)
	case actionSelectDown:
		e.moveVertical(1, true)
	case actionLineStart:
		row, _ := e.buf.Position(e.caret())
		e.moveCaret(e.buf.Offset(row, 0), false)
	case actionLineEnd:
		row, _ := e.buf.Position(e.caret())
		e.moveCaret(e.buf.Offset(row, len(e.buf.Line(row))), false)
	case actionPageUp:
		e.moveVertical(-max(e.viewHeight-1, 1), false)
	case actionPageDown:
		e.moveVertical(max(e.viewHeight-1, 1), false)
	case actionBackspace:
		e.backspace()
	case actionDeleteChar:
		e.deleteChar()
	case actionNewline:
		e.insertNewline()
	case actionInsertTab:
		e.insertTab()
	case actionIndent:
		e.IndentSelection()
	case actionOutdent:
		e.OutdentSelection()
	case actionToggleComment:
		e.CommentSelection()
	case actionUndo:
		e.Undo()
	case actionRedo:
		e.Redo()
	case actionSelectAll:
		e.SetSelection(linetx.Range{Offset: 0, Length: e.buf.Len()})
	case actionComplete:
		e.Complete()
	case actionFontIncrease:
		e.IncreaseFontSize()
	case actionFontDecrease:
		e.DecreaseFontSize()
	case actionSave:
		_ = e.Save()
	case actionCollapseSelection:
		e.moveCaret(e.caret(), false)
	case actionQuit:
		return true
	default:
		logger.Debug("unknown action", "action", action)
	}
	return false
}

// CommentSelection comments the touched lines, or uncomments them when all
// of them already are. The caret lands after the rewritten text.
func (e *Editor) CommentSelection() {
	e.applyTransform(linetx.KindToggleComment, func(res linetx.Result) linetx.Range {
		return linetx.Range{Offset: res.Selection.End()}
	})
}

// IndentSelection indents the touched lines and keeps the selection on the
// same text.
func (e *Editor) IndentSelection() {
	e.applyTransform(linetx.KindIndent, selectResult)
}

func (e *Editor) OutdentSelection() {
	e.applyTransform(linetx.KindOutdent, selectResult)
}

func selectResult(res linetx.Result) linetx.Range { return res.Selection }

// applyTransform runs a line edit over the selection as one undoable change.
func (e *Editor) applyTransform(kind linetx.Kind, place func(linetx.Result) linetx.Range) {
	doc := e.buf.Runes()
	sel := e.buf.Selection()
	fn := kind.Transform(linetx.Lines(doc, sel))
	res, ok := linetx.Apply(doc, sel, fn)
	if !ok {
		return
	}
	next := place(res)
	if res.Replacement == string(doc[res.Span.Offset:res.Span.End()]) {
		e.SetSelection(next)
		return
	}
	e.buf.Replace(res.Span, res.Replacement, next)
	e.syncAnchor()
	logger.Debug("line transform", "kind", kind.String(), "offset", res.Span.Offset, "length", res.Span.Length)
}

func (e *Editor) Undo() {
	if !e.buf.Undo() {
		e.setStatus("nothing to undo")
		return
	}
	e.syncAnchor()
}

func (e *Editor) Redo() {
	if !e.buf.Redo() {
		e.setStatus("nothing to redo")
		return
	}
	e.syncAnchor()
}

func (e *Editor) IncreaseFontSize() { e.stepFontSize(1) }

func (e *Editor) DecreaseFontSize() { e.stepFontSize(-1) }

func (e *Editor) stepFontSize(dir int) {
	step := e.font.Step
	if step < 1 {
		step = 1
	}
	size := e.font.Clamp(e.fontSize + dir*step)
	if size == e.fontSize {
		e.setStatus(fmt.Sprintf("font size %d", size))
		return
	}
	e.fontSize = size
	e.setStatus(fmt.Sprintf("font size %d", size))
	if e.onFontSize != nil {
		e.onFontSize(size, dir)
	}
}

// Save writes the buffer through the project.
func (e *Editor) Save() error {
	if e.project == nil {
		err := errors.New("no Podfile attached")
		e.setStatus(err.Error())
		return err
	}
	e.project.SetContents(e.buf.Text())
	if err := e.project.Save(); err != nil {
		logger.Error("save failed", "path", e.path, "error", err)
		e.setStatus("save failed: " + err.Error())
		return err
	}
	e.buf.MarkSaved()
	e.setStatus("saved " + filepath.Base(e.path))
	return nil
}

// Complete replaces the word before the caret with the next candidate.
// Repeated calls cycle through the candidates.
func (e *Editor) Complete() {
	if c := &e.completion; c.active && e.buf.Selection() == (linetx.Range{Offset: c.start + len([]rune(c.items[c.index]))}) {
		prev := c.items[c.index]
		c.index = (c.index + 1) % len(c.items)
		e.replaceCompletion(linetx.Range{Offset: c.start, Length: len([]rune(prev))}, c.items[c.index])
		return
	}
	caret := e.caret()
	start := wordStart(e.buf.Runes(), caret)
	prefix := string(e.buf.Runes()[start:caret])
	items := e.words.Match(prefix)
	if len(items) == 0 {
		e.setStatus("no completions")
		return
	}
	e.completion = completionState{active: len(items) > 1, start: start, items: items}
	e.replaceCompletion(linetx.Range{Offset: start, Length: caret - start}, items[0])
}

func (e *Editor) replaceCompletion(r linetx.Range, word string) {
	e.completing = true
	e.buf.Replace(r, word, linetx.Range{Offset: r.Offset + len([]rune(word))})
	e.completing = false
	e.syncAnchor()
	if len(e.completion.items) > 1 {
		e.setStatus(fmt.Sprintf("completion %d/%d", e.completion.index+1, len(e.completion.items)))
	}
}

func wordStart(text []rune, caret int) int {
	i := caret
	for i > 0 && isCompletionRune(text[i-1]) {
		i--
	}
	if i > 0 && text[i-1] == ':' {
		i--
	}
	return i
}

func isCompletionRune(r rune) bool {
	return r == '_' || r == '!' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (e *Editor) insertText(text string) {
	e.buf.Insert(text)
	e.syncAnchor()
}

// insertNewline keeps the indentation of the current line.
func (e *Editor) insertNewline() {
	row, _ := e.buf.Position(e.buf.Selection().Offset)
	line := e.buf.Line(row)
	indent := 0
	for indent < len(line) && (line[indent] == ' ' || line[indent] == '\t') {
		indent++
	}
	e.insertText("\n" + string(line[:indent]))
}

// insertTab indents a multi-character selection, otherwise inserts one
// indentation step at the caret.
func (e *Editor) insertTab() {
	if e.buf.Selection().Length > 0 {
		e.IndentSelection()
		return
	}
	if !e.withSpaces {
		e.insertText("\t")
		return
	}
	_, col := e.buf.Position(e.caret())
	n := e.tabWidth - col%e.tabWidth
	e.insertText(strings.Repeat(" ", n))
}

func (e *Editor) backspace() {
	sel := e.buf.Selection()
	if sel.Length > 0 {
		e.buf.Replace(sel, "", linetx.Range{Offset: sel.Offset})
		e.syncAnchor()
		return
	}
	if sel.Offset == 0 {
		return
	}
	e.buf.Replace(linetx.Range{Offset: sel.Offset - 1, Length: 1}, "", linetx.Range{Offset: sel.Offset - 1})
	e.syncAnchor()
}

func (e *Editor) deleteChar() {
	sel := e.buf.Selection()
	if sel.Length > 0 {
		e.buf.Replace(sel, "", linetx.Range{Offset: sel.Offset})
		e.syncAnchor()
		return
	}
	if sel.Offset >= e.buf.Len() {
		return
	}
	e.buf.Replace(linetx.Range{Offset: sel.Offset, Length: 1}, "", linetx.Range{Offset: sel.Offset})
	e.syncAnchor()
}

func (e *Editor) moveLeft(extend bool) {
	sel := e.buf.Selection()
	if !extend && sel.Length > 0 {
		e.moveCaret(sel.Offset, false)
		return
	}
	e.moveCaret(e.caret()-1, extend)
}

func (e *Editor) moveRight(extend bool) {
	sel := e.buf.Selection()
	if !extend && sel.Length > 0 {
		e.moveCaret(sel.End(), false)
		return
	}
	e.moveCaret(e.caret()+1, extend)
}

func (e *Editor) moveVertical(rows int, extend bool) {
	row, col := e.buf.Position(e.caret())
	if e.goalCol < 0 {
		e.goalCol = col
	}
	target := row + rows
	goal := e.goalCol
	switch {
	case target < 0:
		e.moveCaret(0, extend)
	case target >= e.buf.LineCount():
		e.moveCaret(e.buf.Len(), extend)
	default:
		e.moveCaret(e.buf.Offset(target, goal), extend)
	}
	e.goalCol = goal
}

func parseLineNumberMode(value string) LineNumberMode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "relative", "rel":
		return LineNumberRelative
	case "off", "none", "false":
		return LineNumberOff
	default:
		return LineNumberAbsolute
	}
}
