package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/podedit/internal/config"
	"github.com/kobzarvs/podedit/internal/linetx"
	"github.com/kobzarvs/podedit/internal/project"
)

type recordingChecker struct {
	paths []string
	texts []string
}

func (r *recordingChecker) TextDidChange(path, text string) {
	r.paths = append(r.paths, path)
	r.texts = append(r.texts, text)
}

func newTestEditor(text string) *Editor {
	e := New(config.Default())
	e.buf.Reset(text)
	return e
}

func attachPodfile(t *testing.T, e *Editor, contents string) *project.Project {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Podfile")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := project.Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	e.Attach(p)
	return p
}

func TestIndentSelectionKeepsSelectionOnText(t *testing.T) {
	e := New(config.Default())
	checker := &recordingChecker{}
	e.SetChecker(checker)
	p := attachPodfile(t, e, "foo\nbar\n")
	if len(checker.texts) != 1 {
		t.Fatalf("attach notified checker %d times, want 1", len(checker.texts))
	}

	e.SetSelection(linetx.Range{Offset: 0, Length: 8})
	e.IndentSelection()

	if got := e.Content(); got != "  foo\n  bar\n" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 0, Length: 12}) {
		t.Fatalf("selection = %+v, want {0 12}", got)
	}
	if p.Contents() != e.Content() {
		t.Fatalf("project contents = %q", p.Contents())
	}
	if len(checker.texts) != 2 || checker.texts[1] != e.Content() {
		t.Fatalf("checker calls = %q", checker.texts)
	}
	if checker.paths[1] != p.Path() {
		t.Fatalf("checker path = %q, want %q", checker.paths[1], p.Path())
	}
	if !e.Dirty() {
		t.Fatalf("editor clean after indent")
	}
}

func TestCommentSelectionPlacesCaretAfterRange(t *testing.T) {
	e := newTestEditor("foo\nbar")
	e.SetSelection(linetx.Range{Offset: 0, Length: 7})

	e.CommentSelection()
	if got := e.Content(); got != "# foo\n# bar" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 11}) {
		t.Fatalf("selection = %+v, want caret at 11", got)
	}

	// The caret alone touches only the last line.
	e.CommentSelection()
	if got := e.Content(); got != "# foo\nbar" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 9}) {
		t.Fatalf("selection = %+v, want caret at 9", got)
	}
}

func TestToggleCommentRemovesWhenAllCommented(t *testing.T) {
	e := newTestEditor("# foo\n#bar\n")
	e.SetSelection(linetx.Range{Offset: 0, Length: 11})
	e.CommentSelection()
	if got := e.Content(); got != "foo\nbar\n" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 8}) {
		t.Fatalf("selection = %+v", got)
	}
}

func TestOutdentUndoRestoresSelection(t *testing.T) {
	e := newTestEditor("    foo\n  bar\n")
	e.execAction(actionSelectAll)
	e.OutdentSelection()
	if got := e.Content(); got != "  foo\nbar\n" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 0, Length: 10}) {
		t.Fatalf("selection = %+v", got)
	}

	e.Undo()
	if got := e.Content(); got != "    foo\n  bar\n" {
		t.Fatalf("undo content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 0, Length: 14}) {
		t.Fatalf("undo selection = %+v", got)
	}
	e.Redo()
	if got := e.Content(); got != "  foo\nbar\n" {
		t.Fatalf("redo content = %q", got)
	}
}

func TestTransformWithoutChangeLeavesHistory(t *testing.T) {
	e := newTestEditor("foo\n")
	checker := &recordingChecker{}
	e.SetChecker(checker)
	e.SetSelection(linetx.Range{Offset: 1})
	e.OutdentSelection()
	if e.buf.CanUndo() {
		t.Fatalf("no-op outdent recorded an undo entry")
	}
	if len(checker.texts) != 0 {
		t.Fatalf("checker notified for no-op")
	}

	empty := newTestEditor("")
	empty.IndentSelection()
	if empty.Content() != "" || empty.buf.CanUndo() {
		t.Fatalf("indent on empty document = %q", empty.Content())
	}
}

func TestTypingForwardsToProjectAndChecker(t *testing.T) {
	e := New(config.Default())
	checker := &recordingChecker{}
	e.SetChecker(checker)
	p := attachPodfile(t, e, "pod 'A'\n")

	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'x', 0))
	if got := p.Contents(); got != "xpod 'A'\n" {
		t.Fatalf("project contents = %q", got)
	}
	if len(checker.texts) != 2 {
		t.Fatalf("checker calls = %d, want 2", len(checker.texts))
	}
	if !p.Dirty() {
		t.Fatalf("project clean after typing")
	}
}

func TestContentDidChangeReloadsBuffer(t *testing.T) {
	e := New(config.Default())
	checker := &recordingChecker{}
	e.SetChecker(checker)
	p := attachPodfile(t, e, "pod 'A'\n")
	e.SetSelection(linetx.Range{Offset: 4, Length: 3})

	p.Replace("pod 'B'\n")
	if got := e.Content(); got != "pod 'B'\n" {
		t.Fatalf("content = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 4, Length: 3}) {
		t.Fatalf("selection = %+v", got)
	}
	if len(checker.texts) != 2 || checker.texts[1] != "pod 'B'\n" {
		t.Fatalf("checker calls = %q", checker.texts)
	}
	if e.buf.CanUndo() {
		t.Fatalf("reload recorded an undo entry")
	}
}

func TestSaveWritesPodfile(t *testing.T) {
	e := New(config.Default())
	p := attachPodfile(t, e, "pod 'A'\n")
	e.SetSelection(linetx.Range{Offset: 0, Length: 8})
	e.CommentSelection()
	if err := e.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	data, err := os.ReadFile(p.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "# pod 'A'\n" {
		t.Fatalf("saved = %q", data)
	}
	if e.Dirty() {
		t.Fatalf("dirty after save")
	}
}

func TestSaveWithoutProject(t *testing.T) {
	e := newTestEditor("x")
	if err := e.Save(); err == nil {
		t.Fatalf("expected error")
	}
	if e.statusMessage == "" {
		t.Fatalf("no status message")
	}
}

func TestFontSizeStepsAndClamps(t *testing.T) {
	cfg := config.Default()
	cfg.Font.Size = 47
	e := New(cfg)
	var got []int
	e.SetFontSizeFunc(func(size, dir int) { got = append(got, size*dir) })

	e.IncreaseFontSize()
	e.IncreaseFontSize()
	if e.FontSize() != 48 {
		t.Fatalf("font size = %d, want 48", e.FontSize())
	}
	e.DecreaseFontSize()
	if len(got) != 2 || got[0] != 48 || got[1] != -47 {
		t.Fatalf("callbacks = %v", got)
	}

	e.SetFontSize(2)
	if e.FontSize() != cfg.Font.MinSize {
		t.Fatalf("SetFontSize not clamped: %d", e.FontSize())
	}
}

func TestCompleteCyclesCandidates(t *testing.T) {
	e := newTestEditor("po")
	e.SetSelection(linetx.Range{Offset: 2})

	e.Complete()
	if got := e.Content(); got != "pod" {
		t.Fatalf("first completion = %q", got)
	}
	e.Complete()
	if got := e.Content(); got != "post_install" {
		t.Fatalf("second completion = %q", got)
	}
	if got := e.Selection(); got != (linetx.Range{Offset: 12}) {
		t.Fatalf("caret = %+v", got)
	}
	e.Undo()
	e.Undo()
	if got := e.Content(); got != "po" {
		t.Fatalf("undo completions = %q", got)
	}
}

func TestCompleteUsesAddedWords(t *testing.T) {
	e := newTestEditor("  pod 'Alam")
	e.AddCompletions("Alamofire", "SnapKit")
	e.SetSelection(linetx.Range{Offset: 11})
	e.Complete()
	if got := e.Content(); got != "  pod 'Alamofire" {
		t.Fatalf("content = %q", got)
	}

	none := newTestEditor("zzz")
	none.SetSelection(linetx.Range{Offset: 3})
	none.Complete()
	if none.statusMessage != "no completions" {
		t.Fatalf("status = %q", none.statusMessage)
	}
}

func TestNewlineKeepsIndent(t *testing.T) {
	e := newTestEditor("target 'App' do\n  pod 'A'")
	e.SetSelection(linetx.Range{Offset: e.buf.Len()})
	e.HandleKey(tcell.NewEventKey(tcell.KeyEnter, 0, 0))
	if got := e.Content(); got != "target 'App' do\n  pod 'A'\n  " {
		t.Fatalf("content = %q", got)
	}
}

func TestTabInsertsSpacesOrIndents(t *testing.T) {
	e := newTestEditor("a")
	e.SetSelection(linetx.Range{Offset: 1})
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	if got := e.Content(); got != "a " {
		t.Fatalf("content = %q", got)
	}

	e = newTestEditor("aa\nbb")
	e.SetSelection(linetx.Range{Offset: 0, Length: 4})
	e.HandleKey(tcell.NewEventKey(tcell.KeyTab, 0, 0))
	if got := e.Content(); got != "  aa\n  bb" {
		t.Fatalf("content = %q", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyBacktab, 0, 0))
	if got := e.Content(); got != "aa\nbb" {
		t.Fatalf("content after shift+tab = %q", got)
	}
}

func TestBackspaceAndDelete(t *testing.T) {
	e := newTestEditor("abc")
	e.SetSelection(linetx.Range{Offset: 1})
	e.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if got := e.Content(); got != "bc" {
		t.Fatalf("backspace = %q", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyDelete, 0, 0))
	if got := e.Content(); got != "c" {
		t.Fatalf("delete = %q", got)
	}
	e.SetSelection(linetx.Range{Offset: 0, Length: 1})
	e.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if got := e.Content(); got != "" {
		t.Fatalf("delete selection = %q", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyBackspace2, 0, 0))
	if got := e.Content(); got != "" {
		t.Fatalf("backspace at start = %q", got)
	}
}

func TestShiftMotionExtendsSelection(t *testing.T) {
	e := newTestEditor("abc\ndef\n")
	e.SetSelection(linetx.Range{Offset: 1})
	e.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModShift))
	e.HandleKey(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModShift))
	if got := e.Selection(); got != (linetx.Range{Offset: 1, Length: 5}) {
		t.Fatalf("selection = %+v", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModShift))
	e.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))
	e.HandleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift))
	if got := e.Selection(); got != (linetx.Range{Offset: 0, Length: 1}) {
		t.Fatalf("selection after reversing = %+v", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyRight, 0, 0))
	if got := e.Selection(); got != (linetx.Range{Offset: 1}) {
		t.Fatalf("collapse right = %+v", got)
	}
}

func TestVerticalMotionKeepsGoalColumn(t *testing.T) {
	e := newTestEditor("abcdef\nx\nabcdef")
	e.SetSelection(linetx.Range{Offset: 4})
	e.execAction(actionMoveDown)
	if got := e.Selection().Offset; got != 8 {
		t.Fatalf("down = %d, want 8", got)
	}
	e.execAction(actionMoveDown)
	if got := e.Selection().Offset; got != 13 {
		t.Fatalf("down again = %d, want 13", got)
	}
	e.execAction(actionMoveUp)
	e.execAction(actionMoveUp)
	e.execAction(actionMoveUp)
	if got := e.Selection().Offset; got != 0 {
		t.Fatalf("up past start = %d, want 0", got)
	}
}

func TestHandleKeyQuit(t *testing.T) {
	e := newTestEditor("")
	if !e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlQ, 0, 0)) {
		t.Fatalf("ctrl+q did not quit")
	}
	if e.HandleKey(tcell.NewEventKey(tcell.KeyRune, 'q', 0)) {
		t.Fatalf("q quit")
	}
}

func TestUndoNothingSetsStatus(t *testing.T) {
	e := newTestEditor("")
	e.Undo()
	if e.statusMessage != "nothing to undo" {
		t.Fatalf("status = %q", e.statusMessage)
	}
	e.Redo()
	if e.statusMessage != "nothing to redo" {
		t.Fatalf("status = %q", e.statusMessage)
	}
}
