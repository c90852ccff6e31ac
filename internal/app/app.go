package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/podedit/internal/completion"
	"github.com/kobzarvs/podedit/internal/config"
	"github.com/kobzarvs/podedit/internal/editor"
	"github.com/kobzarvs/podedit/internal/linetx"
	"github.com/kobzarvs/podedit/internal/logger"
	"github.com/kobzarvs/podedit/internal/project"
	"github.com/kobzarvs/podedit/internal/session"
	"github.com/kobzarvs/podedit/internal/syntax"
)

const pollInterval = 2 * time.Second

// App is the top-level runtime for podedit.
type App struct {
	args []string
}

func New(args []string) *App {
	return &App{args: args}
}

func (a *App) Run() error {
	if err := logger.Init(os.Getenv("PODEDIT_DEBUG") != ""); err == nil {
		defer logger.Close()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	langs, err := config.LoadLanguages()
	if err != nil {
		return fmt.Errorf("load languages: %w", err)
	}

	sm, err := session.NewManager()
	if err != nil {
		logger.Warn("session unavailable", "error", err)
		sm = nil
	}

	proj, err := project.Open(a.target(sm))
	if err != nil {
		return err
	}
	logger.Info("opened", "path", proj.Path(), "root", proj.Root())

	s, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := s.Init(); err != nil {
		return err
	}
	defer s.Fini()

	checker := syntax.New(langs)
	if err := checker.Start(); err != nil {
		return err
	}
	defer func() { _ = checker.Stop() }()

	stopTicker := make(chan struct{})
	defer close(stopTicker)
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopTicker:
				return
			case <-ticker.C:
				_ = s.PostEvent(tcell.NewEventInterrupt(nil))
			}
		}
	}()

	ed := editor.New(cfg)
	if sm != nil {
		defer func() { _ = sm.Stop() }()
		if size := sm.FontSize(); size > 0 {
			ed.SetFontSize(size)
		}
	}
	ed.SetFontSizeFunc(func(size, dir int) {
		if sm != nil {
			sm.SetFontSize(size)
		}
		if cfg.Font.TerminalZoom {
			go sendTerminalZoom(dir > 0)
		}
	})
	ed.SetChecker(checker)
	ed.Attach(proj)
	if sm != nil {
		if st, ok := sm.GetFileState(proj.Path()); ok {
			ed.SetSelection(linetx.Range{Offset: st.SelectionOffset, Length: st.SelectionLength})
			ed.SetScroll(st.Scroll)
		}
		defer func() {
			sel := ed.Selection()
			start, _ := ed.VisibleRange()
			sm.SetFileState(proj.Path(), session.FileState{
				SelectionOffset: sel.Offset,
				SelectionLength: sel.Length,
				Scroll:          start,
			})
		}()
	}

	if checker.ParseSync(proj.Path(), ed.Content()) {
		applySyntax(ed, checker, proj.Path())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pods := make(chan []string, 1)
	if cfg.Completion.ScanSpecRepos {
		dir := config.ExpandHome(cfg.Completion.SpecRepos)
		go func() {
			started := time.Now()
			names, err := completion.ScanSpecRepos(ctx, dir)
			if err != nil {
				logger.Warn("spec repo scan failed", "dir", dir, "error", err)
				return
			}
			logger.Info("spec repos scanned", "dir", dir, "pods", len(names), "took", time.Since(started))
			pods <- names
		}()
	}

	lastPoll := time.Now()
	quitArmed := false
	ed.Render(s)
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			if ed.HandleKey(ev) {
				if !ed.Dirty() || quitArmed {
					return nil
				}
				quitArmed = true
				ed.SetStatusMessage("unsaved changes, quit again to discard them")
			} else {
				quitArmed = false
			}
		case *tcell.EventResize:
			s.Sync()
		case *tcell.EventInterrupt:
		}

		drainSyntax(ed, checker, proj.Path())
		select {
		case names := <-pods:
			ed.AddCompletions(names...)
		default:
		}
		if time.Since(lastPoll) > pollInterval {
			lastPoll = time.Now()
			if _, err := proj.Reload(); err != nil {
				logger.Warn("reload failed", "path", proj.Path(), "error", err)
				ed.SetStatusMessage(err.Error())
			}
			ed.SetGitBranch(proj.Branch())
		}
		ed.Render(s)
	}
}

// target picks the file to open: the argument, else ./Podfile, else the
// last file from the session.
func (a *App) target(sm *session.Manager) string {
	if len(a.args) > 0 {
		return a.args[0]
	}
	if _, err := os.Stat(project.PodfileName); err == nil || sm == nil {
		return "."
	}
	if last := sm.GetActiveFile(); last != "" {
		if _, err := os.Stat(last); err == nil {
			return last
		}
	}
	return "."
}

// drainSyntax applies every parse result that arrived since the last event.
func drainSyntax(ed *editor.Editor, checker *syntax.Checker, path string) {
	for {
		select {
		case ev := <-checker.Events():
			if ev.Kind == "parsed" && ev.Path == path {
				applySyntax(ed, checker, path)
			}
		default:
			return
		}
	}
}

func applySyntax(ed *editor.Editor, checker *syntax.Checker, path string) {
	end := max(ed.LineCount()-1, 0)
	spans := checker.Highlights(path, 0, end)
	editorSpans := make(map[int][]editor.HighlightSpan, len(spans))
	for line, lineSpans := range spans {
		dst := make([]editor.HighlightSpan, len(lineSpans))
		for i, span := range lineSpans {
			dst[i] = editor.HighlightSpan{
				StartCol: span.StartCol,
				EndCol:   span.EndCol,
				Kind:     span.Kind,
			}
		}
		editorSpans[line] = dst
	}
	ed.SetHighlights(0, end, editorSpans)

	diags := checker.Diagnostics(path)
	editorDiags := make([]editor.Diagnostic, len(diags))
	for i, d := range diags {
		editorDiags[i] = editor.Diagnostic{
			Row:     d.Row,
			Col:     d.Col,
			EndRow:  d.EndRow,
			EndCol:  d.EndCol,
			Message: d.Message,
		}
	}
	ed.SetDiagnostics(editorDiags)
	ed.AddCompletions(checker.Pods(path)...)
}

// sendTerminalZoom asks the frontmost terminal to zoom via System Events.
func sendTerminalZoom(zoomIn bool) {
	if runtime.GOOS != "darwin" {
		return
	}
	key := "+"
	if !zoomIn {
		key = "-"
	}
	script := fmt.Sprintf(`tell application "System Events" to keystroke "%s" using command down`, key)
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		logger.Debug("terminal zoom failed", "error", err)
	}
}
