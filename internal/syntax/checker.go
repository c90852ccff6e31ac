// Package syntax parses Podfiles with tree-sitter's Ruby grammar and reports
// syntax errors, highlight spans and the pods a Podfile declares.
package syntax

import (
	"context"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/kobzarvs/podedit/internal/config"
	"github.com/kobzarvs/podedit/internal/logger"
)

type Event struct {
	Kind string
	Path string
}

// Diagnostic is a syntax error. Rows and columns are zero based, columns
// count runes.
type Diagnostic struct {
	Row     int
	Col     int
	EndRow  int
	EndCol  int
	Message string
}

type HighlightSpan struct {
	StartCol int
	EndCol   int
	Kind     string
}

type document struct {
	tree        *sitter.Tree
	source      []byte
	lines       lineIndex
	diagnostics []Diagnostic
	pods        []string
}

type parseRequest struct {
	path string
	text string
}

// Checker parses on a background goroutine. Results are read back with
// Diagnostics, Highlights and Pods once a "parsed" event arrives.
type Checker struct {
	langs    config.Languages
	lang     *sitter.Language
	parser   *sitter.Parser
	parseMu  sync.Mutex
	queries  []*sitter.Query
	docs     map[string]*document
	reqCh    chan parseRequest
	events   chan Event
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

func New(langs config.Languages) *Checker {
	return &Checker{
		langs:  langs,
		lang:   ruby.GetLanguage(),
		docs:   make(map[string]*document),
		reqCh:  make(chan parseRequest, 8),
		events: make(chan Event, 16),
		stopCh: make(chan struct{}),
	}
}

func (c *Checker) Start() error {
	c.parser = sitter.NewParser()
	c.parser.SetLanguage(c.lang)
	for _, pattern := range highlightPatterns() {
		q, err := sitter.NewQuery([]byte(pattern), c.lang)
		if err != nil {
			// Grammar versions differ in node names; skip what this one lacks.
			logger.Debug("skipping highlight pattern", "pattern", pattern, "error", err)
			continue
		}
		c.queries = append(c.queries, q)
	}
	c.done = make(chan struct{})
	go c.loop()
	return nil
}

// Stop ends the parse loop and releases the parser, the queries and every
// parsed tree.
func (c *Checker) Stop() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		if c.done != nil {
			<-c.done
		}

		c.parseMu.Lock()
		if c.parser != nil {
			c.parser.Close()
			c.parser = nil
		}
		c.parseMu.Unlock()

		c.mu.Lock()
		for path, doc := range c.docs {
			if doc.tree != nil {
				doc.tree.Close()
			}
			delete(c.docs, path)
		}
		for _, q := range c.queries {
			q.Close()
		}
		c.queries = nil
		c.mu.Unlock()
	})
	return nil
}

func (c *Checker) Events() <-chan Event {
	return c.events
}

// TextDidChange queues a parse of text. When the queue is full the oldest
// request is dropped so the latest text always gets parsed.
func (c *Checker) TextDidChange(path, text string) {
	if !c.handles(path) {
		return
	}
	req := parseRequest{path: path, text: text}
	for {
		select {
		case c.reqCh <- req:
			return
		default:
		}
		select {
		case <-c.reqCh:
		default:
		}
	}
}

func (c *Checker) handles(path string) bool {
	lang := c.langs.Match(path)
	return lang != nil && lang.Name == "ruby"
}

func (c *Checker) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.stopCh:
			return
		case req := <-c.reqCh:
			if c.parse(req.path, req.text) {
				c.sendEvent("parsed", req.path)
			}
		}
	}
}

func (c *Checker) sendEvent(kind, path string) {
	select {
	case c.events <- Event{Kind: kind, Path: path}:
	default:
	}
}

func (c *Checker) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

// ParseSync parses text on the calling goroutine. It reports false for
// files that are not Ruby.
func (c *Checker) ParseSync(path, text string) bool {
	if !c.handles(path) {
		return false
	}
	if !c.parse(path, text) {
		return false
	}
	c.sendEvent("parsed", path)
	return true
}

func (c *Checker) parse(path, text string) bool {
	source := []byte(text)
	c.parseMu.Lock()
	if c.stopped() {
		c.parseMu.Unlock()
		return false
	}
	if c.parser == nil {
		c.parser = sitter.NewParser()
		c.parser.SetLanguage(c.lang)
	}
	tree, err := c.parser.ParseCtx(context.Background(), nil, source)
	c.parseMu.Unlock()
	if err != nil || tree == nil {
		logger.Warn("podfile parse failed", "path", path, "error", err)
		return false
	}

	doc := &document{
		tree:   tree,
		source: source,
		lines:  newLineIndex(source),
	}
	root := tree.RootNode()
	doc.diagnostics = collectDiagnostics(root, doc)
	doc.pods = collectPods(root, source)

	// Readers hold mu while they walk a tree, so the old one can go.
	c.mu.Lock()
	if c.stopped() {
		c.mu.Unlock()
		tree.Close()
		return false
	}
	if old := c.docs[path]; old != nil && old.tree != nil {
		old.tree.Close()
	}
	c.docs[path] = doc
	c.mu.Unlock()
	logger.Debug("podfile parsed", "path", path, "diagnostics", len(doc.diagnostics), "pods", len(doc.pods))
	return true
}

// Diagnostics returns the syntax errors of the last parse of path.
func (c *Checker) Diagnostics(path string) []Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc := c.docs[path]
	if doc == nil {
		return nil
	}
	out := make([]Diagnostic, len(doc.diagnostics))
	copy(out, doc.diagnostics)
	return out
}

// Pods returns the pod names declared with `pod '<Name>'`, sorted.
func (c *Checker) Pods(path string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc := c.docs[path]
	if doc == nil {
		return nil
	}
	out := make([]string, len(doc.pods))
	copy(out, doc.pods)
	return out
}

func collectDiagnostics(root *sitter.Node, doc *document) []Diagnostic {
	if root == nil || !root.HasError() {
		return nil
	}
	var out []Diagnostic
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		switch {
		case n.IsMissing():
			out = append(out, doc.diagnostic(n, "missing "+n.Type()))
			continue
		case n.Type() == "ERROR":
			out = append(out, doc.diagnostic(n, "unexpected "+snippet(n.Content(doc.source))))
			continue
		case !n.HasError():
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.Child(i))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (d *document) diagnostic(n *sitter.Node, msg string) Diagnostic {
	start := n.StartPoint()
	end := n.EndPoint()
	return Diagnostic{
		Row:     int(start.Row),
		Col:     d.lines.runeCol(int(start.Row), int(start.Column)),
		EndRow:  int(end.Row),
		EndCol:  d.lines.runeCol(int(end.Row), int(end.Column)),
		Message: msg,
	}
}

func snippet(s string) string {
	const limit = 24
	r := []rune(s)
	for i, ch := range r {
		if ch == '\n' {
			r = r[:i]
			break
		}
	}
	if len(r) > limit {
		return string(r[:limit]) + "…"
	}
	if len(r) == 0 {
		return "input"
	}
	return "'" + string(r) + "'"
}
