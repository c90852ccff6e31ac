package syntax

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

var keywords = []string{
	"do", "end", "if", "else", "elsif", "unless", "case", "when", "def",
	"class", "module", "return", "and", "or", "not", "then", "begin", "rescue",
}

// highlightPatterns returns one query per pattern so a node name unknown to
// the bundled grammar only disables its own pattern.
func highlightPatterns() []string {
	patterns := []string{
		"(comment) @comment",
		"(string) @string",
		"(integer) @number",
		"(float) @number",
		"(constant) @constant",
		"(simple_symbol) @variable",
		"(hash_key_symbol) @variable",
		"(instance_variable) @variable",
		"(true) @constant",
		"(false) @constant",
		"(nil) @constant",
		"(call method: (identifier) @instruction)",
		"(method_call method: (identifier) @instruction)",
	}
	for _, kw := range keywords {
		patterns = append(patterns, fmt.Sprintf("%q @keyword", kw))
	}
	return patterns
}

// Highlights returns the spans of rows startLine..endLine keyed by row.
// Columns count runes.
func (c *Checker) Highlights(path string, startLine, endLine int) map[int][]HighlightSpan {
	if startLine < 0 || endLine < startLine {
		return nil
	}
	// The read lock stays held while the cursors walk the tree; a parse
	// closes the tree it replaces.
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc := c.docs[path]
	if doc == nil || doc.tree == nil {
		return nil
	}

	out := make(map[int][]HighlightSpan)
	for _, q := range c.queries {
		queryHighlights(out, q, doc, startLine, endLine)
	}
	for row := range out {
		spans := out[row]
		sort.SliceStable(spans, func(i, j int) bool { return spans[i].StartCol < spans[j].StartCol })
	}
	return out
}

func queryHighlights(out map[int][]HighlightSpan, query *sitter.Query, doc *document, startLine, endLine int) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.SetPointRange(
		sitter.Point{Row: uint32(startLine), Column: 0},
		sitter.Point{Row: uint32(endLine + 1), Column: 0},
	)
	cursor.Exec(query, doc.tree.RootNode())

	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, capture := range match.Captures {
			kind := query.CaptureNameForId(capture.Index)
			start := capture.Node.StartPoint()
			end := capture.Node.EndPoint()
			startRow := int(start.Row)
			endRow := int(end.Row)
			for row := startRow; row <= endRow; row++ {
				if row < startLine || row > endLine {
					continue
				}
				startCol := 0
				endCol := int(math.MaxInt32)
				if row == startRow {
					startCol = doc.lines.runeCol(row, int(start.Column))
				}
				if row == endRow {
					endCol = doc.lines.runeCol(row, int(end.Column))
				}
				if endCol <= startCol {
					continue
				}
				out[row] = append(out[row], HighlightSpan{StartCol: startCol, EndCol: endCol, Kind: kind})
			}
		}
	}
}

// collectPods finds `pod 'Name', ...` calls anywhere in the tree.
func collectPods(root *sitter.Node, source []byte) []string {
	if root == nil {
		return nil
	}
	seen := make(map[string]struct{})
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if isCall(n.Type()) {
			if name, ok := podArgument(n, source); ok {
				seen[name] = struct{}{}
			}
		}
		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			stack = append(stack, n.NamedChild(i))
		}
	}
	pods := make([]string, 0, len(seen))
	for name := range seen {
		pods = append(pods, name)
	}
	sort.Strings(pods)
	return pods
}

func isCall(kind string) bool {
	return kind == "call" || kind == "method_call" || kind == "command"
}

func podArgument(call *sitter.Node, source []byte) (string, bool) {
	method := call.ChildByFieldName("method")
	if method == nil {
		method = findNamedChild(call, "identifier")
	}
	if method == nil || method.Content(source) != "pod" {
		return "", false
	}
	args := call.ChildByFieldName("arguments")
	if args == nil {
		args = findNamedChild(call, "argument_list")
	}
	if args == nil {
		return "", false
	}
	str := findNamedChild(args, "string")
	if str == nil {
		return "", false
	}
	name := strings.Trim(str.Content(source), `'"`)
	if name == "" {
		return "", false
	}
	return name, true
}

func findNamedChild(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Type() == kind {
			return child
		}
	}
	return nil
}

// lineIndex maps tree-sitter byte columns to rune columns.
type lineIndex struct {
	source []byte
	starts []int
}

func newLineIndex(source []byte) lineIndex {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return lineIndex{source: source, starts: starts}
}

func (l lineIndex) runeCol(row, byteCol int) int {
	if row < 0 || row >= len(l.starts) {
		return byteCol
	}
	start := l.starts[row]
	end := start + byteCol
	if end > len(l.source) {
		end = len(l.source)
	}
	return utf8.RuneCount(l.source[start:end])
}
