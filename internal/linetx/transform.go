package linetx

import "regexp"

const (
	// IndentUnit is prepended by Indent.
	IndentUnit = "  "
	// CommentPrefix is prepended by AddComment.
	CommentPrefix = "# "
)

// space is whitespace as \s plus \v, NEL and the Unicode separators.
const space = `[\s\v\x{85}\p{Z}]`

var (
	outdentPattern   = regexp.MustCompile(`(?i)^\t|^` + space + `{1,2}`)
	commentedPattern = regexp.MustCompile(`(?i)^` + space + `*#` + space + `*`)
	uncommentPattern = regexp.MustCompile(`(?i)^#` + space + `?`)
)

// Transform maps a set of lines to a new set of the same length.
type Transform func(lines []string) []string

// Kind names the line edits offered to the user.
type Kind int

const (
	KindIndent Kind = iota
	KindOutdent
	KindToggleComment
)

func (k Kind) String() string {
	switch k {
	case KindIndent:
		return "indent"
	case KindOutdent:
		return "outdent"
	case KindToggleComment:
		return "toggle_comment"
	default:
		return "unknown"
	}
}

// Transform resolves the kind into the pure function to run on lines.
// Toggling removes comments when every line is already commented.
func (k Kind) Transform(lines []string) Transform {
	switch k {
	case KindIndent:
		return Indent
	case KindOutdent:
		return Outdent
	case KindToggleComment:
		if IsFullyCommented(lines) {
			return RemoveComment
		}
		return AddComment
	default:
		return identity
	}
}

func identity(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

func mapLines(lines []string, fn func(string) string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = fn(line)
	}
	return out
}

// Indent prepends IndentUnit to every line, blank lines included.
func Indent(lines []string) []string {
	return mapLines(lines, func(line string) string {
		return IndentUnit + line
	})
}

// Outdent strips one leading tab, or one or two leading whitespace runes.
func Outdent(lines []string) []string {
	return mapLines(lines, func(line string) string {
		return stripFirst(outdentPattern, line)
	})
}

// IsFullyCommented reports whether every line starts with a '#', optionally
// after whitespace. An empty set counts as commented.
func IsFullyCommented(lines []string) bool {
	all := true
	for _, line := range lines {
		all = commentedPattern.MatchString(line) && all
	}
	return all
}

// AddComment prepends CommentPrefix to every line.
func AddComment(lines []string) []string {
	return mapLines(lines, func(line string) string {
		return CommentPrefix + line
	})
}

// RemoveComment strips a leading '#' and one whitespace rune after it.
// Lines that do not start with '#' are returned as they are.
func RemoveComment(lines []string) []string {
	return mapLines(lines, func(line string) string {
		return stripFirst(uncommentPattern, line)
	})
}

func stripFirst(re *regexp.Regexp, line string) string {
	loc := re.FindStringIndex(line)
	if loc == nil || loc[0] != 0 {
		return line
	}
	return line[loc[1]:]
}
