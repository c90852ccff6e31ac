package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type EditorOptions struct {
	TabWidth         int    `toml:"tab-width"`
	IndentWithSpaces bool   `toml:"indent-with-spaces"`
	LineNumbers      string `toml:"line-numbers"`
	GitBranchSymbol  string `toml:"git-branch-symbol"`
}

// Font describes the editor text size. Terminals cannot change font size
// themselves, so Size drives terminal zoom requests and is persisted
// between runs. TerminalZoom sends the zoom keystroke to the terminal
// (macOS only).
type Font struct {
	Name         string `toml:"name"`
	Size         int    `toml:"size"`
	MinSize      int    `toml:"min-size"`
	MaxSize      int    `toml:"max-size"`
	Step         int    `toml:"step"`
	TerminalZoom bool   `toml:"terminal-zoom"`
}

// Clamp keeps size within the configured bounds.
func (f Font) Clamp(size int) int {
	if size < f.MinSize {
		return f.MinSize
	}
	if f.MaxSize > 0 && size > f.MaxSize {
		return f.MaxSize
	}
	return size
}

type Theme struct {
	Theme                      string `toml:"theme"`
	Foreground                 string `toml:"foreground"`
	Background                 string `toml:"background"`
	StatuslineForeground       string `toml:"statusline-foreground"`
	StatuslineBackground       string `toml:"statusline-background"`
	MessageForeground          string `toml:"message-foreground"`
	MessageBackground          string `toml:"message-background"`
	LineNumberForeground       string `toml:"line-number-foreground"`
	LineNumberActiveForeground string `toml:"line-number-active-foreground"`
	SelectionForeground        string `toml:"selection-foreground"`
	SelectionBackground        string `toml:"selection-background"`
	ErrorForeground            string `toml:"error-foreground"`
	SyntaxNumber               string `toml:"syntax-number"`
	SyntaxString               string `toml:"syntax-string"`
	SyntaxComment              string `toml:"syntax-comment"`
	SyntaxKeyword              string `toml:"syntax-keyword"`
	SyntaxVariable             string `toml:"syntax-variable"`
	SyntaxInstruction          string `toml:"syntax-instruction"`
	SyntaxConstant             string `toml:"syntax-constant"`
}

type Completion struct {
	Words         []string `toml:"words"`
	SpecRepos     string   `toml:"spec-repos"`
	ScanSpecRepos bool     `toml:"scan-spec-repos"`
}

type Config struct {
	Editor     EditorOptions     `toml:"editor"`
	Font       Font              `toml:"font"`
	Theme      Theme             `toml:"theme"`
	Completion Completion        `toml:"completion"`
	Keymap     map[string]string `toml:"keymap"`
}

// Palette used by the CocoaPods app.
const (
	cpGreen         = "#7CB342"
	cpRed           = "#E53935"
	cpBrightBrown   = "#A1887F"
	cpBlue          = "#42A5F5"
	cpBrightMagenta = "#EC407A"
)

func Default() Config {
	return Config{
		Editor: EditorOptions{
			TabWidth:         2,
			IndentWithSpaces: true,
			LineNumbers:      "absolute",
			GitBranchSymbol:  "git:",
		},
		Font: Font{
			Name:    "Menlo",
			Size:    13,
			MinSize: 8,
			MaxSize: 48,
			Step:    1,
		},
		Theme: Theme{
			Foreground:                 "#E0E0E0",
			Background:                 "#1D1F21",
			StatuslineForeground:       "#E0E0E0",
			StatuslineBackground:       "#2B2E31",
			MessageForeground:          "#E0E0E0",
			MessageBackground:          "#1D1F21",
			LineNumberForeground:       "#5C6370",
			LineNumberActiveForeground: "#E0E0E0",
			SelectionForeground:        "#E0E0E0",
			SelectionBackground:        "#3A4A5C",
			ErrorForeground:            cpRed,
			SyntaxNumber:               cpGreen,
			SyntaxString:               cpRed,
			SyntaxComment:              cpBrightBrown,
			SyntaxKeyword:              cpBlue,
			SyntaxVariable:             cpGreen,
			SyntaxInstruction:          cpBrightMagenta,
			SyntaxConstant:             cpBlue,
		},
		Completion: Completion{
			SpecRepos:     "~/.cocoapods/repos",
			ScanSpecRepos: true,
		},
		Keymap: map[string]string{
			"left":        "move_left",
			"right":       "move_right",
			"up":          "move_up",
			"down":        "move_down",
			"shift+left":  "select_left",
			"shift+right": "select_right",
			"shift+up":    "select_up",
			"shift+down":  "select_down",
			"home":        "line_start",
			"end":         "line_end",
			"pgup":        "page_up",
			"pgdn":        "page_down",
			"backspace":   "backspace",
			"del":         "delete_char",
			"enter":       "newline",
			"tab":         "insert_tab",
			"shift+tab":   "outdent",
			"ctrl+]":      "indent",
			"alt+]":       "indent",
			"alt+[":       "outdent",
			"ctrl+_":      "toggle_comment",
			"alt+/":       "toggle_comment",
			"ctrl+z":      "undo",
			"ctrl+y":      "redo",
			"ctrl+a":      "select_all",
			"ctrl+n":      "complete",
			"alt+=":       "font_increase",
			"alt+-":       "font_decrease",
			"ctrl+s":      "save",
			"ctrl+q":      "quit",
			"ctrl+c":      "quit",
			"esc":         "collapse_selection",
		},
	}
}

func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	md, err := toml.Decode(string(data), &userCfg)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if userCfg.Editor.TabWidth > 0 {
		cfg.Editor.TabWidth = userCfg.Editor.TabWidth
	}
	if md.IsDefined("editor", "indent-with-spaces") {
		cfg.Editor.IndentWithSpaces = userCfg.Editor.IndentWithSpaces
	}
	setIf(&cfg.Editor.LineNumbers, userCfg.Editor.LineNumbers)
	setIf(&cfg.Editor.GitBranchSymbol, userCfg.Editor.GitBranchSymbol)

	setIf(&cfg.Font.Name, userCfg.Font.Name)
	if userCfg.Font.MinSize > 0 {
		cfg.Font.MinSize = userCfg.Font.MinSize
	}
	if userCfg.Font.MaxSize > 0 {
		cfg.Font.MaxSize = userCfg.Font.MaxSize
	}
	if userCfg.Font.Step > 0 {
		cfg.Font.Step = userCfg.Font.Step
	}
	if userCfg.Font.Size > 0 {
		cfg.Font.Size = userCfg.Font.Size
	}
	cfg.Font.Size = cfg.Font.Clamp(cfg.Font.Size)
	if md.IsDefined("font", "terminal-zoom") {
		cfg.Font.TerminalZoom = userCfg.Font.TerminalZoom
	}

	setIf(&cfg.Theme.Theme, userCfg.Theme.Theme)
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)

	cfg.Completion.Words = append(cfg.Completion.Words, userCfg.Completion.Words...)
	setIf(&cfg.Completion.SpecRepos, userCfg.Completion.SpecRepos)
	if md.IsDefined("completion", "scan-spec-repos") {
		cfg.Completion.ScanSpecRepos = userCfg.Completion.ScanSpecRepos
	}

	for k, v := range userCfg.Keymap {
		cfg.Keymap[k] = v
	}

	return cfg, nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeTheme(dst *Theme, src Theme) {
	setIf(&dst.Foreground, src.Foreground)
	setIf(&dst.Background, src.Background)
	setIf(&dst.StatuslineForeground, src.StatuslineForeground)
	setIf(&dst.StatuslineBackground, src.StatuslineBackground)
	setIf(&dst.MessageForeground, src.MessageForeground)
	setIf(&dst.MessageBackground, src.MessageBackground)
	setIf(&dst.LineNumberForeground, src.LineNumberForeground)
	setIf(&dst.LineNumberActiveForeground, src.LineNumberActiveForeground)
	setIf(&dst.SelectionForeground, src.SelectionForeground)
	setIf(&dst.SelectionBackground, src.SelectionBackground)
	setIf(&dst.ErrorForeground, src.ErrorForeground)
	setIf(&dst.SyntaxNumber, src.SyntaxNumber)
	setIf(&dst.SyntaxString, src.SyntaxString)
	setIf(&dst.SyntaxComment, src.SyntaxComment)
	setIf(&dst.SyntaxKeyword, src.SyntaxKeyword)
	setIf(&dst.SyntaxVariable, src.SyntaxVariable)
	setIf(&dst.SyntaxInstruction, src.SyntaxInstruction)
	setIf(&dst.SyntaxConstant, src.SyntaxConstant)
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads theme/<name>.toml. The file may hold the keys at the top
// level or inside a [theme] table.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, fmt.Errorf("load theme %q: %w", name, err)
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err == nil {
		return t, nil
	}
	var wrap struct {
		Theme Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err != nil {
		return Theme{}, fmt.Errorf("parse theme %q: %w", name, err)
	}
	return wrap.Theme, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func ConfigDir() (string, error) {
	if v := os.Getenv("PODEDIT_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "podedit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "podedit"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
