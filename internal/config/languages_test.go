package config

import (
	"path/filepath"
	"testing"
)

func TestLanguagesMatch(t *testing.T) {
	cfg := DefaultLanguages()

	if got := cfg.Match("/tmp/App/Podfile"); got == nil || got.Name != "ruby" {
		t.Fatalf("Match Podfile = %#v, want ruby", got)
	}
	if got := cfg.Match("AFNetworking.podspec"); got == nil || got.Name != "ruby" {
		t.Fatalf("Match podspec = %#v, want ruby", got)
	}
	if got := cfg.Match("podfile"); got == nil || got.Name != "ruby" {
		t.Fatalf("Match lowercase podfile = %#v, want ruby", got)
	}
	if got := cfg.Match("Podfile.lock"); got != nil {
		t.Fatalf("Match Podfile.lock = %#v, want nil", got)
	}
	if got := cfg.Match("unknown.txt"); got != nil {
		t.Fatalf("Match unknown.txt = %#v, want nil", got)
	}
}

func TestLoadLanguages(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PODEDIT_CONFIG_HOME", dir)

	writeFile(t, filepath.Join(dir, "languages.toml"), `
[[language]]
name = "yaml"
file-types = ["lock", ".yml"]
`)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != 2 {
		t.Fatalf("Languages len = %d, want 2", len(cfg.Languages))
	}
	if got := cfg.Match("Podfile.lock"); got == nil || got.Name != "yaml" {
		t.Fatalf("Match Podfile.lock = %#v, want yaml", got)
	}
	if got := cfg.Match("Podfile"); got == nil || got.Name != "ruby" {
		t.Fatalf("Match Podfile = %#v, want ruby", got)
	}
}

func TestLoadLanguagesMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PODEDIT_CONFIG_HOME", dir)

	cfg, err := LoadLanguages()
	if err != nil {
		t.Fatalf("LoadLanguages error: %v", err)
	}
	if len(cfg.Languages) != 1 {
		t.Fatalf("Languages len = %d, want 1", len(cfg.Languages))
	}
}
