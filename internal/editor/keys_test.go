package editor

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/podedit/internal/linetx"
)

func TestKeyString(t *testing.T) {
	tests := []struct {
		ev   *tcell.EventKey
		want string
	}{
		{tcell.NewEventKey(tcell.KeyTab, 0, 0), "tab"},
		{tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModShift), "shift+tab"},
		{tcell.NewEventKey(tcell.KeyBacktab, 0, 0), "shift+tab"},
		{tcell.NewEventKey(tcell.KeyEnter, 0, 0), "enter"},
		{tcell.NewEventKey(tcell.KeyBackspace2, 0, 0), "backspace"},
		{tcell.NewEventKey(tcell.KeyEscape, 0, 0), "esc"},
		{tcell.NewEventKey(tcell.KeyCtrlZ, 0, 0), "ctrl+z"},
		{tcell.NewEventKey(tcell.KeyCtrlUnderscore, 0, 0), "ctrl+_"},
		{tcell.NewEventKey(tcell.KeyCtrlRightSq, 0, 0), "ctrl+]"},
		{tcell.NewEventKey(tcell.KeyRune, ']', tcell.ModAlt), "alt+]"},
		{tcell.NewEventKey(tcell.KeyRune, '/', tcell.ModAlt), "alt+/"},
		{tcell.NewEventKey(tcell.KeyRune, 'S', tcell.ModCtrl), "ctrl+s"},
		{tcell.NewEventKey(tcell.KeyRune, ' ', 0), "space"},
		{tcell.NewEventKey(tcell.KeyRune, 'x', 0), "x"},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModShift), "shift+left"},
		{tcell.NewEventKey(tcell.KeyHome, 0, 0), "home"},
		{tcell.NewEventKey(tcell.KeyDelete, 0, 0), "del"},
	}
	for _, tt := range tests {
		if got := keyString(tt.ev); got != tt.want {
			t.Fatalf("keyString(%v) = %q, want %q", tt.ev.Name(), got, tt.want)
		}
	}
}

func TestDefaultKeymapReachesTransforms(t *testing.T) {
	e := newTestEditor("pod 'A'\n")
	e.SetSelection(linetx.Range{Offset: 0, Length: 8})

	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlUnderscore, 0, 0))
	if got := e.Content(); got != "# pod 'A'\n" {
		t.Fatalf("ctrl+_ = %q", got)
	}
	e.SetSelection(linetx.Range{Offset: 0, Length: 10})
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, '/', tcell.ModAlt))
	if got := e.Content(); got != "pod 'A'\n" {
		t.Fatalf("alt+/ = %q", got)
	}

	e.SetSelection(linetx.Range{Offset: 0, Length: 8})
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, ']', tcell.ModAlt))
	if got := e.Content(); got != "  pod 'A'\n" {
		t.Fatalf("alt+] = %q", got)
	}
	e.HandleKey(tcell.NewEventKey(tcell.KeyRune, '[', tcell.ModAlt))
	if got := e.Content(); got != "pod 'A'\n" {
		t.Fatalf("alt+[ = %q", got)
	}

	e.HandleKey(tcell.NewEventKey(tcell.KeyCtrlZ, 0, 0))
	if got := e.Content(); got != "  pod 'A'\n" {
		t.Fatalf("ctrl+z = %q", got)
	}
}
