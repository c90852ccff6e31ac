package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitWritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "podedit.log")
	t.Setenv("PODEDIT_LOG_FILE", path)

	if err := Init(true); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	Debug("transform applied", "kind", "indent")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "logger initialized") {
		t.Fatalf("log missing init line:\n%s", out)
	}
	if !strings.Contains(out, "transform applied") || !strings.Contains(out, "indent") {
		t.Fatalf("log missing debug line:\n%s", out)
	}
}

func TestUseRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Use(zapcore.AddSync(&buf), zapcore.WarnLevel)
	Info("hidden")
	Warn("shown", "path", "Podfile")
	_ = L.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line written at warn level:\n%s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "WARN") {
		t.Fatalf("warn line missing:\n%s", out)
	}
}

func TestLogPathFromConfigHome(t *testing.T) {
	t.Setenv("PODEDIT_LOG_FILE", "")
	t.Setenv("PODEDIT_CONFIG_HOME", "/tmp/pe")
	got, err := getLogPath()
	if err != nil {
		t.Fatalf("getLogPath error: %v", err)
	}
	if got != "/tmp/pe/podedit.log" {
		t.Fatalf("getLogPath = %q", got)
	}
}
