package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sakura-stack/sakura-tree/internal/config"
)

func TestNewFromConfigStderrOnly(t *testing.T) {
	cfg := config.Default()

	logger, closer, err := NewFromConfig(cfg, t.TempDir())
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if logger == nil {
		t.Fatal("expected a logger")
	}
	if closer != nil {
		t.Error("no closer expected without file logging")
	}
}

func TestNewFromConfigWithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.File = "state/run.log"

	logger, closer, err := NewFromConfig(cfg, dir)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if closer == nil {
		t.Fatal("expected a closer for file logging")
	}
	defer closer.Close()

	logger.Info("hello from test")

	data, err := os.ReadFile(filepath.Join(dir, "state", "run.log"))
	if err != nil {
		t.Fatalf("log file not created: %v", err)
	}
	if len(data) == 0 {
		t.Error("log file is empty")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   config.LogLevel
		want string
	}{
		{config.LogLevelDebug, "DEBUG"},
		{config.LogLevelWarn, "WARN"},
		{config.LogLevel("bogus"), "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
