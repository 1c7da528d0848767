package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Workers != 2 {
		t.Errorf("expected default workers 2, got %d", cfg.Engine.Workers)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
version = "1"

[engine]
workers = 8

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("workers not overridden: %d", cfg.Engine.Workers)
	}
	if cfg.Logging.Level != LogLevelDebug {
		t.Errorf("level not overridden: %s", cfg.Logging.Level)
	}
	// Untouched fields keep defaults.
	if cfg.Paths.TreeDir != "trees" {
		t.Errorf("tree_dir default lost: %s", cfg.Paths.TreeDir)
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Engine.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero workers must fail validation")
	}

	cfg = Default()
	cfg.Paths.TreeDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty tree_dir must fail validation")
	}
}

func TestPathHelpers(t *testing.T) {
	cfg := Default()
	if got := cfg.TreeDir("/base"); got != "/base/trees" {
		t.Errorf("TreeDir = %q", got)
	}

	cfg.Paths.TreeDir = "/abs/trees"
	if got := cfg.TreeDir("/base"); got != "/abs/trees" {
		t.Errorf("absolute TreeDir = %q", got)
	}

	if got := cfg.LogFile("/base"); got != "" {
		t.Errorf("LogFile with no file = %q", got)
	}
	cfg.Logging.File = "state/run.log"
	if got := cfg.LogFile("/base"); got != "/base/state/run.log" {
		t.Errorf("LogFile = %q", got)
	}
}
