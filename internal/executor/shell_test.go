package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesCombinedOutput(t *testing.T) {
	e := NewShellExecutor()

	res, err := e.Run(context.Background(), "echo out; echo err 1>&2")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.Success || res.ExitCode != 0 {
		t.Errorf("expected success, got %+v", res)
	}
	if !strings.Contains(res.Output, "out") || !strings.Contains(res.Output, "err") {
		t.Errorf("combined output missing streams: %q", res.Output)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	e := NewShellExecutor()

	res, err := e.Run(context.Background(), "exit 3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Success || res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %+v", res)
	}
}

func TestRunEmptyCommand(t *testing.T) {
	e := NewShellExecutor()
	if _, err := e.Run(context.Background(), ""); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestRunCancellation(t *testing.T) {
	e := NewShellExecutor()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res, err := e.Run(ctx, "sleep 30")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != -1 {
		t.Errorf("expected exit code -1 after cancellation, got %d", res.ExitCode)
	}
	if time.Since(start) > 10*time.Second {
		t.Error("cancelled process was not terminated promptly")
	}
}
