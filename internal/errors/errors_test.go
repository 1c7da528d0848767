package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := UnknownIdentifier("names")
	if !strings.Contains(err.Error(), CodeResolveUnknownIdentifier) {
		t.Errorf("error string missing code: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "names") {
		t.Errorf("error string missing identifier: %s", err.Error())
	}
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := TemplateError("{{x}}", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap did not return cause")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("cause missing from message: %s", err.Error())
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := MissingKey("cmd", "command")
	wrapped := fmt.Errorf("validating: %w", inner)

	if !HasCode(wrapped, CodeValidateMissingKey) {
		t.Error("HasCode failed to unwrap")
	}
	if HasCode(wrapped, CodeExecProcess) {
		t.Error("HasCode matched wrong code")
	}
	if Code(wrapped) != CodeValidateMissingKey {
		t.Errorf("Code returned %q", Code(wrapped))
	}
	if Code(fmt.Errorf("plain")) != "" {
		t.Error("Code on plain error must be empty")
	}
}

func TestWithDetail(t *testing.T) {
	err := New(CodeExecProcess, "process failed").WithDetail("exit_code", 2)
	if err.Details["exit_code"] != 2 {
		t.Errorf("detail not stored: %v", err.Details)
	}
}
