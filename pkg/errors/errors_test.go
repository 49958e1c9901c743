package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/logger"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "basic error without underlying",
			err:      &Error{Code: ExitCodeGeneral, Message: "test error"},
			expected: "test error",
		},
		{
			name:     "error with underlying",
			err:      &Error{Code: ExitCodeConfig, Message: "config error", Underlying: errors.New("file not found")},
			expected: "config error: file not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			if result != tt.expected {
				t.Errorf("Error() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{
		Code:       ExitCodeGeneral,
		Message:    "test error",
		Underlying: underlying,
	}

	if err.Unwrap() != underlying {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), underlying)
	}
}

func TestNew(t *testing.T) {
	err := New(ExitCodeConfig, "configuration error")

	if err.Code != ExitCodeConfig {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeConfig)
	}
	if err.Message != "configuration error" {
		t.Errorf("Message = %q, want %q", err.Message, "configuration error")
	}
	if err.Underlying != nil {
		t.Errorf("Underlying = %v, want nil", err.Underlying)
	}
}

func TestNewWithError(t *testing.T) {
	underlying := errors.New("OpenClipboard failed")
	err := NewWithError(ExitCodeClipboardUnavailable, "clipboard busy", underlying)

	if err.Code != ExitCodeClipboardUnavailable {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeClipboardUnavailable)
	}
	if err.Message != "clipboard busy" {
		t.Errorf("Message = %q, want %q", err.Message, "clipboard busy")
	}
	if err.Underlying != underlying {
		t.Errorf("Underlying = %v, want %v", err.Underlying, underlying)
	}
}

func TestNewWithSuggestion(t *testing.T) {
	err := NewWithSuggestion(ExitCodeValidation, "invalid input", "Check the documentation for valid values")

	if err.Code != ExitCodeValidation {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeValidation)
	}
	if err.Message != "invalid input" {
		t.Errorf("Message = %q, want %q", err.Message, "invalid input")
	}
	if err.Suggestion != "Check the documentation for valid values" {
		t.Errorf("Suggestion = %q, want %q", err.Suggestion, "Check the documentation for valid values")
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("original error")
	err := Wrap(underlying, "wrapped message")

	if err.Error() != "wrapped message: original error" {
		t.Errorf("Error() = %q, want %q", err.Error(), "wrapped message: original error")
	}

	if Wrap(nil, "message") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapWrapsError(t *testing.T) {
	wrappedErr := New(ExitCodeNotFound, "not found error")
	err := Wrap(wrappedErr, "outer error")

	if err.Code != ExitCodeNotFound {
		t.Errorf("Code = %d, want %d", err.Code, ExitCodeNotFound)
	}
	if err.Message != "outer error: not found error" {
		t.Errorf("Message = %q, want %q", err.Message, "outer error: not found error")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(nil) != ExitCodeSuccess {
		t.Errorf("CodeOf(nil) = %d, want %d", CodeOf(nil), ExitCodeSuccess)
	}
	if CodeOf(errors.New("plain")) != ExitCodeGeneral {
		t.Errorf("CodeOf(plain) = %d, want %d", CodeOf(errors.New("plain")), ExitCodeGeneral)
	}
	wrapped := fmt.Errorf("restore: %w", New(ExitCodeClipboardClear, "clear failed"))
	if CodeOf(wrapped) != ExitCodeClipboardClear {
		t.Errorf("CodeOf(wrapped) = %d, want %d", CodeOf(wrapped), ExitCodeClipboardClear)
	}
}

func TestHandleReturn(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if code := HandleReturn(nil); code != ExitCodeSuccess {
			t.Errorf("HandleReturn(nil) = %d, want %d", code, ExitCodeSuccess)
		}
	})

	t.Run("structured error prints message and suggestion", func(t *testing.T) {
		var buf bytes.Buffer
		err := NewWithAll(ExitCodeClipboardUnavailable, "Could not open the clipboard", errors.New("access denied"), "Retry later")
		if code := handleTo(&buf, err); code != ExitCodeClipboardUnavailable {
			t.Errorf("handleTo() = %d, want %d", code, ExitCodeClipboardUnavailable)
		}
		out := buf.String()
		if !strings.Contains(out, "Could not open the clipboard: access denied") {
			t.Errorf("output %q does not contain the message", out)
		}
		if !strings.Contains(out, "Retry later") {
			t.Errorf("output %q does not contain the suggestion", out)
		}
	})

	t.Run("plain error", func(t *testing.T) {
		var buf bytes.Buffer
		if code := handleTo(&buf, errors.New("boom")); code != ExitCodeGeneral {
			t.Errorf("handleTo() = %d, want %d", code, ExitCodeGeneral)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("output %q does not contain the error", buf.String())
		}
	})
}

func TestHandleQuietReturn(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	if code := HandleQuietReturn(nil); code != ExitCodeSuccess {
		t.Errorf("HandleQuietReturn(nil) = %d, want %d", code, ExitCodeSuccess)
	}
	if buf.Len() != 0 {
		t.Errorf("nil error logged %q", buf.String())
	}

	err := NewWithAll(ExitCodeNotFound, "Snapshot not found", errors.New("no rows"), "Run 'clipkeeper history list'.")
	if code := HandleQuietReturn(err); code != ExitCodeNotFound {
		t.Errorf("HandleQuietReturn() = %d, want %d", code, ExitCodeNotFound)
	}

	var record map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON log record, got %q: %v", buf.String(), err)
	}
	if record["message"] != "Snapshot not found" {
		t.Errorf("message = %v", record["message"])
	}
	if record["exit_code"] != float64(ExitCodeNotFound) {
		t.Errorf("exit_code = %v", record["exit_code"])
	}
	if record["error"] != "no rows" {
		t.Errorf("error = %v", record["error"])
	}
	if record["suggestion"] != "Run 'clipkeeper history list'." {
		t.Errorf("suggestion = %v", record["suggestion"])
	}

	buf.Reset()
	if code := HandleQuietReturn(errors.New("plain")); code != ExitCodeGeneral {
		t.Errorf("HandleQuietReturn() = %d, want %d", code, ExitCodeGeneral)
	}
	if strings.Contains(buf.String(), "Error:") || !strings.Contains(buf.String(), "plain") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFromClipboardError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ExitCode
	}{
		{name: "unsupported platform", err: clipboard.ErrUnsupportedPlatform, want: ExitCodeUnsupportedPlatform},
		{name: "busy", err: fmt.Errorf("%w: access denied", clipboard.ErrUnavailable), want: ExitCodeClipboardUnavailable},
		{name: "clear failed", err: fmt.Errorf("%w: not owner", clipboard.ErrClearFailed), want: ExitCodeClipboardClear},
		{name: "other", err: errors.New("boom"), want: ExitCodeGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromClipboardError("capture", tt.err)
			if got.Code != tt.want {
				t.Errorf("FromClipboardError() code = %d, want %d", got.Code, tt.want)
			}
		})
	}

	if FromClipboardError("capture", nil) != nil {
		t.Error("FromClipboardError(nil) should return nil")
	}
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		name  string
		fn    func() *Error
		check func(*Error) bool
	}{
		{
			name:  "ClipboardBusyError",
			fn:    func() *Error { return ClipboardBusyError(errors.New("busy")) },
			check: func(e *Error) bool { return e.Code == ExitCodeClipboardUnavailable && e.Suggestion != "" },
		},
		{
			name:  "ClearFailedError",
			fn:    func() *Error { return ClearFailedError(errors.New("denied")) },
			check: func(e *Error) bool { return e.Code == ExitCodeClipboardClear },
		},
		{
			name:  "UnsupportedPlatformError",
			fn:    func() *Error { return UnsupportedPlatformError() },
			check: func(e *Error) bool { return e.Code == ExitCodeUnsupportedPlatform },
		},
		{
			name:  "SnapshotFileNotFoundError",
			fn:    func() *Error { return SnapshotFileNotFoundError("snap.json") },
			check: func(e *Error) bool { return e.Code == ExitCodeNotFound && strings.Contains(e.Message, "snap.json") },
		},
		{
			name:  "InvalidSnapshotError",
			fn:    func() *Error { return InvalidSnapshotError("snap.json", errors.New("bad base64")) },
			check: func(e *Error) bool { return e.Code == ExitCodeValidation },
		},
		{
			name:  "SnapshotNotFoundError",
			fn:    func() *Error { return SnapshotNotFoundError("abc") },
			check: func(e *Error) bool { return e.Code == ExitCodeNotFound },
		},
		{
			name:  "AmbiguousSnapshotError",
			fn:    func() *Error { return AmbiguousSnapshotError("a", []string{"a1", "a2"}) },
			check: func(e *Error) bool { return e.Code == ExitCodeValidation && strings.Contains(e.Suggestion, "  - a2") },
		},
		{
			name:  "HistoryError",
			fn:    func() *Error { return HistoryError("db locked", errors.New("busy")) },
			check: func(e *Error) bool { return e.Code == ExitCodeHistory },
		},
		{
			name:  "FileError",
			fn:    func() *Error { return FileError("write failed", errors.New("disk full")) },
			check: func(e *Error) bool { return e.Code == ExitCodeFileOperation },
		},
		{
			name:  "ConfigError",
			fn:    func() *Error { return ConfigError("invalid yaml") },
			check: func(e *Error) bool { return e.Code == ExitCodeConfig },
		},
		{
			name:  "ValidationError",
			fn:    func() *Error { return ValidationError("missing required field") },
			check: func(e *Error) bool { return e.Code == ExitCodeValidation },
		},
		{
			name:  "CancelledError",
			fn:    func() *Error { return CancelledError("user cancelled") },
			check: func(e *Error) bool { return e.Code == ExitCodeCancellation },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !tt.check(err) {
				t.Errorf("%s() returned error with unexpected code %d", tt.name, err.Code)
			}
		})
	}
}
