package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/logger"

	"github.com/fatih/color"
)

type ExitCode int

const (
	ExitCodeSuccess              ExitCode = 0
	ExitCodeGeneral              ExitCode = 1
	ExitCodeConfig               ExitCode = 2
	ExitCodeClipboardUnavailable ExitCode = 3
	ExitCodeClipboardClear       ExitCode = 4
	ExitCodeUnsupportedPlatform  ExitCode = 5
	ExitCodeValidation           ExitCode = 6
	ExitCodeFileOperation        ExitCode = 7
	ExitCodeCancellation         ExitCode = 8
	ExitCodeNotFound             ExitCode = 9
	ExitCodeHistory              ExitCode = 10
)

// Standardized error messages for consistent user-facing errors
const (
	ErrMsgCaptureFailed = "Failed to capture clipboard"
	ErrMsgRestoreFailed = "Failed to restore clipboard"
	ErrMsgHistoryFailed = "History operation failed"
)

type Error struct {
	Code       ExitCode
	Message    string
	Underlying error
	Suggestion string
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

func New(code ExitCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func NewWithError(code ExitCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
	}
}

func NewWithSuggestion(code ExitCode, message string, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

func NewWithAll(code ExitCode, message string, err error, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Suggestion: suggestion,
	}
}

func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}

	if wrapped, ok := err.(*Error); ok {
		return &Error{
			Code:       wrapped.Code,
			Message:    message + ": " + wrapped.Message,
			Underlying: wrapped.Underlying,
			Suggestion: wrapped.Suggestion,
		}
	}

	return &Error{
		Code:       ExitCodeGeneral,
		Message:    message,
		Underlying: err,
	}
}

// CodeOf returns the exit code carried by err, ExitCodeGeneral for plain
// errors and ExitCodeSuccess for nil.
func CodeOf(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ExitCodeGeneral
}

// HandleReturn logs err, prints it with its suggestion to stderr, and
// returns the exit code the process should end with.
func HandleReturn(err error) ExitCode {
	return handleTo(os.Stderr, err)
}

func handleTo(w io.Writer, err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitCode ExitCode = ExitCodeGeneral
	var message string
	var suggestion string

	var e *Error
	if stderrors.As(err, &e) {
		exitCode = e.Code
		message = e.Message
		suggestion = e.Suggestion

		if e.Underlying != nil {
			logger.Error().Err(e.Underlying).Msg(e.Message)
			message = e.Error()
		} else {
			logger.Error().Msg(e.Message)
		}
	} else {
		message = err.Error()
		logger.Error().Msg(message)
	}

	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	fmt.Fprintln(w)
	red.Fprint(w, "Error: ")
	fmt.Fprintln(w, message)

	if suggestion != "" {
		yellow.Fprint(w, "Suggestion: ")
		lines := strings.Split(suggestion, "\n")
		for i, line := range lines {
			if i == 0 {
				fmt.Fprintln(w, line)
			} else {
				if strings.HasPrefix(line, "  -") {
					cyan.Fprintln(w, line)
				} else {
					fmt.Fprintln(w, "           "+line)
				}
			}
		}
	}

	fmt.Fprintln(w)

	return exitCode
}

// HandleQuietReturn is HandleReturn for --format json|yaml: err is logged
// as one record and nothing is printed around it.
func HandleQuietReturn(err error) ExitCode {
	if err == nil {
		return ExitCodeSuccess
	}

	var e *Error
	if stderrors.As(err, &e) {
		event := logger.Error().Int("exit_code", int(e.Code))
		if e.Underlying != nil {
			event = event.Err(e.Underlying)
		}
		if e.Suggestion != "" {
			event = event.Str("suggestion", e.Suggestion)
		}
		event.Msg(e.Message)
		return e.Code
	}

	logger.Error().Err(err).Int("exit_code", int(ExitCodeGeneral)).Msg("operation failed")
	return ExitCodeGeneral
}

func ClipboardBusyError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboardUnavailable,
		Message:    "Could not open the clipboard",
		Underlying: err,
		Suggestion: "Another application is holding the clipboard. Retry with --retries 5 --retry-interval 200ms.",
	}
}

func ClearFailedError(err error) *Error {
	return &Error{
		Code:       ExitCodeClipboardClear,
		Message:    "Could not clear the clipboard; nothing was restored",
		Underlying: err,
	}
}

func UnsupportedPlatformError() *Error {
	return &Error{
		Code:       ExitCodeUnsupportedPlatform,
		Message:    "Clipboard snapshots are only supported on Windows",
		Suggestion: "Use 'clipkeeper peek' to read plain text on this platform.",
	}
}

// FromClipboardError maps clipboard engine errors to exit codes. Other
// errors are wrapped as general failures of operation.
func FromClipboardError(operation string, err error) *Error {
	if err == nil {
		return nil
	}
	switch {
	case stderrors.Is(err, clipboard.ErrUnsupportedPlatform):
		return UnsupportedPlatformError()
	case stderrors.Is(err, clipboard.ErrUnavailable):
		return ClipboardBusyError(err)
	case stderrors.Is(err, clipboard.ErrClearFailed):
		return ClearFailedError(err)
	}
	return Wrap(err, operation)
}

func SnapshotFileNotFoundError(path string) *Error {
	return &Error{
		Code:       ExitCodeNotFound,
		Message:    fmt.Sprintf("Snapshot file '%s' not found", path),
		Suggestion: "Run 'clipkeeper save' first, or pass the path of an existing snapshot file.",
	}
}

func InvalidSnapshotError(path string, err error) *Error {
	return &Error{
		Code:       ExitCodeValidation,
		Message:    fmt.Sprintf("Snapshot file '%s' is not a valid snapshot", path),
		Underlying: err,
	}
}

func SnapshotNotFoundError(ref string) *Error {
	return &Error{
		Code:       ExitCodeNotFound,
		Message:    fmt.Sprintf("History entry '%s' not found", ref),
		Suggestion: "Use 'clipkeeper history list' to see stored snapshots.",
	}
}

func AmbiguousSnapshotError(ref string, matches []string) *Error {
	suggestionText := "Use a longer id prefix. Matching entries:\n"
	for _, m := range matches {
		suggestionText += fmt.Sprintf("  - %s\n", m)
	}
	return &Error{
		Code:       ExitCodeValidation,
		Message:    fmt.Sprintf("History reference '%s' is ambiguous", ref),
		Suggestion: strings.TrimRight(suggestionText, "\n"),
	}
}

func HistoryError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeHistory,
		Message:    message,
		Underlying: err,
		Suggestion: "Check the history database path with 'clipkeeper config show'.",
	}
}

func FileError(message string, err error) *Error {
	return &Error{
		Code:       ExitCodeFileOperation,
		Message:    message,
		Underlying: err,
	}
}

func ConfigError(message string) *Error {
	return &Error{
		Code:       ExitCodeConfig,
		Message:    message,
		Suggestion: "Check your configuration file or set the required environment variables.",
	}
}

func ValidationError(message string) *Error {
	return &Error{
		Code:    ExitCodeValidation,
		Message: message,
	}
}

func CancelledError(operation string) *Error {
	return &Error{
		Code:       ExitCodeCancellation,
		Message:    fmt.Sprintf("Operation cancelled: %s", operation),
		Suggestion: "The operation was interrupted. No changes were made.",
	}
}
