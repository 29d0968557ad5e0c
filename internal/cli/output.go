package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/perfumery/internal/api"
	"github.com/roach88/perfumery/internal/config"
	"github.com/roach88/perfumery/internal/session"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The API or local state refused the operation
	ExitCommandError = 2 // Command error (bad flags, bad config, store unavailable)
)

// Error codes for failures that do not come from the API.
const (
	ErrCodeUsage       = "USAGE"
	ErrCodeConfig      = "CONFIG"
	ErrCodeStore       = "STORE"
	ErrCodeNotSignedIn = "NOT_SIGNED_IN"
	ErrCodeGeneric     = "ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	ErrCode string // Machine-readable code shown to the user
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// usageError reports bad command input.
func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitCommandError, ErrCode: ErrCodeUsage, Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// describe maps err to the code and message shown to the user.
func describe(err error) (code, msg string) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode, err.Error()
	}
	if apiErr, ok := api.AsError(err); ok {
		code = apiErr.Code
		if code == "" {
			code = strings.ToUpper(string(apiErr.Kind))
		}
		msg = apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return code, msg
	}
	var cfgErr *config.Error
	switch {
	case errors.Is(err, session.ErrNotSignedIn):
		return ErrCodeNotSignedIn, "sign in first: perfumery auth login"
	case errors.As(err, &cfgErr):
		return ErrCodeConfig, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool

	printer *message.Printer
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // API error code or one of the ErrCode constants
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// JSON reports whether output is machine-readable.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Emit writes data as a JSON response, or calls text to render it.
func (f *OutputFormatter) Emit(data interface{}, text func()) error {
	if f.JSON() {
		return f.Success(data)
	}
	text()
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", details)
	}
	return nil
}

// Report writes err and returns the process exit code.
func (f *OutputFormatter) Report(err error) int {
	if err == nil {
		return ExitSuccess
	}
	code, msg := describe(err)
	var details interface{}
	if apiErr, ok := api.AsError(err); ok {
		details = map[string]interface{}{
			"method": apiErr.Method,
			"path":   apiErr.Path,
			"status": apiErr.Status,
		}
	}
	_ = f.Error(code, msg, details)
	return GetExitCode(err)
}

// Printf writes localized text output: integers get digit grouping.
func (f *OutputFormatter) Printf(format string, args ...interface{}) {
	if f.printer == nil {
		f.printer = message.NewPrinter(language.English)
	}
	f.printer.Fprintf(f.Writer, format, args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
