package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/filtersql/internal/queryir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Filter rejected, scenarios failed, non-portable under --strict
	ExitCommandError = 2 // Command error (unreadable input, database unavailable, etc.)
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input could not be read
	ErrCodeParseFailed = "E003" // Input is not well-formed JSON/YAML
	ErrCodeCUEFailed   = "E004" // CUE evaluation failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeStoreFailed = "E006" // Database open/read/write failed
	ErrCodeConfig      = "E007" // Invalid configuration

	// Filter errors, one per queryir.ErrorCode
	ErrCodeInvalidFieldPath    = "E201"
	ErrCodeUnsupportedOperator = "E202"
	ErrCodeEmptyNegation       = "E203"
	ErrCodeTypeMismatch        = "E204"
	ErrCodeDepthExceeded       = "E205"
	ErrCodeNotPortable         = "E210" // --strict and the filter is not portable

	ErrCodeScenarioFailed = "E301" // One or more harness scenarios failed
)

// filterErrorCodes maps filter error codes onto CLI error codes.
var filterErrorCodes = map[queryir.ErrorCode]string{
	queryir.ErrCodeInvalidFieldPath:    ErrCodeInvalidFieldPath,
	queryir.ErrCodeUnsupportedOperator: ErrCodeUnsupportedOperator,
	queryir.ErrCodeEmptyNegation:       ErrCodeEmptyNegation,
	queryir.ErrCodeTypeMismatch:        ErrCodeTypeMismatch,
	queryir.ErrCodeDepthExceeded:       ErrCodeDepthExceeded,
}

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
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

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Diagnostic output; defaults to Writer
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E201", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// textRenderer is implemented by payloads with a human-readable form.
type textRenderer interface {
	renderText(w io.Writer)
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	if r, ok := data.(textRenderer); ok {
		r.renderText(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Filter errors exit with ExitFailure and carry their path and operator as
// details; anything else exits with ExitCommandError under fallbackCode.
func (f *OutputFormatter) Fail(fallbackCode, message string, err error) error {
	var fe *queryir.FilterError
	if errors.As(err, &fe) {
		details := map[string]string{"kind": string(fe.Code)}
		if fe.Path != "" {
			details["path"] = fe.Path
		}
		if fe.Operator != "" {
			details["operator"] = fe.Operator
		}
		if outErr := f.Error(filterErrorCodes[fe.Code], fe.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, message, err)
	}

	if outErr := f.Error(fallbackCode, fmt.Sprintf("%s: %v", message, err), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Verbose logs go to ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	return enc.Encode(resp)
}
