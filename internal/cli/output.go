package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the operation ran and failed (conflict, invalid rows only)
	ExitCommandError = 2 // bad flags, unreadable file, store unreachable
)

// ExitError carries a process exit code alongside the message.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

// NewExitError creates an ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error. Plain errors map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
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
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope printed with --format json.
type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError mirrors the API error body.
type CLIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Success prints data as JSON, or calls text for human output.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Failure prints err and returns an ExitError with code.
func (f *OutputFormatter) Failure(code int, message string, err error) error {
	appErr := appErrors.FromError(err)
	var typed *appErrors.Error
	if !errors.As(err, &typed) {
		appErr = appErrors.Clone(appErr, err.Error())
	}
	var details interface{}
	if len(appErr.Fields) > 0 {
		details = appErr.Fields
	}
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: appErr.Code, Message: appErr.Message, Details: details},
		})
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", appErr.Code, appErr.Message)
		if f.Verbose && err != nil {
			fmt.Fprintf(f.GetErrWriter(), "Details: %v\n", err)
		}
	}
	return WrapExitError(code, message, err)
}

// VerboseLog writes to ErrWriter only in verbose mode so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
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
