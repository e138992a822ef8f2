package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/fault"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The contract refused the call, or a scenario failed
	ExitCommandError = 2 // Bad flags, config, store I/O or corrupt state
)

// Response codes reported in CLIError.Code.
const (
	ErrCodeGeneric   = "E001" // Generic/unknown error
	ErrCodeUsage     = "E002" // Invalid flag value
	ErrCodeConfig    = "E003" // Config file unreadable or invalid
	ErrCodeStore     = "E004" // Byte store I/O failure
	ErrCodeUnknownOp = "E005" // Operation not in the table
	ErrCodeNoJournal = "E006" // Backend keeps no call journal
	ErrCodeNotFound  = "E007" // Path not found

	ErrCodeAlreadyInitialized = "E101"
	ErrCodeUninitialized      = "E102"
	ErrCodeUnauthorized       = "E103"
	ErrCodeIndexOutOfRange    = "E104"
	ErrCodeSlotNotFound       = "E105"
	ErrCodeVersionMismatch    = "E106"
	ErrCodeAlreadyMigrated    = "E107"
	ErrCodeCorruptState       = "E108"
	ErrCodeInvalidArgument    = "E109"

	ErrCodeScenarioFailed = "E201" // One or more scenarios failed
)

var faultCodes = map[fault.Code]string{
	fault.CodeAlreadyInitialized: ErrCodeAlreadyInitialized,
	fault.CodeUninitialized:      ErrCodeUninitialized,
	fault.CodeUnauthorized:       ErrCodeUnauthorized,
	fault.CodeIndexOutOfRange:    ErrCodeIndexOutOfRange,
	fault.CodeNotFound:           ErrCodeSlotNotFound,
	fault.CodeVersionMismatch:    ErrCodeVersionMismatch,
	fault.CodeAlreadyMigrated:    ErrCodeAlreadyMigrated,
	fault.CodeInvalidArgument:    ErrCodeInvalidArgument,
	fault.CodeCorruptState:       ErrCodeCorruptState,
}

// Classify maps a call error to a response code and exit code.
func Classify(err error) (code string, exit int) {
	if c := fault.CodeOf(err); c != "" {
		if c == fault.CodeCorruptState {
			return faultCodes[c], ExitCommandError
		}
		return faultCodes[c], ExitFailure
	}
	if errors.Is(err, engine.ErrUnknownOperation) {
		return ErrCodeUnknownOp, ExitCommandError
	}
	return ErrCodeStore, ExitCommandError
}

// ExitError represents an error with a specific exit code. A command that
// returns an ExitError has already reported it to the user.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
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
// Returns ExitCommandError if the error is not an ExitError: cobra's own
// errors are usage mistakes.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Text errors and verbose output (defaults to Writer)
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
	Code    string `json:"code"`              // "E001", "E103", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	return f.Render(data, func(w io.Writer) {
		fmt.Fprintln(w, data)
	})
}

// Render outputs data as a JSON response, or calls text to print it.
func (f *OutputFormatter) Render(data any, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}
	text(f.Writer)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	w := f.GetErrWriter()
	fmt.Fprintf(w, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(w, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError.
func (f *OutputFormatter) Fail(code string, exit int, err error) error {
	if werr := f.Error(code, err.Error(), details(err)); werr != nil {
		return WrapExitError(exit, "write error response", werr)
	}
	return WrapExitError(exit, code, err)
}

// FailCall reports a failed contract call.
func (f *OutputFormatter) FailCall(err error) error {
	code, exit := Classify(err)
	return f.Fail(code, exit, err)
}

// details exposes the structured fields of a contract error.
func details(err error) any {
	var fe *fault.Error
	if !errors.As(err, &fe) {
		return nil
	}
	d := map[string]any{"kind": string(fe.Code)}
	if fe.Op != "" {
		d["op"] = fe.Op
	}
	switch fe.Code {
	case fault.CodeIndexOutOfRange, fault.CodeNotFound, fault.CodeVersionMismatch:
		d["index"] = fe.Index
	}
	if fe.Tag != 0 {
		d["tag"] = fe.Tag
	}
	return d
}

// VerboseLog outputs a message only if verbose mode is enabled.
// It writes to ErrWriter so JSON output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
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
