// Package fault defines the error kinds a contract call can fail with.
//
// Every failure is terminal for the call that produced it: the host discards
// the call's writes and nothing is retried internally.
package fault

import (
	"errors"
	"fmt"
)

// Code categorizes contract errors.
type Code string

const (
	// CodeAlreadyInitialized indicates a second construction attempt.
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"

	// CodeUninitialized indicates a call before construction.
	CodeUninitialized Code = "UNINITIALIZED"

	// CodeUnauthorized indicates a non-owner caller on a mutating call.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeIndexOutOfRange indicates an invalid slot index.
	CodeIndexOutOfRange Code = "INDEX_OUT_OF_RANGE"

	// CodeNotFound indicates a positional read past the end of the store.
	CodeNotFound Code = "NOT_FOUND"

	// CodeVersionMismatch indicates a slot holding a different tag than expected,
	// or a generation that is not (or no longer) present.
	CodeVersionMismatch Code = "VERSION_MISMATCH"

	// CodeAlreadyMigrated indicates a one-shot migration invoked twice.
	CodeAlreadyMigrated Code = "ALREADY_MIGRATED"

	// CodeInvalidArgument indicates a call argument that cannot be stored
	// verbatim, such as a string that is not valid UTF-8.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeCorruptState indicates persisted bytes that do not decode into a
	// consistent store.
	CodeCorruptState Code = "CORRUPT_STATE"
)

// Error is a contract failure with structured context for diagnostics.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Op is the operation that failed, when known.
	Op string

	// Index is the slot involved (IndexOutOfRange, NotFound, VersionMismatch).
	Index int

	// Tag is the generation tag the operation expected, when relevant.
	Tag uint8
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithOp returns a copy of the error annotated with the failing operation.
// An existing Op is kept so the innermost operation wins.
func (e *Error) WithOp(op string) *Error {
	cp := *e
	if cp.Op == "" {
		cp.Op = op
	}
	return &cp
}

// CodeOf extracts the error code from an error chain.
// Returns the empty code if err is not a *Error.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// Annotate sets Op on a *Error found in err, leaving other errors untouched.
func Annotate(err error, op string) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.WithOp(op)
	}
	return err
}

func is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsAlreadyInitialized reports whether err is an AlreadyInitialized failure.
func IsAlreadyInitialized(err error) bool { return is(err, CodeAlreadyInitialized) }

// IsUninitialized reports whether err is an Uninitialized failure.
func IsUninitialized(err error) bool { return is(err, CodeUninitialized) }

// IsUnauthorized reports whether err is an Unauthorized failure.
func IsUnauthorized(err error) bool { return is(err, CodeUnauthorized) }

// IsIndexOutOfRange reports whether err is an IndexOutOfRange failure.
func IsIndexOutOfRange(err error) bool { return is(err, CodeIndexOutOfRange) }

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsVersionMismatch reports whether err is a VersionMismatch failure.
func IsVersionMismatch(err error) bool { return is(err, CodeVersionMismatch) }

// IsAlreadyMigrated reports whether err is an AlreadyMigrated failure.
func IsAlreadyMigrated(err error) bool { return is(err, CodeAlreadyMigrated) }

// IsInvalidArgument reports whether err is an InvalidArgument failure.
func IsInvalidArgument(err error) bool { return is(err, CodeInvalidArgument) }

// IsCorruptState reports whether err is a CorruptState failure.
func IsCorruptState(err error) bool { return is(err, CodeCorruptState) }

// NewAlreadyInitialized creates an error for a repeated construction.
func NewAlreadyInitialized() *Error {
	return &Error{Code: CodeAlreadyInitialized, Message: "already initialized"}
}

// NewUninitialized creates an error for a call before construction.
func NewUninitialized() *Error {
	return &Error{Code: CodeUninitialized, Message: "store must be constructed before use"}
}

// NewUnauthorized creates an error for a rejected caller.
func NewUnauthorized(caller, owner string) *Error {
	return &Error{
		Code:    CodeUnauthorized,
		Message: fmt.Sprintf("caller %q is not the owner %q", caller, owner),
	}
}

// NewIndexOutOfRange creates an error for an index at or past length.
func NewIndexOutOfRange(index, length int) *Error {
	return &Error{
		Code:    CodeIndexOutOfRange,
		Message: fmt.Sprintf("index %d out of range (len %d)", index, length),
		Index:   index,
	}
}

// NewNotFound creates an error for a positional read with no record.
func NewNotFound(index, length int) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("no record at index %d (len %d)", index, length),
		Index:   index,
	}
}

// NewVersionMismatch creates an error for an unexpected tag at a slot.
func NewVersionMismatch(index int, want, got uint8) *Error {
	return &Error{
		Code:    CodeVersionMismatch,
		Message: fmt.Sprintf("slot %d holds generation %d, want generation %d", index, got, want),
		Index:   index,
		Tag:     want,
	}
}

// NewGenerationAbsent creates a VersionMismatch for a generation with no slot.
func NewGenerationAbsent(want uint8) *Error {
	return &Error{
		Code:    CodeVersionMismatch,
		Message: fmt.Sprintf("generation %d is not present", want),
		Index:   -1,
		Tag:     want,
	}
}

// NewAlreadyMigrated creates an error for a repeated one-shot migration.
func NewAlreadyMigrated(migration string) *Error {
	return &Error{
		Code:    CodeAlreadyMigrated,
		Message: fmt.Sprintf("migration %q already applied", migration),
	}
}

// NewInvalidUTF8 creates an error for a string argument that is not valid UTF-8.
func NewInvalidUTF8(field string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf("%s is not valid UTF-8", field)}
}

// NewCorruptState creates an error for undecodable or inconsistent state.
func NewCorruptState(message string) *Error {
	return &Error{Code: CodeCorruptState, Message: message}
}
