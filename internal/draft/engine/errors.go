package engine

import (
	"errors"
	"fmt"
)

// Code is a stable, user-facing error code for precondition failures.
type Code string

const (
	CodeNotEnoughParticipants Code = "NOT_ENOUGH_PARTICIPANTS"
	CodeMissingNominations    Code = "PREREQ_MISSING_NOMINATIONS"
	CodeInsufficientNoms      Code = "PREREQ_INSUFFICIENT_NOMINATIONS"
	CodeAlreadyStarted        Code = "DRAFT_ALREADY_STARTED"
	CodeInvalidState          Code = "INVALID_STATE"
	CodeCeremonyLocked        Code = "CEREMONY_LOCKED"
	CodeNominationTaken       Code = "NOMINATION_TAKEN"
	CodeNominationUnknown     Code = "NOMINATION_UNKNOWN"
	CodeNotOnTurn             Code = "NOT_ON_TURN"
	CodeDraftNotFound         Code = "DRAFT_NOT_FOUND"
	CodeForbidden             Code = "FORBIDDEN"

	// CodeAutodraftEmptyPool marks an internal inconsistency: the scheduler
	// was asked to pick from an empty pool that start preconditions should
	// have made impossible. It is reported, never silently swallowed.
	CodeAutodraftEmptyPool Code = "AUTODRAFT_EMPTY_POOL"
)

// Error is a typed draft-engine error. Precondition failures carry a stable
// Code so callers can map them without string matching.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the engine error code from err, or "" when err is not an
// engine error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
