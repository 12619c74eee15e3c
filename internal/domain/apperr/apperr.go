// Package apperr defines the error taxonomy shared by every core operation.
//
// Each domain package declares its sentinels with one of the constructors
// below; callers match them with errors.Is and map the Kind to a response.
package apperr

import "errors"

type Kind string

const (
	// KindValidation: bad input shape or range, rejected before any state change.
	KindValidation Kind = "validation"
	// KindStateConflict: the entity is not in a state that allows the operation.
	KindStateConflict Kind = "state_conflict"
	// KindCapacity: the request does not fit; resubmit with a corrected amount.
	KindCapacity Kind = "capacity"
	KindNotFound Kind = "not_found"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	parent  *Error
}

func (e *Error) Error() string { return e.Message }

// Is lets a specialised sentinel also match the sentinel it refines,
// e.g. ErrAlreadyDecided matches ErrInvalidTransition.
func (e *Error) Is(target error) bool {
	for p := e.parent; p != nil; p = p.parent {
		if p == target {
			return true
		}
	}
	return false
}

func Validation(code, msg string) *Error { return &Error{Kind: KindValidation, Code: code, Message: msg} }

func StateConflict(code, msg string) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: msg}
}

func Capacity(code, msg string) *Error { return &Error{Kind: KindCapacity, Code: code, Message: msg} }

func NotFound(code, msg string) *Error { return &Error{Kind: KindNotFound, Code: code, Message: msg} }

// Refine returns a sentinel of the same kind that also matches parent.
func Refine(parent *Error, code, msg string) *Error {
	return &Error{Kind: parent.Kind, Code: code, Message: msg, parent: parent}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or "" for infrastructure errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
