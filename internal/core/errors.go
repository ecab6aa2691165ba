package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable category of a failure.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindConstraint ErrorKind = "constraint"
	KindStorage    ErrorKind = "storage"
	KindAttachment ErrorKind = "attachment"
)

// ConstraintKind narrows a KindConstraint error.
type ConstraintKind string

const (
	ForeignKeyMissing ConstraintKind = "foreign_key_missing"
	UniqueConflict    ConstraintKind = "unique_conflict"
	CheckFailed       ConstraintKind = "check_failed"
	Referenced        ConstraintKind = "referenced"
)

// Error is returned across component boundaries. Message is safe to show to
// a user; the underlying cause, if any, is kept in Err.
type Error struct {
	Kind       ErrorKind
	Constraint ConstraintKind
	Message    string
	Fields     map[string]string
	Err        error
}

// Sentinels for errors.Is. A sentinel without a Constraint matches every
// constraint kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConstraint        = &Error{Kind: KindConstraint}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrAttachment        = &Error{Kind: KindAttachment}
	ErrForeignKeyMissing = &Error{Kind: KindConstraint, Constraint: ForeignKeyMissing}
	ErrUniqueConflict    = &Error{Kind: KindConstraint, Constraint: UniqueConflict}
	ErrCheckFailed       = &Error{Kind: KindConstraint, Constraint: CheckFailed}
	ErrReferenced        = &Error{Kind: KindConstraint, Constraint: Referenced}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Constraint == "" || t.Constraint == e.Constraint
}

// Validation reports malformed or missing input.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// NotFound reports that entity with the given id does not exist.
func NotFound(entity string, id any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

func Constraint(kind ConstraintKind, msg string, cause error) *Error {
	return &Error{Kind: KindConstraint, Constraint: kind, Message: msg, Err: cause}
}

func Storage(msg string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: msg, Err: cause}
}

func Attachment(msg string, cause error) *Error {
	return &Error{Kind: KindAttachment, Message: msg, Err: cause}
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindStorage for errors of unknown origin.
func KindOf(err error) ErrorKind {
	if e, ok := AsError(err); ok {
		return e.Kind
	}
	return KindStorage
}

// ConstraintOf returns the constraint kind of err, or "" when err is not a
// constraint violation.
func ConstraintOf(err error) ConstraintKind {
	if e, ok := AsError(err); ok && e.Kind == KindConstraint {
		return e.Constraint
	}
	return ""
}
