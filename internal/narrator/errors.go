package narrator

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	// KindInvalidInput: a required field is missing, empty or contradictory.
	KindInvalidInput
	// KindUnresolvable: an image reference could not be turned into bytes.
	KindUnresolvable
	// KindModel: the model service failed or returned no text.
	KindModel
	// KindStorage: the object store failed.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindUnresolvable:
		return "unresolvable"
	case KindModel:
		return "model"
	case KindStorage:
		return "storage"
	default:
		return "internal"
	}
}

// Error is returned by every Service operation.
type Error struct {
	Kind Kind
	Op   string
	// Detail is safe to show to callers.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Detail, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the caller-facing description.
func (e *Error) Message() string {
	if e.Detail != "" && e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func newError(kind Kind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

func invalid(op, detail string) *Error {
	return newError(KindInvalidInput, op, detail, nil)
}

// KindOf returns the Kind of err, or KindInternal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
