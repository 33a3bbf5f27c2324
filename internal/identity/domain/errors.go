package domain

import "errors"

// Kind classifies domain errors so the transport boundary can map them to
// status codes deterministically instead of matching message strings.
type Kind uint8

const (
	// KindInvalidInput reports a malformed or missing required field.
	KindInvalidInput Kind = iota + 1
	// KindInvalidState reports an operation that is illegal for the
	// aggregate's current state.
	KindInvalidState
	// KindInvalidOperation reports an operation that is legal in principle
	// but blocked by a runtime condition such as expiry or revocation.
	KindInvalidOperation
	// KindUnauthorized reports a credential or signature failure.
	KindUnauthorized
	// KindNotFound reports a referenced aggregate that does not exist.
	KindNotFound
	// KindConflict is reserved for duplicate-registration style failures.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a domain error with a machine-readable kind.
type Error struct {
	kind    Kind
	message string
}

func (e *Error) Error() string { return e.message }

func (e *Error) Kind() Kind { return e.kind }

// KindOf returns the kind of a domain error, or 0 when err is not one.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.kind
	}
	return 0
}

func NewInvalidInput(msg string) error { return &Error{kind: KindInvalidInput, message: msg} }

func NewInvalidState(msg string) error { return &Error{kind: KindInvalidState, message: msg} }

func NewInvalidOperation(msg string) error {
	return &Error{kind: KindInvalidOperation, message: msg}
}

func NewUnauthorized(msg string) error { return &Error{kind: KindUnauthorized, message: msg} }

func NewNotFound(msg string) error { return &Error{kind: KindNotFound, message: msg} }

func NewConflict(msg string) error { return &Error{kind: KindConflict, message: msg} }
