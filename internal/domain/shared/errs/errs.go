// Package errs classifies domain failures so transports can report a specific
// reason instead of a generic error.
package errs

import "errors"

// Kinds. Every *Error unwraps to exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrUpstream   = errors.New("upstream failure")
)

// Error is a classified failure with a stable machine readable reason.
type Error struct {
	Kind    error
	Reason  string
	Message string
}

func New(kind error, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func Validation(reason, message string) *Error { return New(ErrValidation, reason, message) }
func Forbidden(reason, message string) *Error  { return New(ErrForbidden, reason, message) }
func NotFound(reason, message string) *Error   { return New(ErrNotFound, reason, message) }
func Conflict(reason, message string) *Error   { return New(ErrConflict, reason, message) }

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// ReasonOf returns the reason of the outermost classified error in the chain.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// KindOf returns the kind of err, or nil when it is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrForbidden, ErrNotFound, ErrConflict, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

var kindNames = map[error]string{
	ErrValidation: "validation",
	ErrForbidden:  "forbidden",
	ErrNotFound:   "not_found",
	ErrConflict:   "conflict",
	ErrUpstream:   "upstream",
}

// KindName is the stable name of err's kind, empty when unclassified.
func KindName(err error) string {
	return kindNames[KindOf(err)]
}

// Restore rebuilds a classified error from its persisted parts. Unknown kinds
// come back as upstream failures.
func Restore(kindName, reason, message string) *Error {
	for kind, name := range kindNames {
		if name == kindName {
			return New(kind, reason, message)
		}
	}
	return New(ErrUpstream, reason, message)
}
