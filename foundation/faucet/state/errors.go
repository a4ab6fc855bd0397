package state

import "errors"

// Kind classifies engine errors so the web boundary can pick a status code
// without inspecting messages.
type Kind int

// The set of error kinds the engine produces.
const (
	KindValidation Kind = iota + 1 // request shape is wrong; not retriable
	KindPolicy                     // quota, difficulty, balance; client must adjust
	KindConflict                   // duplicate share; drop and keep mining
	KindTransient                  // storage busy; retry later
	KindFatal                      // broken invariant; fail loudly
)

// Error is an engine error carrying its kind. The message is safe to show
// to clients.
type Error struct {
	kind Kind
	msg  string
}

// NewError constructs an engine error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.msg
}

// Kind returns the classification for this error.
func (e *Error) Kind() Kind {
	return e.kind
}

// ErrorKind extracts the kind from any error. Unclassified errors are
// treated as transient per the propagation policy: internals are never
// leaked verbatim to clients.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindTransient
}

// The canonical request failures. Handlers render these messages verbatim.
var (
	ErrMissingFields       = NewError(KindValidation, "Missing required fields")
	ErrInvalidAddress      = NewError(KindValidation, "Invalid Ethereum address format")
	ErrInvalidNonce        = NewError(KindValidation, "Invalid nonce format")
	ErrInvalidAmount       = NewError(KindValidation, "Invalid withdrawal amount")
	ErrQuotaExceeded       = NewError(KindPolicy, "Maximum shares per block exceeded")
	ErrInsufficientWork    = NewError(KindPolicy, "Insufficient proof-of-work")
	ErrAmountBelowFee      = NewError(KindPolicy, "Amount must exceed withdrawal fee")
	ErrInsufficientBalance = NewError(KindPolicy, "Insufficient balance")
	ErrDuplicateShare      = NewError(KindConflict, "Duplicate share")
)
