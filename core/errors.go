package core

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for translation to a REST status code.
type Kind int

const (
	// KindInternal marks an invariant violation or unsupported runtime state.
	KindInternal Kind = iota
	KindNotFound
	KindBadRequest
	KindConflict
	KindDatabase
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindBadRequest:
		return "BadRequest"
	case KindConflict:
		return "Conflict"
	case KindDatabase:
		return "DatabaseError"
	default:
		return "InternalError"
	}
}

// Error is the watchdog's error taxonomy: every error that crosses a
// component boundary carries a Kind so the REST layer can map it to a
// JSend envelope and status code without re-deriving the classification.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewNotFound builds a KindNotFound error.
func NewNotFound(format string, args ...any) error { return newErr(KindNotFound, format, args...) }

// NewBadRequest builds a KindBadRequest error.
func NewBadRequest(format string, args ...any) error {
	return newErr(KindBadRequest, format, args...)
}

// NewConflict builds a KindConflict error.
func NewConflict(format string, args ...any) error { return newErr(KindConflict, format, args...) }

// NewInternal builds a KindInternal error.
func NewInternal(format string, args ...any) error { return newErr(KindInternal, format, args...) }

// WrapDatabase wraps a lower-level store error as KindDatabase.
func WrapDatabase(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindDatabase, Msg: fmt.Sprintf("%s failed", op), Err: err}
}

// WrapInternal wraps a lower-level error as KindInternal.
func WrapInternal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindInternal, Msg: fmt.Sprintf("%s failed", op), Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal when err is
// not (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	// ErrBadZone indicates an unknown IANA time zone name.
	ErrBadZone = errors.New("unknown time zone")
	// ErrBadSchedule indicates a cron expression that failed to parse.
	ErrBadSchedule = errors.New("invalid cron schedule")
	// ErrNoPrior indicates no prior fire could be found within the search bound.
	ErrNoPrior = errors.New("no prior cron fire found")
)
