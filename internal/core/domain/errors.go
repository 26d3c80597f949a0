package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure once, at the boundary where it is observed.
type Kind int

const (
	// KindUnknown is the zero value; it never matches a sentinel.
	KindUnknown Kind = iota

	// KindTransport means no response was received.
	KindTransport

	// KindBusiness means the envelope carried a non-zero, non-401 code.
	KindBusiness

	// KindAuthExpired means transport status 401 or envelope code 401.
	KindAuthExpired

	// KindUnauthenticated means a local login could not be validated.
	KindUnauthenticated
)

// String returns the kind label used in error messages and metrics.
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBusiness:
		return "business"
	case KindAuthExpired:
		return "auth_expired"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error is the structured failure returned by every API call.
type Error struct {
	Kind    Kind   // failure class
	Code    int    // envelope code, when one was decoded
	Status  int    // transport status, 0 when no response was received
	Message string // user-facing message
	Path    string // request path, when the failure belongs to a call
	Cause   error  // underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	var head string
	if e.Code != 0 {
		head = fmt.Sprintf("[%s %d] %s", e.Kind, e.Code, e.Message)
	} else {
		head = fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return head + ": " + e.Cause.Error()
	}
	return head
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind != KindUnknown && e.Kind == t.Kind
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.Cause = cause
	return &cp
}

// WithMessage returns a copy of the error carrying msg.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Default user-facing messages.
const (
	MsgNetworkError   = "network error, please try again later"
	MsgRequestFailed  = "request failed"
	MsgAuthExpired    = "unauthenticated or expired"
	MsgLoginNotValid  = "login could not be validated"
	MsgInvalidPayload = "invalid response payload"
)

// Sentinels for errors.Is comparisons. Only Kind is compared.
var (
	ErrTransport       = &Error{Kind: KindTransport, Message: MsgNetworkError}
	ErrBusiness        = &Error{Kind: KindBusiness, Message: MsgRequestFailed}
	ErrAuthExpired     = &Error{Kind: KindAuthExpired, Message: MsgAuthExpired}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: MsgLoginNotValid}
)

// KindOf extracts the failure kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// IsAuthExpired reports whether err is an expiry-class failure.
func IsAuthExpired(err error) bool {
	return errors.Is(err, ErrAuthExpired)
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsBusiness reports whether err is a business failure.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrBusiness)
}
