package internal

import (
	"errors"
	"fmt"

	"vismapay/entity"
)

// ErrorKind is the closed set of failures the gateway client produces.
type ErrorKind int

const (
	// ErrMalformedResponse - transport returned non-JSON or JSON without a result field.
	ErrMalformedResponse ErrorKind = iota + 1
	// ErrCredentialsNotSet - a signed operation was invoked before both keys were configured.
	ErrCredentialsNotSet
	// ErrInvalidParameters - required per-operation fields missing or empty.
	ErrInvalidParameters
	// ErrProtocol - transport or envelope failure outside the gateway's own error reporting.
	ErrProtocol
	// ErrMacCheckFailed - callback authcode mismatch; the callback must be rejected.
	ErrMacCheckFailed
	// ErrApiReturned - the gateway answered with a non-zero result code.
	ErrApiReturned
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedResponse:
		return "malformed response"
	case ErrCredentialsNotSet:
		return "credentials not set"
	case ErrInvalidParameters:
		return "invalid parameters"
	case ErrProtocol:
		return "protocol error"
	case ErrMacCheckFailed:
		return "mac check failed"
	case ErrApiReturned:
		return "api returned error"
	}
	return "unknown error"
}

// Error is the tagged error type for all client failures. Response carries
// the verbatim gateway reply when one exists, so callers can branch on the
// gateway's own result code (validation failure, duplicate order number,
// maintenance break).
type Error struct {
	Kind     ErrorKind
	Message  string
	Response *entity.Response
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func apiError(response *entity.Response) *Error {
	return &Error{
		Kind:     ErrApiReturned,
		Message:  fmt.Sprintf("gateway result code %d", response.ResultCode()),
		Response: response,
	}
}

// KindOf reports the kind of a client error, or 0 for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// GatewayResponse extracts the attached gateway reply from an error, if any.
func GatewayResponse(err error) *entity.Response {
	var e *Error
	if errors.As(err, &e) {
		return e.Response
	}
	return nil
}
