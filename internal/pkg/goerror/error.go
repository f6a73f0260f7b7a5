package goerror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned by stores on a unique violation.
	ErrConflict = errors.New("resource conflict")
)

// Type tells who is at fault: the server, a business rule or the request shape.
type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

func (t Type) String() string {
	switch t {
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	case TypeBusiness:
		return "ERROR_TYPE_BUSINESS"
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code selects the HTTP status an Error is rendered with.
type Code int

const (
	// CodeInternal is the zero value and renders as 500.
	CodeInternal Code = iota
	// CodeInvalidFormat is an undecodable request body.
	CodeInvalidFormat
	// CodeBadRequest is a well formed request the current state rejects
	// (expired or wrong PIN, no PIN issued).
	CodeBadRequest
	// CodeUnauthorized is a missing or rejected session.
	CodeUnauthorized
	// CodeTooManyRequest is a lockout or an issuance already in flight.
	CodeTooManyRequest
	// CodeBadGateway is a failing mail or broker collaborator.
	CodeBadGateway
)

var codeStatus = map[Code]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeBadGateway:     http.StatusBadGateway,
}

var codeName = map[Code]string{
	CodeInternal:       "ERROR_CODE_INTERNAL",
	CodeInvalidFormat:  "ERROR_CODE_INVALID_FORMAT",
	CodeBadRequest:     "ERROR_CODE_BAD_REQUEST",
	CodeUnauthorized:   "ERROR_CODE_UNAUTHORIZED",
	CodeTooManyRequest: "ERROR_CODE_TOO_MANY_REQUESTS",
	CodeBadGateway:     "ERROR_CODE_BAD_GATEWAY",
}

func (c Code) String() string {
	if name, ok := codeName[c]; ok {
		return name
	}
	return codeName[CodeInternal]
}

// Error is the error every usecase returns to its transport. Msg is safe to
// show to the caller; the wrapped cause is for logs and errors.Is.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Option customizes an Error at construction time.
type Option func(*Error)

// WithCause wraps err so errors.Is and errors.As can reach it.
func WithCause(err error) Option {
	return func(e *Error) { e.err = err }
}

// WithField attaches a key/value pair rendered in the error response body.
func WithField(key, value string) Option {
	return func(e *Error) {
		if e.fields == nil {
			e.fields = make(map[string]string)
		}
		e.fields[key] = value
	}
}

func (e *Error) Error() string {
	switch {
	case e.err != nil:
		return e.err.Error()
	case e.msg != "":
		return e.msg
	default:
		return e.errType.String()
	}
}

// String is the log form: type, code, message and cause.
func (e *Error) String() string {
	return fmt.Sprintf("%s %s: %q (cause: %v)", e.errType, e.code, e.msg, e.err)
}

func (e *Error) Msg() string               { return e.msg }
func (e *Error) Type() Type                { return e.errType }
func (e *Error) Code() Code                { return e.code }
func (e *Error) Fields() map[string]string { return e.fields }
func (e *Error) Unwrap() error             { return e.err }

// StatusCode maps the error code to an HTTP status code.
func (e *Error) StatusCode() int {
	if status, ok := codeStatus[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func build(err error, msg string, et Type, code Code, opts ...Option) error {
	e := &Error{err: err, msg: msg, errType: et, code: code}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// NewServer hides err behind a generic 500 message.
func NewServer(err error) error {
	return build(err, "Internal server error", TypeServer, CodeInternal)
}

// NewBusiness creates a business-type error with the specified message and code.
func NewBusiness(msg string, code Code, opts ...Option) error {
	return build(nil, msg, TypeBusiness, code, opts...)
}

// NewInvalidFormat reports a request body that could not be decoded. The
// first message, when given, replaces the default.
func NewInvalidFormat(msgs ...string) error {
	msg := "Invalid request body"
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return build(nil, msg, TypeValidation, CodeInvalidFormat)
}
