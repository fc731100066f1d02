package datasource

import (
	"errors"
	"maps"
)

// Error kinds. Every *Error matches exactly one of them with errors.Is.
var (
	ErrConnection           = errors.New("connection error")
	ErrClientInitialization = errors.New("client initialization error")
	ErrValidation           = errors.New("validation error")
	ErrDisposal             = errors.New("resource disposal error")
	ErrConfiguration        = errors.New("configuration error")
	ErrTenant               = errors.New("tenant error")
)

var ErrUnsupportedKind = errors.New("unsupported engine kind")

// Fields is the structured diagnostic payload attached to an Error.
type Fields map[string]any

// Error is a classified failure with a human readable message, the
// triggering cause and a diagnostic payload.
type Error struct {
	Kind    error
	Message string
	Cause   error
	Fields  Fields
}

func (e *Error) Error() string {
	msg := e.Kind.Error() + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, msg string, cause error, fields Fields) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause, Fields: maps.Clone(fields)}
}

func ConnectionError(msg string, cause error, fields Fields) *Error {
	return newError(ErrConnection, msg, cause, fields)
}

func ClientInitializationError(msg string, cause error, fields Fields) *Error {
	return newError(ErrClientInitialization, msg, cause, fields)
}

func ValidationError(msg string, cause error, fields Fields) *Error {
	return newError(ErrValidation, msg, cause, fields)
}

func DisposalError(msg string, cause error, fields Fields) *Error {
	return newError(ErrDisposal, msg, cause, fields)
}

func ConfigurationError(msg string, cause error, fields Fields) *Error {
	return newError(ErrConfiguration, msg, cause, fields)
}

func TenantError(msg string, cause error, fields Fields) *Error {
	return newError(ErrTenant, msg, cause, fields)
}

// FieldsOf returns the payload of the outermost *Error in err's chain.
func FieldsOf(err error) Fields {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
