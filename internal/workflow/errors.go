package workflow

import "errors"

// ErrorKind classifies a workflow failure. The kind is part of the error
// text written to the ticket so agents can tell a data problem (fix the
// ticket and re-trigger) from an outage (just re-trigger).
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindDuplicate  ErrorKind = "duplicate"
	KindConfig     ErrorKind = "config"
	KindExternal   ErrorKind = "external"
)

// Error is a failed workflow step. It is recorded on the ticket verbatim.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// kindOf returns the classification of err, defaulting to external for
// errors raised outside the workflow package.
func kindOf(err error) ErrorKind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindExternal
}

// describe renders err the way it is written to the ticket error field.
func describe(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Error()
	}
	return string(KindExternal) + ": " + err.Error()
}
