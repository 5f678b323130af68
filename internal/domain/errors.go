package domain

import (
	"errors"
	"net/http"
)

// ErrorKind classifies a failed invocation by the stage that failed.
type ErrorKind string

const (
	KindInvalidEvent  ErrorKind = "InvalidEventError"
	KindConfiguration ErrorKind = "ConfigurationError"
	KindFetch         ErrorKind = "FetchError"
	KindParse         ErrorKind = "ParseError"
	KindTranslation   ErrorKind = "TranslationError"
	KindWrite         ErrorKind = "WriteError"
	KindInternal      ErrorKind = "InternalError"
)

var kindStages = map[ErrorKind]string{
	KindInvalidEvent:  "decode",
	KindConfiguration: "config",
	KindFetch:         "fetch",
	KindParse:         "normalize",
	KindTranslation:   "translate",
	KindWrite:         "write",
}

// Stage returns the pipeline stage name associated with the kind.
func (k ErrorKind) Stage() string {
	if s, ok := kindStages[k]; ok {
		return s
	}
	return "unknown"
}

// StatusCode maps the kind to the invocation response status.
// Only a malformed trigger is the caller's fault.
func (k ErrorKind) StatusCode() int {
	if k == KindInvalidEvent {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is a stage failure carrying its kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

// NewError wraps err with a kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
