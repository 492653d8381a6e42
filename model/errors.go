package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for each way a run can fail. Callers tell them apart with
// errors.Is; the wrapped cause keeps the native description.
var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrTransport           = errors.New("transport error")
	ErrHTTP                = errors.New("http error")
	ErrParse               = errors.New("parse error")
	ErrSchema              = errors.New("schema error")
	ErrConnection          = errors.New("connection error")
	ErrConstraintViolation = errors.New("constraint violation")
)

// Exit codes returned by the coursesync binary.
const (
	ExitSuccess             = 0
	ExitGeneralError        = 1
	ExitConfigError         = 2
	ExitFetchError          = 3
	ExitSchemaError         = 4
	ExitConnectionError     = 5
	ExitConstraintViolation = 6
)

// HTTPError is returned when the analytics API answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http error: %s", e.Status)
	}
	return fmt.Sprintf("http error: %s: %s", e.Status, e.Body)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrHTTP
}

// ExitCodeForError maps err onto one of the Exit* codes.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrTransport), errors.Is(err, ErrHTTP), errors.Is(err, ErrParse):
		return ExitFetchError
	case errors.Is(err, ErrSchema):
		return ExitSchemaError
	case errors.Is(err, ErrConnection):
		return ExitConnectionError
	case errors.Is(err, ErrConstraintViolation):
		return ExitConstraintViolation
	}
	return ExitGeneralError
}
