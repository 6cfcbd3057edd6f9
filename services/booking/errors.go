package booking

import (
	"errors"
	"fmt"
)

// Error codes. The first four are recovered by talking to the user; the last
// two are operator-visible failures.
const (
	CodeParseFailure            = "parse_failure"
	CodeIncompleteIntent        = "incomplete_intent"
	CodeUnknownService          = "unknown_service"
	CodeUnavailable             = "unavailable"
	CodeCommitFailure           = "commit_failure"
	CodeCollaboratorUnreachable = "collaborator_unreachable"
)

type BookingError struct {
	Code    string
	Message string
	Cause   error
}

func (e *BookingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error {
	return e.Cause
}

func newBookingError(code, msg string, cause error) error {
	return &BookingError{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether err is a BookingError with the given code.
func IsCode(err error, code string) bool {
	var be *BookingError
	return errors.As(err, &be) && be.Code == code
}

// CodeOf returns the code of a BookingError, or "" for other errors.
func CodeOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
