package service

import (
	"errors"
)

var (
	ErrNotAuthenticated     = errors.New("non authentifié")
	ErrForbidden            = errors.New("role not allowed for this action")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrProtectedUser        = errors.New("superadmin accounts cannot be modified")
	ErrUnknownUser          = errors.New("user not in the loaded list")
	ErrUnknownCommand       = errors.New("unknown command")
)

// ActionError is a failed backend call with the message shown to the operator:
// the backend detail when present, the localised fallback otherwise.
type ActionError struct {
	Action  string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
