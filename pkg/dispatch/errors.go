package dispatch

import "errors"

var (
	// ErrUnknownAction is returned for an action the session's role lacks
	ErrUnknownAction = errors.New("dispatch: unknown action")

	// ErrSubmitPending is returned when a form is submitted while its previous submit is in flight
	ErrSubmitPending = errors.New("dispatch: submit already pending")

	// ErrReplayed is returned when a form nonce has been used before
	ErrReplayed = errors.New("dispatch: form already submitted")

	// ErrConfirmationPending is returned when a destructive submit arrives while another awaits confirmation
	ErrConfirmationPending = errors.New("dispatch: confirmation already pending")

	// ErrNoConfirmation is returned when confirming with nothing awaiting confirmation
	ErrNoConfirmation = errors.New("dispatch: nothing to confirm")

	// ErrInvalidInput is returned when a submit is rejected locally
	ErrInvalidInput = errors.New("dispatch: invalid input")
)

// inputError carries the message shown to the user for a local rejection.
type inputError struct {
	msg string
}

func (e *inputError) Error() string {
	return "dispatch: " + e.msg
}

func (e *inputError) Is(target error) bool {
	return target == ErrInvalidInput
}
