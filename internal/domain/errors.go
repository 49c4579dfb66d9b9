package domain

import "errors"

var (
	// ErrFormNotFound indicates the requested form does not exist.
	ErrFormNotFound = errors.New("form not found")
	// ErrFormUnavailable is returned when a form is inactive or past its deadline.
	ErrFormUnavailable = errors.New("form not accepting responses")
	// ErrDuplicateSubmission is returned when a participant already has an
	// envelope for the form. Final, never retried.
	ErrDuplicateSubmission = errors.New("participant already responded to form")
	// ErrDuplicateEmail indicates a participant creation collided on email.
	// Callers should fall back to lookup instead of retrying the insert.
	ErrDuplicateEmail = errors.New("participant email already registered")
	// ErrParticipantNotFound indicates no participant exists for the given key.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrQuestionNotFound indicates the question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResponseNotFound indicates the response envelope does not exist.
	ErrResponseNotFound = errors.New("response not found")
	// ErrOrderTaken is returned when a question order is already used in the form.
	ErrOrderTaken = errors.New("question order already in use")
	// ErrAdminNotFound indicates no administrator exists for the given email.
	ErrAdminNotFound = errors.New("administrator not found")
	// ErrInvalidCredentials is returned on failed administrator login.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
