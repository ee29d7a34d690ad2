package domain

import "errors"

// Sentinel errors shared across services. Controllers map these onto HTTP
// status codes; services wrap everything else with context via fmt.Errorf.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
	// ErrInvalidCredentials deliberately does not say which of email or
	// password was wrong.
	ErrInvalidCredentials = errors.New("incorrect email or password")
	// ErrDuplicatePatient is returned when an admin creates a patient record
	// whose identity fields match an existing one.
	ErrDuplicatePatient = errors.New("patient already exists")

	// ErrAlreadyAccepted is returned when inviting an email that has already
	// accepted an invite to the same event.
	ErrAlreadyAccepted = errors.New("invite already accepted")
	// ErrAlreadyResponded is returned when responding to a terminal invite.
	ErrAlreadyResponded = errors.New("invite already responded to")
	// ErrDuplicateInvite signals the (event, email) uniqueness constraint.
	ErrDuplicateInvite = errors.New("invite already exists for this event and email")
	// ErrDuplicateToken signals an invite token collision on insert.
	ErrDuplicateToken = errors.New("invite token already exists")
)
