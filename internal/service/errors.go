package service

import "errors"

// Sentinel errors surfaced to handlers so they can pick status codes without
// string matching.
var (
	ErrPendingCardNotFound = errors.New("pending card not found")
	ErrCardAlreadyEnrolled = errors.New("card is already enrolled")
	ErrStudentNotFound     = errors.New("student not found")
	ErrClassNotFound       = errors.New("class not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrUsernameTaken       = errors.New("username already taken")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrMissingPasswordHash = errors.New("account record has no password hash")
	ErrNotificationMissing = errors.New("notification not found")
	ErrMessageRequired     = errors.New("custom notifications require a message")
	ErrCardNotEnrolled     = errors.New("card has no enrolled student")
	ErrForbidden           = errors.New("operation not permitted for this account")
)
