// Package apperrors defines the sentinel errors the service layers report.
// Handlers map them to HTTP statuses with errors.Is; everything else is
// treated as an internal failure.
package apperrors

import "errors"

var (
	// ErrUserNotFound is returned when the requested user does not exist
	// in the store.
	ErrUserNotFound = errors.New("user not found")

	// ErrCardNotFound is returned when the requested card does not exist,
	// or when a user owns no cards. API consumers rely on the empty list
	// being reported as not found.
	ErrCardNotFound = errors.New("card not found")

	// ErrEmailTaken is returned when another user already owns the email.
	ErrEmailTaken = errors.New("email already in use")

	// ErrCardNumberTaken is returned when another card already carries
	// the number.
	ErrCardNumberTaken = errors.New("card number already in use")

	// ErrHolderMismatch is returned when a card holder does not match the
	// owning user's full name.
	ErrHolderMismatch = errors.New("card holder does not match user name")

	// ErrCacheMiss signals an absent cache entry. It never escapes the
	// cache managers: a miss (or any cache failure) falls back to the
	// store.
	ErrCacheMiss = errors.New("cache entry not found")
)

// IsNotFound reports whether err is one of the not-found conditions.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrCardNotFound)
}

// IsConflict reports whether err is one of the conflict conditions.
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrCardNumberTaken) || errors.Is(err, ErrHolderMismatch)
}
