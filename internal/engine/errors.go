package engine

import "errors"

var (
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrTxConflict           = errors.New("transaction conflict, retry")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrInvalidUsername      = errors.New("username must be 3-24 characters: letters, digits, underscore")
	ErrSessionInvalid       = errors.New("session invalid or expired")
	ErrAccountNotFound      = errors.New("account not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerExists         = errors.New("player already listed for this sport")
)
