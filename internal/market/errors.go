package market

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity       = errors.New("shares must be a positive whole number")
	ErrInvalidSide           = errors.New("side must be buy, sell, short, or cover")
	ErrPlayerNotListed       = errors.New("player not listed")
	ErrPositionLimitExceeded = errors.New("position limit exceeded")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientShares    = errors.New("insufficient shares")
	ErrSeasonAlreadyClosed   = errors.New("season already closed")
	ErrSeasonNotClosed       = errors.New("season not closed")
	ErrMarketHalted          = errors.New("trading halted for season settlement")
	ErrWeekAlreadySettled    = errors.New("week already settled")
)

// ConstraintError wraps a guard sentinel with the attempted and allowed
// magnitudes so the calling layer can render an actionable message.
type ConstraintError struct {
	Err       error
	Attempted int64
	Allowed   int64
	Unit      string // "cents" or "shares"
}

func (e *ConstraintError) Error() string {
	if e.Unit == "cents" {
		return fmt.Sprintf("%v: attempted %s, allowed %s", e.Err, Cents(e.Attempted), Cents(e.Allowed))
	}
	return fmt.Sprintf("%v: attempted %d %s, allowed %d", e.Err, e.Attempted, e.Unit, e.Allowed)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func limitErr(sentinel error, attempted, allowed Cents) error {
	return &ConstraintError{Err: sentinel, Attempted: int64(attempted), Allowed: int64(allowed), Unit: "cents"}
}

func sharesErr(sentinel error, attempted, allowed int64) error {
	return &ConstraintError{Err: sentinel, Attempted: attempted, Allowed: allowed, Unit: "shares"}
}
