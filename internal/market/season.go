package market

// SeasonPhase is where a season value sits in its close/reset lifecycle.
type SeasonPhase int

const (
	SeasonOpen SeasonPhase = iota
	SeasonClosed
	SeasonReset
)

// ValidateClose gates the one-time season close. A season that was already
// closed stays closed, reset or not.
func ValidateClose(phase SeasonPhase) error {
	if phase != SeasonOpen {
		return ErrSeasonAlreadyClosed
	}
	return nil
}

// ValidateReset gates the season reset: only a closed season that has not
// already been reset may be restored to opening state.
func ValidateReset(phase SeasonPhase) error {
	if phase != SeasonClosed {
		return ErrSeasonNotClosed
	}
	return nil
}
