package market

import "strings"

// Side is one of the four trade directions. BUY and COVER are cost sides
// (the account pays, net shares outstanding rise); SELL and SHORT are
// proceeds sides (the account receives, net shares outstanding fall).
type Side int

const (
	SideBuy Side = iota
	SideSell
	SideShort
	SideCover
)

func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return SideBuy, nil
	case "sell":
		return SideSell, nil
	case "short":
		return SideShort, nil
	case "cover":
		return SideCover, nil
	default:
		return 0, ErrInvalidSide
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	case SideShort:
		return "short"
	case SideCover:
		return "cover"
	default:
		return "unknown"
	}
}

// IsCost reports whether the account pays the quoted total (true) or
// receives it (false).
func (s Side) IsCost() bool {
	return s == SideBuy || s == SideCover
}

// SharesDelta is the signed change a fill of q shares applies to both the
// holding and the player's net shares outstanding.
func (s Side) SharesDelta(q int64) int64 {
	if s.IsCost() {
		return q
	}
	return -q
}

// Opening reports whether the side opens or extends a directional position
// and is therefore subject to the per-player notional cap.
func (s Side) Opening() bool {
	return s == SideBuy || s == SideShort
}
