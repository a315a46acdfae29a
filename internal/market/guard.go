package market

import "math"

// GuardInput is the live account/player state a proposed trade is validated
// against. It is always re-derived at execution time, never from a quote.
type GuardInput struct {
	Side   Side
	Shares int64
	Quote  Quote // re-priced against current state

	SpotPrice     Cents // current spot, used for notional checks
	CashBalance   Cents
	HoldingShares int64 // signed shares for this (account, player)

	// Account-wide marks at current prices, including this player's holding.
	NetExposure        Cents
	GrossShortNotional Cents

	Params Params
}

// CheckTrade is the gatekeeper invoked immediately before execution. Pure
// validation: returns nil to allow, or the specific violated constraint.
func CheckTrade(in GuardInput) error {
	if in.Shares <= 0 {
		return sharesErr(ErrInvalidQuantity, in.Shares, 1)
	}
	if limit := MaxTradeShares(in.Params); in.Shares > limit {
		return sharesErr(ErrInvalidQuantity, in.Shares, limit)
	}

	// Quantity feasibility: reducing sides never cross zero.
	switch in.Side {
	case SideSell:
		long := maxInt64(in.HoldingShares, 0)
		if in.Shares > long {
			return sharesErr(ErrInsufficientShares, in.Shares, long)
		}
	case SideCover:
		short := maxInt64(-in.HoldingShares, 0)
		if in.Shares > short {
			return sharesErr(ErrInsufficientShares, in.Shares, short)
		}
	}

	after := in.HoldingShares + in.Side.SharesDelta(in.Shares)

	// Opening-exposure cap at the current spot price. Post-trade drift above
	// the cap through price movement alone is accepted.
	if in.Side.Opening() {
		notional := Cents(absInt64(after)) * in.SpotPrice
		if notional > in.Params.MaxPositionNotional {
			return limitErr(ErrPositionLimitExceeded, notional, in.Params.MaxPositionNotional)
		}
	}

	// Cost sides settle from cash; the balance may not go negative.
	if in.Side.IsCost() {
		if in.Quote.Total > in.CashBalance {
			return limitErr(ErrInsufficientFunds, in.Quote.Total, in.CashBalance)
		}
		return nil
	}

	// SHORT entry gate: post-trade equity must support the post-trade gross
	// short notional under the initial margin rate. Marks use current spot.
	if in.Side == SideShort {
		shortBefore := Cents(maxInt64(-in.HoldingShares, 0)) * in.SpotPrice
		shortAfter := Cents(maxInt64(-after, 0)) * in.SpotPrice
		grossShortAfter := in.GrossShortNotional - shortBefore + shortAfter

		deltaValue := Cents(in.Side.SharesDelta(in.Shares)) * in.SpotPrice
		equityAfter := in.CashBalance + in.Quote.Total + in.NetExposure + deltaValue

		required := Cents(math.Ceil(in.Params.InitialMarginRate * float64(grossShortAfter)))
		if equityAfter < required {
			return limitErr(ErrInsufficientFunds, required, equityAfter)
		}
	}
	return nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
