package market

import "math"

// ComputeQuote simulates filling shares of the given side against the curve
// without mutating anything. It is safe to call arbitrarily often; the
// result carries no reservation.
//
// A SELL or COVER beyond the account's held quantity is still quotable;
// feasibility is the guard's concern at trade time.
func ComputeQuote(p Player, side Side, shares int64, params Params) (Quote, error) {
	if shares <= 0 {
		return Quote{}, sharesErr(ErrInvalidQuantity, shares, 1)
	}
	if limit := MaxTradeShares(params); shares > limit {
		return Quote{}, sharesErr(ErrInvalidQuantity, shares, limit)
	}
	if !p.Listed {
		return Quote{}, ErrPlayerNotListed
	}

	before := p.TotalShares
	after := before + side.SharesDelta(shares)
	total := sweepTotal(p, params, before, after)

	return Quote{
		PlayerID:        p.ID,
		Shares:          shares,
		SpotPriceBefore: spotAt(p, params, before),
		SpotPriceAfter:  spotAt(p, params, after),
		AveragePrice:    Cents(math.Round(float64(total) / float64(shares))),
		Total:           total,
	}, nil
}
