package market

import "math"

// The price curve is a linear bonding curve anchored at the player's
// fundamental price and clamped at the configured floor:
//
//	spot(S) = max(MinSpotPrice, F · (1 + k·m·S))
//
// where S is the signed net shares outstanding, k the player's sensitivity
// constant and m the global PRICE_IMPACT_MULTIPLIER. Trade totals are the
// exact integral of the clamped curve over the share delta, so quote and
// execute price identically and a buy-n/sell-n round trip returns cash
// exactly.

// MaxTradeShares is the largest per-trade share count the curve will price.
// Even at the floor price an opening fill above it breaches the notional cap,
// and integrating far beyond it overflows cents arithmetic.
func MaxTradeShares(params Params) int64 {
	return int64(params.MaxPositionNotional / params.MinSpotPrice)
}

// SpotPrice derives the current tradable price from the player's state.
// Pure; never below MinSpotPrice regardless of TotalShares.
func SpotPrice(p Player, params Params) Cents {
	return spotAt(p, params, p.TotalShares)
}

func spotAt(p Player, params Params, shares int64) Cents {
	f := float64(p.FundamentalPrice)
	lambda := p.K * params.PriceImpactMultiplier
	raw := Cents(math.Round(f * (1 + lambda*float64(shares))))
	if raw < params.MinSpotPrice {
		return params.MinSpotPrice
	}
	return raw
}

// sweepTotal integrates the clamped curve between two share levels a < b,
// returning the cents exchanged for trading |b-a| shares across that range.
func sweepTotal(p Player, params Params, a, b int64) Cents {
	if b < a {
		a, b = b, a
	}
	f := float64(p.FundamentalPrice)
	lambda := p.K * params.PriceImpactMultiplier
	minSpot := float64(params.MinSpotPrice)
	lo, hi := float64(a), float64(b)

	if f <= 0 || lambda == 0 {
		unit := f
		if unit < minSpot {
			unit = minSpot
		}
		return Cents(math.Round(unit * (hi - lo)))
	}

	// Share level where the unclamped curve crosses the floor. Below it the
	// effective price is flat at MinSpotPrice.
	cross := (minSpot/f - 1) / lambda

	linear := func(x0, x1 float64) float64 {
		return f * ((x1 - x0) + lambda/2*(x1*x1-x0*x0))
	}

	var total float64
	switch {
	case hi <= cross:
		total = minSpot * (hi - lo)
	case lo >= cross:
		total = linear(lo, hi)
	default:
		total = minSpot*(cross-lo) + linear(cross, hi)
	}
	return Cents(math.Round(total))
}
