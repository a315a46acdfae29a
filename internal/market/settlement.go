package market

import "math"

// SettlementValue is the signed cash credit for closing a holding at the
// season's final fundamental price. Settlement decouples from the spot
// price: trading pressure does not move payouts. Short holdings flip sign
// and debit the account.
func SettlementValue(shares int64, fundamental Cents) Cents {
	return Cents(shares) * fundamental
}

// DividendValue is the signed weekly dividend for a holding: shares times
// the week's fantasy points at the configured payout per point.
func DividendValue(shares int64, fantasyPoints float64, payoutPerPoint Cents) Cents {
	return Cents(math.Round(float64(shares) * fantasyPoints * float64(payoutPerPoint)))
}

// RefreshFundamental re-blends the IPO projection with the season's scoring
// pace after a stat event. Week w of n shifts weight from the projection to
// the extrapolated full-season pace; the result never drops below the floor.
func RefreshFundamental(base Cents, pointsToDate float64, latestWeek, seasonWeeks int, params Params) Cents {
	if latestWeek <= 0 || seasonWeeks <= 0 {
		return base
	}
	w := float64(latestWeek) / float64(seasonWeeks)
	if w > 1 {
		w = 1
	}
	pace := pointsToDate / float64(latestWeek) * float64(seasonWeeks)
	blended := Cents(math.Round((1-w)*float64(base) + w*pace*float64(params.PointValue)))
	if blended < params.MinSpotPrice {
		return params.MinSpotPrice
	}
	return blended
}
