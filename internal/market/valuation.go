package market

import "math"

// HoldingMark is one holding marked to the current spot price.
type HoldingMark struct {
	PlayerID                  int64  `json:"player_id"`
	SharesOwned               int64  `json:"shares_owned"`
	SpotPrice                 Cents  `json:"spot_price"`
	MarketValue               Cents  `json:"market_value"`
	MaintenanceMarginRequired Cents  `json:"maintenance_margin_required"`
	PlayerName                string `json:"player_name,omitempty"`
}

// Portfolio is the read-only valuation of an account.
type Portfolio struct {
	CashBalance          Cents         `json:"cash_balance"`
	Equity               Cents         `json:"equity"`
	NetExposure          Cents         `json:"net_exposure"`
	GrossExposure        Cents         `json:"gross_exposure"`
	MarginUsed           Cents         `json:"margin_used"`
	AvailableBuyingPower Cents         `json:"available_buying_power"`
	MarginCall           bool          `json:"margin_call"`
	Holdings             []HoldingMark `json:"holdings"`
}

// Valuate marks each holding to its spot price and derives the account's
// exposure and margin metrics. Maintenance margin is carried by short
// holdings only; the margin call flag raises when equity no longer covers
// the aggregate maintenance requirement.
func Valuate(cash Cents, holdings []HoldingMark, params Params) Portfolio {
	out := Portfolio{CashBalance: cash, Holdings: holdings}
	for i := range holdings {
		h := &holdings[i]
		h.MarketValue = Cents(h.SharesOwned) * h.SpotPrice
		if h.SharesOwned < 0 {
			h.MaintenanceMarginRequired = Cents(math.Ceil(params.MaintenanceMarginRate * math.Abs(float64(h.MarketValue))))
		} else {
			h.MaintenanceMarginRequired = 0
		}
		out.NetExposure += h.MarketValue
		out.GrossExposure += Cents(absInt64(int64(h.MarketValue)))
		out.MarginUsed += h.MaintenanceMarginRequired
	}
	out.Equity = cash + out.NetExposure
	if bp := out.Equity - out.MarginUsed; bp > 0 {
		out.AvailableBuyingPower = bp
	}
	out.MarginCall = out.MarginUsed > 0 && out.Equity < out.MarginUsed
	return out
}
