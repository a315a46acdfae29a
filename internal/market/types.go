package market

import (
	"fmt"
	"math"
)

// Cents is a signed money amount in whole cents. All cash balances, prices
// and notionals are carried in cents; sub-penny precision is out of scope.
type Cents int64

func (c Cents) Dollars() float64 { return float64(c) / 100 }

func (c Cents) String() string { return fmt.Sprintf("$%.2f", c.Dollars()) }

func DollarsToCents(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// Player is the tradable aggregate. TotalShares is the signed net shares
// outstanding across all accounts (positive = net long interest, negative =
// net short interest) and changes only through trade execution.
type Player struct {
	ID               int64
	Sport            string
	Name             string
	Team             string
	Position         string
	Listed           bool
	BasePrice        Cents
	FundamentalPrice Cents
	K                float64
	TotalShares      int64
}

// Quote is an ephemeral trade preview. It carries no reservation: the next
// execution re-derives pricing from then-current state.
type Quote struct {
	PlayerID        int64 `json:"player_id"`
	Shares          int64 `json:"shares"`
	SpotPriceBefore Cents `json:"spot_price_before"`
	SpotPriceAfter  Cents `json:"spot_price_after"`
	AveragePrice    Cents `json:"average_price"`
	Total           Cents `json:"total"`
}

// Params are the externally supplied engine constants.
type Params struct {
	MinSpotPrice          Cents   `yaml:"min_spot_price_cents"`
	MaxPositionNotional   Cents   `yaml:"max_position_notional_cents"`
	PriceImpactMultiplier float64 `yaml:"price_impact_multiplier"`
	InitialMarginRate     float64 `yaml:"initial_margin_rate"`
	MaintenanceMarginRate float64 `yaml:"maintenance_margin_rate"`
	PointValue            Cents   `yaml:"point_value_cents"`
	PayoutPerPoint        Cents   `yaml:"payout_per_point_cents"`
	SeasonWeeks           int     `yaml:"season_weeks"`
}

func DefaultParams() Params {
	return Params{
		MinSpotPrice:          100,       // $1.00 floor
		MaxPositionNotional:   1_000_000, // $10,000 per (account, player)
		PriceImpactMultiplier: 1.0,
		InitialMarginRate:     0.50,
		MaintenanceMarginRate: 0.25,
		PointValue:            100,
		PayoutPerPoint:        100,
		SeasonWeeks:           18,
	}
}
