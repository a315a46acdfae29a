package engine

import (
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"
)

const (
	// StartingCashCents is the play-money balance every new account opens
	// with, and the balance every account is restored to on a season reset.
	StartingCashCents = market.Cents(10_000_000) // $100,000
)

type Account struct {
	ID          int64        `json:"id"`
	Username    string       `json:"username"`
	CashBalance market.Cents `json:"cash_balance"`
	IsAdmin     bool         `json:"is_admin"`
	CreatedAt   time.Time    `json:"created_at"`
}

type SessionResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   Account   `json:"account"`
}

type PlayerView struct {
	ID               int64        `json:"id"`
	Sport            string       `json:"sport"`
	Name             string       `json:"name"`
	Team             string       `json:"team"`
	Position         string       `json:"position"`
	Listed           bool         `json:"listed"`
	SpotPrice        market.Cents `json:"spot_price"`
	FundamentalPrice market.Cents `json:"fundamental_price"`
	TotalShares      int64        `json:"total_shares"`
}

type PlayerDetail struct {
	PlayerView
	BasePrice market.Cents `json:"base_price"`
	Series    []PricePoint `json:"series"`
	Stats     []WeeklyStat `json:"stats"`
}

type PricePoint struct {
	TickAt    time.Time    `json:"tick_at"`
	SpotPrice market.Cents `json:"spot_price"`
}

type WeeklyStat struct {
	Week   int     `json:"week"`
	Points float64 `json:"points"`
}

type TradeInput struct {
	AccountID int64
	PlayerID  int64
	Side      market.Side
	Shares    int64
	// ExpectedTotal is the total from the quote the client acted on. Zero
	// skips the staleness check.
	ExpectedTotal  market.Cents
	IdempotencyKey string
}

type TradeResult struct {
	TransactionID int64        `json:"transaction_id"`
	Quote         market.Quote `json:"quote"`
	Repriced      bool         `json:"repriced"`
	// ExpectedTotal echoes the client's reference total when Repriced is set.
	ExpectedTotal market.Cents `json:"expected_total,omitempty"`
	CashAfter     market.Cents `json:"cash_after"`
	HoldingAfter  int64        `json:"holding_after"`
	// NewTotalShares is the player's net shares outstanding after the fill.
	NewTotalShares int64 `json:"new_total_shares"`
}

type TransactionView struct {
	ID         int64        `json:"id"`
	PlayerID   int64        `json:"player_id,omitempty"`
	PlayerName string       `json:"player_name,omitempty"`
	Kind       string       `json:"kind"`
	Shares     int64        `json:"shares"`
	Price      market.Cents `json:"price"`
	Total      market.Cents `json:"total"`
	CashAfter  market.Cents `json:"cash_after"`
	CreatedAt  time.Time    `json:"created_at"`
}

type LaunchPlayerInput struct {
	Sport            string
	Name             string
	Team             string
	Position         string
	BasePrice        market.Cents
	FundamentalPrice market.Cents
	K                float64
	IdempotencyKey   string
	AccountID        int64
}

type StatUpsertInput struct {
	PlayerID int64
	Week     int
	Points   float64
}

type CloseReport struct {
	Season         string       `json:"season"`
	ClosedAt       time.Time    `json:"closed_at"`
	HoldingsSwept  int          `json:"holdings_swept"`
	HoldingsFailed int          `json:"holdings_failed"`
	CashPaidOut    market.Cents `json:"cash_paid_out"`
}

type ResetReport struct {
	Season           string       `json:"season"`
	AccountsReset    int64        `json:"accounts_reset"`
	HoldingsArchived int64        `json:"holdings_archived"`
	StatsArchived    int64        `json:"stats_archived"`
	StartingCash     market.Cents `json:"starting_cash"`
}

type DividendReport struct {
	Week           int          `json:"week"`
	AccountsPaid   int64        `json:"accounts_paid"`
	TotalPaid      market.Cents `json:"total_paid"`
	TotalClawed    market.Cents `json:"total_clawed"`
	HoldingsPriced int64        `json:"holdings_priced"`
}
