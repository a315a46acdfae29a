package market

import (
	"errors"
	"testing"
)

func guardInput(side Side, shares int64, p Player, params Params) GuardInput {
	q, err := ComputeQuote(p, side, shares, params)
	if err != nil {
		panic(err)
	}
	return GuardInput{
		Side:      side,
		Shares:    shares,
		Quote:     q,
		SpotPrice: SpotPrice(p, params),
		Params:    params,
	}
}

func TestGuardPositionCapBoundary(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000) // $100.00 flat

	// 100 shares at $100 is exactly the $10,000 cap.
	in := guardInput(SideBuy, 100, p, params)
	in.CashBalance = 10_000_000
	if err := CheckTrade(in); err != nil {
		t.Fatalf("notional exactly at cap must pass: %v", err)
	}

	// One cent over the cap fails.
	params.MaxPositionNotional = 100*10000 - 1
	in = guardInput(SideBuy, 100, p, params)
	in.CashBalance = 10_000_000
	err := CheckTrade(in)
	if !errors.Is(err, ErrPositionLimitExceeded) {
		t.Fatalf("err=%v want ErrPositionLimitExceeded", err)
	}
	var ce *ConstraintError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConstraintError, got %T", err)
	}
	if ce.Attempted != 1_000_000 || ce.Allowed != 999_999 {
		t.Fatalf("attempted/allowed = %d/%d", ce.Attempted, ce.Allowed)
	}
}

func TestGuardCapCountsExistingPosition(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000)

	in := guardInput(SideBuy, 60, p, params)
	in.CashBalance = 10_000_000
	in.HoldingShares = 50 // resulting 110 shares = $11,000 notional
	if err := CheckTrade(in); !errors.Is(err, ErrPositionLimitExceeded) {
		t.Fatalf("err=%v want ErrPositionLimitExceeded", err)
	}
}

func TestGuardShortCapUsesMagnitude(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000)

	in := guardInput(SideShort, 101, p, params)
	in.CashBalance = 10_000_000
	if err := CheckTrade(in); !errors.Is(err, ErrPositionLimitExceeded) {
		t.Fatalf("short notional over cap: err=%v", err)
	}
}

// The guard must never trust a quote whose total wrapped negative. A BUY of
// ~1.8e15 shares at a flat $100 overflows the integral into a large negative
// total that passes the affordability check; the quantity gate has to stop
// it before the notional and cash math run.
func TestGuardRejectsOversizedQuantity(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000)
	shares := int64(1_844_674_407_370_955)

	in := GuardInput{
		Side:   SideBuy,
		Shares: shares,
		Quote: Quote{
			PlayerID: p.ID,
			Shares:   shares,
			Total:    -9223372036854775808, // wrapped integral
		},
		SpotPrice:   10000,
		CashBalance: 10_000_000,
		Params:      params,
	}
	err := CheckTrade(in)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("err=%v want ErrInvalidQuantity", err)
	}
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Allowed != MaxTradeShares(params) {
		t.Fatalf("constraint=%v want allowed=%d", err, MaxTradeShares(params))
	}
}

func TestGuardInsufficientFunds(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	in := guardInput(SideBuy, 5, p, params) // $1,500.00
	in.CashBalance = 149_999
	err := CheckTrade(in)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err=%v want ErrInsufficientFunds", err)
	}

	in.CashBalance = 150_000
	if err := CheckTrade(in); err != nil {
		t.Fatalf("exact cash must pass: %v", err)
	}
}

func TestGuardCoverIsCostSide(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	in := guardInput(SideCover, 2, p, params) // $600.00
	in.HoldingShares = -7
	in.CashBalance = 59_999
	if err := CheckTrade(in); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("cover must settle from cash: err=%v", err)
	}
}

func TestGuardQuantityFeasibility(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	in := guardInput(SideSell, 10, p, params)
	in.HoldingShares = 9
	in.CashBalance = 0
	err := CheckTrade(in)
	if !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("sell beyond long: err=%v", err)
	}
	var ce *ConstraintError
	if !errors.As(err, &ce) || ce.Allowed != 9 {
		t.Fatalf("allowed should be current long quantity: %v", err)
	}

	in = guardInput(SideCover, 8, p, params)
	in.HoldingShares = -7
	in.CashBalance = 10_000_000
	if err := CheckTrade(in); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("cover beyond short magnitude: err=%v", err)
	}

	// A sell from a short position has zero long shares to sell.
	in = guardInput(SideSell, 1, p, params)
	in.HoldingShares = -3
	if err := CheckTrade(in); !errors.Is(err, ErrInsufficientShares) {
		t.Fatalf("sell from short: err=%v", err)
	}
}

func TestGuardShortMargin(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000) // $100.00

	// Short 50 shares: $5,000 gross short notional needs $2,500 equity at
	// the default 50% initial rate. The proceeds and the short liability
	// cancel at current spot, so the account's own equity must carry it.
	in := guardInput(SideShort, 50, p, params)
	in.CashBalance = 250_000
	if err := CheckTrade(in); err != nil {
		t.Fatalf("equity exactly at initial margin must pass: %v", err)
	}

	in.CashBalance = 249_999
	if err := CheckTrade(in); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("undermargined short must fail: err=%v", err)
	}
}

func TestApplyFillScenarios(t *testing.T) {
	// Flat $300 player, $100,000 cash, BUY 5 -> $98,500 and 5 shares.
	cash, holding := ApplyFill(SideBuy, 5, 10_000_000, 0, 150_000)
	if cash != 9_850_000 || holding != 5 {
		t.Fatalf("buy fill: cash=%d holding=%d", cash, holding)
	}

	// Holding 9, SELL 4 at $300 -> cash +$1,200, holding 5.
	cash, holding = ApplyFill(SideSell, 4, cash, 9, 120_000)
	if cash != 9_970_000 || holding != 5 {
		t.Fatalf("sell fill: cash=%d holding=%d", cash, holding)
	}

	// Holding -7, COVER 2 at $300 -> cash -$600, holding -5.
	cash, holding = ApplyFill(SideCover, 2, cash, -7, 60_000)
	if cash != 9_910_000 || holding != -5 {
		t.Fatalf("cover fill: cash=%d holding=%d", cash, holding)
	}
}
