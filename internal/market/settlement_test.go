package market

import "testing"

func TestSettlementValue(t *testing.T) {
	// 5 shares at a $50.00 final fundamental credits $250.00.
	if got := SettlementValue(5, 5000); got != 25000 {
		t.Fatalf("long settlement=%d want 25000", got)
	}
	// Sign flips for short holdings.
	if got := SettlementValue(-5, 5000); got != -25000 {
		t.Fatalf("short settlement=%d want -25000", got)
	}
	if got := SettlementValue(0, 5000); got != 0 {
		t.Fatalf("zero shares settle to %d", got)
	}
}

func TestDividendValue(t *testing.T) {
	// 3 shares, 20.0 points, $1.00 per point.
	if got := DividendValue(3, 20.0, 100); got != 6000 {
		t.Fatalf("dividend=%d want 6000", got)
	}
	if got := DividendValue(-3, 20.0, 100); got != -6000 {
		t.Fatalf("short dividend=%d want -6000", got)
	}
	if got := DividendValue(4, 12.5, 100); got != 5000 {
		t.Fatalf("fractional points dividend=%d want 5000", got)
	}
}

func TestRefreshFundamental(t *testing.T) {
	params := DefaultParams()

	// No stats yet: projection stands.
	if got := RefreshFundamental(28000, 0, 0, params.SeasonWeeks, params); got != 28000 {
		t.Fatalf("week 0 fundamental=%d want base", got)
	}

	// Halfway through an 18-week season scoring exactly at pace keeps the
	// fundamental at the projection.
	base := Cents(28000) // 280 points projected
	onPace := 280.0 / 18 * 9
	if got := RefreshFundamental(base, onPace, 9, 18, params); got != base {
		t.Fatalf("on-pace fundamental=%d want %d", got, base)
	}

	// Outscoring the projection lifts the fundamental; a scratch drops it.
	hot := RefreshFundamental(base, onPace*1.5, 9, 18, params)
	if hot <= base {
		t.Fatalf("hot streak fundamental=%d should exceed %d", hot, base)
	}
	cold := RefreshFundamental(base, 0, 9, 18, params)
	if cold >= base {
		t.Fatalf("cold streak fundamental=%d should trail %d", cold, base)
	}

	// Never below the floor.
	if got := RefreshFundamental(200, 0, 17, 18, params); got != params.MinSpotPrice {
		t.Fatalf("fundamental=%d want floor %d", got, params.MinSpotPrice)
	}
}
