package market

import "testing"

func TestValuateMixedBook(t *testing.T) {
	params := DefaultParams()
	holdings := []HoldingMark{
		{PlayerID: 1, SharesOwned: 10, SpotPrice: 30000},  // +$3,000
		{PlayerID: 2, SharesOwned: -20, SpotPrice: 10000}, // -$2,000
	}

	out := Valuate(500_000, holdings, params)

	if out.NetExposure != 100_000 {
		t.Fatalf("net exposure=%d want 100000", out.NetExposure)
	}
	if out.GrossExposure != 500_000 {
		t.Fatalf("gross exposure=%d want 500000", out.GrossExposure)
	}
	if out.Equity != 600_000 {
		t.Fatalf("equity=%d want 600000", out.Equity)
	}
	// Maintenance margin only on the short leg: 25% of $2,000.
	if out.MarginUsed != 50_000 {
		t.Fatalf("margin used=%d want 50000", out.MarginUsed)
	}
	if out.AvailableBuyingPower != 550_000 {
		t.Fatalf("buying power=%d want 550000", out.AvailableBuyingPower)
	}
	if out.MarginCall {
		t.Fatal("healthy account flagged for margin call")
	}

	if out.Holdings[0].MaintenanceMarginRequired != 0 {
		t.Fatalf("long holding carries margin: %d", out.Holdings[0].MaintenanceMarginRequired)
	}
	if out.Holdings[1].MaintenanceMarginRequired != 50_000 {
		t.Fatalf("short holding margin=%d want 50000", out.Holdings[1].MaintenanceMarginRequired)
	}
}

func TestValuateMarginCall(t *testing.T) {
	params := DefaultParams()
	holdings := []HoldingMark{
		{PlayerID: 1, SharesOwned: -100, SpotPrice: 20000}, // -$20,000 short
	}

	// Equity: $21,000 - $20,000 = $1,000; maintenance needs $5,000.
	out := Valuate(2_100_000, holdings, params)
	if !out.MarginCall {
		t.Fatalf("expected margin call: equity=%d margin=%d", out.Equity, out.MarginUsed)
	}
	if out.AvailableBuyingPower != 0 {
		t.Fatalf("buying power should floor at zero, got %d", out.AvailableBuyingPower)
	}
}

func TestValuateEmptyBook(t *testing.T) {
	out := Valuate(123_456, nil, DefaultParams())
	if out.Equity != 123_456 || out.NetExposure != 0 || out.MarginCall {
		t.Fatalf("empty book valuation off: %+v", out)
	}
}
