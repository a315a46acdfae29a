package market

import (
	"errors"
	"testing"
)

func TestQuoteFlatBuy(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000) // $300.00, flat curve

	q, err := ComputeQuote(p, SideBuy, 5, params)
	if err != nil {
		t.Fatalf("quote buy: %v", err)
	}
	if q.Total != 150000 {
		t.Fatalf("total=%d want 150000 ($1,500.00)", q.Total)
	}
	if q.AveragePrice != 30000 || q.SpotPriceBefore != 30000 || q.SpotPriceAfter != 30000 {
		t.Fatalf("flat quote prices moved: %+v", q)
	}
}

func TestQuoteFlatSellAndCover(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	sell, err := ComputeQuote(p, SideSell, 4, params)
	if err != nil {
		t.Fatalf("quote sell: %v", err)
	}
	if sell.Total != 120000 {
		t.Fatalf("sell total=%d want 120000 ($1,200.00)", sell.Total)
	}

	cover, err := ComputeQuote(p, SideCover, 2, params)
	if err != nil {
		t.Fatalf("quote cover: %v", err)
	}
	if cover.Total != 60000 {
		t.Fatalf("cover total=%d want 60000 ($600.00)", cover.Total)
	}
	if !SideCover.IsCost() {
		t.Fatal("cover must be a cost side")
	}
}

func TestQuoteInvalidQuantity(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	for _, shares := range []int64{0, -3} {
		if _, err := ComputeQuote(p, SideBuy, shares, params); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("shares=%d err=%v want ErrInvalidQuantity", shares, err)
		}
	}
}

// A share count large enough to overflow cents arithmetic must be rejected
// outright: an overflowed total reads as negative and would slip past every
// downstream cash check.
func TestQuoteRejectsOversizedQuantity(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(10000) // $100.00

	limit := MaxTradeShares(params)
	if _, err := ComputeQuote(p, SideBuy, limit, params); err != nil {
		t.Fatalf("quote at the limit must price: %v", err)
	}

	for _, shares := range []int64{limit + 1, 1_844_674_407_370_955} {
		_, err := ComputeQuote(p, SideBuy, shares, params)
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("shares=%d err=%v want ErrInvalidQuantity", shares, err)
		}
		var ce *ConstraintError
		if !errors.As(err, &ce) || ce.Allowed != limit {
			t.Fatalf("shares=%d constraint=%v want allowed=%d", shares, err, limit)
		}
	}
}

func TestQuoteUnlistedPlayer(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)
	p.Listed = false

	if _, err := ComputeQuote(p, SideBuy, 1, params); !errors.Is(err, ErrPlayerNotListed) {
		t.Fatalf("err=%v want ErrPlayerNotListed", err)
	}
}

func TestQuoteIdempotent(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	first, err := ComputeQuote(p, SideBuy, 7, params)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := ComputeQuote(p, SideBuy, 7, params)
		if err != nil {
			t.Fatalf("repeat quote: %v", err)
		}
		if again != first {
			t.Fatalf("quote drifted without a trade: %+v vs %+v", again, first)
		}
	}
	if p.TotalShares != 40 {
		t.Fatalf("quoting mutated total shares: %d", p.TotalShares)
	}
}

// Quoting does not clamp a SELL beyond the held quantity; feasibility is the
// guard's call at trade time.
func TestQuoteDoesNotClampSell(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	q, err := ComputeQuote(p, SideSell, 1000, params)
	if err != nil {
		t.Fatalf("oversized sell should quote: %v", err)
	}
	if q.Shares != 1000 {
		t.Fatalf("quote clamped shares: %d", q.Shares)
	}
}

func TestQuoteRoundTrip(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	buy, err := ComputeQuote(p, SideBuy, 9, params)
	if err != nil {
		t.Fatalf("buy quote: %v", err)
	}

	after := p
	after.TotalShares += SideBuy.SharesDelta(9)
	sell, err := ComputeQuote(after, SideSell, 9, params)
	if err != nil {
		t.Fatalf("sell quote: %v", err)
	}

	// Same integral over the same share range: the unwind returns cash
	// exactly and the spot returns to its pre-trade value.
	if sell.Total != buy.Total {
		t.Fatalf("round trip leaked cash: buy %d sell %d", buy.Total, sell.Total)
	}
	if sell.SpotPriceAfter != buy.SpotPriceBefore {
		t.Fatalf("round trip moved spot: %d -> %d", buy.SpotPriceBefore, sell.SpotPriceAfter)
	}
}

// For a purely linear segment the exact integral coincides with the
// before/after midpoint. This documents the modeling choice; it would not
// hold for a nonlinear curve.
func TestQuoteAverageIsMidpointOnLinearSegment(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	q, err := ComputeQuote(p, SideBuy, 11, params)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	mid := (q.SpotPriceBefore + q.SpotPriceAfter) / 2
	if diff := q.AveragePrice - mid; diff < -1 || diff > 1 {
		t.Fatalf("average %d vs midpoint %d differ beyond rounding", q.AveragePrice, mid)
	}
}
