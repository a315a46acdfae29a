package market

import "testing"

func flatPlayer(spot Cents) Player {
	return Player{
		ID:               1,
		Sport:            "NFL",
		Name:             "Test Player",
		Listed:           true,
		BasePrice:        28000,
		FundamentalPrice: spot,
		K:                0,
		TotalShares:      0,
	}
}

func curvedPlayer() Player {
	return Player{
		ID:               2,
		Sport:            "NFL",
		Name:             "Curved Player",
		Listed:           true,
		BasePrice:        28000,
		FundamentalPrice: 28000,
		K:                0.0025,
		TotalShares:      40,
	}
}

func TestSpotPriceFloor(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	for _, shares := range []int64{0, 100, -100, -10_000, -1_000_000_000} {
		p.TotalShares = shares
		if got := SpotPrice(p, params); got < params.MinSpotPrice {
			t.Fatalf("shares=%d spot=%d below floor %d", shares, got, params.MinSpotPrice)
		}
	}

	p.TotalShares = -1_000_000
	if got := SpotPrice(p, params); got != params.MinSpotPrice {
		t.Fatalf("deep short interest should pin the floor, got %d", got)
	}
}

func TestSpotPriceMonotonic(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	prev := Cents(-1)
	for shares := int64(-500); shares <= 500; shares += 25 {
		p.TotalShares = shares
		got := SpotPrice(p, params)
		if got < prev {
			t.Fatalf("spot not monotonic at shares=%d: %d < %d", shares, got, prev)
		}
		prev = got
	}
}

func TestSpotPriceFlatCurve(t *testing.T) {
	params := DefaultParams()
	p := flatPlayer(30000)

	for _, shares := range []int64{0, 5, -7, 9000} {
		p.TotalShares = shares
		if got := SpotPrice(p, params); got != 30000 {
			t.Fatalf("flat curve moved: shares=%d spot=%d", shares, got)
		}
	}
}

func TestSpotPriceDamping(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()

	undamped := SpotPrice(p, params)
	params.PriceImpactMultiplier = 0.5
	damped := SpotPrice(p, params)
	if damped >= undamped {
		t.Fatalf("damping did not reduce impact: %d >= %d", damped, undamped)
	}
}

func TestSweepTotalClampedSegment(t *testing.T) {
	params := DefaultParams()
	p := curvedPlayer()
	p.TotalShares = -1_000_000 // deep below the floor crossing

	total := sweepTotal(p, params, p.TotalShares, p.TotalShares+10)
	want := params.MinSpotPrice * 10
	if total != want {
		t.Fatalf("floor segment total=%d want %d", total, want)
	}
}
