package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

func fillQuote(total market.Cents) market.Quote {
	return market.Quote{
		PlayerID:        7,
		Shares:          5,
		SpotPriceBefore: 30000,
		SpotPriceAfter:  30350,
		AveragePrice:    30175,
		Total:           total,
	}
}

func TestTradeResultCarriesNewTotalShares(t *testing.T) {
	out := newTradeResult(TradeInput{PlayerID: 7, Side: market.SideBuy, Shares: 5},
		fillQuote(150_875), 9_849_125, 5, 45)

	if out.NewTotalShares != 45 {
		t.Fatalf("new total shares=%d want 45", out.NewTotalShares)
	}

	// The fill response is the wire contract; the field must survive encoding.
	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := body["new_total_shares"].(float64); !ok || int64(got) != 45 {
		t.Fatalf("new_total_shares=%v want 45", body["new_total_shares"])
	}
}

func TestTradeResultRepricedOnStaleTotal(t *testing.T) {
	in := TradeInput{PlayerID: 7, Side: market.SideBuy, Shares: 5, ExpectedTotal: 150_000}
	out := newTradeResult(in, fillQuote(150_875), 9_849_125, 5, 45)

	if !out.Repriced {
		t.Fatal("stale reference total must flag the fill as repriced")
	}
	if out.ExpectedTotal != 150_000 || out.Quote.Total != 150_875 {
		t.Fatalf("totals: expected=%d filled=%d", out.ExpectedTotal, out.Quote.Total)
	}
}

// An id with no row behind it quotes and trades like an unlaunched player.
func TestUnknownPlayerIsNotListed(t *testing.T) {
	if err := tradePlayerErr(pgx.ErrNoRows); !errors.Is(err, market.ErrPlayerNotListed) {
		t.Fatalf("err=%v want ErrPlayerNotListed", err)
	}
	if err := tradePlayerErr(nil); err != nil {
		t.Fatalf("nil scan error mapped to %v", err)
	}
	boom := errors.New("connection refused")
	if err := tradePlayerErr(boom); !errors.Is(err, boom) {
		t.Fatalf("infrastructure error rewritten: %v", err)
	}
}

func TestTradeResultNotRepriced(t *testing.T) {
	// Matching reference total: clean fill.
	out := newTradeResult(TradeInput{ExpectedTotal: 150_875}, fillQuote(150_875), 0, 5, 45)
	if out.Repriced || out.ExpectedTotal != 0 {
		t.Fatalf("matching total flagged repriced: %+v", out)
	}

	// Zero means the client sent no reference; never flagged.
	out = newTradeResult(TradeInput{}, fillQuote(150_875), 0, 5, 45)
	if out.Repriced {
		t.Fatal("absent reference total flagged repriced")
	}
}
