package market

import (
	"errors"
	"testing"
)

func TestParseSide(t *testing.T) {
	cases := map[string]Side{
		"buy":    SideBuy,
		"SELL":   SideSell,
		" short": SideShort,
		"Cover":  SideCover,
	}
	for in, want := range cases {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Fatalf("ParseSide(%q) = %v, %v", in, got, err)
		}
	}

	if _, err := ParseSide("hold"); !errors.Is(err, ErrInvalidSide) {
		t.Fatalf("expected ErrInvalidSide, got %v", err)
	}
}

func TestSidePolarity(t *testing.T) {
	if !SideBuy.IsCost() || !SideCover.IsCost() {
		t.Fatal("buy and cover are cost sides")
	}
	if SideSell.IsCost() || SideShort.IsCost() {
		t.Fatal("sell and short are proceeds sides")
	}

	if SideBuy.SharesDelta(5) != 5 || SideCover.SharesDelta(5) != 5 {
		t.Fatal("cost sides add net shares outstanding")
	}
	if SideSell.SharesDelta(5) != -5 || SideShort.SharesDelta(5) != -5 {
		t.Fatal("proceeds sides remove net shares outstanding")
	}

	if !SideBuy.Opening() || !SideShort.Opening() {
		t.Fatal("buy and short are opening sides")
	}
	if SideSell.Opening() || SideCover.Opening() {
		t.Fatal("sell and cover are reducing sides")
	}
}
