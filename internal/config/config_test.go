package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"
)

func TestLoadParamsDefaults(t *testing.T) {
	params, err := LoadParams("")
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	want := market.DefaultParams()
	if params != want {
		t.Fatalf("params = %+v, want defaults %+v", params, want)
	}
}

func TestLoadParamsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	body := []byte("min_spot_price_cents: 50\nmax_position_notional_cents: 2000000\nprice_impact_multiplier: 0.5\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write params file: %v", err)
	}

	params, err := LoadParams(path)
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if params.MinSpotPrice != 50 {
		t.Fatalf("MinSpotPrice = %d, want 50", params.MinSpotPrice)
	}
	if params.MaxPositionNotional != 2_000_000 {
		t.Fatalf("MaxPositionNotional = %d, want 2000000", params.MaxPositionNotional)
	}
	if params.PriceImpactMultiplier != 0.5 {
		t.Fatalf("PriceImpactMultiplier = %v, want 0.5", params.PriceImpactMultiplier)
	}
	// Fields absent from the file keep their defaults.
	if params.InitialMarginRate != market.DefaultParams().InitialMarginRate {
		t.Fatalf("InitialMarginRate = %v, want default", params.InitialMarginRate)
	}
}

func TestLoadParamsEnvOverride(t *testing.T) {
	t.Setenv("MARKET_MIN_SPOT_PRICE_CENTS", "25")
	t.Setenv("MARKET_PRICE_IMPACT_MULTIPLIER", "2.0")

	params, err := LoadParams("")
	if err != nil {
		t.Fatalf("LoadParams: %v", err)
	}
	if params.MinSpotPrice != 25 {
		t.Fatalf("MinSpotPrice = %d, want 25", params.MinSpotPrice)
	}
	if params.PriceImpactMultiplier != 2.0 {
		t.Fatalf("PriceImpactMultiplier = %v, want 2.0", params.PriceImpactMultiplier)
	}
}

func TestLoadParamsRejectsBadValues(t *testing.T) {
	t.Setenv("MARKET_MIN_SPOT_PRICE_CENTS", "0")
	if _, err := LoadParams(""); err == nil {
		t.Fatal("expected error for zero min spot price")
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing params file")
	}
}

func TestLoadAPIFromEnvRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadAPIFromEnv(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoadAPIFromEnvPortNormalization(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/fanmkt")
	t.Setenv("PORT", "9090")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("LoadAPIFromEnv: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("Addr = %q, want :9090", cfg.Addr)
	}
}
