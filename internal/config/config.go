package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"gopkg.in/yaml.v3"
)

type APIConfig struct {
	Addr               string
	DatabaseURL        string
	ParamsFile         string
	SessionTTL         time.Duration
	SessionTokenPepper string
	StartupSeedPlayers bool
	WorkerTickEvery    time.Duration

	Params market.Params
}

type CLIConfig struct {
	APIBaseURL string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("MARKET_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:               addr,
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ParamsFile:         strings.TrimSpace(os.Getenv("MARKET_PARAMS_FILE")),
		SessionTTL:         envDurationDefault("MARKET_SESSION_TTL", 168*time.Hour),
		SessionTokenPepper: strings.TrimSpace(os.Getenv("MARKET_SESSION_PEPPER")),
		StartupSeedPlayers: envBoolDefault("MARKET_STARTUP_SEED_PLAYERS", true),
		WorkerTickEvery:    envDurationDefault("MARKET_WORKER_TICK_EVERY", 5*time.Minute),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}

	params, err := LoadParams(cfg.ParamsFile)
	if err != nil {
		return cfg, err
	}
	cfg.Params = params
	return cfg, nil
}

// LoadParams returns the engine constants: package defaults, overlaid by the
// YAML params file when one is configured, overlaid by env overrides.
func LoadParams(path string) (market.Params, error) {
	params := market.DefaultParams()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return params, fmt.Errorf("read params file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &params); err != nil {
			return params, fmt.Errorf("parse params file: %w", err)
		}
	}

	params.MinSpotPrice = envCentsDefault("MARKET_MIN_SPOT_PRICE_CENTS", params.MinSpotPrice)
	params.MaxPositionNotional = envCentsDefault("MARKET_MAX_POSITION_NOTIONAL_CENTS", params.MaxPositionNotional)
	params.PriceImpactMultiplier = envFloatDefault("MARKET_PRICE_IMPACT_MULTIPLIER", params.PriceImpactMultiplier)

	if params.MinSpotPrice <= 0 {
		return params, fmt.Errorf("min spot price must be > 0")
	}
	if params.MaxPositionNotional <= 0 {
		return params, fmt.Errorf("max position notional must be > 0")
	}
	if params.PriceImpactMultiplier < 0 {
		return params, fmt.Errorf("price impact multiplier must be >= 0")
	}
	if params.InitialMarginRate <= 0 || params.MaintenanceMarginRate <= 0 {
		return params, fmt.Errorf("margin rates must be > 0")
	}
	return params, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("FANMKT_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envCentsDefault(key string, fallback market.Cents) market.Cents {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return market.Cents(n)
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
