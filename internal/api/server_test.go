package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/engine"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"
)

func TestWriteDomainErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{market.ErrInvalidQuantity, http.StatusBadRequest},
		{market.ErrInvalidSide, http.StatusBadRequest},
		{market.ErrInsufficientFunds, http.StatusBadRequest},
		{market.ErrInsufficientShares, http.StatusBadRequest},
		{market.ErrPositionLimitExceeded, http.StatusUnprocessableEntity},
		{market.ErrPlayerNotListed, http.StatusNotFound},
		{engine.ErrPlayerNotFound, http.StatusNotFound},
		{market.ErrSeasonAlreadyClosed, http.StatusConflict},
		{market.ErrSeasonNotClosed, http.StatusConflict},
		{market.ErrMarketHalted, http.StatusConflict},
		{market.ErrWeekAlreadySettled, http.StatusConflict},
		{engine.ErrDuplicateIdempotency, http.StatusConflict},
		{engine.ErrTxConflict, http.StatusConflict},
		{engine.ErrUsernameTaken, http.StatusConflict},
		{engine.ErrUnauthorized, http.StatusForbidden},
		{engine.ErrInvalidCredentials, http.StatusUnauthorized},
		{engine.ErrSessionInvalid, http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeDomainError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeDomainError(%v) status = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestWriteDomainErrorConstraintPayload(t *testing.T) {
	err := &market.ConstraintError{
		Err:       market.ErrPositionLimitExceeded,
		Attempted: 1_000_100,
		Allowed:   1_000_000,
		Unit:      "cents",
	}
	rec := httptest.NewRecorder()
	writeDomainError(rec, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body struct {
		Error     string `json:"error"`
		Attempted int64  `json:"attempted"`
		Allowed   int64  `json:"allowed"`
		Unit      string `json:"unit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Attempted != 1_000_100 || body.Allowed != 1_000_000 || body.Unit != "cents" {
		t.Fatalf("payload = %+v", body)
	}
	if body.Error == "" {
		t.Fatal("error message empty")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer fsm_abc", "fsm_abc"},
		{"bearer fsm_abc", "fsm_abc"},
		{"Bearer  fsm_abc ", "fsm_abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"fsm_abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}

func TestIdempotencyKey(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/v1/trades", nil)
	r.Header.Set("Idempotency-Key", "client-key-1")
	if got := idempotencyKey(r); got != "client-key-1" {
		t.Fatalf("idempotencyKey = %q", got)
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/trades", nil)
	first := idempotencyKey(r)
	second := idempotencyKey(r)
	if first == "" || second == "" {
		t.Fatal("generated key empty")
	}
	if first == second {
		t.Fatal("generated keys must be unique per call")
	}
}
