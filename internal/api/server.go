package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/config"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/engine"
	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type contextKey string

const accountContextKey contextKey = "account"

type Server struct {
	cfg    config.APIConfig
	log    *slog.Logger
	engine *engine.Service
	stream http.Handler
	mux    *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, eng *engine.Service, stream http.Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		engine: eng,
		stream: stream,
		mux:    chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		if s.stream != nil {
			r.Get("/stream", s.stream.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/auth/logout", s.handleLogout)

			r.Get("/players", s.handlePlayersList)
			r.Get("/players/{id}", s.handlePlayerDetail)
			r.Post("/quotes", s.handleQuote)
			r.Post("/trades", s.handleTrade)
			r.Get("/portfolio", s.handlePortfolio)
			r.Get("/transactions", s.handleTransactions)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/admin/players", s.handleLaunchPlayer)
				r.Post("/admin/players/{id}/listing", s.handleSetListing)
				r.Post("/admin/stats", s.handleRecordStats)
				r.Post("/admin/settlements/weeks/{week}", s.handleSettleWeek)
				r.Post("/admin/seasons/{season}/close", s.handleCloseSeason)
				r.Post("/admin/seasons/{season}/reset", s.handleResetSeason)
			})
		})
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		account, err := s.engine.AccountForToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, engine.ErrSessionInvalid) {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromContext(r.Context())
		if err != nil || !account.IsAdmin {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFromContext(ctx context.Context) (engine.Account, error) {
	account, ok := ctx.Value(accountContextKey).(engine.Account)
	if !ok || account.ID == 0 {
		return engine.Account{}, errors.New("missing auth context")
	}
	return account, nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.engine.Register(r.Context(), in.Username, in.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.engine.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Logout(r.Context(), bearerToken(r.Header.Get("Authorization"))); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePlayersList(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	includeUnlisted := r.URL.Query().Get("all") == "1" && account.IsAdmin
	out, err := s.engine.ListPlayers(r.Context(), r.URL.Query().Get("sport"), includeUnlisted)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": out})
}

func (s *Server) handlePlayerDetail(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	out, err := s.engine.PlayerDetail(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlayerID int64  `json:"player_id"`
		Side     string `json:"side"`
		Shares   int64  `json:"shares"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := market.ParseSide(in.Side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	quote, err := s.engine.Quote(r.Context(), in.PlayerID, side, in.Shares)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		PlayerID      int64  `json:"player_id"`
		Side          string `json:"side"`
		Shares        int64  `json:"shares"`
		ExpectedTotal int64  `json:"expected_total"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	side, err := market.ParseSide(in.Side)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := s.engine.ExecuteTrade(r.Context(), engine.TradeInput{
		AccountID:      account.ID,
		PlayerID:       in.PlayerID,
		Side:           side,
		Shares:         in.Shares,
		ExpectedTotal:  market.Cents(in.ExpectedTotal),
		IdempotencyKey: idempotencyKey(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	out, err := s.engine.Portfolio(r.Context(), account.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.engine.Transactions(r.Context(), account.ID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (s *Server) handleLaunchPlayer(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	var in struct {
		Sport            string  `json:"sport"`
		Name             string  `json:"name"`
		Team             string  `json:"team"`
		Position         string  `json:"position"`
		BasePrice        int64   `json:"base_price"`
		FundamentalPrice int64   `json:"fundamental_price"`
		K                float64 `json:"k"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.FundamentalPrice == 0 {
		in.FundamentalPrice = in.BasePrice
	}
	id, err := s.engine.LaunchPlayer(r.Context(), engine.LaunchPlayerInput{
		Sport:            in.Sport,
		Name:             in.Name,
		Team:             in.Team,
		Position:         in.Position,
		BasePrice:        market.Cents(in.BasePrice),
		FundamentalPrice: market.Cents(in.FundamentalPrice),
		K:                in.K,
		IdempotencyKey:   idempotencyKey(r),
		AccountID:        account.ID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleSetListing(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	var in struct {
		Listed bool `json:"listed"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.engine.SetListed(r.Context(), playerID, in.Listed); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecordStats(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Stats []struct {
			PlayerID int64   `json:"player_id"`
			Week     int     `json:"week"`
			Points   float64 `json:"points"`
		} `json:"stats"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	batch := make([]engine.StatUpsertInput, 0, len(in.Stats))
	for _, row := range in.Stats {
		batch = append(batch, engine.StatUpsertInput{
			PlayerID: row.PlayerID,
			Week:     row.Week,
			Points:   row.Points,
		})
	}
	if err := s.engine.RecordWeeklyStats(r.Context(), batch); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recorded": len(batch)})
}

func (s *Server) handleSettleWeek(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid week")
		return
	}
	report, err := s.engine.PayWeeklyDividends(r.Context(), week)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCloseSeason(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.CloseSeason(r.Context(), chi.URLParam(r, "season"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleResetSeason(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.ResetSeason(r.Context(), chi.URLParam(r, "season"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeDomainError(w http.ResponseWriter, err error) {
	var constraint *market.ConstraintError
	if errors.As(err, &constraint) {
		status := http.StatusBadRequest
		if errors.Is(err, market.ErrPositionLimitExceeded) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]any{
			"error":     err.Error(),
			"attempted": constraint.Attempted,
			"allowed":   constraint.Allowed,
			"unit":      constraint.Unit,
		})
		return
	}

	switch {
	case errors.Is(err, market.ErrInvalidQuantity),
		errors.Is(err, market.ErrInvalidSide),
		errors.Is(err, engine.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrInsufficientFunds),
		errors.Is(err, market.ErrInsufficientShares):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, market.ErrPositionLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, market.ErrPlayerNotListed),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, engine.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, market.ErrSeasonAlreadyClosed),
		errors.Is(err, market.ErrSeasonNotClosed),
		errors.Is(err, market.ErrMarketHalted),
		errors.Is(err, market.ErrWeekAlreadySettled),
		errors.Is(err, engine.ErrDuplicateIdempotency),
		errors.Is(err, engine.ErrTxConflict),
		errors.Is(err, engine.ErrUsernameTaken),
		errors.Is(err, engine.ErrPlayerExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrInvalidCredentials),
		errors.Is(err, engine.ErrSessionInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" {
		return key
	}
	return uuid.NewString()
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
