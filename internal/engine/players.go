package engine

import (
	"context"
	"strings"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

// ListPlayers returns the tradable roster. Unlisted players are only shown
// when includeUnlisted is set (admin views).
func (s *Service) ListPlayers(ctx context.Context, sport string, includeUnlisted bool) ([]PlayerView, error) {
	query := `
		SELECT id, sport, name, team, position, listed,
		       fundamental_price_cents, k, total_shares
		FROM market.players
	`
	var conds []string
	var args []any
	if sport = strings.ToLower(strings.TrimSpace(sport)); sport != "" {
		args = append(args, sport)
		conds = append(conds, "sport = $1")
	}
	if !includeUnlisted {
		conds = append(conds, "listed = true")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PlayerView, 0)
	for rows.Next() {
		var v PlayerView
		var p market.Player
		if err := rows.Scan(&v.ID, &v.Sport, &v.Name, &v.Team, &v.Position, &v.Listed,
			&p.FundamentalPrice, &p.K, &p.TotalShares); err != nil {
			return nil, err
		}
		p.Listed = v.Listed
		v.FundamentalPrice = p.FundamentalPrice
		v.TotalShares = p.TotalShares
		v.SpotPrice = market.SpotPrice(p, s.params)
		out = append(out, v)
	}
	return out, rows.Err()
}

// PlayerDetail returns one player with its recent price series and weekly
// scoring to date.
func (s *Service) PlayerDetail(ctx context.Context, playerID int64) (PlayerDetail, error) {
	var out PlayerDetail
	p, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return out, err
	}
	out.PlayerView = PlayerView{
		ID:               p.ID,
		Sport:            p.Sport,
		Name:             p.Name,
		Team:             p.Team,
		Position:         p.Position,
		Listed:           p.Listed,
		SpotPrice:        market.SpotPrice(p, s.params),
		FundamentalPrice: p.FundamentalPrice,
		TotalShares:      p.TotalShares,
	}
	out.BasePrice = p.BasePrice

	rows, err := s.db.Query(ctx, `
		SELECT tick_at, spot_price_cents
		FROM market.price_points
		WHERE player_id = $1
		ORDER BY tick_at DESC
		LIMIT 64
	`, playerID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var pt PricePoint
		if err := rows.Scan(&pt.TickAt, &pt.SpotPrice); err != nil {
			return out, err
		}
		out.Series = append(out.Series, pt)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	statRows, err := s.db.Query(ctx, `
		SELECT week, points
		FROM market.weekly_stats
		WHERE player_id = $1
		ORDER BY week
	`, playerID)
	if err != nil {
		return out, err
	}
	defer statRows.Close()
	for statRows.Next() {
		var st WeeklyStat
		if err := statRows.Scan(&st.Week, &st.Points); err != nil {
			return out, err
		}
		out.Stats = append(out.Stats, st)
	}
	return out, statRows.Err()
}

// LaunchPlayer lists a new player on the exchange at its IPO pricing.
func (s *Service) LaunchPlayer(ctx context.Context, in LaunchPlayerInput) (int64, error) {
	in.Sport = strings.ToLower(strings.TrimSpace(in.Sport))
	in.Name = strings.TrimSpace(in.Name)
	if in.Sport == "" || in.Name == "" {
		return 0, ErrPlayerNotFound
	}
	if in.BasePrice <= 0 || in.FundamentalPrice <= 0 || in.K < 0 {
		return 0, market.ErrInvalidQuantity
	}

	var id int64
	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		if err := claimIdempotency(ctx, tx, in.AccountID, in.IdempotencyKey, "launch_player"); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO market.players
			    (sport, name, team, position, listed, base_price_cents, fundamental_price_cents, k)
			VALUES ($1, $2, $3, $4, true, $5, $6, $7)
			ON CONFLICT (sport, name) DO NOTHING
			RETURNING id
		`, in.Sport, in.Name, in.Team, in.Position,
			int64(in.BasePrice), int64(in.FundamentalPrice), in.K).Scan(&id)
		if err == pgx.ErrNoRows {
			return ErrPlayerExists
		}
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO market.price_points (player_id, spot_price_cents)
			VALUES ($1, $2)
		`, id, int64(in.FundamentalPrice))
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("player launched", "player_id", id, "sport", in.Sport, "name", in.Name)
	return id, nil
}

// SetListed hides or re-lists a player. Hidden players keep open positions;
// only new quotes and trades are refused.
func (s *Service) SetListed(ctx context.Context, playerID int64, listed bool) error {
	cmd, err := s.db.Exec(ctx, `
		UPDATE market.players
		SET listed = $1, updated_at = now()
		WHERE id = $2
	`, listed, playerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// SeedDefaults lists a starter roster when the players table is empty.
func (s *Service) SeedDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(1) FROM market.players`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		Name     string
		Team     string
		Position string
		Price    market.Cents
		K        float64
	}{
		{"Josh Allen", "BUF", "QB", 38000, 0.0020},
		{"Patrick Mahomes", "KC", "QB", 36500, 0.0020},
		{"Lamar Jackson", "BAL", "QB", 35000, 0.0020},
		{"Christian McCaffrey", "SF", "RB", 30000, 0.0025},
		{"Saquon Barkley", "PHI", "RB", 29000, 0.0025},
		{"Bijan Robinson", "ATL", "RB", 27000, 0.0025},
		{"Ja'Marr Chase", "CIN", "WR", 32000, 0.0025},
		{"Justin Jefferson", "MIN", "WR", 31000, 0.0025},
		{"CeeDee Lamb", "DAL", "WR", 28500, 0.0025},
		{"Amon-Ra St. Brown", "DET", "WR", 27500, 0.0025},
		{"Tyreek Hill", "MIA", "WR", 26000, 0.0025},
		{"Travis Kelce", "KC", "TE", 21000, 0.0030},
		{"Sam LaPorta", "DET", "TE", 19000, 0.0030},
		{"Trey McBride", "ARI", "TE", 18500, 0.0030},
		{"Jahmyr Gibbs", "DET", "RB", 28000, 0.0025},
		{"Derrick Henry", "BAL", "RB", 25000, 0.0025},
		{"A.J. Brown", "PHI", "WR", 27000, 0.0025},
		{"Puka Nacua", "LAR", "WR", 25500, 0.0025},
		{"Garrett Wilson", "NYJ", "WR", 23000, 0.0025},
		{"Brock Bowers", "LV", "TE", 20000, 0.0030},
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, row := range seed {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO market.players
			    (sport, name, team, position, listed, base_price_cents, fundamental_price_cents, k)
			VALUES ('nfl', $1, $2, $3, true, $4, $4, $5)
			RETURNING id
		`, row.Name, row.Team, row.Position, int64(row.Price), row.K).Scan(&id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.price_points (player_id, spot_price_cents)
			VALUES ($1, $2)
		`, id, int64(row.Price)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
