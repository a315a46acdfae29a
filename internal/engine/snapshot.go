package engine

import (
	"context"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"
)

// RecordPriceTicks snapshots every listed player's current spot into the
// price history and publishes a tick for each. The worker drives this on a
// timer so charts keep moving between trades.
func (s *Service) RecordPriceTicks(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, fundamental_price_cents, k, total_shares
		FROM market.players
		WHERE listed = true
		ORDER BY id
	`)
	if err != nil {
		return 0, err
	}
	type tick struct {
		playerID    int64
		spot        market.Cents
		totalShares int64
	}
	var ticks []tick
	for rows.Next() {
		var p market.Player
		if err := rows.Scan(&p.ID, &p.FundamentalPrice, &p.K, &p.TotalShares); err != nil {
			rows.Close()
			return 0, err
		}
		p.Listed = true
		ticks = append(ticks, tick{p.ID, market.SpotPrice(p, s.params), p.TotalShares})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, t := range ticks {
		if _, err := s.db.Exec(ctx, `
			INSERT INTO market.price_points (player_id, spot_price_cents)
			VALUES ($1, $2)
		`, t.playerID, int64(t.spot)); err != nil {
			return 0, err
		}
		s.pub.PublishTick(t.playerID, t.spot, t.totalShares)
	}
	return len(ticks), nil
}

// PruneSessions drops sessions that expired or were revoked more than a day
// ago. Housekeeping for the worker loop.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	cmd, err := s.db.Exec(ctx, `
		DELETE FROM users.sessions
		WHERE expires_at < now() - interval '1 day'
		   OR revoked_at < now() - interval '1 day'
	`)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
