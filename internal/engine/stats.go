package engine

import (
	"context"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

// RecordWeeklyStats upserts a batch of weekly scoring rows and re-blends each
// touched player's fundamental price against its season pace. One transaction:
// either the stats land and the fundamentals move, or neither does.
func (s *Service) RecordWeeklyStats(ctx context.Context, batch []StatUpsertInput) error {
	if len(batch) == 0 {
		return nil
	}
	return s.runSerializable(ctx, func(tx pgx.Tx) error {
		touched := make(map[int64]struct{}, len(batch))
		for _, in := range batch {
			if in.Week <= 0 || in.Week > s.params.SeasonWeeks {
				return market.ErrInvalidQuantity
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO market.weekly_stats (player_id, week, points)
				VALUES ($1, $2, $3)
				ON CONFLICT (player_id, week) DO UPDATE SET points = $3
			`, in.PlayerID, in.Week, in.Points)
			if err != nil {
				if isForeignKeyViolation(err) {
					return ErrPlayerNotFound
				}
				return err
			}
			touched[in.PlayerID] = struct{}{}
		}

		for playerID := range touched {
			if err := refreshFundamentalTx(ctx, tx, playerID, s.params); err != nil {
				return err
			}
		}
		return nil
	})
}

func refreshFundamentalTx(ctx context.Context, tx pgx.Tx, playerID int64, params market.Params) error {
	var base market.Cents
	if err := tx.QueryRow(ctx, `
		SELECT base_price_cents
		FROM market.players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&base); err != nil {
		if err == pgx.ErrNoRows {
			return ErrPlayerNotFound
		}
		return err
	}

	var pointsToDate float64
	var latestWeek int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(points), 0), COALESCE(MAX(week), 0)
		FROM market.weekly_stats
		WHERE player_id = $1
	`, playerID).Scan(&pointsToDate, &latestWeek); err != nil {
		return err
	}

	next := market.RefreshFundamental(base, pointsToDate, latestWeek, params.SeasonWeeks, params)
	_, err := tx.Exec(ctx, `
		UPDATE market.players
		SET fundamental_price_cents = $1, updated_at = now()
		WHERE id = $2
	`, int64(next), playerID)
	return err
}

// PayWeeklyDividends credits every holder of every player that scored in the
// given week: shares times points times the payout per point. Shorts pay the
// dividend instead of receiving it. The settled-week marker commits with the
// payouts, so a week pays at most once.
func (s *Service) PayWeeklyDividends(ctx context.Context, week int) (DividendReport, error) {
	report := DividendReport{Week: week}
	if week <= 0 {
		return report, market.ErrInvalidQuantity
	}

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		report = DividendReport{Week: week}

		cmd, err := tx.Exec(ctx, `
			INSERT INTO market.settled_weeks (week)
			VALUES ($1)
			ON CONFLICT (week) DO NOTHING
		`, week)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return market.ErrWeekAlreadySettled
		}

		rows, err := tx.Query(ctx, `
			SELECT h.account_id, h.player_id, h.shares, w.points
			FROM market.holdings h
			JOIN market.weekly_stats w ON w.player_id = h.player_id AND w.week = $1
			ORDER BY h.account_id, h.player_id
		`, week)
		if err != nil {
			return err
		}
		type payout struct {
			accountID int64
			playerID  int64
			amount    market.Cents
		}
		var payouts []payout
		for rows.Next() {
			var p payout
			var shares int64
			var points float64
			if err := rows.Scan(&p.accountID, &p.playerID, &shares, &points); err != nil {
				rows.Close()
				return err
			}
			p.amount = market.DividendValue(shares, points, s.params.PayoutPerPoint)
			if p.amount != 0 {
				payouts = append(payouts, p)
			}
			report.HoldingsPriced++
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		paid := make(map[int64]struct{})
		for _, p := range payouts {
			var cashAfter int64
			if err := tx.QueryRow(ctx, `
				UPDATE users.accounts
				SET cash_balance_cents = cash_balance_cents + $1, updated_at = now()
				WHERE id = $2
				RETURNING cash_balance_cents
			`, int64(p.amount), p.accountID).Scan(&cashAfter); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO market.transactions (account_id, player_id, kind, total_cents, cash_after_cents)
				VALUES ($1, $2, 'dividend', $3, $4)
			`, p.accountID, p.playerID, int64(p.amount), cashAfter); err != nil {
				return err
			}
			if p.amount > 0 {
				report.TotalPaid += p.amount
			} else {
				report.TotalClawed += -p.amount
			}
			paid[p.accountID] = struct{}{}
		}
		report.AccountsPaid = int64(len(paid))
		return nil
	})
	if err != nil {
		return DividendReport{Week: week}, err
	}
	s.log.Info("week settled",
		"week", week,
		"accounts_paid", report.AccountsPaid,
		"total_paid_cents", int64(report.TotalPaid),
		"total_clawed_cents", int64(report.TotalClawed),
	)
	return report, nil
}
