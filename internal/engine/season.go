package engine

import (
	"context"
	"strings"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

// CloseSeason halts trading and settles every open holding at its player's
// fundamental price. The close marker commits first and on its own: once it
// is in, every in-flight and future trade transaction sees the halt. The
// sweep then runs per holding in individual transactions, so one poisoned
// row cannot hold the whole settlement hostage.
func (s *Service) CloseSeason(ctx context.Context, season string) (CloseReport, error) {
	season = strings.TrimSpace(season)
	report := CloseReport{Season: season}
	if season == "" {
		return report, market.ErrInvalidQuantity
	}

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		phase, err := seasonPhaseTx(ctx, tx, season)
		if err != nil {
			return err
		}
		if err := market.ValidateClose(phase); err != nil {
			return err
		}
		cmd, err := tx.Exec(ctx, `
			INSERT INTO market.season_closes (season)
			VALUES ($1)
			ON CONFLICT (season) DO NOTHING
		`, season)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			// Concurrent close won the insert.
			return market.ErrSeasonAlreadyClosed
		}
		return tx.QueryRow(ctx, `
			SELECT closed_at FROM market.season_closes WHERE season = $1
		`, season).Scan(&report.ClosedAt)
	})
	if err != nil {
		return report, err
	}

	type sweepRow struct {
		accountID   int64
		playerID    int64
		shares      int64
		fundamental market.Cents
	}
	rows, err := s.db.Query(ctx, `
		SELECT h.account_id, h.player_id, h.shares, p.fundamental_price_cents
		FROM market.holdings h
		JOIN market.players p ON p.id = h.player_id
		ORDER BY h.account_id, h.player_id
	`)
	if err != nil {
		return report, err
	}
	var sweep []sweepRow
	for rows.Next() {
		var r sweepRow
		if err := rows.Scan(&r.accountID, &r.playerID, &r.shares, &r.fundamental); err != nil {
			rows.Close()
			return report, err
		}
		sweep = append(sweep, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return report, err
	}

	for _, r := range sweep {
		value := market.SettlementValue(r.shares, r.fundamental)
		var sweepErr error
		for attempt := 0; attempt < 2; attempt++ {
			sweepErr = s.settleHolding(ctx, r.accountID, r.playerID, value)
			if sweepErr == nil || !isSerializationError(sweepErr) {
				break
			}
			if err := sleepWithContext(ctx, 50*time.Millisecond); err != nil {
				return report, err
			}
		}
		if sweepErr != nil {
			report.HoldingsFailed++
			s.log.Error("settlement sweep failed",
				"account_id", r.accountID, "player_id", r.playerID, "err", sweepErr)
			continue
		}
		report.HoldingsSwept++
		report.CashPaidOut += value
	}

	// Holdings are gone; recompute net shares outstanding from what remains.
	if _, err := s.db.Exec(ctx, `
		UPDATE market.players p
		SET total_shares = COALESCE((
		        SELECT SUM(h.shares) FROM market.holdings h WHERE h.player_id = p.id
		    ), 0),
		    updated_at = now()
	`); err != nil {
		return report, err
	}

	s.log.Info("season closed",
		"season", season,
		"holdings_swept", report.HoldingsSwept,
		"holdings_failed", report.HoldingsFailed,
		"cash_paid_out_cents", int64(report.CashPaidOut),
	)
	return report, nil
}

// seasonPhaseTx derives the season's lifecycle phase from the close and
// reset markers.
func seasonPhaseTx(ctx context.Context, tx pgx.Tx, season string) (market.SeasonPhase, error) {
	var closed, reset bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM market.season_closes WHERE season = $1),
		       EXISTS (SELECT 1 FROM market.season_resets WHERE season = $1)
	`, season).Scan(&closed, &reset); err != nil {
		return market.SeasonOpen, err
	}
	switch {
	case reset:
		return market.SeasonReset, nil
	case closed:
		return market.SeasonClosed, nil
	default:
		return market.SeasonOpen, nil
	}
}

func (s *Service) settleHolding(ctx context.Context, accountID, playerID int64, value market.Cents) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
		DELETE FROM market.holdings
		WHERE account_id = $1 AND player_id = $2
	`, accountID, playerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Already settled by an earlier attempt.
		return nil
	}

	var cashAfter int64
	if err := tx.QueryRow(ctx, `
		UPDATE users.accounts
		SET cash_balance_cents = cash_balance_cents + $1, updated_at = now()
		WHERE id = $2
		RETURNING cash_balance_cents
	`, int64(value), accountID).Scan(&cashAfter); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO market.transactions (account_id, player_id, kind, total_cents, cash_after_cents)
		VALUES ($1, $2, 'settlement', $3, $4)
	`, accountID, playerID, int64(value), cashAfter); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ResetSeason archives the closed season and restores the exchange to its
// opening state: starting cash for every account, no holdings, no weekly
// stats, fundamentals back at the IPO projection. All-or-nothing.
func (s *Service) ResetSeason(ctx context.Context, season string) (ResetReport, error) {
	season = strings.TrimSpace(season)
	report := ResetReport{Season: season, StartingCash: StartingCashCents}
	if season == "" {
		return report, market.ErrInvalidQuantity
	}

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		report = ResetReport{Season: season, StartingCash: StartingCashCents}

		phase, err := seasonPhaseTx(ctx, tx, season)
		if err != nil {
			return err
		}
		if err := market.ValidateReset(phase); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			INSERT INTO market.archived_holdings (season, account_id, player_id, shares)
			SELECT $1, account_id, player_id, shares
			FROM market.holdings
		`, season)
		if err != nil {
			return err
		}
		report.HoldingsArchived = cmd.RowsAffected()

		cmd, err = tx.Exec(ctx, `
			INSERT INTO market.archived_weekly_stats (season, player_id, week, points)
			SELECT $1, player_id, week, points
			FROM market.weekly_stats
		`, season)
		if err != nil {
			return err
		}
		report.StatsArchived = cmd.RowsAffected()

		if _, err := tx.Exec(ctx, `DELETE FROM market.holdings`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM market.weekly_stats`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM market.settled_weeks`); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE market.players
			SET total_shares = 0,
			    fundamental_price_cents = base_price_cents,
			    updated_at = now()
		`); err != nil {
			return err
		}

		cmd, err = tx.Exec(ctx, `
			UPDATE users.accounts
			SET cash_balance_cents = $1, updated_at = now()
		`, int64(StartingCashCents))
		if err != nil {
			return err
		}
		report.AccountsReset = cmd.RowsAffected()

		if _, err := tx.Exec(ctx, `
			INSERT INTO market.transactions (account_id, kind, total_cents, cash_after_cents)
			SELECT id, 'season_reset', $1, $1
			FROM users.accounts
		`, int64(StartingCashCents)); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO market.season_resets (season, starting_cash_cents)
			VALUES ($1, $2)
		`, season, int64(StartingCashCents))
		return err
	})
	if err != nil {
		return ResetReport{Season: season, StartingCash: StartingCashCents}, err
	}

	s.log.Info("season reset",
		"season", season,
		"accounts_reset", report.AccountsReset,
		"holdings_archived", report.HoldingsArchived,
	)
	return report, nil
}
