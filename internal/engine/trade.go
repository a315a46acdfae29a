package engine

import (
	"context"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

// Quote previews a trade against current state. No locks, no reservation:
// the price stands only until someone else trades.
func (s *Service) Quote(ctx context.Context, playerID int64, side market.Side, shares int64) (market.Quote, error) {
	p, err := s.loadPlayer(ctx, playerID)
	if err != nil {
		return market.Quote{}, err
	}
	return market.ComputeQuote(p, side, shares, s.params)
}

// ExecuteTrade re-prices, re-validates and settles a trade atomically. Locks
// are taken account first, then player, so concurrent trades across players
// by one account and across accounts on one player serialize cleanly.
func (s *Service) ExecuteTrade(ctx context.Context, in TradeInput) (TradeResult, error) {
	var out TradeResult
	if in.Shares <= 0 {
		_, err := market.ComputeQuote(market.Player{Listed: true}, in.Side, in.Shares, s.params)
		return out, err
	}

	err := s.runSerializable(ctx, func(tx pgx.Tx) error {
		out = TradeResult{}
		if err := claimIdempotency(ctx, tx, in.AccountID, in.IdempotencyKey, "trade"); err != nil {
			return err
		}
		halted, err := marketHaltedTx(ctx, tx)
		if err != nil {
			return err
		}
		if halted {
			return market.ErrMarketHalted
		}

		var cash market.Cents
		if err := tx.QueryRow(ctx, `
			SELECT cash_balance_cents
			FROM users.accounts
			WHERE id = $1
			FOR UPDATE
		`, in.AccountID).Scan(&cash); err != nil {
			if err == pgx.ErrNoRows {
				return ErrAccountNotFound
			}
			return err
		}

		p, err := loadPlayerForUpdateTx(ctx, tx, in.PlayerID)
		if err != nil {
			return err
		}

		quote, err := market.ComputeQuote(p, in.Side, in.Shares, s.params)
		if err != nil {
			return err
		}
		holding, net, grossShort, err := s.bookMarksTx(ctx, tx, in.AccountID, in.PlayerID)
		if err != nil {
			return err
		}

		if err := market.CheckTrade(market.GuardInput{
			Side:               in.Side,
			Shares:             in.Shares,
			Quote:              quote,
			SpotPrice:          quote.SpotPriceBefore,
			CashBalance:        cash,
			HoldingShares:      holding,
			NetExposure:        net,
			GrossShortNotional: grossShort,
			Params:             s.params,
		}); err != nil {
			return err
		}

		cashAfter, holdingAfter := market.ApplyFill(in.Side, in.Shares, cash, holding, quote.Total)
		out = newTradeResult(in, quote, cashAfter, holdingAfter, p.TotalShares+in.Side.SharesDelta(in.Shares))

		if _, err := tx.Exec(ctx, `
			UPDATE users.accounts
			SET cash_balance_cents = $1, updated_at = now()
			WHERE id = $2
		`, int64(cashAfter), in.AccountID); err != nil {
			return err
		}
		if err := upsertHoldingTx(ctx, tx, in.AccountID, in.PlayerID, holdingAfter); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE market.players
			SET total_shares = total_shares + $1, updated_at = now()
			WHERE id = $2
		`, in.Side.SharesDelta(in.Shares), in.PlayerID); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO market.transactions (account_id, player_id, kind, shares, price_cents, total_cents, cash_after_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, in.AccountID, in.PlayerID, in.Side.String(), in.Shares,
			int64(quote.AveragePrice), int64(quote.Total), int64(cashAfter)).Scan(&out.TransactionID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO market.price_points (player_id, spot_price_cents)
			VALUES ($1, $2)
		`, in.PlayerID, int64(quote.SpotPriceAfter)); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return TradeResult{}, err
	}

	s.pub.PublishTick(in.PlayerID, out.Quote.SpotPriceAfter, out.NewTotalShares)
	s.log.Info("trade executed",
		"account_id", in.AccountID,
		"player_id", in.PlayerID,
		"side", in.Side.String(),
		"shares", in.Shares,
		"total_cents", int64(out.Quote.Total),
		"repriced", out.Repriced,
	)
	return out, nil
}

// newTradeResult assembles the fill response. A nonzero ExpectedTotal that
// no longer matches the executed total flags the fill as repriced; the trade
// still settles at the fresh price.
func newTradeResult(in TradeInput, quote market.Quote, cashAfter market.Cents, holdingAfter, newTotalShares int64) TradeResult {
	out := TradeResult{
		Quote:          quote,
		CashAfter:      cashAfter,
		HoldingAfter:   holdingAfter,
		NewTotalShares: newTotalShares,
	}
	if in.ExpectedTotal != 0 && in.ExpectedTotal != quote.Total {
		out.Repriced = true
		out.ExpectedTotal = in.ExpectedTotal
	}
	return out
}

func (s *Service) loadPlayer(ctx context.Context, playerID int64) (market.Player, error) {
	var p market.Player
	err := s.db.QueryRow(ctx, `
		SELECT id, sport, name, team, position, listed,
		       base_price_cents, fundamental_price_cents, k, total_shares
		FROM market.players
		WHERE id = $1
	`, playerID).Scan(&p.ID, &p.Sport, &p.Name, &p.Team, &p.Position, &p.Listed,
		&p.BasePrice, &p.FundamentalPrice, &p.K, &p.TotalShares)
	return p, tradePlayerErr(err)
}

// tradePlayerErr folds a missing row into the listing error: on the quote
// and trade paths an id that does not exist is indistinguishable from a
// player that was never launched.
func tradePlayerErr(err error) error {
	if err == pgx.ErrNoRows {
		return market.ErrPlayerNotListed
	}
	return err
}

func loadPlayerForUpdateTx(ctx context.Context, tx pgx.Tx, playerID int64) (market.Player, error) {
	var p market.Player
	err := tx.QueryRow(ctx, `
		SELECT id, sport, name, team, position, listed,
		       base_price_cents, fundamental_price_cents, k, total_shares
		FROM market.players
		WHERE id = $1
		FOR UPDATE
	`, playerID).Scan(&p.ID, &p.Sport, &p.Name, &p.Team, &p.Position, &p.Listed,
		&p.BasePrice, &p.FundamentalPrice, &p.K, &p.TotalShares)
	return p, tradePlayerErr(err)
}

// bookMarksTx returns the account's holding in the traded player plus its
// account-wide net exposure and gross short notional, all marked at current
// curve spots.
func (s *Service) bookMarksTx(ctx context.Context, tx pgx.Tx, accountID, playerID int64) (holding int64, net, grossShort market.Cents, err error) {
	rows, err := tx.Query(ctx, `
		SELECT h.player_id, h.shares,
		       p.fundamental_price_cents, p.k, p.total_shares, p.listed
		FROM market.holdings h
		JOIN market.players p ON p.id = h.player_id
		WHERE h.account_id = $1
	`, accountID)
	if err != nil {
		return 0, 0, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var pid, shares int64
		var p market.Player
		if err := rows.Scan(&pid, &shares, &p.FundamentalPrice, &p.K, &p.TotalShares, &p.Listed); err != nil {
			return 0, 0, 0, err
		}
		spot := market.SpotPrice(p, s.params)
		mv := market.Cents(shares) * spot
		net += mv
		if shares < 0 {
			grossShort += -mv
		}
		if pid == playerID {
			holding = shares
		}
	}
	return holding, net, grossShort, rows.Err()
}

// upsertHoldingTx writes the post-trade holding; flat positions are removed
// rather than stored as zero rows.
func upsertHoldingTx(ctx context.Context, tx pgx.Tx, accountID, playerID, shares int64) error {
	if shares == 0 {
		_, err := tx.Exec(ctx, `
			DELETE FROM market.holdings
			WHERE account_id = $1 AND player_id = $2
		`, accountID, playerID)
		return err
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO market.holdings (account_id, player_id, shares)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, player_id)
		DO UPDATE SET shares = $3, updated_at = now()
	`, accountID, playerID, shares)
	return err
}
