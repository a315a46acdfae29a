package engine

import (
	"context"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
)

// Portfolio values the account's book against current curve spots. The read
// runs in a RepeatableRead transaction so cash and holdings come from one
// snapshot.
func (s *Service) Portfolio(ctx context.Context, accountID int64) (market.Portfolio, error) {
	var out market.Portfolio

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	var cash market.Cents
	if err := tx.QueryRow(ctx, `
		SELECT cash_balance_cents
		FROM users.accounts
		WHERE id = $1
	`, accountID).Scan(&cash); err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrAccountNotFound
		}
		return out, err
	}

	rows, err := tx.Query(ctx, `
		SELECT h.player_id, h.shares, p.name,
		       p.fundamental_price_cents, p.k, p.total_shares, p.listed
		FROM market.holdings h
		JOIN market.players p ON p.id = h.player_id
		WHERE h.account_id = $1
		ORDER BY p.name
	`, accountID)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	var holdings []market.HoldingMark
	for rows.Next() {
		var mark market.HoldingMark
		var p market.Player
		if err := rows.Scan(&mark.PlayerID, &mark.SharesOwned, &mark.PlayerName,
			&p.FundamentalPrice, &p.K, &p.TotalShares, &p.Listed); err != nil {
			return out, err
		}
		mark.SpotPrice = market.SpotPrice(p, s.params)
		holdings = append(holdings, mark)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}

	return market.Valuate(cash, holdings, s.params), nil
}

// Transactions returns the account's journal, newest first.
func (s *Service) Transactions(ctx context.Context, accountID int64, limit int) ([]TransactionView, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT t.id, COALESCE(t.player_id, 0), COALESCE(p.name, ''),
		       t.kind, t.shares, t.price_cents, t.total_cents, t.cash_after_cents, t.created_at
		FROM market.transactions t
		LEFT JOIN market.players p ON p.id = t.player_id
		WHERE t.account_id = $1
		ORDER BY t.id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]TransactionView, 0)
	for rows.Next() {
		var v TransactionView
		if err := rows.Scan(&v.ID, &v.PlayerID, &v.PlayerName, &v.Kind,
			&v.Shares, &v.Price, &v.Total, &v.CashAfter, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
