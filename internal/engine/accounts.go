package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const defaultSessionTTL = 168 * time.Hour

func (s *Service) sessionTTLOrDefault() time.Duration {
	if s.sessionTTL > 0 {
		return s.sessionTTL
	}
	return defaultSessionTTL
}

func (s *Service) SetSessionTTL(ttl time.Duration) { s.sessionTTL = ttl }

// Register creates an account funded with the starting balance and opens a
// session for it.
func (s *Service) Register(ctx context.Context, username, password string) (SessionResult, error) {
	var out SessionResult
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernameRE.MatchString(username) {
		return out, ErrInvalidUsername
	}
	if len(password) < 8 {
		return out, ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return out, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users.accounts (username, password_hash, cash_balance_cents)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, username, hash, int64(StartingCashCents)).Scan(&out.Account.ID, &out.Account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return out, ErrUsernameTaken
		}
		return out, err
	}
	out.Account.Username = username
	out.Account.CashBalance = StartingCashCents

	if err := s.openSessionTx(ctx, tx, &out); err != nil {
		return out, err
	}
	if err := tx.Commit(ctx); err != nil {
		return out, err
	}
	s.log.Info("account registered", "account_id", out.Account.ID, "username", username)
	return out, nil
}

// Login verifies credentials and opens a session. Unknown usernames and bad
// passwords return the same error.
func (s *Service) Login(ctx context.Context, username, password string) (SessionResult, error) {
	var out SessionResult
	username = strings.ToLower(strings.TrimSpace(username))

	var hash string
	err := s.db.QueryRow(ctx, `
		SELECT id, username, password_hash, cash_balance_cents, is_admin, created_at
		FROM users.accounts
		WHERE username = $1
	`, username).Scan(&out.Account.ID, &out.Account.Username, &hash,
		&out.Account.CashBalance, &out.Account.IsAdmin, &out.Account.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrInvalidCredentials
		}
		return out, err
	}
	if !auth.VerifyPassword(hash, password) {
		return out, ErrInvalidCredentials
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return out, err
	}
	defer tx.Rollback(ctx)
	if err := s.openSessionTx(ctx, tx, &out); err != nil {
		return out, err
	}
	return out, tx.Commit(ctx)
}

func (s *Service) openSessionTx(ctx context.Context, tx pgx.Tx, out *SessionResult) error {
	token, tokenHash, err := auth.NewToken(s.pepper)
	if err != nil {
		return err
	}
	expires := time.Now().Add(s.sessionTTLOrDefault())
	if _, err := tx.Exec(ctx, `
		INSERT INTO users.sessions (account_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, out.Account.ID, tokenHash, expires); err != nil {
		return err
	}
	out.Token = token
	out.ExpiresAt = expires
	return nil
}

// Logout revokes the session behind the presented token. Revoking an already
// revoked or unknown token is not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if !auth.ValidTokenShape(token) {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE users.sessions
		SET revoked_at = now()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`, auth.HashToken(token, s.pepper))
	return err
}

// AccountForToken resolves a bearer token to its live account.
func (s *Service) AccountForToken(ctx context.Context, token string) (Account, error) {
	var out Account
	if !auth.ValidTokenShape(token) {
		return out, ErrSessionInvalid
	}
	err := s.db.QueryRow(ctx, `
		SELECT a.id, a.username, a.cash_balance_cents, a.is_admin, a.created_at
		FROM users.sessions s
		JOIN users.accounts a ON a.id = s.account_id
		WHERE s.token_hash = $1
		  AND s.revoked_at IS NULL
		  AND s.expires_at > now()
	`, auth.HashToken(token, s.pepper)).Scan(&out.ID, &out.Username, &out.CashBalance, &out.IsAdmin, &out.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrSessionInvalid
		}
		return out, err
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
