package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/ADRiordan41/nfl-fantasy-market/internal/market"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var usernameRE = regexp.MustCompile(`^[a-zA-Z0-9_]{3,24}$`)

// Publisher receives post-commit market events. Implementations must not
// block; the engine calls them on the request path.
type Publisher interface {
	PublishTick(playerID int64, spot market.Cents, totalShares int64)
}

type noopPublisher struct{}

func (noopPublisher) PublishTick(int64, market.Cents, int64) {}

type Service struct {
	db         *pgxpool.Pool
	log        *slog.Logger
	params     market.Params
	pub        Publisher
	pepper     string
	sessionTTL time.Duration
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, params market.Params) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		db:     db,
		log:    logger,
		params: params,
		pub:    noopPublisher{},
	}
}

func (s *Service) SetPublisher(pub Publisher) {
	if pub != nil {
		s.pub = pub
	}
}

func (s *Service) SetTokenPepper(pepper string) { s.pepper = pepper }

func (s *Service) Params() market.Params { return s.params }

// runSerializable executes fn inside a Serializable transaction, retrying
// on 40001 serialization failures with capped exponential backoff.
func (s *Service) runSerializable(ctx context.Context, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func claimIdempotency(ctx context.Context, tx pgx.Tx, accountID int64, key, action string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("idempotency key is required")
	}
	cmd, err := tx.Exec(ctx, `
		INSERT INTO market.idempotency_keys (account_id, key, action, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id, key) DO NOTHING
	`, accountID, key, action)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDuplicateIdempotency
	}
	return nil
}

// marketHaltedTx reports whether a season has been closed and not yet reset.
// Every mutating trade path checks this inside its transaction so the close
// barrier is a committed fact, not a racy read.
func marketHaltedTx(ctx context.Context, tx pgx.Tx) (bool, error) {
	var halted bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM market.season_closes c
			LEFT JOIN market.season_resets r ON r.season = c.season
			WHERE r.season IS NULL
		)
	`).Scan(&halted)
	return halted, err
}
