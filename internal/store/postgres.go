package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lv-tradesense/internal/model"
	"lv-tradesense/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const challengeColumns = `id, user_id, plan, daily_max_loss, total_max_loss, profit_target,
	initial_balance, cash_balance, equity, daily_realized_pnl, total_realized_pnl, daily_high_equity,
	status, status_reason, trade_count, last_trade_hash, version, start_date, end_date, daily_reset_at,
	created_at, updated_at`

const tradeColumns = `id, challenge_id, user_id, sequence, symbol, side, status, quantity, entry_price,
	exit_price, realized_profit, executed_at, closed_at, prev_hash, hash`

func (s *Postgres) CreateUser(ctx context.Context, u model.User) error {
	_, err := s.pool.Exec(ctx, "INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)",
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	return mapErr(err)
}

func (s *Postgres) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE lower(email) = lower($1)", email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, mapErr(err)
}

func (s *Postgres) UserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx, "SELECT id, email, password_hash, created_at FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, mapErr(err)
}

func (s *Postgres) CreateChallenge(ctx context.Context, c model.Challenge) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO challenges (`+challengeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`, c.ID, c.UserID, string(c.Plan), c.Rules.DailyMaxLoss, c.Rules.TotalMaxLoss, c.Rules.ProfitTarget,
		c.InitialBalance, c.CashBalance, c.Equity, c.DailyRealizedPnL, c.TotalRealizedPnL, c.DailyHighEquity,
		string(c.Status), c.StatusReason, c.TradeCount, c.LastTradeHash, c.Version, c.StartDate, c.EndDate, c.DailyResetAt,
		c.CreatedAt, c.UpdatedAt)
	return mapErr(err)
}

func (s *Postgres) Challenge(ctx context.Context, id string) (model.Challenge, error) {
	return scanChallenge(s.pool.QueryRow(ctx, "SELECT "+challengeColumns+" FROM challenges WHERE id = $1", id))
}

func (s *Postgres) ChallengesByUser(ctx context.Context, userID string) ([]model.Challenge, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+challengeColumns+" FROM challenges WHERE user_id = $1 ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Postgres) ActiveChallenge(ctx context.Context, userID string) (model.Challenge, error) {
	return scanChallenge(s.pool.QueryRow(ctx, "SELECT "+challengeColumns+" FROM challenges WHERE user_id = $1 AND status = 'active' LIMIT 1", userID))
}

func (s *Postgres) ActiveChallengeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM challenges WHERE status = 'active' ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Postgres) Positions(ctx context.Context, challengeID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT challenge_id, symbol, quantity, average_entry_price, mark_price, unrealized_pnl, opened_at, updated_at
		FROM positions WHERE challenge_id = $1 ORDER BY symbol
	`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Position{}
	for rows.Next() {
		var p model.Position
		if err := rows.Scan(&p.ChallengeID, &p.Symbol, &p.Quantity, &p.AverageEntryPrice, &p.MarkPrice, &p.UnrealizedPnL, &p.OpenedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Trades(ctx context.Context, challengeID string, limit int) ([]model.Trade, error) {
	query := "SELECT " + tradeColumns + " FROM trades WHERE challenge_id = $1 ORDER BY sequence"
	args := []any{challengeID}
	if limit > 0 {
		query = "SELECT * FROM (SELECT " + tradeColumns + " FROM trades WHERE challenge_id = $1 ORDER BY sequence DESC LIMIT $2) t ORDER BY sequence"
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		var side, status string
		if err := rows.Scan(&t.ID, &t.ChallengeID, &t.UserID, &t.Sequence, &t.Symbol, &side, &status, &t.Quantity, &t.EntryPrice,
			&t.ExitPrice, &t.RealizedProfit, &t.ExecutedAt, &t.ClosedAt, &t.PrevHash, &t.Hash); err != nil {
			return nil, err
		}
		t.Side = types.TradeSide(side)
		t.Status = types.TradeStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// Apply writes the changeset in one transaction guarded by the challenge version.
func (s *Postgres) Apply(ctx context.Context, cs Changeset) (model.Challenge, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return model.Challenge{}, err
	}
	defer tx.Rollback(ctx)

	c := cs.Challenge
	tag, err := tx.Exec(ctx, `
		UPDATE challenges SET
			cash_balance = $3, equity = $4, daily_realized_pnl = $5, total_realized_pnl = $6,
			daily_high_equity = $7, status = $8, status_reason = $9, trade_count = $10,
			last_trade_hash = $11, end_date = $12, daily_reset_at = $13, updated_at = $14,
			version = version + 1
		WHERE id = $1 AND version = $2
	`, c.ID, c.Version, c.CashBalance, c.Equity, c.DailyRealizedPnL, c.TotalRealizedPnL,
		c.DailyHighEquity, string(c.Status), c.StatusReason, c.TradeCount,
		c.LastTradeHash, c.EndDate, c.DailyResetAt, c.UpdatedAt)
	if err != nil {
		return model.Challenge{}, err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1)", c.ID).Scan(&exists); err != nil {
			return model.Challenge{}, err
		}
		if !exists {
			return model.Challenge{}, ErrNotFound
		}
		return model.Challenge{}, ErrStale
	}

	for _, p := range cs.Positions {
		_, err := tx.Exec(ctx, `
			INSERT INTO positions (challenge_id, symbol, quantity, average_entry_price, mark_price, unrealized_pnl, opened_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (challenge_id, symbol) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				average_entry_price = EXCLUDED.average_entry_price,
				mark_price = EXCLUDED.mark_price,
				unrealized_pnl = EXCLUDED.unrealized_pnl,
				updated_at = EXCLUDED.updated_at
		`, c.ID, p.Symbol, p.Quantity, p.AverageEntryPrice, p.MarkPrice, p.UnrealizedPnL, p.OpenedAt, p.UpdatedAt)
		if err != nil {
			return model.Challenge{}, fmt.Errorf("upsert position %s: %w", p.Symbol, err)
		}
	}
	if len(cs.Removed) > 0 {
		if _, err := tx.Exec(ctx, "DELETE FROM positions WHERE challenge_id = $1 AND symbol = ANY($2)", c.ID, cs.Removed); err != nil {
			return model.Challenge{}, fmt.Errorf("remove positions: %w", err)
		}
	}
	if t := cs.Trade; t != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO trades (`+tradeColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, t.ID, t.ChallengeID, t.UserID, t.Sequence, t.Symbol, string(t.Side), string(t.Status), t.Quantity, t.EntryPrice,
			t.ExitPrice, t.RealizedProfit, t.ExecutedAt, t.ClosedAt, t.PrevHash, t.Hash)
		if err != nil {
			return model.Challenge{}, fmt.Errorf("insert trade: %w", mapErr(err))
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Challenge{}, err
	}
	c.Version++
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (model.Challenge, error) {
	var c model.Challenge
	var plan, status string
	err := row.Scan(&c.ID, &c.UserID, &plan, &c.Rules.DailyMaxLoss, &c.Rules.TotalMaxLoss, &c.Rules.ProfitTarget,
		&c.InitialBalance, &c.CashBalance, &c.Equity, &c.DailyRealizedPnL, &c.TotalRealizedPnL, &c.DailyHighEquity,
		&status, &c.StatusReason, &c.TradeCount, &c.LastTradeHash, &c.Version, &c.StartDate, &c.EndDate, &c.DailyResetAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Challenge{}, mapErr(err)
	}
	c.Plan = types.PlanTier(plan)
	c.Status = types.ChallengeStatus(status)
	return c, nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "sequence") {
			return ErrStale
		}
		return ErrConflict
	}
	return err
}
