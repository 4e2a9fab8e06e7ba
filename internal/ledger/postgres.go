package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

//go:embed migrations/0001_balances.up.sql
var migration0001Up string

const migrationLockID int64 = 73911204418263551

// Migrate creates the ledger tables. Concurrent callers are serialised with an
// advisory lock.
func Migrate(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("nil database handle")
	}
	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	if _, err := db.ExecContext(ctx, migration0001Up); err != nil {
		return fmt.Errorf("apply migration 0001_balances.up.sql: %w", err)
	}
	return nil
}

// Postgres stores balances in a balances table and journals every change.
type Postgres struct {
	db    *sql.DB
	start int
}

// NewPostgres returns a ledger backed by db. The tables must exist; see Migrate.
func NewPostgres(db *sql.DB, startingBalance int) *Postgres {
	return &Postgres{db: db, start: startingBalance}
}

// Open connects to dsn with the lib/pq driver and applies migrations.
func Open(ctx context.Context, dsn string, startingBalance int) (*Postgres, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgres(db, startingBalance), nil
}

// Close closes the database handle.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Debit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	return p.apply(ctx, userID, -amount)
}

func (p *Postgres) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	return p.apply(ctx, userID, amount)
}

// Balance returns a user's balance, creating the account if needed.
func (p *Postgres) Balance(ctx context.Context, userID string) (int, error) {
	if err := p.ensure(ctx, p.db, userID); err != nil {
		return 0, err
	}
	var balance int64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM balances WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("read balance for %s: %w", userID, err)
	}
	return int(balance), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (p *Postgres) ensure(ctx context.Context, db execer, userID string) error {
	const q = `INSERT INTO balances (user_id, balance) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
	if _, err := db.ExecContext(ctx, q, userID, int64(p.start)); err != nil {
		return fmt.Errorf("create account for %s: %w", userID, err)
	}
	return nil
}

// apply moves delta chips in one transaction. A debit that would go negative matches
// no row and is reported as insufficient funds.
func (p *Postgres) apply(ctx context.Context, userID string, delta int) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := p.ensure(ctx, tx, userID); err != nil {
		return 0, err
	}

	const q = `
UPDATE balances
   SET balance = balance + $2, updated_at = now()
 WHERE user_id = $1 AND balance + $2 >= 0
RETURNING balance`
	var balance int64
	err = tx.QueryRowContext(ctx, q, userID, int64(delta)).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s cannot pay %d", ErrInsufficientFunds, userID, -delta)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "check_violation" {
			return 0, fmt.Errorf("%w: %s cannot pay %d", ErrInsufficientFunds, userID, -delta)
		}
		return 0, fmt.Errorf("update balance for %s: %w", userID, err)
	}

	const journal = `INSERT INTO ledger_entries (user_id, delta, balance) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, journal, userID, int64(delta), balance); err != nil {
		return 0, fmt.Errorf("journal entry for %s: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int(balance), nil
}
