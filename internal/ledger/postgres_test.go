package ledger

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/lox/chanpoker/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))
	require.NoError(t, Migrate(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE TABLE ledger_entries, balances RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return NewPostgres(db, 1000)
}

func TestPostgresDebitCredit(t *testing.T) {
	p := openTestPostgres(t)
	ctx := context.Background()

	bal, err := p.Debit(ctx, "alice", 300)
	require.NoError(t, err)
	assert.Equal(t, 700, bal)

	_, err = p.Debit(ctx, "alice", 701)
	assert.ErrorIs(t, err, table.ErrInsufficientFunds)

	bal, err = p.Credit(ctx, "alice", 1300)
	require.NoError(t, err)
	assert.Equal(t, 2000, bal)

	bal, err = p.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1000, bal)

	var entries int
	require.NoError(t, p.db.QueryRowContext(ctx, `SELECT count(*) FROM ledger_entries WHERE user_id = 'alice'`).Scan(&entries))
	assert.Equal(t, 2, entries, "rejected debit is not journaled")
}

func TestPostgresMigrateIsIdempotent(t *testing.T) {
	p := openTestPostgres(t)
	require.NoError(t, Migrate(context.Background(), p.db))
}
