package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/lox/chanpoker/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDebitCredit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(1000)

	bal, err := m.Debit(ctx, "alice", 400)
	require.NoError(t, err)
	assert.Equal(t, 600, bal)

	_, err = m.Debit(ctx, "alice", 601)
	assert.ErrorIs(t, err, table.ErrInsufficientFunds)

	bal, err = m.Credit(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, 650, bal)

	bal, err = m.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1000, bal)
	assert.Equal(t, 1650, m.Total())
}

func TestMemoryRejectsNonPositive(t *testing.T) {
	t.Parallel()
	m := NewMemory(100)
	_, err := m.Debit(context.Background(), "alice", 0)
	assert.Error(t, err)
	_, err = m.Credit(context.Background(), "alice", -5)
	assert.Error(t, err)
}

func TestMemoryConcurrentDebits(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Debit(ctx, "alice", 10); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, ok)
	bal, _ := m.Balance(ctx, "alice")
	assert.Equal(t, 0, bal)
}
