// Package ledger provides chip balance stores for the table orchestrator: an in-memory
// store for simulations and tests, and a Postgres store for the server.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/lox/chanpoker/internal/table"
)

// ErrInsufficientFunds matches table.ErrInsufficientFunds with errors.Is.
var ErrInsufficientFunds = table.ErrInsufficientFunds

var (
	_ table.Ledger = (*Memory)(nil)
	_ table.Ledger = (*Postgres)(nil)
)

// Memory keeps balances in a map. Unknown users start with the starting balance.
type Memory struct {
	mu       sync.Mutex
	start    int
	balances map[string]int
}

// NewMemory creates an in-memory ledger.
func NewMemory(startingBalance int) *Memory {
	return &Memory{start: startingBalance, balances: make(map[string]int)}
}

func (m *Memory) balanceLocked(userID string) int {
	b, ok := m.balances[userID]
	if !ok {
		b = m.start
		m.balances[userID] = b
	}
	return b
}

func (m *Memory) Debit(_ context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balanceLocked(userID)
	if b < amount {
		return b, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, userID, b, amount)
	}
	m.balances[userID] = b - amount
	return b - amount, nil
}

func (m *Memory) Credit(_ context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.balanceLocked(userID) + amount
	m.balances[userID] = b
	return b, nil
}

// Balance returns a user's balance.
func (m *Memory) Balance(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(userID), nil
}

// Total sums every known balance.
func (m *Memory) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, b := range m.balances {
		total += b
	}
	return total
}
