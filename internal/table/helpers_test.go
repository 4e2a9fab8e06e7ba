package table

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/randutil"
	"github.com/lox/chanpoker/poker"
	"github.com/stretchr/testify/require"
)

const startingBalance = 10000

type fakeLedger struct {
	t           *testing.T
	mu          sync.Mutex
	balances    map[string]int
	failCredits int
	creditCalls int
}

func newFakeLedger(t *testing.T) *fakeLedger {
	return &fakeLedger{t: t, balances: make(map[string]int)}
}

func (l *fakeLedger) balanceLocked(userID string) int {
	if _, ok := l.balances[userID]; !ok {
		l.balances[userID] = startingBalance
	}
	return l.balances[userID]
}

func (l *fakeLedger) Debit(_ context.Context, userID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount <= 0 {
		l.t.Errorf("debit of non-positive amount %d for %s", amount, userID)
	}
	bal := l.balanceLocked(userID)
	if bal < amount {
		return bal, fmt.Errorf("balance %d: %w", bal, ErrInsufficientFunds)
	}
	l.balances[userID] = bal - amount
	return l.balances[userID], nil
}

func (l *fakeLedger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creditCalls++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if amount <= 0 {
		l.t.Errorf("credit of non-positive amount %d for %s", amount, userID)
	}
	if l.failCredits > 0 {
		l.failCredits--
		return 0, fmt.Errorf("ledger unavailable")
	}
	l.balances[userID] = l.balanceLocked(userID) + amount
	return l.balances[userID], nil
}

func (l *fakeLedger) balance(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(userID)
}

func (l *fakeLedger) set(userID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
}

func (l *fakeLedger) total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, b := range l.balances {
		total += b
	}
	return total
}

type viewRecorder struct {
	mu    sync.Mutex
	views []View
	fail  bool
}

func (r *viewRecorder) Render(_ context.Context, v View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
	if r.fail {
		return fmt.Errorf("chat unavailable")
	}
	return nil
}

func (r *viewRecorder) last() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[len(r.views)-1]
}

func (r *viewRecorder) all() []View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]View(nil), r.views...)
}

type harness struct {
	t      *testing.T
	ctx    context.Context
	clk    *quartz.Mock
	ledger *fakeLedger
	views  *viewRecorder
	orch   *Orchestrator
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SmallBlind = 10
	cfg.BigBlind = 20
	return cfg
}

func dealerZero(*rand.Rand, int) int { return 0 }

func stackedDeck(cards string) Option {
	return WithDeck(func(*rand.Rand) *poker.Deck {
		return poker.NewDeckFromCards(poker.MustParseCards(cards)...)
	})
}

func newHarness(t *testing.T, cfg Config, opts ...Option) *harness {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	h := &harness{
		t:      t,
		ctx:    ctx,
		clk:    quartz.NewMock(t),
		ledger: newFakeLedger(t),
		views:  &viewRecorder{},
	}
	base := []Option{
		WithClock(h.clk),
		WithRenderer(h.views),
		WithRand(randutil.New(1)),
		WithLogger(log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})),
	}
	h.orch = NewOrchestrator(cfg, h.ledger, append(base, opts...)...)
	return h
}

// advance moves the mock clock forward by d, stopping at every pending event.
func (h *harness) advance(d time.Duration) {
	for d > 0 {
		next, ok := h.clk.Peek()
		if !ok || next > d {
			h.clk.Advance(d).MustWait(h.ctx)
			return
		}
		h.clk.Advance(next).MustWait(h.ctx)
		d -= next
	}
}

func alice() User { return User{ID: "alice", Name: "Alice"} }
func bob() User   { return User{ID: "bob", Name: "Bob"} }
func carol() User { return User{ID: "carol", Name: "Carol"} }

// seat opens a lobby hosted by the first user and joins the rest.
func (h *harness) seat(buyIn int, users ...User) *Session {
	h.t.Helper()
	s, err := h.orch.StartLobby(h.ctx, "general", users[0], buyIn)
	require.NoError(h.t, err)
	for _, u := range users[1:] {
		require.NoError(h.t, h.orch.Join(h.ctx, s, u, buyIn))
	}
	return s
}

func (h *harness) act(s *Session, userID string, action string, raiseTotal int) error {
	h.t.Helper()
	a, err := holdem.ParseAction(action)
	require.NoError(h.t, err)
	return h.orch.ApplyAction(h.ctx, s, userID, a, raiseTotal)
}
