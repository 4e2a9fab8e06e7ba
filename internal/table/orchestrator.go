// Package table runs poker sessions in chat channels. The Orchestrator is the only
// writer of Session state: every exported operation and every timer callback holds
// the session lock for the whole of one logical turn, including its ledger and
// renderer calls.
package table

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/chanpoker/internal/gameid"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/lifecycle"
	"github.com/lox/chanpoker/internal/randutil"
	"github.com/lox/chanpoker/poker"
)

const (
	creditAttempts = 3
	creditTimeout  = 5 * time.Second
)

// Orchestrator drives sessions through lobby, betting rounds and showdown.
type Orchestrator struct {
	cfg      Config
	ledger   Ledger
	renderer Renderer
	history  HistorySink
	registry *Registry
	clock    quartz.Clock
	logger   *log.Logger
	ids      *gameid.Generator

	rngMu sync.Mutex
	rng   *rand.Rand

	newDeck    func(rng *rand.Rand) *poker.Deck
	pickDealer func(rng *rand.Rand, n int) int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for timers; tests pass a quartz mock.
func WithClock(clock quartz.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithLogger sets the parent logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRenderer sets where views are sent after every change.
func WithRenderer(r Renderer) Option {
	return func(o *Orchestrator) { o.renderer = r }
}

// WithRegistry shares a registry between orchestrators.
func WithRegistry(r *Registry) Option {
	return func(o *Orchestrator) { o.registry = r }
}

// WithRand seeds every session from rng.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithHistory records every dealt hand to sink.
func WithHistory(sink HistorySink) Option {
	return func(o *Orchestrator) { o.history = sink }
}

// WithDeck replaces the shuffled deck, e.g. with poker.NewDeckFromCards.
func WithDeck(fn func(rng *rand.Rand) *poker.Deck) Option {
	return func(o *Orchestrator) { o.newDeck = fn }
}

// WithDealer replaces the random dealer choice.
func WithDealer(fn func(rng *rand.Rand, n int) int) Option {
	return func(o *Orchestrator) { o.pickDealer = fn }
}

// NewOrchestrator creates an orchestrator for cfg. The config must be valid.
func NewOrchestrator(cfg Config, ledger Ledger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:        cfg,
		ledger:     ledger,
		clock:      quartz.NewReal(),
		ids:        gameid.NewGenerator(nil),
		newDeck:    poker.NewDeck,
		pickDealer: func(rng *rand.Rand, n int) int { return rng.IntN(n) },
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if o.rng == nil {
		o.rng = randutil.FromTime()
	}
	if o.logger == nil {
		o.logger = log.NewWithOptions(os.Stderr, log.Options{Level: log.InfoLevel})
	}
	o.logger = o.logger.WithPrefix("table")
	return o
}

// Registry returns the channel registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Lookup returns the active session in a channel.
func (o *Orchestrator) Lookup(channelID string) (*Session, bool) {
	return o.registry.Lookup(channelID)
}

func (o *Orchestrator) newSession(channelID string, host User, buyIn int) *Session {
	o.rngMu.Lock()
	rng := randutil.Child(o.rng)
	o.rngMu.Unlock()

	s := &Session{
		id:         o.ids.Generate(),
		channelID:  channelID,
		hostID:     host.ID,
		buyIn:      buyIn,
		phase:      holdem.Waiting,
		current:    holdem.NoSeat,
		lastRaiser: holdem.NoSeat,
		rng:        rng,
	}
	s.logger = o.logger.With("channel", channelID, "session", s.id)
	s.timers = lifecycle.New(o.clock, &s.mu, lifecycle.Config{
		LobbyDuration: o.cfg.LobbyDuration,
		LobbyTick:     o.cfg.LobbyTick,
		TurnDuration:  o.cfg.TurnDuration,
	}, lifecycle.Hooks{
		LobbyTick:    func(time.Duration) { o.render(context.Background(), s) },
		LobbyExpired: func() { o.lobbyExpired(context.Background(), s) },
		TurnTimeout:  func(seat int) { o.turnTimeout(context.Background(), s, seat) },
	})
	return s
}

// StartLobby opens a lobby in an empty channel with the host seated. A zero buy-in
// uses the table minimum.
func (o *Orchestrator) StartLobby(ctx context.Context, channelID string, host User, buyIn int) (*Session, error) {
	if buyIn == 0 {
		buyIn = o.cfg.MinBuyIn
	}
	if buyIn < o.cfg.MinBuyIn || buyIn > o.cfg.MaxBuyIn {
		return nil, fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidBuyIn, buyIn, o.cfg.MinBuyIn, o.cfg.MaxBuyIn)
	}

	s := o.newSession(channelID, host, buyIn)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := o.registry.Reserve(s); err != nil {
		return nil, err
	}
	if err := o.debit(ctx, host.ID, buyIn); err != nil {
		s.outcome = Cancelled
		o.registry.Discard(s)
		return nil, err
	}

	s.players = append(s.players, &holdem.Player{
		UserID: host.ID,
		Name:   host.Name,
		Seat:   0,
		Stack:  buyIn,
		BuyIn:  buyIn,
	})
	s.lobbyDeadline = s.timers.OpenLobby()
	s.logger.Info("Lobby opened", "host", host.ID, "buyIn", buyIn, "deadline", s.lobbyDeadline)
	o.render(ctx, s)
	return s, nil
}

// Rematch opens a new lobby in a channel whose last game has ended, using its buy-in.
func (o *Orchestrator) Rematch(ctx context.Context, channelID string, host User) (*Session, error) {
	if _, ok := o.registry.Lookup(channelID); ok {
		return nil, fmt.Errorf("%w: channel %s", ErrAlreadyActive, channelID)
	}
	buyIn, ok := o.registry.LastBuyIn(channelID)
	if !ok {
		return nil, ErrNoPreviousGame
	}
	return o.StartLobby(ctx, channelID, host, buyIn)
}

// Join seats a user in the lobby. A zero buy-in means the session's buy-in.
func (o *Orchestrator) Join(ctx context.Context, s *Session, user User, buyIn int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lobbyOpen(); err != nil {
		return err
	}
	if s.playerLocked(user.ID) != nil {
		return ErrAlreadyJoined
	}
	if len(s.players) >= o.cfg.MaxPlayers {
		return ErrSeatsFull
	}
	if buyIn == 0 {
		buyIn = s.buyIn
	}
	if buyIn != s.buyIn {
		return fmt.Errorf("%w: this table's buy-in is %d", ErrInvalidBuyIn, s.buyIn)
	}
	if err := o.debit(ctx, user.ID, buyIn); err != nil {
		return err
	}

	s.players = append(s.players, &holdem.Player{
		UserID: user.ID,
		Name:   user.Name,
		Seat:   len(s.players),
		Stack:  buyIn,
		BuyIn:  buyIn,
	})
	s.logger.Info("Player joined", "user", user.ID, "seated", len(s.players))
	o.render(ctx, s)
	return nil
}

// Leave takes a player out of the lobby and refunds them. The host leaving cancels the
// lobby for everyone.
func (o *Orchestrator) Leave(ctx context.Context, s *Session, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lobbyOpen(); err != nil {
		return err
	}
	p := s.playerLocked(userID)
	if p == nil {
		return ErrNotSeated
	}
	if userID == s.hostID {
		o.cancelLocked(ctx, s, "host left")
		return nil
	}

	s.players = removePlayer(s.players, p)
	o.credit(ctx, s, p.UserID, p.BuyIn)
	s.logger.Info("Player left", "user", userID, "seated", len(s.players))
	o.render(ctx, s)
	return nil
}

// Cancel closes the lobby and refunds every entry fee. Only the host may cancel.
func (o *Orchestrator) Cancel(ctx context.Context, s *Session, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lobbyOpen(); err != nil {
		return err
	}
	if userID != s.hostID {
		return ErrNotHost
	}
	o.cancelLocked(ctx, s, "cancelled by host")
	return nil
}

// ForceStart closes the lobby early and deals the first hand.
func (o *Orchestrator) ForceStart(ctx context.Context, s *Session, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lobbyOpen(); err != nil {
		return err
	}
	if userID != s.hostID {
		return ErrNotHost
	}
	if len(s.players) < o.cfg.MinPlayers {
		return fmt.Errorf("%w: %d of %d seated", ErrNotEnoughPlayers, len(s.players), o.cfg.MinPlayers)
	}
	s.timers.CloseLobby()
	s.lobbyDeadline = time.Time{}
	s.logger.Info("Lobby force-started", "players", len(s.players))
	o.startHandLocked(ctx, s)
	return nil
}

// HoleCards returns a player's own cards.
func (o *Orchestrator) HoleCards(s *Session, userID string) ([]poker.Card, error) {
	return s.HoleCards(userID)
}

// Snapshot returns the current view of a session.
func (o *Orchestrator) Snapshot(s *Session) View {
	return s.Snapshot()
}

// Shutdown cancels or aborts every active session, refunding all chips.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	if n := o.registry.Len(); n > 0 {
		o.logger.Info("Closing active sessions", "sessions", n)
	}
	for _, s := range o.registry.Sessions() {
		s.mu.Lock()
		switch {
		case s.closed():
		case s.phase == holdem.Waiting:
			o.cancelLocked(ctx, s, "server shutting down")
		default:
			o.abortLocked(ctx, s, errors.New("server shutting down"))
		}
		s.mu.Unlock()
	}
}

func (s *Session) lobbyOpen() error {
	if s.closed() {
		return ErrSessionClosed
	}
	if s.phase != holdem.Waiting {
		return ErrNotInLobby
	}
	return nil
}

func (o *Orchestrator) lobbyExpired(ctx context.Context, s *Session) {
	if s.lobbyOpen() != nil {
		return
	}
	s.timers.CloseLobby()
	s.lobbyDeadline = time.Time{}
	if len(s.players) < o.cfg.MinPlayers {
		o.cancelLocked(ctx, s, "not enough players")
		return
	}
	s.logger.Info("Lobby closed", "players", len(s.players))
	o.startHandLocked(ctx, s)
}

func (o *Orchestrator) cancelLocked(ctx context.Context, s *Session, reason string) {
	for _, p := range s.players {
		o.credit(ctx, s, p.UserID, p.BuyIn)
	}
	s.reason = reason
	s.logger.Info("Lobby cancelled", "reason", reason)
	o.terminateLocked(ctx, s, Cancelled)
}

func (o *Orchestrator) terminateLocked(ctx context.Context, s *Session, outcome Outcome) {
	s.timers.Stop()
	s.outcome = outcome
	s.current = holdem.NoSeat
	s.turnDeadline = time.Time{}
	s.lobbyDeadline = time.Time{}
	o.registry.Remove(s)
	o.recordHand(ctx, s)
	o.render(ctx, s)
}

func (o *Orchestrator) render(ctx context.Context, s *Session) {
	if o.renderer == nil {
		return
	}
	if err := o.renderer.Render(ctx, s.viewLocked()); err != nil {
		s.logger.Warn("Render failed", "error", err)
	}
}

func (o *Orchestrator) debit(ctx context.Context, userID string, amount int) error {
	if _, err := o.ledger.Debit(ctx, userID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return fmt.Errorf("%w: buy-in is %d", ErrInsufficientFunds, amount)
		}
		return fmt.Errorf("debit %s: %w", userID, err)
	}
	return nil
}

// credit pays a user, retrying a failing ledger. A payout that still fails is logged and
// never reversed. Cancelling ctx does not cancel the credit; each attempt gets its own
// deadline instead.
func (o *Orchestrator) credit(ctx context.Context, s *Session, userID string, amount int) {
	if amount <= 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	for attempt := 1; attempt <= creditAttempts; attempt++ {
		if err = o.creditOnce(ctx, userID, amount); err == nil {
			return
		}
		s.logger.Warn("Credit failed", "user", userID, "amount", amount, "attempt", attempt, "error", err)
	}
	s.logger.Error("Credit abandoned", "user", userID, "amount", amount, "error", err)
}

func (o *Orchestrator) creditOnce(ctx context.Context, userID string, amount int) error {
	ctx, cancel := context.WithTimeout(ctx, creditTimeout)
	defer cancel()
	_, err := o.ledger.Credit(ctx, userID, amount)
	return err
}

func removePlayer(players []*holdem.Player, target *holdem.Player) []*holdem.Player {
	out := players[:0]
	for _, p := range players {
		if p != target {
			p.Seat = len(out)
			out = append(out, p)
		}
	}
	return out
}
