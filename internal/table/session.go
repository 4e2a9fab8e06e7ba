package table

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/lifecycle"
	"github.com/lox/chanpoker/poker"
)

// Outcome is how a session ended.
type Outcome int

const (
	Running Outcome = iota
	Finished
	Cancelled
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// MarshalText encodes the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Session is one game in one channel, from lobby to payout. Its fields are only
// written by the Orchestrator while holding mu.
type Session struct {
	mu sync.Mutex

	id        string
	channelID string
	hostID    string
	buyIn     int
	handID    string

	players    []*holdem.Player
	dealer     int
	deck       *poker.Deck
	board      []poker.Card
	phase      holdem.Phase
	currentBet int
	minRaise   int
	current    int
	lastRaiser int

	lobbyDeadline time.Time
	turnDeadline  time.Time
	timers        *lifecycle.Lifecycle

	outcome  Outcome
	reason   string
	foldWin  bool
	result   *holdem.Result
	startSum int // chips on the table when the hand started

	started time.Time
	blinds  []int
	actions []ActionRecord

	rng    *rand.Rand
	logger *log.Logger
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// ChannelID returns the channel the session runs in.
func (s *Session) ChannelID() string {
	return s.channelID
}

// HostID returns the user who opened the lobby.
func (s *Session) HostID() string {
	return s.hostID
}

// BuyIn returns the entry fee every seat pays.
func (s *Session) BuyIn() int {
	return s.buyIn
}

// Outcome returns how the session ended, or Running.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// OutstandingTimers returns the number of pending lobby and turn timers.
func (s *Session) OutstandingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers.Outstanding()
}

// Snapshot returns the public view of the session.
func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// HoleCards returns a seated player's own cards; nil before they are dealt.
func (s *Session) HoleCards(userID string) ([]poker.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.playerLocked(userID)
	if p == nil {
		return nil, ErrNotSeated
	}
	return slices.Clone(p.Hole), nil
}

func (s *Session) playerLocked(userID string) *holdem.Player {
	for _, p := range s.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (s *Session) closed() bool {
	return s.outcome != Running
}

func (s *Session) chipsOnTable() int {
	total := 0
	for _, p := range s.players {
		total += p.Stack + p.TotalBet
	}
	return total
}
