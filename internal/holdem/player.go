package holdem

import (
	"github.com/lox/chanpoker/poker"
)

// NoSeat is returned by the turn order helpers when no seat can act.
const NoSeat = -1

// Phase is the street a hand is on. Phases only move forward.
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

func (p Phase) String() string {
	switch p {
	case Waiting:
		return "waiting"
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Showdown:
		return "showdown"
	}
	return "unknown"
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Next returns the following phase; Showdown is final.
func (p Phase) Next() Phase {
	if p >= Showdown {
		return Showdown
	}
	return p + 1
}

// Player is one seat in a hand.
type Player struct {
	UserID string
	Name   string
	Seat   int
	Hole   []poker.Card

	Stack      int
	CurrentBet int // this betting round
	TotalBet   int // whole hand
	BuyIn      int // debited from the ledger at join time

	Folded bool
	AllIn  bool
	Acted  bool // since the last bet or raise
}

// CanAct reports whether the player still takes turns this hand.
func (p *Player) CanAct() bool {
	return !p.Folded && !p.AllIn
}

// ToCall returns how many chips the player owes to match currentBet.
func (p *Player) ToCall(currentBet int) int {
	if owed := currentBet - p.CurrentBet; owed > 0 {
		return owed
	}
	return 0
}

// commit moves up to amount chips from the stack into the bets and returns what moved.
func (p *Player) commit(amount int) int {
	if amount > p.Stack {
		amount = p.Stack
	}
	if amount <= 0 {
		return 0
	}
	p.Stack -= amount
	p.CurrentBet += amount
	p.TotalBet += amount
	if p.Stack == 0 {
		p.AllIn = true
	}
	return amount
}

// CountInHand returns the number of players who have not folded.
func CountInHand(players []*Player) int {
	n := 0
	for _, p := range players {
		if !p.Folded {
			n++
		}
	}
	return n
}

// CountCanAct returns the number of players who are neither folded nor all-in.
func CountCanAct(players []*Player) int {
	n := 0
	for _, p := range players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

// TotalContributed sums every player's TotalBet.
func TotalContributed(players []*Player) int {
	total := 0
	for _, p := range players {
		total += p.TotalBet
	}
	return total
}
