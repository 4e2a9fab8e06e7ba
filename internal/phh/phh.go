// Package phh writes hand histories in the Poker Hand History format, a TOML dialect
// replayable by standard poker tooling.
package phh

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/table"
	"github.com/lox/chanpoker/poker"
)

// Variant is no-limit Texas Hold'em.
const Variant = "NT"

// HandHistory is one hand in PHH form. Players are listed from the seat after the
// dealer, so the dealer is always last.
type HandHistory struct {
	Variant           string         `toml:"variant"`
	Table             string         `toml:"table,omitempty"`
	SeatCount         int            `toml:"seat_count"`
	Seats             []int          `toml:"seats"`
	Antes             []int          `toml:"antes"`
	BlindsOrStraddles []int          `toml:"blinds_or_straddles"`
	MinBet            int            `toml:"min_bet"`
	StartingStacks    []int          `toml:"starting_stacks"`
	FinishingStacks   []int          `toml:"finishing_stacks"`
	Winnings          []int          `toml:"winnings"`
	Actions           []string       `toml:"actions"`
	Players           []string       `toml:"players"`
	HandID            string         `toml:"hand"`
	Time              string         `toml:"time,omitempty"`
	TimeZone          string         `toml:"time_zone,omitempty"`
	Day               int            `toml:"day,omitempty"`
	Month             int            `toml:"month,omitempty"`
	Year              int            `toml:"year,omitempty"`
	Metadata          map[string]any `toml:"metadata,omitempty"`
}

// FromRecord converts a dealt hand.
func FromRecord(rec table.HandRecord) *HandHistory {
	n := len(rec.Seats)
	h := &HandHistory{
		Variant:           Variant,
		Table:             rec.ChannelID,
		SeatCount:         n,
		Seats:             make([]int, n),
		Antes:             make([]int, n),
		BlindsOrStraddles: make([]int, n),
		MinBet:            rec.BigBlind,
		StartingStacks:    make([]int, n),
		FinishingStacks:   make([]int, n),
		Winnings:          make([]int, n),
		Players:           make([]string, n),
		HandID:            rec.HandID,
		Metadata: map[string]any{
			"session": rec.SessionID,
			"outcome": rec.Outcome.String(),
			"rake":    rec.Rake,
		},
	}
	if n == 0 {
		return h
	}

	// pos maps a table seat to its PHH player index.
	pos := make([]int, n)
	for i := range n {
		seat := (rec.Dealer + 1 + i) % n
		pos[seat] = i
		sr := rec.Seats[seat]
		h.Seats[i] = seat + 1
		h.BlindsOrStraddles[i] = sr.Blind
		h.StartingStacks[i] = sr.StartingStack
		h.FinishingStacks[i] = sr.FinishingStack
		h.Winnings[i] = sr.Winnings
		h.Players[i] = sr.Name
	}

	for i := range n {
		seat := (rec.Dealer + 1 + i) % n
		h.Actions = append(h.Actions, fmt.Sprintf("d dh p%d %s", i+1, joinCards(rec.Seats[seat].Hole)))
	}

	dealt := holdem.Preflop
	for _, a := range rec.Actions {
		for dealt < a.Phase {
			dealt = dealt.Next()
			h.Actions = appendBoard(h.Actions, rec.Board, dealt)
		}
		h.Actions = append(h.Actions, FormatAction(pos[a.Seat], a))
	}
	for dealt < holdem.River && len(rec.Board) > boardSize(dealt) {
		dealt = dealt.Next()
		h.Actions = appendBoard(h.Actions, rec.Board, dealt)
	}

	for i := range n {
		seat := (rec.Dealer + 1 + i) % n
		if sr := rec.Seats[seat]; sr.Showed {
			h.Actions = append(h.Actions, fmt.Sprintf("p%d sm %s", i+1, joinCards(sr.Hole)))
		}
	}

	if !rec.Started.IsZero() {
		utc := rec.Started.UTC()
		h.Time = utc.Format(time.TimeOnly)
		h.TimeZone = "UTC"
		h.Day = utc.Day()
		h.Month = int(utc.Month())
		h.Year = utc.Year()
	}
	return h
}

// FormatAction renders a betting decision for the player at PHH index idx. Bets and
// raises are written as the street total the player raised to.
func FormatAction(idx int, a table.ActionRecord) string {
	player := fmt.Sprintf("p%d", idx+1)
	var s string
	switch {
	case a.Action == holdem.Fold:
		s = player + " f"
	case a.Action == holdem.Raise, a.Action == holdem.AllIn && a.Total > a.Facing:
		s = fmt.Sprintf("%s cbr %d", player, a.Total)
	default:
		s = player + " cc"
	}
	if a.Timeout {
		s += " # timeout"
	}
	return s
}

// boardSize is the number of community cards out once phase has been dealt.
func boardSize(phase holdem.Phase) int {
	switch phase {
	case holdem.Flop:
		return 3
	case holdem.Turn:
		return 4
	case holdem.River, holdem.Showdown:
		return 5
	}
	return 0
}

func appendBoard(actions []string, board []poker.Card, phase holdem.Phase) []string {
	lo, hi := boardSize(phase-1), boardSize(phase)
	if hi > len(board) || lo >= hi {
		return actions
	}
	return append(actions, "d db "+joinCards(board[lo:hi]))
}

func joinCards(cards []poker.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

// Encode writes the hand history to w as TOML.
func Encode(w io.Writer, hand *HandHistory) error {
	if hand == nil {
		return fmt.Errorf("phh: hand history is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(hand)
}

// Decode reads one hand history.
func Decode(r io.Reader) (*HandHistory, error) {
	var h HandHistory
	if _, err := toml.NewDecoder(r).Decode(&h); err != nil {
		return nil, fmt.Errorf("phh: %w", err)
	}
	return &h, nil
}
