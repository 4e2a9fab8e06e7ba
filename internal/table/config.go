package table

import (
	"fmt"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
)

// Config holds the table rules shared by every session an orchestrator runs.
type Config struct {
	SmallBlind int
	BigBlind   int
	MinPlayers int
	MaxPlayers int
	MinBuyIn   int
	MaxBuyIn   int

	LobbyDuration time.Duration
	LobbyTick     time.Duration
	TurnDuration  time.Duration

	Rake holdem.RakeRule
}

// DefaultConfig returns the standard table rules.
func DefaultConfig() Config {
	return Config{
		SmallBlind:    5,
		BigBlind:      10,
		MinPlayers:    2,
		MaxPlayers:    8,
		MinBuyIn:      100,
		MaxBuyIn:      100000,
		LobbyDuration: 30 * time.Second,
		LobbyTick:     15 * time.Second,
		TurnDuration:  60 * time.Second,
	}
}

// Validate checks that the rules describe a playable table.
func (c Config) Validate() error {
	if c.SmallBlind <= 0 || c.BigBlind < c.SmallBlind {
		return fmt.Errorf("blinds must satisfy 0 < small (%d) <= big (%d)", c.SmallBlind, c.BigBlind)
	}
	if c.MinPlayers < 2 || c.MaxPlayers < c.MinPlayers {
		return fmt.Errorf("players must satisfy 2 <= min (%d) <= max (%d)", c.MinPlayers, c.MaxPlayers)
	}
	if c.MaxPlayers > 22 {
		return fmt.Errorf("max players %d cannot be dealt from one deck", c.MaxPlayers)
	}
	if c.MinBuyIn < c.BigBlind || c.MaxBuyIn < c.MinBuyIn {
		return fmt.Errorf("buy-in must satisfy big blind <= min (%d) <= max (%d)", c.MinBuyIn, c.MaxBuyIn)
	}
	if c.LobbyDuration <= 0 || c.TurnDuration <= 0 {
		return fmt.Errorf("lobby and turn durations must be positive")
	}
	if c.LobbyTick < 0 {
		return fmt.Errorf("lobby tick must not be negative")
	}
	if c.Rake.Percent < 0 || c.Rake.Percent > 100 || c.Rake.Cap < 0 {
		return fmt.Errorf("rake percent %d must be 0-100 with a non-negative cap", c.Rake.Percent)
	}
	return nil
}
