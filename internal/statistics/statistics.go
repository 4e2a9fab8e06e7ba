// Package statistics summarises per-player results from simulated hands in big blinds.
package statistics

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// Result is one player's outcome in one hand.
type Result struct {
	NetBB    float64 // chips won or lost divided by the big blind
	Showdown bool    // hand was decided by comparing cards
}

// Statistics accumulates results for a single player.
type Statistics struct {
	Hands  int
	SumBB  float64
	SumBB2 float64 // sum of squares for variance
	Values []float64

	ShowdownWins    int
	NonShowdownWins int
	ShowdownBB      float64 // wins and losses
	NonShowdownBB   float64
}

// Add records a result.
func (s *Statistics) Add(r Result) {
	s.Hands++
	s.SumBB += r.NetBB
	s.SumBB2 += r.NetBB * r.NetBB
	s.Values = append(s.Values, r.NetBB)

	if r.Showdown {
		s.ShowdownBB += r.NetBB
		if r.NetBB > 0 {
			s.ShowdownWins++
		}
		return
	}
	s.NonShowdownBB += r.NetBB
	if r.NetBB > 0 {
		s.NonShowdownWins++
	}
}

// Mean returns big blinds per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// Variance returns the sample variance.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median result.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the linearly interpolated value at p (0.0 to 1.0).
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the accumulated counters agree with each other.
func (s *Statistics) Validate() error {
	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values length (%d) does not match hands count (%d)", len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("total wins (%d) exceeds total hands (%d)", wins, s.Hands)
	}
	if diff := s.SumBB - s.ShowdownBB - s.NonShowdownBB; math.Abs(diff) > 1e-6 {
		return fmt.Errorf("showdown split mismatch: sum=%.6f showdown=%.6f non-showdown=%.6f", s.SumBB, s.ShowdownBB, s.NonShowdownBB)
	}
	return nil
}

// Table keeps one Statistics per player.
type Table struct {
	players map[string]*Statistics
}

func NewTable() *Table {
	return &Table{players: make(map[string]*Statistics)}
}

// Add records a result for a player.
func (t *Table) Add(playerID string, r Result) {
	st, ok := t.players[playerID]
	if !ok {
		st = &Statistics{}
		t.players[playerID] = st
	}
	st.Add(r)
}

// Get returns a player's statistics, or nil if they never played.
func (t *Table) Get(playerID string) *Statistics {
	return t.players[playerID]
}

// Players lists player IDs in sorted order.
func (t *Table) Players() []string {
	ids := make([]string, 0, len(t.players))
	for id := range t.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SumBB returns the net big blinds across all players. Without rake it is zero.
func (t *Table) SumBB() float64 {
	var sum float64
	for _, st := range t.players {
		sum += st.SumBB
	}
	return sum
}
