package holdem

import (
	"fmt"
	"slices"
)

// Pot is the main pot or a side pot.
type Pot struct {
	Amount   int
	Eligible []string // user IDs in seat order
}

// CalculatePots splits the hand's contributions into a main pot and one side pot per
// distinct all-in level. Folded chips are collected but folded players are never
// eligible; folded chips above the highest live level go to the last pot.
func CalculatePots(players []*Player) []Pot {
	var levels []int
	for _, p := range players {
		if !p.Folded && p.TotalBet > 0 && !slices.Contains(levels, p.TotalBet) {
			levels = append(levels, p.TotalBet)
		}
	}
	slices.Sort(levels)

	var pots []Pot
	previous := 0
	for _, level := range levels {
		increment := level - previous
		pot := Pot{}
		for _, p := range players {
			if over := p.TotalBet - previous; over > 0 {
				pot.Amount += min(over, increment)
			}
			if !p.Folded && p.TotalBet >= level {
				pot.Eligible = append(pot.Eligible, p.UserID)
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		previous = level
	}

	leftover := 0
	for _, p := range players {
		if over := p.TotalBet - previous; over > 0 {
			leftover += over
		}
	}
	if leftover > 0 && len(pots) > 0 {
		pots[len(pots)-1].Amount += leftover
	}
	return pots
}

// PotTotal sums pot amounts.
func PotTotal(pots []Pot) int {
	total := 0
	for _, pot := range pots {
		total += pot.Amount
	}
	return total
}

// VerifyPots checks that the pots hold exactly what the players put in.
func VerifyPots(pots []Pot, players []*Player) error {
	got, want := PotTotal(pots), TotalContributed(players)
	if got != want {
		return fmt.Errorf("%w: pots hold %d, players contributed %d", ErrPotMismatch, got, want)
	}
	for i, pot := range pots {
		if pot.Amount <= 0 {
			return fmt.Errorf("%w: pot %d has amount %d", ErrPotMismatch, i, pot.Amount)
		}
	}
	return nil
}

// RakeRule is the house cut: Percent of each pot, at most Cap per hand (0 is no cap).
type RakeRule struct {
	Percent int
	Cap     int
}

// ApplyRake returns the pots net of rake and the rake taken from each one. Pots are
// raked in order, main pot first, until the cap is reached.
func ApplyRake(pots []Pot, rule RakeRule) ([]Pot, []int) {
	net := make([]Pot, len(pots))
	copy(net, pots)
	taken := make([]int, len(pots))
	if rule.Percent <= 0 {
		return net, taken
	}

	total := 0
	for i := range net {
		r := net[i].Amount * rule.Percent / 100
		if rule.Cap > 0 && total+r > rule.Cap {
			r = rule.Cap - total
		}
		if r <= 0 {
			continue
		}
		net[i].Amount -= r
		taken[i] = r
		total += r
	}
	return net, taken
}
