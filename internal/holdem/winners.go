package holdem

import (
	"github.com/lox/chanpoker/poker"
)

// Share is one winner's part of a pot.
type Share struct {
	UserID string
	Amount int
}

// Award records how a single pot was paid.
type Award struct {
	PotIndex int
	Amount   int // paid out, after rake
	Rake     int
	Rank     poker.HandRank // zero for an uncontested pot
	Winners  []Share
}

// Result is the in-memory payout for a hand, computed before any ledger call.
type Result struct {
	Awards []Award
	Totals map[string]int            // winnings per user
	Ranks  map[string]poker.HandRank // best hand per live player at showdown
	Rake   int
}

// Winnings returns what a user collected from the pots.
func (r Result) Winnings(userID string) int {
	return r.Totals[userID]
}

func newResult() Result {
	return Result{
		Totals: make(map[string]int),
		Ranks:  make(map[string]poker.HandRank),
	}
}

// ResolveWinners evaluates every eligible hand against the board and pays each pot to
// the best hand, splitting ties. The odd chips of a split go to the first winner in
// seat order. rake holds the chips already removed from each pot and may be nil.
func ResolveWinners(players []*Player, board []poker.Card, pots []Pot, rake []int) Result {
	res := newResult()
	byID := make(map[string]*Player, len(players))
	for _, p := range players {
		byID[p.UserID] = p
		if p.Folded {
			continue
		}
		cards := append(append([]poker.Card{}, p.Hole...), board...)
		res.Ranks[p.UserID] = poker.Evaluate(poker.NewHand(cards...))
	}

	for i, pot := range pots {
		var best poker.HandRank
		var winners []string
		for _, id := range pot.Eligible {
			p, ok := byID[id]
			if !ok || p.Folded {
				continue
			}
			rank := res.Ranks[id]
			switch poker.CompareHands(rank, best) {
			case 1:
				best = rank
				winners = []string{id}
			case 0:
				if len(winners) > 0 {
					winners = append(winners, id)
				}
			}
		}
		if len(winners) == 0 {
			continue
		}
		award := split(i, pot.Amount, winners)
		award.Rank = best
		award.Rake = rakeAt(rake, i)
		res.add(award)
	}
	return res
}

// AwardUncontested pays every pot to the last player who has not folded.
func AwardUncontested(players []*Player, pots []Pot, rake []int) Result {
	res := newResult()
	var winner string
	for _, p := range players {
		if !p.Folded {
			winner = p.UserID
			break
		}
	}
	if winner == "" {
		return res
	}
	for i, pot := range pots {
		award := split(i, pot.Amount, []string{winner})
		award.Rake = rakeAt(rake, i)
		res.add(award)
	}
	return res
}

func split(index, amount int, winners []string) Award {
	share := amount / len(winners)
	remainder := amount % len(winners)
	award := Award{PotIndex: index, Amount: amount}
	for j, id := range winners {
		s := share
		if j == 0 {
			s += remainder
		}
		award.Winners = append(award.Winners, Share{UserID: id, Amount: s})
	}
	return award
}

func rakeAt(rake []int, i int) int {
	if i < len(rake) {
		return rake[i]
	}
	return 0
}

func (r *Result) add(a Award) {
	r.Awards = append(r.Awards, a)
	r.Rake += a.Rake
	for _, s := range a.Winners {
		r.Totals[s.UserID] += s.Amount
	}
}
