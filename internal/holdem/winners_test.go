package holdem

import (
	"testing"

	"github.com/lox/chanpoker/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deal(players []*Player, holes ...string) {
	for i, h := range holes {
		players[i].Hole = poker.MustParseCards(h)
	}
}

func TestResolveWinnersSplitRemainder(t *testing.T) {
	t.Parallel()

	players := newPlayers(0, 0)
	deal(players, "2c 3d", "4c 5d")
	board := poker.MustParseCards("As Ks Qs Js Ts")
	pots := []Pot{{Amount: 101, Eligible: []string{"p0", "p1"}}}

	res := ResolveWinners(players, board, pots, nil)
	require.Len(t, res.Awards, 1)
	assert.Equal(t, []Share{{"p0", 51}, {"p1", 50}}, res.Awards[0].Winners)
	assert.Equal(t, 51, res.Winnings("p0"))
	assert.Equal(t, 50, res.Winnings("p1"))
	assert.Equal(t, poker.StraightFlush, res.Awards[0].Rank.Type())
}

func TestResolveWinnersSidePots(t *testing.T) {
	t.Parallel()

	// p0 is all-in short with the best hand; p1 beats p2 for the side pot.
	players := newPlayers(0, 0, 0)
	players[0].TotalBet, players[1].TotalBet, players[2].TotalBet = 50, 75, 75
	deal(players, "Ah Ad", "Kh Kd", "Qh Jd")
	board := poker.MustParseCards("2c 7s 9d 3h 5c")

	pots := CalculatePots(players)
	res := ResolveWinners(players, board, pots, nil)

	assert.Equal(t, 150, res.Winnings("p0"))
	assert.Equal(t, 50, res.Winnings("p1"))
	assert.Equal(t, 0, res.Winnings("p2"))
	assert.Equal(t, TotalContributed(players), res.Winnings("p0")+res.Winnings("p1"))
}

func TestResolveWinnersIgnoresFolded(t *testing.T) {
	t.Parallel()

	players := newPlayers(0, 0, 0)
	deal(players, "Ah Ad", "7h 2d", "8c 3s")
	players[0].Folded = true
	board := poker.MustParseCards("Kc Ks 9d 4h Qc")

	pots := []Pot{{Amount: 90, Eligible: []string{"p0", "p1", "p2"}}}
	res := ResolveWinners(players, board, pots, nil)

	assert.Equal(t, 90, res.Winnings("p2"))
	assert.NotContains(t, res.Ranks, "p0")
}

func TestResolveWinnersSkipsEmptyEligibility(t *testing.T) {
	t.Parallel()

	players := newPlayers(0)
	deal(players, "Ah Ad")
	res := ResolveWinners(players, poker.MustParseCards("2c 7s 9d 3h 5c"), []Pot{{Amount: 10}}, nil)
	assert.Empty(t, res.Awards)
}

func TestAwardUncontested(t *testing.T) {
	t.Parallel()

	players := newPlayers(0, 0, 0)
	players[0].Folded = true
	players[2].Folded = true
	players[0].TotalBet, players[1].TotalBet, players[2].TotalBet = 10, 40, 20

	pots := CalculatePots(players)
	net, rake := ApplyRake(pots, RakeRule{Percent: 10})
	res := AwardUncontested(players, net, rake)

	assert.Equal(t, 63, res.Winnings("p1"))
	assert.Equal(t, 7, res.Rake)
	assert.Equal(t, TotalContributed(players), res.Winnings("p1")+res.Rake)
}
