package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/table"
	"github.com/lox/chanpoker/poker"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLobby(t *testing.T) {
	t.Parallel()
	r := New(&bytes.Buffer{}, WithProfile(termenv.Ascii))

	out := r.Format(table.View{
		ChannelID: "general",
		BuyIn:     100,
		Phase:     holdem.Waiting,
		Current:   holdem.NoSeat,
		Remaining: 25 * time.Second,
		Seats:     []table.SeatView{{UserID: "alice", Name: "Alice", Stack: 100}},
	})

	assert.Contains(t, out, "#general  waiting")
	assert.Contains(t, out, "lobby: buy-in 100, 1 seated, starts in 25s")
	assert.Contains(t, out, "Alice")
	assert.NotContains(t, out, "\x1b[", "ascii profile emits no escapes")
}

func TestFormatShowdown(t *testing.T) {
	t.Parallel()
	r := New(&bytes.Buffer{}, WithProfile(termenv.Ascii))

	out := r.Format(table.View{
		ChannelID: "general",
		Phase:     holdem.Showdown,
		Outcome:   table.Finished,
		Board:     poker.MustParseCards("2c 7s 9d 3h 4c"),
		Pot:       400,
		Current:   holdem.NoSeat,
		Seats: []table.SeatView{
			{UserID: "alice", Name: "Alice", Stack: 390, Hole: poker.MustParseCards("Ah Ad"), HandName: "Pair", Winnings: 390, Dealer: true},
			{UserID: "bob", Name: "Bob", Stack: 0, Hole: poker.MustParseCards("Kh Kd"), HandName: "Pair"},
		},
		Awards: []holdem.Award{{Amount: 390, Rake: 10, Winners: []holdem.Share{{UserID: "alice", Amount: 390}}}},
		Rake:   10,
	})

	assert.Contains(t, out, "#general  finished")
	assert.Contains(t, out, "board: 2c 7s 9d 3h 4c  pot: 400")
	assert.Contains(t, out, "D Alice")
	assert.Contains(t, out, "Ah Ad")
	assert.Contains(t, out, "+390")
	assert.Contains(t, out, "main pot 390: alice +390")
	assert.Contains(t, out, "rake: 10")
}

func TestFormatActingSeat(t *testing.T) {
	t.Parallel()
	r := New(&bytes.Buffer{}, WithProfile(termenv.Ascii))

	out := r.Format(table.View{
		ChannelID:  "general",
		Phase:      holdem.Preflop,
		CurrentBet: 20,
		Current:    1,
		Actions:    []holdem.Action{holdem.Fold, holdem.Call, holdem.Raise},
		Seats: []table.SeatView{
			{UserID: "alice", Name: "Alice", Stack: 990, CurrentBet: 10, Dealer: true},
			{UserID: "bob", Name: "Bob", Stack: 980, CurrentBet: 20, Acting: true},
			{UserID: "carol", Name: "Carol", Stack: 1000, Folded: true},
		},
	})

	assert.Contains(t, out, "> Bob")
	assert.Contains(t, out, "to call: 20")
	assert.Contains(t, out, "Carol")
	assert.Contains(t, out, "folded")
	assert.Contains(t, out, "to act: fold | call | raise")
}

func TestRenderFinalOnly(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := New(&buf, WithProfile(termenv.Ascii), WithFinalOnly())

	require.NoError(t, r.Render(context.Background(), table.View{ChannelID: "general", Phase: holdem.Flop}))
	assert.Empty(t, buf.String())

	require.NoError(t, r.Render(context.Background(), table.View{ChannelID: "general", Outcome: table.Cancelled, Reason: "cancelled by host"}))
	assert.Contains(t, buf.String(), "cancelled by host")
}
