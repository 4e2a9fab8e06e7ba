package holdem

import (
	"fmt"
	"strings"
)

// Action is something a player can do on their turn.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	AllIn
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "raise", "allin"}[a]
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction converts a string to an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise", "bet":
		return Raise, nil
	case "allin", "all-in", "all_in":
		return AllIn, nil
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrIllegalAction, s)
}

// BlindSeats returns the small and big blind seats for a dealer position. Heads-up the
// dealer posts the small blind.
func BlindSeats(n, dealer int) (sbSeat, bbSeat int) {
	if n < 2 {
		return NoSeat, NoSeat
	}
	if n == 2 {
		return dealer, (dealer + 1) % n
	}
	return (dealer + 1) % n, (dealer + 2) % n
}

// PostBlinds takes the forced bets. A short stack posts what it has and is all-in.
func PostBlinds(players []*Player, dealer, sb, bb int) (sbSeat, bbSeat int) {
	sbSeat, bbSeat = BlindSeats(len(players), dealer)
	if sbSeat == NoSeat {
		return sbSeat, bbSeat
	}
	players[sbSeat].commit(sb)
	players[bbSeat].commit(bb)
	return sbSeat, bbSeat
}

// FirstToAct returns the seat that opens a street: preflop the first seat after the big
// blind that can act (heads-up that is the dealer), afterwards the first after the dealer.
func FirstToAct(players []*Player, dealer int, phase Phase) int {
	from := dealer
	if phase == Preflop {
		_, from = BlindSeats(len(players), dealer)
		if from == NoSeat {
			return NoSeat
		}
	}
	return NextActivePlayer(players, from)
}

// NextActivePlayer returns the next seat after from, wrapping around and ending at from
// itself, that is neither folded nor all-in.
func NextActivePlayer(players []*Player, from int) int {
	n := len(players)
	for i := 1; i <= n; i++ {
		idx := (from + i) % n
		if players[idx].CanAct() {
			return idx
		}
	}
	return NoSeat
}

// ProcessAction applies an already validated action and returns the table's bet to
// match. For raises raiseTotal is the player's desired total bet for the round, capped
// by their stack. A call or check with nothing owed moves no chips.
func ProcessAction(action Action, p *Player, currentBet, raiseTotal int) int {
	switch action {
	case Fold:
		p.Folded = true
	case Check:
	case Call:
		p.commit(p.ToCall(currentBet))
	case Raise:
		p.commit(raiseTotal - p.CurrentBet)
	case AllIn:
		p.commit(p.Stack)
	}
	p.Acted = true

	if p.CurrentBet > currentBet {
		return p.CurrentBet
	}
	return currentBet
}

// ValidateAction checks an action before ProcessAction runs. A raise must exceed the
// current bet by at least minRaise unless it puts the player all-in.
func ValidateAction(action Action, p *Player, currentBet, minRaise, raiseTotal int) error {
	if !p.CanAct() {
		return fmt.Errorf("%w: player cannot act", ErrIllegalAction)
	}
	toCall := p.ToCall(currentBet)

	switch action {
	case Fold, Call:
		return nil
	case Check:
		if toCall > 0 {
			return fmt.Errorf("%w: cannot check, %d to call", ErrIllegalAction, toCall)
		}
		return nil
	case AllIn:
		return nil
	case Raise:
		if p.Stack <= toCall {
			return fmt.Errorf("%w: cannot raise with %d chips facing %d", ErrIllegalAction, p.Stack, toCall)
		}
		if raiseTotal <= currentBet {
			return fmt.Errorf("%w: raise to %d must exceed current bet %d", ErrIllegalAction, raiseTotal, currentBet)
		}
		allInTotal := p.CurrentBet + p.Stack
		if raiseTotal < currentBet+minRaise && raiseTotal < allInTotal {
			return fmt.Errorf("%w: minimum raise is to %d", ErrIllegalAction, currentBet+minRaise)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %d", ErrIllegalAction, action)
}

// ValidActions returns the actions open to a player.
func ValidActions(p *Player, currentBet, minRaise int) []Action {
	if !p.CanAct() {
		return nil
	}
	actions := []Action{Fold}
	toCall := p.ToCall(currentBet)

	if toCall == 0 {
		actions = append(actions, Check)
	} else if toCall < p.Stack {
		actions = append(actions, Call)
	}
	if p.Stack > toCall+minRaise {
		actions = append(actions, Raise)
	}
	return append(actions, AllIn)
}

// IsBettingRoundComplete reports whether every player who can act has acted and matched
// currentBet. It is vacuously true when nobody can act.
func IsBettingRoundComplete(players []*Player, currentBet int) bool {
	for _, p := range players {
		if !p.CanAct() {
			continue
		}
		if !p.Acted || p.CurrentBet != currentBet {
			return false
		}
	}
	return true
}

// ResetBettingRound clears per-street state. TotalBet is kept for pot calculation.
func ResetBettingRound(players []*Player) {
	for _, p := range players {
		p.CurrentBet = 0
		p.Acted = false
	}
}

// ReopenAction clears Acted for every other player after raiser increased the bet.
func ReopenAction(players []*Player, raiser *Player) {
	for _, p := range players {
		if p != raiser && p.CanAct() {
			p.Acted = false
		}
	}
}
