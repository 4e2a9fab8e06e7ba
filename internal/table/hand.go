package table

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
)

// ApplyAction plays userID's action on their turn. raiseTotal is the total bet the
// player wants to have in front of them this round; it is only read for raises.
func (o *Orchestrator) ApplyAction(ctx context.Context, s *Session, userID string, action holdem.Action, raiseTotal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() {
		return ErrSessionClosed
	}
	if s.phase == holdem.Waiting || s.current == holdem.NoSeat {
		return ErrNotYourTurn
	}
	p := s.players[s.current]
	if p.UserID != userID {
		if s.playerLocked(userID) == nil {
			return ErrNotSeated
		}
		return ErrNotYourTurn
	}
	if err := holdem.ValidateAction(action, p, s.currentBet, s.minRaise, raiseTotal); err != nil {
		return err
	}

	s.timers.DisarmTurn()
	s.turnDeadline = time.Time{}
	o.applyLocked(s, action, raiseTotal, false)
	s.logger.Debug("Action", "user", userID, "action", action, "raiseTotal", raiseTotal, "phase", s.phase)
	o.resolveTurnLocked(ctx, s)
	return nil
}

func (o *Orchestrator) turnTimeout(ctx context.Context, s *Session, seat int) {
	if s.closed() || s.current != seat {
		return
	}
	s.turnDeadline = time.Time{}
	s.logger.Debug("Turn timed out, folding", "user", s.players[seat].UserID, "phase", s.phase)
	o.applyLocked(s, holdem.Fold, 0, true)
	o.resolveTurnLocked(ctx, s)
}

func (o *Orchestrator) applyLocked(s *Session, action holdem.Action, raiseTotal int, timeout bool) {
	p := s.players[s.current]
	before := s.currentBet
	s.currentBet = holdem.ProcessAction(action, p, s.currentBet, raiseTotal)
	s.actions = append(s.actions, ActionRecord{
		Phase:   s.phase,
		Seat:    s.current,
		Action:  action,
		Facing:  before,
		Total:   p.CurrentBet,
		Timeout: timeout,
	})
	if s.currentBet > before {
		// An all-in short of a full raise still has to be called but does not
		// change the minimum raise.
		if inc := s.currentBet - before; inc >= s.minRaise {
			s.minRaise = inc
		}
		s.lastRaiser = s.current
		holdem.ReopenAction(s.players, p)
	}
}

func (o *Orchestrator) startHandLocked(ctx context.Context, s *Session) {
	n := len(s.players)
	s.handID = o.ids.Generate()
	s.startSum = s.chipsOnTable()
	s.deck = o.newDeck(s.rng)
	s.dealer = o.pickDealer(s.rng, n)
	s.phase = holdem.Preflop
	s.started = o.clock.Now()
	s.logger = s.logger.With("hand", s.handID)

	sbSeat, bbSeat := holdem.PostBlinds(s.players, s.dealer, o.cfg.SmallBlind, o.cfg.BigBlind)
	s.blinds = make([]int, n)
	for i, p := range s.players {
		s.blinds[i] = p.CurrentBet
	}
	s.currentBet = max(s.players[sbSeat].CurrentBet, s.players[bbSeat].CurrentBet)
	s.minRaise = o.cfg.BigBlind
	s.lastRaiser = bbSeat

	for i := 1; i <= n; i++ {
		p := s.players[(s.dealer+i)%n]
		p.Hole = s.deck.Deal(2)
	}
	s.logger.Info("Hand started", "players", n, "dealer", s.players[s.dealer].UserID)

	s.current = holdem.FirstToAct(s.players, s.dealer, holdem.Preflop)
	if s.settled() {
		s.logger.Debug("Nobody can act preflop, running out the board")
		o.advanceStreetLocked(ctx, s)
		return
	}
	o.armTurnLocked(ctx, s)
}

// settled reports whether betting is over for the hand: nobody can act, or the only
// player who can has already matched the bet.
func (s *Session) settled() bool {
	switch holdem.CountCanAct(s.players) {
	case 0:
		return true
	case 1:
		for _, p := range s.players {
			if p.CanAct() {
				return p.CurrentBet >= s.currentBet
			}
		}
	}
	return false
}

// resolveTurnLocked moves the hand on after every action or timeout.
func (o *Orchestrator) resolveTurnLocked(ctx context.Context, s *Session) {
	if holdem.CountInHand(s.players) == 1 {
		o.foldWinLocked(ctx, s)
		return
	}
	if !holdem.IsBettingRoundComplete(s.players, s.currentBet) {
		if next := s.nextToAct(s.current); next != holdem.NoSeat {
			s.current = next
			o.armTurnLocked(ctx, s)
			return
		}
	}
	o.advanceStreetLocked(ctx, s)
}

// nextToAct returns the next seat after from that still owes an action this round.
func (s *Session) nextToAct(from int) int {
	seat := from
	for range s.players {
		seat = holdem.NextActivePlayer(s.players, seat)
		if seat == holdem.NoSeat {
			return seat
		}
		p := s.players[seat]
		if !p.Acted || p.CurrentBet != s.currentBet {
			return seat
		}
	}
	return holdem.NoSeat
}

func (o *Orchestrator) armTurnLocked(ctx context.Context, s *Session) {
	s.turnDeadline = s.timers.ArmTurn(s.current)
	o.render(ctx, s)
}

// advanceStreetLocked deals the next street, or every remaining street when fewer than
// two players can still bet, and reaches showdown after the river.
func (o *Orchestrator) advanceStreetLocked(ctx context.Context, s *Session) {
	for {
		holdem.ResetBettingRound(s.players)
		s.currentBet = 0
		s.minRaise = o.cfg.BigBlind
		s.lastRaiser = holdem.NoSeat
		s.current = holdem.NoSeat

		s.phase = s.phase.Next()
		if s.phase == holdem.Showdown {
			o.showdownLocked(ctx, s)
			return
		}
		if err := s.dealStreet(); err != nil {
			o.abortLocked(ctx, s, err)
			return
		}
		s.logger.Debug("Street dealt", "phase", s.phase, "board", s.board)

		if holdem.CountCanAct(s.players) < 2 {
			continue
		}
		s.current = holdem.FirstToAct(s.players, s.dealer, s.phase)
		o.armTurnLocked(ctx, s)
		return
	}
}

// dealStreet burns one card and deals three on the flop, one on the turn and river.
func (s *Session) dealStreet() error {
	n := 1
	if s.phase == holdem.Flop {
		n = 3
	}
	if !s.deck.Burn() {
		return fmt.Errorf("deck exhausted burning for %s", s.phase)
	}
	cards := s.deck.Deal(n)
	if cards == nil {
		return fmt.Errorf("deck exhausted dealing %s", s.phase)
	}
	s.board = append(s.board, cards...)
	return nil
}

func (o *Orchestrator) showdownLocked(ctx context.Context, s *Session) {
	pots := holdem.CalculatePots(s.players)
	if err := holdem.VerifyPots(pots, s.players); err != nil {
		o.abortLocked(ctx, s, err)
		return
	}
	net, rake := holdem.ApplyRake(pots, o.cfg.Rake)
	result := holdem.ResolveWinners(s.players, s.board, net, rake)
	o.payoutLocked(ctx, s, result)
}

func (o *Orchestrator) foldWinLocked(ctx context.Context, s *Session) {
	s.foldWin = true
	pots := holdem.CalculatePots(s.players)
	if err := holdem.VerifyPots(pots, s.players); err != nil {
		o.abortLocked(ctx, s, err)
		return
	}
	net, rake := holdem.ApplyRake(pots, o.cfg.Rake)
	o.payoutLocked(ctx, s, holdem.AwardUncontested(s.players, net, rake))
}

// payoutLocked checks the computed result conserves chips, then credits every seat its
// winnings plus the stack it never bet.
func (o *Orchestrator) payoutLocked(ctx context.Context, s *Session, result holdem.Result) {
	paid := 0
	for _, w := range result.Totals {
		paid += w
	}
	if contributed := holdem.TotalContributed(s.players); paid+result.Rake != contributed {
		o.abortLocked(ctx, s, fmt.Errorf("%w: paying %d plus rake %d of %d", holdem.ErrPotMismatch, paid, result.Rake, contributed))
		return
	}

	for _, p := range s.players {
		if p.Stack < 0 {
			o.abortLocked(ctx, s, fmt.Errorf("negative stack %d for %s", p.Stack, p.UserID))
			return
		}
	}
	if onTable := s.chipsOnTable(); onTable != s.startSum {
		o.abortLocked(ctx, s, fmt.Errorf("%w: started with %d, holding %d", ErrChipsChanged, s.startSum, onTable))
		return
	}

	s.result = &result
	s.current = holdem.NoSeat
	for _, p := range s.players {
		p.Stack += result.Winnings(p.UserID)
	}

	for _, p := range s.players {
		o.credit(ctx, s, p.UserID, p.Stack)
	}
	s.logger.Info("Hand finished", "foldWin", s.foldWin, "pots", len(result.Awards), "rake", result.Rake, "winnings", result.Totals)
	o.terminateLocked(ctx, s, Finished)
}

// abortLocked ends a hand that can no longer be paid correctly and gives every seat
// back what it brought.
func (o *Orchestrator) abortLocked(ctx context.Context, s *Session, cause error) {
	s.logger.Error("Hand aborted, refunding", "error", cause)
	for _, p := range s.players {
		o.credit(ctx, s, p.UserID, p.TotalBet+p.Stack)
	}
	s.reason = cause.Error()
	o.terminateLocked(ctx, s, Aborted)
}
