package table

import (
	"context"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/poker"
)

// HistorySink receives the record of every dealt hand once its session ends.
type HistorySink interface {
	RecordHand(ctx context.Context, rec HandRecord) error
}

// HandRecord is the complete log of one dealt hand.
type HandRecord struct {
	HandID     string
	SessionID  string
	ChannelID  string
	Started    time.Time
	SmallBlind int
	BigBlind   int
	Dealer     int
	Seats      []SeatRecord
	Board      []poker.Card
	Actions    []ActionRecord
	Outcome    Outcome
	Rake       int
}

// SeatRecord is one player's part in a hand.
type SeatRecord struct {
	UserID         string
	Name           string
	Hole           []poker.Card
	Blind          int
	StartingStack  int
	FinishingStack int
	Winnings       int
	Showed         bool // hole cards were turned over at showdown
}

// ActionRecord is one betting decision.
type ActionRecord struct {
	Phase   holdem.Phase
	Seat    int
	Action  holdem.Action
	Facing  int // table bet before the action
	Total   int // the seat's bet this street after the action
	Timeout bool
}

func (s *Session) recordLocked(cfg Config) HandRecord {
	rec := HandRecord{
		HandID:     s.handID,
		SessionID:  s.id,
		ChannelID:  s.channelID,
		Started:    s.started,
		SmallBlind: cfg.SmallBlind,
		BigBlind:   cfg.BigBlind,
		Dealer:     s.dealer,
		Board:      append([]poker.Card(nil), s.board...),
		Actions:    append([]ActionRecord(nil), s.actions...),
		Outcome:    s.outcome,
	}
	reveal := s.phase == holdem.Showdown && !s.foldWin && s.outcome == Finished
	for i, p := range s.players {
		sr := SeatRecord{
			UserID:         p.UserID,
			Name:           p.Name,
			Hole:           append([]poker.Card(nil), p.Hole...),
			StartingStack:  p.BuyIn,
			FinishingStack: p.Stack,
			Showed:         reveal && !p.Folded,
		}
		if i < len(s.blinds) {
			sr.Blind = s.blinds[i]
		}
		if s.outcome == Aborted {
			sr.FinishingStack = p.Stack + p.TotalBet
		}
		if s.result != nil {
			sr.Winnings = s.result.Winnings(p.UserID)
		}
		rec.Seats = append(rec.Seats, sr)
	}
	if s.result != nil {
		rec.Rake = s.result.Rake
	}
	return rec
}

func (o *Orchestrator) recordHand(ctx context.Context, s *Session) {
	if o.history == nil || s.handID == "" {
		return
	}
	if err := o.history.RecordHand(ctx, s.recordLocked(o.cfg)); err != nil {
		s.logger.Warn("Recording hand history failed", "error", err)
	}
}
