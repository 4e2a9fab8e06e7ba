package table

import (
	"slices"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/poker"
)

// SeatView is the public state of one seat.
type SeatView struct {
	UserID     string       `json:"userId"`
	Name       string       `json:"name"`
	Seat       int          `json:"seat"`
	Stack      int          `json:"stack"`
	CurrentBet int          `json:"currentBet"`
	TotalBet   int          `json:"totalBet"`
	Folded     bool         `json:"folded"`
	AllIn      bool         `json:"allIn"`
	Dealer     bool         `json:"dealer"`
	Acting     bool         `json:"acting"`
	Hole       []poker.Card `json:"hole,omitempty"` // only revealed at showdown
	HandName   string       `json:"handName,omitempty"`
	Winnings   int          `json:"winnings,omitempty"`
}

// View is an immutable projection of a session handed to renderers.
type View struct {
	SessionID string `json:"sessionId"`
	HandID    string `json:"handId,omitempty"`
	ChannelID string `json:"channelId"`
	HostID    string `json:"hostId"`
	BuyIn     int    `json:"buyIn"`

	Phase   holdem.Phase `json:"phase"`
	Outcome Outcome      `json:"outcome"`
	Reason  string       `json:"reason,omitempty"`
	FoldWin bool         `json:"foldWin,omitempty"`

	Board      []poker.Card    `json:"board"`
	Pot        int             `json:"pot"`
	CurrentBet int             `json:"currentBet"`
	MinRaise   int             `json:"minRaise"`
	Current    int             `json:"current"`
	Actions    []holdem.Action `json:"actions,omitempty"`

	LobbyDeadline time.Time     `json:"lobbyDeadline,omitzero"`
	TurnDeadline  time.Time     `json:"turnDeadline,omitzero"`
	Remaining     time.Duration `json:"remaining,omitempty"`

	Seats  []SeatView     `json:"seats"`
	Awards []holdem.Award `json:"awards,omitempty"`
	Rake   int            `json:"rake,omitempty"`
}

// Acting returns the seat whose turn it is, if any.
func (v View) Acting() (SeatView, bool) {
	if v.Current < 0 || v.Current >= len(v.Seats) {
		return SeatView{}, false
	}
	return v.Seats[v.Current], true
}

// Seat finds a user's seat.
func (v View) Seat(userID string) (SeatView, bool) {
	for _, s := range v.Seats {
		if s.UserID == userID {
			return s, true
		}
	}
	return SeatView{}, false
}

func (s *Session) viewLocked() View {
	v := View{
		SessionID:     s.id,
		HandID:        s.handID,
		ChannelID:     s.channelID,
		HostID:        s.hostID,
		BuyIn:         s.buyIn,
		Phase:         s.phase,
		Outcome:       s.outcome,
		Reason:        s.reason,
		FoldWin:       s.foldWin,
		Board:         slices.Clone(s.board),
		CurrentBet:    s.currentBet,
		MinRaise:      s.minRaise,
		Current:       s.current,
		LobbyDeadline: s.lobbyDeadline,
		TurnDeadline:  s.turnDeadline,
	}
	if !s.lobbyDeadline.IsZero() && s.phase == holdem.Waiting && !s.closed() {
		v.Remaining = max(0, s.lobbyDeadline.Sub(s.timers.Now()))
	}

	reveal := s.phase == holdem.Showdown && !s.foldWin
	for i, p := range s.players {
		sv := SeatView{
			UserID:     p.UserID,
			Name:       p.Name,
			Seat:       p.Seat,
			Stack:      p.Stack,
			CurrentBet: p.CurrentBet,
			TotalBet:   p.TotalBet,
			Folded:     p.Folded,
			AllIn:      p.AllIn,
			Dealer:     s.phase != holdem.Waiting && i == s.dealer,
			Acting:     i == s.current,
		}
		if reveal && !p.Folded {
			sv.Hole = slices.Clone(p.Hole)
		}
		if s.result != nil {
			sv.Winnings = s.result.Winnings(p.UserID)
			if r, ok := s.result.Ranks[p.UserID]; ok && reveal {
				sv.HandName = r.String()
			}
		}
		v.Pot += p.TotalBet
		v.Seats = append(v.Seats, sv)
	}
	if s.current >= 0 && s.current < len(s.players) && !s.closed() {
		v.Actions = holdem.ValidActions(s.players[s.current], s.currentBet, s.minRaise)
	}
	if s.result != nil {
		v.Awards = slices.Clone(s.result.Awards)
		v.Rake = s.result.Rake
	}
	return v
}
