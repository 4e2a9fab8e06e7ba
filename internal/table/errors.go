package table

import (
	"errors"

	"github.com/lox/chanpoker/internal/holdem"
)

var (
	ErrAlreadyActive     = errors.New("a game is already running in this channel")
	ErrAlreadyJoined     = errors.New("already joined")
	ErrSeatsFull         = errors.New("all seats are taken")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrIllegalAction     = holdem.ErrIllegalAction
	ErrNotHost           = errors.New("only the host can do that")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrNotSeated         = errors.New("not seated at this table")
	ErrSessionClosed     = errors.New("game is over")
	ErrNotInLobby        = errors.New("game has already started")
	ErrInvalidBuyIn      = errors.New("invalid buy-in")
	ErrNoPreviousGame    = errors.New("no previous game in this channel")
	ErrChipsChanged      = errors.New("chips on the table changed during the hand")
)
