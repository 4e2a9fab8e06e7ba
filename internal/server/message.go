package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/table"
	"github.com/lox/chanpoker/poker"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	msg := &Message{
		Type:      messageType,
		Timestamp: time.Now(),
	}
	if data != nil {
		dataBytes, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = dataBytes
	}
	return msg, nil
}

// Client → Server Messages

type SubscribeData struct {
	Channel string `json:"channel"`
	User    string `json:"user"`
	Name    string `json:"name,omitempty"`
	Token   string `json:"token,omitempty"` // replaces user and name when tokens are checked
}

type BuyInData struct {
	BuyIn int `json:"buyIn,omitempty"`
}

type ActionData struct {
	Action holdem.Action `json:"action"`
	Amount int           `json:"amount,omitempty"` // total bet for raises
}

// Server → Client Messages

type OKData struct {
	For  MessageType `json:"for"`
	User string      `json:"user,omitempty"` // the identity a subscribe was accepted as
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type HoleCardsData struct {
	Cards []poker.Card `json:"cards"`
}

var errorCodes = []struct {
	err  error
	code string
}{
	{table.ErrAlreadyActive, "already_active"},
	{table.ErrAlreadyJoined, "already_joined"},
	{table.ErrSeatsFull, "seats_full"},
	{table.ErrInsufficientFunds, "insufficient_funds"},
	{table.ErrNotYourTurn, "not_your_turn"},
	{table.ErrIllegalAction, "illegal_action"},
	{table.ErrNotHost, "not_host"},
	{table.ErrNotEnoughPlayers, "not_enough_players"},
	{table.ErrNotSeated, "not_seated"},
	{table.ErrSessionClosed, "session_closed"},
	{table.ErrNotInLobby, "not_in_lobby"},
	{table.ErrInvalidBuyIn, "invalid_buy_in"},
	{table.ErrNoPreviousGame, "no_previous_game"},
	{errNoGame, "no_game"},
}

// errorCode maps orchestrator errors to stable protocol codes.
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal_error"
}
