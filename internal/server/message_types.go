package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeSubscribe  MessageType = "subscribe"
	MessageTypeStart      MessageType = "start"
	MessageTypeJoin       MessageType = "join"
	MessageTypeLeave      MessageType = "leave"
	MessageTypeCancel     MessageType = "cancel"
	MessageTypeForceStart MessageType = "force_start"
	MessageTypeAction     MessageType = "action"
	MessageTypeReveal     MessageType = "reveal"
	MessageTypeRematch    MessageType = "rematch"

	// Server to client messages
	MessageTypeOK        MessageType = "ok"
	MessageTypeError     MessageType = "error"
	MessageTypeView      MessageType = "view"
	MessageTypeHoleCards MessageType = "hole_cards"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
