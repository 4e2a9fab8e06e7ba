package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/chanpoker/internal/auth"
	"github.com/lox/chanpoker/internal/table"
)

// Connection is one chat client: a user subscribed to one channel.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	user      table.User
	channelID string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	orch      *table.Orchestrator
	validator auth.Validator
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, orch *table.Orchestrator, validator auth.Validator) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:      conn,
		send:      make(chan *Message, 256),
		logger:    logger.WithPrefix("conn"),
		ctx:       ctx,
		cancel:    cancel,
		orch:      orch,
		validator: validator,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed when the connection ends.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.cancel()
		close(c.send)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message without blocking. A client that cannot keep up is
// disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ctx.Err() != nil {
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "user", c.user.ID)
		go func() { _ = c.Close() }()
		return ErrConnectionClosed
	}
}

// Subscription returns the user and channel this connection speaks for.
func (c *Connection) Subscription() (table.User, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.channelID
}

func (c *Connection) subscribe(user table.User, channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = user
	c.channelID = channelID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
	errNotSubscribed    = errors.New("subscribe to a channel first")
	errNoGame           = errors.New("no game in this channel")
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	user, channelID := c.Subscription()
	c.logger.Debug("Received message", "type", msg.Type, "user", user.ID, "channel", channelID)

	if msg.Type == MessageTypeSubscribe {
		var data SubscribeData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.Channel == "" || (data.User == "" && data.Token == "") {
			c.sendError(msg, "invalid_message", "subscribe needs a channel and a user or token")
			return
		}
		c.handleSubscribe(msg, data)
		return
	}
	if channelID == "" {
		c.sendError(msg, "not_subscribed", errNotSubscribed.Error())
		return
	}

	var err error
	switch msg.Type {
	case MessageTypeStart, MessageTypeJoin:
		var data BuyInData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError(msg, "invalid_message", "Failed to parse buy-in data")
				return
			}
		}
		if msg.Type == MessageTypeStart {
			_, err = c.orch.StartLobby(c.ctx, channelID, user, data.BuyIn)
		} else {
			err = c.withSession(channelID, func(s *table.Session) error {
				return c.orch.Join(c.ctx, s, user, data.BuyIn)
			})
		}

	case MessageTypeLeave:
		err = c.withSession(channelID, func(s *table.Session) error {
			return c.orch.Leave(c.ctx, s, user.ID)
		})

	case MessageTypeCancel:
		err = c.withSession(channelID, func(s *table.Session) error {
			return c.orch.Cancel(c.ctx, s, user.ID)
		})

	case MessageTypeForceStart:
		err = c.withSession(channelID, func(s *table.Session) error {
			return c.orch.ForceStart(c.ctx, s, user.ID)
		})

	case MessageTypeAction:
		var data ActionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(msg, "invalid_message", "Failed to parse action data")
			return
		}
		err = c.withSession(channelID, func(s *table.Session) error {
			return c.orch.ApplyAction(c.ctx, s, user.ID, data.Action, data.Amount)
		})

	case MessageTypeReveal:
		err = c.withSession(channelID, func(s *table.Session) error {
			cards, err := c.orch.HoleCards(s, user.ID)
			if err != nil {
				return err
			}
			c.reply(msg, MessageTypeHoleCards, HoleCardsData{Cards: cards})
			return nil
		})
		if err == nil {
			return
		}

	case MessageTypeRematch:
		_, err = c.orch.Rematch(c.ctx, channelID, user)

	default:
		c.sendError(msg, "unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		c.logger.Debug("Request rejected", "type", msg.Type, "user", user.ID, "error", err)
		c.sendError(msg, errorCode(err), err.Error())
		return
	}
	c.reply(msg, MessageTypeOK, OKData{For: msg.Type})
}

func (c *Connection) handleSubscribe(msg *Message, data SubscribeData) {
	user := table.User{ID: data.User, Name: data.Name}
	id, err := c.validator.Validate(c.ctx, data.Token, data.Channel)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		c.sendError(msg, "unauthorized", "token rejected")
		return
	case errors.Is(err, auth.ErrWrongChannel):
		c.sendError(msg, "forbidden_channel", "token was not issued for #"+data.Channel)
		return
	case err != nil:
		c.logger.Warn("Token validation failed", "user", data.User, "error", err)
		c.sendError(msg, "auth_unavailable", "cannot validate token right now")
		return
	case id != nil:
		user = table.User{ID: id.UserID, Name: id.Name}
	}
	if user.ID == "" {
		c.sendError(msg, "invalid_message", "subscribe needs a user")
		return
	}
	if user.Name == "" {
		user.Name = user.ID
	}

	c.subscribe(user, data.Channel)
	c.logger.Info("Subscribed", "user", user.ID, "channel", data.Channel)
	c.reply(msg, MessageTypeOK, OKData{For: msg.Type, User: user.ID})

	if s, ok := c.orch.Lookup(data.Channel); ok {
		c.sendView(s.Snapshot())
	}
}

func (c *Connection) withSession(channelID string, fn func(s *table.Session) error) error {
	s, ok := c.orch.Lookup(channelID)
	if !ok {
		return errNoGame
	}
	return fn(s)
}

func (c *Connection) sendView(v table.View) {
	msg, err := NewMessage(MessageTypeView, v)
	if err != nil {
		c.logger.Error("Failed to encode view", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) reply(req *Message, t MessageType, data any) {
	msg, err := NewMessage(t, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", t, "error", err)
		return
	}
	msg.RequestID = req.RequestID
	_ = c.SendMessage(msg)
}

// sendError sends an error message to the client
func (c *Connection) sendError(req *Message, code, message string) {
	c.reply(req, MessageTypeError, ErrorData{Code: code, Message: message})
}
