// Package server is the chat gateway: a websocket endpoint where each connection
// speaks for one user in one channel, and the table renderer that pushes views back
// to every connection subscribed to a channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/chanpoker/internal/auth"
	"github.com/lox/chanpoker/internal/table"
)

const shutdownTimeout = 5 * time.Second

// Server represents the WebSocket server
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	orch        *table.Orchestrator
	validator   auth.Validator
}

// NewServer creates a new WebSocket server
func NewServer(addr string, logger *log.Logger) *Server {
	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		validator:   auth.NoopValidator{},
	}
}

// SetValidator makes subscribers prove who they are with a token.
func (s *Server) SetValidator(v auth.Validator) {
	s.validator = v
}

// SetOrchestrator sets the table orchestrator requests are dispatched to. It must be
// called before the server accepts connections.
func (s *Server) SetOrchestrator(orch *table.Orchestrator) {
	s.orch = orch
}

// Handler returns the HTTP handler serving /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until ctx is cancelled, then closes every connection.
func (s *Server) Start(ctx context.Context) error {
	if s.orch == nil {
		return errors.New("server has no orchestrator")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	s.Stop()
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop closes all connections.
func (s *Server) Stop() {
	s.mu.Lock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Render implements table.Renderer by broadcasting the view to the channel.
func (s *Server) Render(_ context.Context, v table.View) error {
	msg, err := NewMessage(MessageTypeView, v)
	if err != nil {
		return err
	}
	s.Broadcast(v.ChannelID, msg)
	return nil
}

// Broadcast sends a message to every connection subscribed to a channel.
func (s *Server) Broadcast(channelID string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		user, ch := conn.Subscription()
		if ch != channelID {
			continue
		}
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Warn("Failed to send message to client", "error", err, "user", user.ID)
			continue
		}
		count++
	}

	s.logger.Debug("Broadcast to channel", "channel", channelID, "type", msg.Type, "recipients", count)
}

// Subscribers returns the user IDs connected to a channel.
func (s *Server) Subscribers(channelID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var users []string
	for conn := range s.connections {
		if user, ch := conn.Subscription(); ch == channelID && user.ID != "" {
			users = append(users, user.ID)
		}
	}
	return users
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.orch, s.validator)
	s.register(client)
	client.Start()

	go func() {
		<-client.Done()
		s.unregister(client)
	}()
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

// unregister drops a connection. A user whose last connection to a channel goes away
// is taken out of that channel's lobby; seats in a running hand are left to the turn
// timer.
func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[conn]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "total", total)

	user, channelID := conn.Subscription()
	if user.ID == "" || s.orch == nil || slices.Contains(s.Subscribers(channelID), user.ID) {
		return
	}
	sess, ok := s.orch.Lookup(channelID)
	if !ok {
		return
	}
	if err := s.orch.Leave(context.Background(), sess, user.ID); err != nil {
		s.logger.Debug("No lobby seat to release", "user", user.ID, "channel", channelID, "error", err)
		return
	}
	s.logger.Info("Released lobby seat of disconnected user", "user", user.ID, "channel", channelID)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
