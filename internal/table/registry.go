package table

import (
	"fmt"
	"sync"
)

// Registry tracks the one active session per channel.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	lastBuyIn map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		lastBuyIn: make(map[string]int),
	}
}

// Reserve claims s.ChannelID for s. It fails if the channel already has a session.
func (r *Registry) Reserve(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.channelID]; ok {
		return fmt.Errorf("%w: channel %s", ErrAlreadyActive, s.channelID)
	}
	r.sessions[s.channelID] = s
	return nil
}

// Lookup returns the active session for a channel.
func (r *Registry) Lookup(channelID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[channelID]
	return s, ok
}

// Remove releases the channel if s still holds it and remembers its buy-in.
func (r *Registry) Remove(s *Session) {
	r.release(s, true)
}

// Discard releases the channel for a session that never opened.
func (r *Registry) Discard(s *Session) {
	r.release(s, false)
}

func (r *Registry) release(s *Session, remember bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[s.channelID]; ok && cur == s {
		delete(r.sessions, s.channelID)
	}
	if remember {
		r.lastBuyIn[s.channelID] = s.buyIn
	}
}

// LastBuyIn returns the buy-in of the last session that ended in a channel.
func (r *Registry) LastBuyIn(channelID string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.lastBuyIn[channelID]
	return b, ok
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns the active sessions.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
