package lifecycle

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// Hooks are the game specific reactions to elapsed time. They run with the session
// lock held.
type Hooks struct {
	// LobbyTick reports the time left before the lobby closes.
	LobbyTick func(remaining time.Duration)
	// LobbyExpired fires once at the lobby deadline.
	LobbyExpired func()
	// TurnTimeout fires when the seat armed with ArmTurn did not act in time.
	TurnTimeout func(seat int)
}

// Config holds the durations used by a Lifecycle.
type Config struct {
	LobbyDuration time.Duration
	LobbyTick     time.Duration
	TurnDuration  time.Duration
}

// Lifecycle composes the lobby countdown and the turn timer of one session. Several
// games share this shape; each supplies its own Hooks.
type Lifecycle struct {
	clock quartz.Clock
	cfg   Config
	hooks Hooks

	lobby         *Slot
	lobbyDeadline time.Time
	turn          *Slot
}

// New creates a lifecycle whose timers lock mu before calling hooks.
func New(clock quartz.Clock, mu sync.Locker, cfg Config, hooks Hooks) *Lifecycle {
	return &Lifecycle{
		clock: clock,
		cfg:   cfg,
		hooks: hooks,
		lobby: NewSlot(clock, mu, "lobby"),
		turn:  NewSlot(clock, mu, "turn"),
	}
}

// OpenLobby starts the countdown and returns the lobby deadline. The lobby slot is
// re-armed every tick until the deadline, so only one lobby timer is ever pending.
func (l *Lifecycle) OpenLobby() time.Time {
	l.lobbyDeadline = l.clock.Now().Add(l.cfg.LobbyDuration)
	l.armLobby()
	return l.lobbyDeadline
}

func (l *Lifecycle) armLobby() {
	remaining := l.clock.Until(l.lobbyDeadline)
	d := remaining
	if l.cfg.LobbyTick > 0 && l.cfg.LobbyTick < remaining {
		d = l.cfg.LobbyTick
	}
	l.lobby.Arm(d, func() {
		left := l.clock.Until(l.lobbyDeadline)
		if left <= 0 {
			if l.hooks.LobbyExpired != nil {
				l.hooks.LobbyExpired()
			}
			return
		}
		if l.hooks.LobbyTick != nil {
			l.hooks.LobbyTick(left)
		}
		// The hook may have closed the lobby.
		if !l.lobbyDeadline.IsZero() {
			l.armLobby()
		}
	})
}

// CloseLobby stops the countdown.
func (l *Lifecycle) CloseLobby() {
	l.lobby.Disarm()
	l.lobbyDeadline = time.Time{}
}

// LobbyDeadline returns the deadline of the open lobby, or the zero time.
func (l *Lifecycle) LobbyDeadline() time.Time {
	return l.lobbyDeadline
}

// ArmTurn (re)starts the turn timer for seat and returns its deadline.
func (l *Lifecycle) ArmTurn(seat int) time.Time {
	return l.turn.Arm(l.cfg.TurnDuration, func() {
		if l.hooks.TurnTimeout != nil {
			l.hooks.TurnTimeout(seat)
		}
	})
}

// DisarmTurn cancels the turn timer.
func (l *Lifecycle) DisarmTurn() {
	l.turn.Disarm()
}

// Stop cancels every timer.
func (l *Lifecycle) Stop() {
	l.CloseLobby()
	l.DisarmTurn()
}

// Now returns the lifecycle clock's time.
func (l *Lifecycle) Now() time.Time {
	return l.clock.Now()
}

// Outstanding returns the number of pending timers.
func (l *Lifecycle) Outstanding() int {
	n := 0
	if l.lobby.Armed() {
		n++
	}
	if l.turn.Armed() {
		n++
	}
	return n
}
