// Package console renders table views as styled text blocks for terminals and logs.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/table"
	"github.com/lox/chanpoker/poker"
	"github.com/muesli/termenv"
)

type styles struct {
	Header    lipgloss.Style
	Board     lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Acting    lipgloss.Style
	Folded    lipgloss.Style
	Winner    lipgloss.Style
	Info      lipgloss.Style
	Block     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		Header: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1).
			Bold(true),
		Board: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		RedCard: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		BlackCard: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true),
		Acting: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Folded: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Winner: r.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Info: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Block: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithProfile forces a colour profile, e.g. termenv.Ascii for plain text.
func WithProfile(p termenv.Profile) Option {
	return func(r *Renderer) { r.profile = &p }
}

// WithFinalOnly skips every view of a session that is still running.
func WithFinalOnly() Option {
	return func(r *Renderer) { r.finalOnly = true }
}

// Renderer writes each view it is given to w as one bordered block.
type Renderer struct {
	mu        sync.Mutex
	w         io.Writer
	lg        *lipgloss.Renderer
	st        styles
	profile   *termenv.Profile
	finalOnly bool
}

// New creates a renderer writing to w. The colour profile is detected from w unless
// WithProfile is given.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{w: w}
	for _, opt := range opts {
		opt(r)
	}
	r.lg = lipgloss.NewRenderer(w)
	if r.profile != nil {
		r.lg.SetColorProfile(*r.profile)
	}
	r.st = newStyles(r.lg)
	return r
}

// Render implements table.Renderer.
func (r *Renderer) Render(_ context.Context, v table.View) error {
	if r.finalOnly && v.Outcome == table.Running {
		return nil
	}
	out := r.Format(v)

	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := fmt.Fprintln(r.w, out)
	return err
}

// Format returns the styled block for v.
func (r *Renderer) Format(v table.View) string {
	var b strings.Builder

	title := fmt.Sprintf("#%s  %s", v.ChannelID, v.Phase)
	if v.Outcome != table.Running {
		title = fmt.Sprintf("#%s  %s", v.ChannelID, v.Outcome)
	}
	b.WriteString(r.st.Header.Render(title))
	b.WriteString("\n")

	if v.Phase == holdem.Waiting && v.Outcome == table.Running {
		line := fmt.Sprintf("lobby: buy-in %d, %d seated", v.BuyIn, len(v.Seats))
		if v.Remaining > 0 {
			line += fmt.Sprintf(", starts in %s", v.Remaining.Round(time.Second))
		}
		b.WriteString(r.st.Info.Render(line))
		b.WriteString("\n")
	} else {
		fmt.Fprintf(&b, "board: %s  pot: %d", r.cards(v.Board), v.Pot)
		if v.CurrentBet > 0 {
			fmt.Fprintf(&b, "  to call: %d", v.CurrentBet)
		}
		b.WriteString("\n")
	}

	for _, s := range v.Seats {
		b.WriteString(r.seat(v, s))
		b.WriteString("\n")
	}

	for _, a := range v.Awards {
		names := make([]string, 0, len(a.Winners))
		for _, w := range a.Winners {
			names = append(names, fmt.Sprintf("%s +%d", w.UserID, w.Amount))
		}
		label := "main pot"
		if a.PotIndex > 0 {
			label = fmt.Sprintf("side pot %d", a.PotIndex)
		}
		line := fmt.Sprintf("%s %d: %s", label, a.Amount, strings.Join(names, ", "))
		if a.Rank != 0 {
			line += " with " + a.Rank.String()
		}
		b.WriteString(r.st.Winner.Render(line))
		b.WriteString("\n")
	}
	if v.Rake > 0 {
		b.WriteString(r.st.Info.Render(fmt.Sprintf("rake: %d", v.Rake)))
		b.WriteString("\n")
	}
	if v.Reason != "" {
		b.WriteString(r.st.Info.Render(v.Reason))
		b.WriteString("\n")
	}
	if len(v.Actions) > 0 {
		acts := make([]string, 0, len(v.Actions))
		for _, a := range v.Actions {
			acts = append(acts, a.String())
		}
		b.WriteString(r.st.Acting.Render("to act: " + strings.Join(acts, " | ")))
		b.WriteString("\n")
	}

	return r.st.Block.Render(strings.TrimSuffix(b.String(), "\n"))
}

func (r *Renderer) seat(v table.View, s table.SeatView) string {
	marker := "  "
	switch {
	case s.Acting && v.Outcome == table.Running && v.Phase != holdem.Waiting:
		marker = "> "
	case s.Dealer:
		marker = "D "
	}

	line := fmt.Sprintf("%s%-12s %6d", marker, s.Name, s.Stack)
	if s.CurrentBet > 0 {
		line += fmt.Sprintf("  bet %d", s.CurrentBet)
	}
	if len(s.Hole) > 0 {
		line += "  " + r.cards(s.Hole)
	}
	if s.HandName != "" {
		line += "  " + s.HandName
	}
	if s.AllIn {
		line += "  all-in"
	}
	if s.Winnings > 0 {
		line += fmt.Sprintf("  +%d", s.Winnings)
	}

	switch {
	case s.Folded:
		return r.st.Folded.Render(line + "  folded")
	case s.Winnings > 0:
		return r.st.Winner.Render(line)
	case marker == "> ":
		return r.st.Acting.Render(line)
	}
	return line
}

func (r *Renderer) cards(cards []poker.Card) string {
	if len(cards) == 0 {
		return r.st.Info.Render("-")
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		style := r.st.BlackCard
		if c.Suit() == poker.Hearts || c.Suit() == poker.Diamonds {
			style = r.st.RedCard
		}
		parts[i] = style.Render(c.String())
	}
	return strings.Join(parts, " ")
}
