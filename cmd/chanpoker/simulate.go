package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/chanpoker/internal/console"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/ledger"
	"github.com/lox/chanpoker/internal/phh"
	"github.com/lox/chanpoker/internal/randutil"
	"github.com/lox/chanpoker/internal/server"
	"github.com/lox/chanpoker/internal/statistics"
	"github.com/lox/chanpoker/internal/table"
	"github.com/muesli/termenv"
)

const simChannel = "simulation"

// maxActionsPerHand bounds a hand against a table that never settles.
const maxActionsPerHand = 1000

var errChipsNotConserved = errors.New("chips not conserved")

// SimulateCmd plays hands between random bots in one channel.
type SimulateCmd struct {
	Config  string `short:"c" default:"chanpoker.hcl" help:"Path to HCL configuration file for table rules"`
	Hands   int    `short:"n" default:"100" help:"Number of hands to play"`
	Players int    `short:"p" default:"4" help:"Number of bots"`
	BuyIn   int    `short:"b" help:"Buy-in per hand (0 uses the table minimum)"`
	Seed    int64  `short:"s" default:"1" help:"RNG seed"`
	Quiet   bool   `short:"q" help:"Only print the summary"`
	Plain   bool   `help:"Disable colours"`
	History string `help:"Directory to write PHH hand histories to"`
}

type simOptions struct {
	Table   table.Config
	Hands   int
	Players int
	BuyIn   int
	Balance int
	Seed    int64
	History table.HistorySink
}

type simReport struct {
	Hands     int
	Finished  int
	Cancelled int
	Aborted   int
	Rake      int
	Total     int
	Expected  int
	BigBlind  int
	Players   *statistics.Table
}

func (c *SimulateCmd) Run(cli *CLI) error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level := "warn"
	if cli.LogLevel != "" {
		level = cli.LogLevel
	}
	logger := newLogger(level)

	var renderer table.Renderer
	if !c.Quiet {
		var opts []console.Option
		opts = append(opts, console.WithFinalOnly())
		if c.Plain {
			opts = append(opts, console.WithProfile(termenv.Ascii))
		}
		renderer = console.New(os.Stdout, opts...)
	}

	opts := simOptions{
		Table:   cfg.TableConfig(),
		Hands:   c.Hands,
		Players: c.Players,
		BuyIn:   c.BuyIn,
		Balance: cfg.Ledger.StartingBalance,
		Seed:    c.Seed,
	}
	if c.History != "" {
		opts.History = phh.NewWriter(c.History)
	}
	report, err := simulate(context.Background(), opts, renderer, logger)
	printReport(os.Stdout, report)
	return err
}

// simulate plays opts.Hands hands, or until fewer than the minimum number of bots can
// afford the buy-in, and checks that the ledger plus rake equals what it started with.
func simulate(ctx context.Context, opts simOptions, renderer table.Renderer, logger *log.Logger) (simReport, error) {
	if opts.Players < opts.Table.MinPlayers || opts.Players > opts.Table.MaxPlayers {
		return simReport{}, fmt.Errorf("players must be between %d and %d", opts.Table.MinPlayers, opts.Table.MaxPlayers)
	}
	if opts.BuyIn == 0 {
		opts.BuyIn = opts.Table.MinBuyIn
	}

	rng := randutil.New(opts.Seed)
	bank := ledger.NewMemory(opts.Balance)
	tableOpts := []table.Option{
		table.WithLogger(logger),
		table.WithRand(randutil.Child(rng)),
	}
	if renderer != nil {
		tableOpts = append(tableOpts, table.WithRenderer(renderer))
	}
	if opts.History != nil {
		tableOpts = append(tableOpts, table.WithHistory(opts.History))
	}
	orch := table.NewOrchestrator(opts.Table, bank, tableOpts...)
	defer orch.Shutdown(ctx)

	bots := make([]table.User, opts.Players)
	for i := range bots {
		id := fmt.Sprintf("bot%d", i+1)
		bots[i] = table.User{ID: id, Name: id}
	}

	report := simReport{
		Expected: opts.Balance * len(bots),
		BigBlind: opts.Table.BigBlind,
		Players:  statistics.NewTable(),
	}
	for hand := 0; hand < opts.Hands; hand++ {
		s, err := seatBots(ctx, orch, bots, hand, opts.BuyIn)
		if err != nil {
			if errors.Is(err, table.ErrNotEnoughPlayers) {
				logger.Info("Stopping early", "hand", hand, "reason", err)
				break
			}
			return report, err
		}

		if err := playHand(ctx, orch, s, rng); err != nil {
			return report, err
		}

		v := s.Snapshot()
		report.Hands++
		report.Rake += v.Rake
		switch v.Outcome {
		case table.Finished:
			report.Finished++
			recordResults(report.Players, v, opts.Table.BigBlind)
		case table.Cancelled:
			report.Cancelled++
		case table.Aborted:
			report.Aborted++
			logger.Error("Hand aborted", "hand", v.HandID, "reason", v.Reason)
		}
	}

	report.Total = bank.Total()
	if report.Total+report.Rake != report.Expected {
		return report, fmt.Errorf("%w: ledger %d + rake %d != %d", errChipsNotConserved, report.Total, report.Rake, report.Expected)
	}
	return report, nil
}

// seatBots opens a lobby hosted by the first bot that can pay, seats everyone else who
// can, and force-starts it. The host rotates from hand to hand.
func seatBots(ctx context.Context, orch *table.Orchestrator, bots []table.User, hand, buyIn int) (*table.Session, error) {
	order := make([]table.User, 0, len(bots))
	for i := range bots {
		order = append(order, bots[(hand+i)%len(bots)])
	}

	var s *table.Session
	for len(order) > 0 && s == nil {
		host := order[0]
		order = order[1:]
		var err error
		s, err = orch.StartLobby(ctx, simChannel, host, buyIn)
		switch {
		case errors.Is(err, table.ErrInsufficientFunds):
			continue
		case err != nil:
			return nil, fmt.Errorf("start lobby: %w", err)
		}
	}
	if s == nil {
		return nil, fmt.Errorf("%w: nobody can afford %d", table.ErrNotEnoughPlayers, buyIn)
	}

	for _, bot := range order {
		err := orch.Join(ctx, s, bot, buyIn)
		switch {
		case err == nil, errors.Is(err, table.ErrInsufficientFunds), errors.Is(err, table.ErrSeatsFull):
		default:
			return nil, fmt.Errorf("join %s: %w", bot.ID, err)
		}
	}

	if err := orch.ForceStart(ctx, s, s.HostID()); err != nil {
		if errors.Is(err, table.ErrNotEnoughPlayers) {
			_ = orch.Cancel(ctx, s, s.HostID())
		}
		return nil, err
	}
	return s, nil
}

// playHand drives the acting seat with random legal actions until the session closes.
func playHand(ctx context.Context, orch *table.Orchestrator, s *table.Session, rng *rand.Rand) error {
	for range maxActionsPerHand {
		v := s.Snapshot()
		if v.Outcome != table.Running {
			return nil
		}
		seat, ok := v.Acting()
		if !ok || len(v.Actions) == 0 {
			return fmt.Errorf("hand %s is running with nobody to act", v.HandID)
		}

		action, amount := chooseAction(rng, v, seat)
		if err := orch.ApplyAction(ctx, s, seat.UserID, action, amount); err != nil {
			return fmt.Errorf("%s %s %d: %w", seat.UserID, action, amount, err)
		}
	}
	return fmt.Errorf("hand %s did not finish after %d actions", s.Snapshot().HandID, maxActionsPerHand)
}

var actionWeights = map[holdem.Action]int{
	holdem.Fold:  15,
	holdem.Check: 50,
	holdem.Call:  45,
	holdem.Raise: 20,
	holdem.AllIn: 4,
}

func chooseAction(rng *rand.Rand, v table.View, seat table.SeatView) (holdem.Action, int) {
	total := 0
	for _, a := range v.Actions {
		total += actionWeights[a]
	}
	pick := rng.IntN(total)
	action := v.Actions[len(v.Actions)-1]
	for _, a := range v.Actions {
		if pick < actionWeights[a] {
			action = a
			break
		}
		pick -= actionWeights[a]
	}

	if action != holdem.Raise {
		return action, 0
	}
	lo := v.CurrentBet + v.MinRaise
	hi := seat.CurrentBet + seat.Stack
	if hi <= lo {
		return action, hi
	}
	return action, lo + rng.IntN(hi-lo+1)
}

// recordResults adds each seat's net result of a finished hand, in big blinds.
func recordResults(tbl *statistics.Table, v table.View, bigBlind int) {
	for _, seat := range v.Seats {
		tbl.Add(seat.UserID, statistics.Result{
			NetBB:    float64(seat.Stack-v.BuyIn) / float64(bigBlind),
			Showdown: !v.FoldWin,
		})
	}
}

func printReport(w io.Writer, r simReport) {
	_, _ = fmt.Fprintf(w, "hands: %d (finished %d, cancelled %d, aborted %d)\n", r.Hands, r.Finished, r.Cancelled, r.Aborted)
	_, _ = fmt.Fprintf(w, "chips: ledger %d + rake %d = %d of %d\n", r.Total, r.Rake, r.Total+r.Rake, r.Expected)
	if r.Players == nil {
		return
	}
	for _, id := range r.Players.Players() {
		st := r.Players.Get(id)
		lo, hi := st.ConfidenceInterval95()
		_, _ = fmt.Fprintf(w, "%-8s %4d hands  %+8.2f bb/hand  [%+.2f, %+.2f]  showdown %+.1f bb  non-showdown %+.1f bb\n",
			id, st.Hands, st.Mean(), lo, hi, st.ShowdownBB, st.NonShowdownBB)
	}
}
