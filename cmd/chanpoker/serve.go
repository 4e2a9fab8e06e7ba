package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/lox/chanpoker/internal/auth"
	"github.com/lox/chanpoker/internal/ledger"
	"github.com/lox/chanpoker/internal/phh"
	"github.com/lox/chanpoker/internal/randutil"
	"github.com/lox/chanpoker/internal/server"
	"github.com/lox/chanpoker/internal/table"
	"golang.org/x/sync/errgroup"
)

// ServeCmd runs the gateway until interrupted.
type ServeCmd struct {
	Config string `short:"c" default:"chanpoker.hcl" help:"Path to HCL configuration file"`
	Addr   string `short:"a" help:"Host to bind to (overrides config)"`
	Port   int    `short:"p" help:"Port to bind to (overrides config)"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if cli.LogLevel != "" {
		cfg.Server.LogLevel = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank, closeLedger, err := openLedger(ctx, cfg.Ledger, logger)
	if err != nil {
		return err
	}
	defer closeLedger()

	rng := randutil.FromTime()
	if cfg.Server.Seed != 0 {
		logger.Info("Using deterministic seed", "seed", cfg.Server.Seed)
		rng = randutil.New(cfg.Server.Seed)
	}

	srv := server.NewServer(cfg.Address(), logger)
	opts := []table.Option{
		table.WithLogger(logger),
		table.WithRenderer(srv),
		table.WithRand(rng),
	}
	if cfg.Server.HistoryDir != "" {
		logger.Info("Writing hand histories", "dir", cfg.Server.HistoryDir)
		opts = append(opts, table.WithHistory(phh.NewWriter(cfg.Server.HistoryDir)))
	}
	orch := table.NewOrchestrator(cfg.TableConfig(), bank, opts...)
	srv.SetOrchestrator(orch)
	if cfg.Server.AuthURL != "" {
		logger.Info("Checking subscriber tokens", "url", cfg.Server.AuthURL)
		srv.SetValidator(auth.NewHTTPValidator(cfg.Server.AuthURL, cfg.Server.AuthSecret))
	}

	tc := cfg.TableConfig()
	logger.Info("Starting chanpoker",
		"addr", cfg.Address(),
		"blinds", fmt.Sprintf("%d/%d", tc.SmallBlind, tc.BigBlind),
		"players", fmt.Sprintf("%d-%d", tc.MinPlayers, tc.MaxPlayers),
		"ledger", cfg.Ledger.Driver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(gctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down, refunding open games")
		orch.Shutdown(context.Background())
		return nil
	})

	return g.Wait()
}

func openLedger(ctx context.Context, cfg *server.LedgerSettings, logger *log.Logger) (table.Ledger, func(), error) {
	switch cfg.Driver {
	case "postgres":
		pg, err := ledger.Open(ctx, cfg.DSN, cfg.StartingBalance)
		if err != nil {
			return nil, nil, fmt.Errorf("open ledger: %w", err)
		}
		logger.Info("Using postgres ledger")
		return pg, func() { _ = pg.Close() }, nil
	default:
		logger.Info("Using in-memory ledger", "startingBalance", cfg.StartingBalance)
		return ledger.NewMemory(cfg.StartingBalance), func() {}, nil
	}
}
