package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `short:"l" help:"Log level (debug, info, warn, error); overrides config"`
	Serve    ServeCmd         `cmd:"" help:"Run the websocket chat gateway"`
	Simulate SimulateCmd      `cmd:"" help:"Play seeded hands between random bots and check chip conservation"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chanpoker"),
		kong.Description("Texas Hold'em games run inside chat channels"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

// newLogger creates the process logger at the named level.
func newLogger(level string) *log.Logger {
	logger := log.New(os.Stderr)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
