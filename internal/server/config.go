package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/chanpoker/internal/holdem"
	"github.com/lox/chanpoker/internal/table"
)

// Config represents the complete server configuration
type Config struct {
	Server *ServerSettings `hcl:"server,block"`
	Table  *TableSettings  `hcl:"table,block"`
	Ledger *LedgerSettings `hcl:"ledger,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address    string `hcl:"address,optional"`
	Port       int    `hcl:"port,optional"`
	LogLevel   string `hcl:"log_level,optional"`
	Seed       int64  `hcl:"seed,optional"`        // 0 seeds from the clock
	HistoryDir string `hcl:"history_dir,optional"` // empty disables hand histories
	AuthURL    string `hcl:"auth_url,optional"`    // token callback; empty trusts clients
	AuthSecret string `hcl:"auth_secret,optional"`
}

// TableSettings are the rules every channel's game is played with
type TableSettings struct {
	SmallBlind       int `hcl:"small_blind,optional"`
	BigBlind         int `hcl:"big_blind,optional"`
	MinPlayers       int `hcl:"min_players,optional"`
	MaxPlayers       int `hcl:"max_players,optional"`
	MinBuyIn         int `hcl:"min_buy_in,optional"`
	MaxBuyIn         int `hcl:"max_buy_in,optional"`
	LobbySeconds     int `hcl:"lobby_seconds,optional"`
	LobbyTickSeconds int `hcl:"lobby_tick_seconds,optional"`
	TurnSeconds      int `hcl:"turn_seconds,optional"`
	RakePercent      int `hcl:"rake_percent,optional"`
	RakeCap          int `hcl:"rake_cap,optional"`
}

// LedgerSettings selects where chip balances live
type LedgerSettings struct {
	Driver          string `hcl:"driver,optional"` // memory or postgres
	DSN             string `hcl:"dsn,optional"`
	StartingBalance int    `hcl:"starting_balance,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads server configuration from an HCL file. A missing file yields the
// defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	if c.Table == nil {
		c.Table = &TableSettings{}
	}
	t := c.Table
	def := table.DefaultConfig()
	if t.SmallBlind == 0 {
		t.SmallBlind = def.SmallBlind
	}
	if t.BigBlind == 0 {
		t.BigBlind = t.SmallBlind * 2
	}
	if t.MinPlayers == 0 {
		t.MinPlayers = def.MinPlayers
	}
	if t.MaxPlayers == 0 {
		t.MaxPlayers = def.MaxPlayers
	}
	if t.MinBuyIn == 0 {
		t.MinBuyIn = t.BigBlind * 10 // 10 big blinds minimum
	}
	if t.MaxBuyIn == 0 {
		t.MaxBuyIn = t.BigBlind * 10000
	}
	if t.LobbySeconds == 0 {
		t.LobbySeconds = int(def.LobbyDuration / time.Second)
	}
	if t.LobbyTickSeconds == 0 {
		t.LobbyTickSeconds = int(def.LobbyTick / time.Second)
	}
	if t.TurnSeconds == 0 {
		t.TurnSeconds = int(def.TurnDuration / time.Second)
	}

	if c.Ledger == nil {
		c.Ledger = &LedgerSettings{}
	}
	if c.Ledger.Driver == "" {
		c.Ledger.Driver = "memory"
	}
	if c.Ledger.StartingBalance == 0 {
		c.Ledger.StartingBalance = 1000
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if err := c.TableConfig().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	switch c.Ledger.Driver {
	case "memory":
	case "postgres":
		if c.Ledger.DSN == "" {
			return fmt.Errorf("ledger: postgres driver requires dsn")
		}
	default:
		return fmt.Errorf("ledger: unknown driver %q", c.Ledger.Driver)
	}
	if c.Ledger.StartingBalance < 0 {
		return fmt.Errorf("ledger: starting balance must not be negative")
	}
	return nil
}

// Address returns the full server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TableConfig converts the table block into orchestrator rules.
func (c *Config) TableConfig() table.Config {
	t := c.Table
	return table.Config{
		SmallBlind:    t.SmallBlind,
		BigBlind:      t.BigBlind,
		MinPlayers:    t.MinPlayers,
		MaxPlayers:    t.MaxPlayers,
		MinBuyIn:      t.MinBuyIn,
		MaxBuyIn:      t.MaxBuyIn,
		LobbyDuration: time.Duration(t.LobbySeconds) * time.Second,
		LobbyTick:     time.Duration(t.LobbyTickSeconds) * time.Second,
		TurnDuration:  time.Duration(t.TurnSeconds) * time.Second,
		Rake:          holdem.RakeRule{Percent: t.RakePercent, Cap: t.RakeCap},
	}
}
