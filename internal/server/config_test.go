package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chanpoker.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Address())
	assert.Equal(t, "memory", cfg.Ledger.Driver)
	assert.Equal(t, 1000, cfg.Ledger.StartingBalance)
	require.NoError(t, cfg.Validate())

	tc := cfg.TableConfig()
	assert.Equal(t, 5, tc.SmallBlind)
	assert.Equal(t, 10, tc.BigBlind)
	assert.Equal(t, 100, tc.MinBuyIn)
	assert.Equal(t, 30*time.Second, tc.LobbyDuration)
}

func TestLoadConfigBlocks(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
server {
  address   = "0.0.0.0"
  port      = 9000
  log_level = "debug"
  seed      = 42
  history_dir = "/var/lib/chanpoker/hands"
}

table {
  small_blind   = 25
  max_players   = 6
  turn_seconds  = 20
  rake_percent  = 5
  rake_cap      = 30
}

ledger {
  driver = "postgres"
  dsn    = "postgres://localhost/chanpoker?sslmode=disable"
}
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:9000", cfg.Address())
	assert.Equal(t, int64(42), cfg.Server.Seed)
	assert.Equal(t, "/var/lib/chanpoker/hands", cfg.Server.HistoryDir)

	tc := cfg.TableConfig()
	assert.Equal(t, 25, tc.SmallBlind)
	assert.Equal(t, 50, tc.BigBlind, "big blind defaults to twice the small blind")
	assert.Equal(t, 500, tc.MinBuyIn)
	assert.Equal(t, 6, tc.MaxPlayers)
	assert.Equal(t, 20*time.Second, tc.TurnDuration)
	assert.Equal(t, 5, tc.Rake.Percent)
	assert.Equal(t, 30, tc.Rake.Cap)
	assert.Equal(t, "postgres", cfg.Ledger.Driver)
}

func TestLoadConfigRejectsBadHCL(t *testing.T) {
	t.Parallel()
	_, err := LoadConfig(writeConfig(t, `server { port = `))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, `server { colour = "red" }`))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"blinds", func(c *Config) { c.Table.BigBlind = c.Table.SmallBlind - 1 }},
		{"players", func(c *Config) { c.Table.MinPlayers = 1 }},
		{"buy-in range", func(c *Config) { c.Table.MaxBuyIn = c.Table.MinBuyIn - 1 }},
		{"driver", func(c *Config) { c.Ledger.Driver = "redis" }},
		{"postgres dsn", func(c *Config) { c.Ledger.Driver = "postgres" }},
		{"balance", func(c *Config) { c.Ledger.StartingBalance = -1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
