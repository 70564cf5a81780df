package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/daytrader/internal/market"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, int64(100000), cfg.Game.StartingCash)
	assert.Equal(t, 2*time.Second, cfg.Game.TickInterval)
	assert.Equal(t, 10*time.Second, cfg.Game.AfterHoursDelay)
	assert.Equal(t, "replay", cfg.Game.Strategy)
	require.Len(t, cfg.Instruments, 4)
	assert.Equal(t, "Company C", cfg.Instruments[2].Name)
	assert.Equal(t, int64(1700), cfg.Instruments[2].InitialPrice)
	assert.Equal(t, 2, cfg.Instruments[2].DataSource)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "stockgame.yaml", `
game:
  starting_cash: 50000
  tick_interval: 500ms
  after_hours_delay: 3s
  strategy: flat-replay
  stop_at_end: true
  seed: 7
data:
  files: ["a.csv", "b.csv"]
  encoding: utf-8
instruments:
  - id: 10
    name: Alpha
    data_source: 1
    initial_price: 300
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, int64(50000), cfg.Game.StartingCash)
	assert.Equal(t, 500*time.Millisecond, cfg.Game.TickInterval)
	assert.Equal(t, 3*time.Second, cfg.Game.AfterHoursDelay)
	assert.True(t, cfg.Game.StopAtEnd)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.Data.Files)
	require.Len(t, cfg.Instruments, 1)
	assert.Equal(t, "debug", cfg.Logging.Level)

	gc := cfg.GameConfig()
	assert.Equal(t, market.Price(50000), gc.StartingCash)
	assert.Equal(t, "flat-replay", gc.Strategy)
	assert.True(t, gc.StopAtEnd)
	assert.Equal(t, int64(7), gc.Seed)
	require.Len(t, gc.Instruments, 1)
	assert.Equal(t, market.InstrumentID(10), gc.Instruments[0].Instrument.ID)
	assert.Equal(t, 1, gc.Instruments[0].Instrument.DataSourceIndex)
	assert.Equal(t, market.Price(300), gc.Instruments[0].OpeningPrice)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STOCKGAME_STARTING_CASH", "2500")
	t.Setenv("STOCKGAME_TICK_INTERVAL", "1s")
	t.Setenv("STOCKGAME_STRATEGY", "random-walk")
	t.Setenv("STOCKGAME_DATA_FILES", "x.csv, y.csv,")
	t.Setenv("STOCKGAME_LOG_LEVEL", "warn")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, int64(2500), cfg.Game.StartingCash)
	assert.Equal(t, time.Second, cfg.Game.TickInterval)
	assert.Equal(t, "random-walk", cfg.Game.Strategy)
	assert.Equal(t, []string{"x.csv", "y.csv"}, cfg.Data.Files)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestEnvFile(t *testing.T) {
	// godotenv never overrides variables that are already set.
	t.Setenv("STOCKGAME_SEED", "")
	os.Unsetenv("STOCKGAME_SEED")
	t.Cleanup(func() { os.Unsetenv("STOCKGAME_SEED") })

	env := writeFile(t, ".env", "STOCKGAME_SEED=99\n")
	cfg, err := Load("", env)
	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Game.Seed)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestInvalidEnv(t *testing.T) {
	t.Setenv("STOCKGAME_TICK_INTERVAL", "soon")
	_, err := Load("", "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative cash", func(c *Config) { c.Game.StartingCash = -1 }},
		{"no instruments", func(c *Config) { c.Instruments = nil }},
		{"duplicate id", func(c *Config) { c.Instruments[1].ID = c.Instruments[0].ID }},
		{"zero price", func(c *Config) { c.Instruments[0].InitialPrice = 0 }},
		{"negative source", func(c *Config) { c.Instruments[0].DataSource = -1 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Error(t, err)

	bad := writeFile(t, "bad.yaml", "game: [1, 2")
	_, err = Load(bad, "")
	assert.Error(t, err)
}

func TestConfigureLogger(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"
	cfg.Logging.File = filepath.Join(t.TempDir(), "game.log")

	logger := log.New()
	closer, err := cfg.ConfigureLogger(logger)
	require.NoError(t, err)

	logger.WithField("day", 3).Info("new trading day")
	require.NoError(t, closer.Close())

	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	data, err := os.ReadFile(cfg.Logging.File)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"new trading day"`)
	assert.Contains(t, string(data), `"day":3`)
}
