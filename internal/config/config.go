package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/zappabad/daytrader/internal/game"
	"github.com/zappabad/daytrader/internal/history/csvsource"
	"github.com/zappabad/daytrader/internal/market"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STOCKGAME_"

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration file.
type Config struct {
	Game        GameConfig         `yaml:"game"`
	Data        DataConfig         `yaml:"data"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Logging     Logging            `yaml:"logging"`
}

// GameConfig holds session timing and player settings.
type GameConfig struct {
	StartingCash    int64         `yaml:"starting_cash"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	AfterHoursDelay time.Duration `yaml:"after_hours_delay"`
	Strategy        string        `yaml:"strategy"`
	StopAtEnd       bool          `yaml:"stop_at_end"`
	Seed            int64         `yaml:"seed"`
	EventBuffer     int           `yaml:"event_buffer"`
	JournalSize     int           `yaml:"journal_size"`
}

// DataConfig lists the historical CSV files. The position of a file is its
// data source index.
type DataConfig struct {
	Files    []string `yaml:"files"`
	Encoding string   `yaml:"encoding"`
}

// InstrumentConfig describes one tradable instrument.
type InstrumentConfig struct {
	ID           int64  `yaml:"id"`
	Name         string `yaml:"name"`
	DataSource   int    `yaml:"data_source"`
	InitialPrice int64  `yaml:"initial_price"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	def := game.DefaultConfig()

	cfg := &Config{
		Game: GameConfig{
			StartingCash:    int64(def.StartingCash),
			TickInterval:    def.TickInterval,
			AfterHoursDelay: def.AfterHoursDelay,
			Strategy:        def.Strategy,
			EventBuffer:     def.EventBuffer,
			JournalSize:     def.JournalSize,
		},
		Data: DataConfig{
			Encoding: csvsource.EncodingShiftJIS,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
	for _, ic := range def.Instruments {
		cfg.Instruments = append(cfg.Instruments, InstrumentConfig{
			ID:           int64(ic.Instrument.ID),
			Name:         ic.Instrument.Name,
			DataSource:   ic.Instrument.DataSourceIndex,
			InitialPrice: int64(ic.OpeningPrice),
		})
	}
	return cfg
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load builds the configuration. Values come from the defaults, then the
// YAML file at path (if path is not empty), then the env file (if envFile
// is not empty), then STOCKGAME_* environment variables.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s file: %w", envFile, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides checks the STOCKGAME_* variables and overrides the
// corresponding fields when they are set.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "STARTING_CASH"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSTARTING_CASH: %w", EnvPrefix, err)
		}
		cfg.Game.StartingCash = n
	}
	if v := os.Getenv(EnvPrefix + "TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sTICK_INTERVAL: %w", EnvPrefix, err)
		}
		cfg.Game.TickInterval = d
	}
	if v := os.Getenv(EnvPrefix + "AFTER_HOURS_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sAFTER_HOURS_DELAY: %w", EnvPrefix, err)
		}
		cfg.Game.AfterHoursDelay = d
	}
	if v := os.Getenv(EnvPrefix + "STRATEGY"); v != "" {
		cfg.Game.Strategy = v
	}
	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", EnvPrefix, err)
		}
		cfg.Game.Seed = n
	}

	// Comma separated, in data source order.
	if v := os.Getenv(EnvPrefix + "DATA_FILES"); v != "" {
		cfg.Data.Files = nil
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				cfg.Data.Files = append(cfg.Data.Files, f)
			}
		}
	}
	if v := os.Getenv(EnvPrefix + "DATA_ENCODING"); v != "" {
		cfg.Data.Encoding = v
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}
	return nil
}

// Validate checks values the game cannot run with.
func (c *Config) Validate() error {
	if c.Game.StartingCash < 0 {
		return fmt.Errorf("game.starting_cash must not be negative, got %d", c.Game.StartingCash)
	}
	if c.Game.TickInterval < 0 || c.Game.AfterHoursDelay < 0 {
		return fmt.Errorf("game intervals must not be negative")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[int64]bool, len(c.Instruments))
	for _, in := range c.Instruments {
		if seen[in.ID] {
			return fmt.Errorf("duplicate instrument id %d", in.ID)
		}
		seen[in.ID] = true
		if in.DataSource < 0 {
			return fmt.Errorf("instrument %d: data_source must not be negative", in.ID)
		}
		if in.InitialPrice < int64(market.MinPrice) {
			return fmt.Errorf("instrument %d: initial_price must be at least %d", in.ID, market.MinPrice)
		}
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// GameConfig converts the file configuration into a controller config.
func (c *Config) GameConfig() game.Config {
	gc := game.DefaultConfig()
	gc.StartingCash = market.Price(c.Game.StartingCash)
	gc.TickInterval = c.Game.TickInterval
	gc.AfterHoursDelay = c.Game.AfterHoursDelay
	gc.Strategy = c.Game.Strategy
	gc.StopAtEnd = c.Game.StopAtEnd
	gc.Seed = c.Game.Seed
	if c.Game.EventBuffer > 0 {
		gc.EventBuffer = c.Game.EventBuffer
	}
	if c.Game.JournalSize > 0 {
		gc.JournalSize = c.Game.JournalSize
	}

	gc.Instruments = gc.Instruments[:0:0]
	for _, in := range c.Instruments {
		gc.Instruments = append(gc.Instruments, game.InstrumentConfig{
			Instrument: market.Instrument{
				ID:              market.InstrumentID(in.ID),
				Name:            in.Name,
				DataSourceIndex: in.DataSource,
			},
			OpeningPrice: market.Price(in.InitialPrice),
		})
	}
	return gc
}

// ConfigureLogger applies level and format to logger. Output goes to the
// log file when one is set; the returned closer releases it.
func (c *Config) ConfigureLogger(logger *log.Logger) (io.Closer, error) {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if c.Logging.File == "" {
		return io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(c.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return f, nil
}
