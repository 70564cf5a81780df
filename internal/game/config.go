package game

import (
	"time"

	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/pricing"
)

// InstrumentConfig describes an instrument and its opening price on day 1.
type InstrumentConfig struct {
	Instrument   market.Instrument
	OpeningPrice market.Price
}

// Config holds configuration for the game controller.
type Config struct {
	// Instruments is the list of instruments to trade.
	Instruments []InstrumentConfig
	// StartingCash is the player's cash at game start.
	StartingCash market.Price
	// TickInterval is the real time between clock advances.
	TickInterval time.Duration
	// AfterHoursDelay is the real time spent after hours before the next day starts.
	AfterHoursDelay time.Duration
	// Manual disables both timers; callers drive the game with Tick and Rollover.
	Manual bool
	// Strategy names the pricing strategy.
	Strategy string
	// StopAtEnd freezes replayed prices once the series is used up
	// instead of cycling back to its start.
	StopAtEnd bool
	// Seed seeds the pricing random source. Zero seeds from the clock.
	Seed int64
	// CommandBuffer is the size of the inbound command channel.
	CommandBuffer int
	// EventBuffer is the size of the events channel.
	EventBuffer int
	// DropEvents determines whether the events channel drops on overflow.
	DropEvents bool
	// JournalSize is the number of fills kept in the trade journal.
	JournalSize int
}

// DefaultInstruments is the stock line-up: four companies, each driven by
// its own data source.
func DefaultInstruments() []InstrumentConfig {
	return []InstrumentConfig{
		{Instrument: market.Instrument{ID: 1, Name: "Company A", DataSourceIndex: 0}, OpeningPrice: 1000},
		{Instrument: market.Instrument{ID: 2, Name: "Company B", DataSourceIndex: 1}, OpeningPrice: 1500},
		{Instrument: market.Instrument{ID: 3, Name: "Company C", DataSourceIndex: 2}, OpeningPrice: 1700},
		{Instrument: market.Instrument{ID: 4, Name: "Company D", DataSourceIndex: 3}, OpeningPrice: 2000},
	}
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Instruments:     DefaultInstruments(),
		StartingCash:    100000,
		TickInterval:    2 * time.Second,
		AfterHoursDelay: 10 * time.Second,
		Strategy:        pricing.ReplayName,
		CommandBuffer:   64,
		EventBuffer:     256,
		DropEvents:      true,
		JournalSize:     200,
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if len(cfg.Instruments) == 0 {
		cfg.Instruments = def.Instruments
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.AfterHoursDelay <= 0 {
		cfg.AfterHoursDelay = def.AfterHoursDelay
	}
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = def.CommandBuffer
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}
	if cfg.JournalSize <= 0 {
		cfg.JournalSize = def.JournalSize
	}
	return cfg
}
