package game

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	"github.com/zappabad/daytrader/internal/pricing"
	"github.com/zappabad/daytrader/internal/session"
)

func doubling() history.Series {
	return history.Series{
		{Date: "2024/01/04", Close: 100},
		{Date: "2024/01/05", Close: 200},
	}
}

func manualConfig() Config {
	cfg := DefaultConfig()
	cfg.Manual = true
	cfg.Strategy = pricing.FlatReplayName
	cfg.Seed = 1
	return cfg
}

func newController(t *testing.T, cfg Config, store *history.Store) (*Controller, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	c, err := NewController(cfg, store, logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, hook
}

func fullStore() *history.Store {
	return history.NewStore(doubling(), doubling(), doubling(), doubling())
}

func tickN(t *testing.T, c *Controller, n int) Snapshot {
	t.Helper()
	var snap Snapshot
	var err error
	for i := 0; i < n; i++ {
		snap, err = c.Tick(context.Background())
		require.NoError(t, err)
	}
	return snap
}

func companyA(t *testing.T, snap Snapshot) market.InstrumentState {
	t.Helper()
	st, ok := snap.Instrument(1)
	require.True(t, ok)
	return st
}

func TestNewControllerRejectsBadConfig(t *testing.T) {
	cfg := manualConfig()
	cfg.Strategy = "momentum"
	_, err := NewController(cfg, fullStore(), nil)
	assert.ErrorIs(t, err, pricing.ErrUnknownStrategy)

	cfg = manualConfig()
	cfg.Instruments = append(cfg.Instruments, cfg.Instruments[0])
	_, err = NewController(cfg, fullStore(), nil)
	assert.Error(t, err)
}

func TestInitialSnapshot(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())

	snap := c.Snapshot()
	assert.False(t, snap.Started)
	assert.Equal(t, 1, snap.Session.Day)
	assert.Equal(t, session.OpenTime, snap.Session.Time)
	assert.Equal(t, market.Price(100000), snap.Portfolio.Cash)
	assert.Equal(t, market.Price(100000), snap.TotalAssets())
	require.Len(t, snap.Instruments, 4)
	assert.Equal(t, market.Price(2000), snap.Instruments[3].CurrentPrice)
	assert.Equal(t, pricing.FlatReplayName, snap.Strategy)
}

func TestCommandsBeforeStart(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()

	_, err := c.Tick(ctx)
	assert.ErrorIs(t, err, ErrEngineMisuse)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = c.BeginTrade(ctx, 1, ledger.SideBuy)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStart(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Snapshot().Started)

	err := c.Start(ctx)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	ev := <-c.Events()
	assert.Equal(t, EventStarted, ev.Type)
}

func TestStartWithoutDataFails(t *testing.T) {
	c, _ := newController(t, manualConfig(), history.NewStore())
	assert.ErrorIs(t, c.Start(context.Background()), ErrNoData)
	assert.False(t, c.Snapshot().Started)
}

func TestTickFollowsSeries(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	require.NoError(t, c.Start(context.Background()))

	snap := tickN(t, c, 1)
	a := companyA(t, snap)
	assert.Equal(t, market.Price(1000), a.CurrentPrice)
	assert.Equal(t, session.OpenTime+session.TickStep, snap.Session.Time)

	snap = tickN(t, c, 1)
	a = companyA(t, snap)
	assert.Equal(t, market.Price(1038), a.CurrentPrice)
	assert.Equal(t, market.Price(1000), a.PreviousPrice)
	assert.Equal(t, market.DirectionUp, a.Direction())

	path := c.Paths().ByInstrument[1]
	require.Len(t, path, 2)
	assert.Equal(t, session.OpenTime, path[0].Time)
	assert.Equal(t, market.Price(1038), path[1].Price)
}

func TestFullDayReachesAfterHours(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	snap := tickN(t, c, session.TicksPerDay)
	assert.True(t, snap.Session.AfterHours)
	assert.True(t, snap.Session.Paused)
	assert.Equal(t, session.CloseTime, snap.Session.Time)
	assert.Equal(t, market.Price(1962), companyA(t, snap).CurrentPrice)

	_, err := c.Tick(ctx)
	assert.ErrorIs(t, err, ErrEngineMisuse)
	assert.ErrorIs(t, err, session.ErrAfterHours)

	_, err = c.BeginTrade(ctx, 1, ledger.SideBuy)
	assert.ErrorIs(t, err, ErrEngineMisuse)
	_, err = c.SubmitTrade(ctx, 1, ledger.SideBuy, "1")
	assert.ErrorIs(t, err, session.ErrAfterHours)

	var closing *Event
	for ev := range drain(c) {
		if ev.Type == EventAfterHours {
			e := ev
			closing = &e
		}
	}
	require.NotNil(t, closing)
	require.Len(t, closing.Summary, 4)
	assert.Equal(t, market.Price(1000), closing.Summary[0].Open)
	assert.Equal(t, market.Price(1962), closing.Summary[0].Close)
	assert.Equal(t, session.TicksPerDay, closing.Summary[0].Ticks)
}

func TestRolloverAnchorsNextDay(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	_, err := c.Rollover(ctx)
	assert.ErrorIs(t, err, session.ErrNotAfterHours)

	tickN(t, c, session.TicksPerDay)
	snap, err := c.Rollover(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.Session.Day)
	assert.Equal(t, session.OpenTime, snap.Session.Time)
	assert.False(t, snap.Session.AfterHours)
	assert.False(t, snap.Session.Paused)
	a := companyA(t, snap)
	assert.Equal(t, market.Price(1962), a.DayStartPrice)
	assert.Empty(t, c.Paths().ByInstrument[1])
	assert.Equal(t, 2, c.Paths().Day)

	_, err = c.Rollover(ctx)
	assert.ErrorIs(t, err, ErrEngineMisuse)

	// day 2 reuses the only pair of closes
	snap = tickN(t, c, 2)
	assert.Equal(t, market.Price(2037), companyA(t, snap).CurrentPrice)
}

func TestUnusableInstrumentStaysFrozen(t *testing.T) {
	store := history.NewStore(doubling(), history.Series{{Date: "2024/01/04", Close: 100}})
	c, hook := newController(t, manualConfig(), store)
	require.NoError(t, c.Start(context.Background()))

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == log.WarnLevel && e.Data["instrument"] == "Company B" {
			warned = true
		}
	}
	assert.True(t, warned)

	snap := tickN(t, c, 3)
	b, ok := snap.Instrument(2)
	require.True(t, ok)
	assert.Equal(t, market.Price(1500), b.CurrentPrice)
	assert.Equal(t, market.Price(1500), b.PreviousPrice)
	assert.Len(t, c.Paths().ByInstrument[2], 3)

	d, _ := snap.Instrument(4)
	assert.Equal(t, market.Price(2000), d.CurrentPrice)
	assert.NotEqual(t, market.Price(1000), companyA(t, snap).CurrentPrice)
}

func TestBuyTrade(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	tickN(t, c, 2)

	quote, err := c.BeginTrade(ctx, 1, ledger.SideBuy)
	require.NoError(t, err)
	assert.Equal(t, market.Price(1038), quote.Instrument.CurrentPrice)
	assert.Equal(t, market.Quantity(96), quote.MaxBuyable)
	assert.Equal(t, market.Quantity(0), quote.MaxSellable)
	assert.Equal(t, market.Price(10380), quote.Estimate(10))

	snap := c.Snapshot()
	assert.True(t, snap.Session.Paused)
	assert.Equal(t, session.PauseTrade, snap.Session.PauseReason)
	require.NotNil(t, snap.Dialog)
	assert.Equal(t, ledger.SideBuy, snap.Dialog.Side)

	_, err = c.Tick(ctx)
	assert.ErrorIs(t, err, session.ErrPaused)

	rec, err := c.SubmitTrade(ctx, 1, ledger.SideBuy, "10")
	require.NoError(t, err)
	assert.Equal(t, market.Price(10380), rec.Fill.Amount)
	assert.Equal(t, market.Price(89620), rec.Fill.CashAfter)
	assert.Equal(t, 1, rec.Day)
	assert.Equal(t, session.OpenTime+2*session.TickStep, rec.Time)

	snap = c.Snapshot()
	assert.Nil(t, snap.Dialog)
	assert.False(t, snap.Session.Paused)
	assert.Equal(t, market.Price(89620), snap.Portfolio.Cash)
	assert.Equal(t, market.Quantity(10), companyA(t, snap).SharesHeld)
	assert.Equal(t, market.Price(100000), snap.TotalAssets())
	assert.Equal(t, 1, snap.Fills)

	fills, err := c.Fills(ctx, 5)
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, rec.ID, fills[0].ID)

	_, err = c.Tick(ctx)
	assert.NoError(t, err)
}

func TestRejectedTradeKeepsDialog(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	tickN(t, c, 1)

	_, err := c.BeginTrade(ctx, 1, ledger.SideSell)
	require.NoError(t, err)

	_, err = c.SubmitTrade(ctx, 1, ledger.SideSell, "5")
	assert.ErrorIs(t, err, ledger.ErrInsufficientShares)
	var te *ledger.TradeError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ledger.CodeInsufficientShares, te.Code)

	_, err = c.SubmitTrade(ctx, 1, ledger.SideSell, "abc")
	assert.ErrorIs(t, err, ledger.ErrInvalidQuantity)

	snap := c.Snapshot()
	assert.NotNil(t, snap.Dialog)
	assert.True(t, snap.Session.Paused)
	assert.Equal(t, market.Price(100000), snap.Portfolio.Cash)

	require.NoError(t, c.CancelTrade(ctx))
	snap = c.Snapshot()
	assert.Nil(t, snap.Dialog)
	assert.False(t, snap.Session.Paused)

	assert.ErrorIs(t, c.CancelTrade(ctx), ErrNoTradeOpen)
}

func TestInsufficientCash(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	tickN(t, c, 1)

	_, err := c.SubmitTrade(ctx, 4, ledger.SideBuy, "51")
	assert.ErrorIs(t, err, ledger.ErrInsufficientCash)

	rec, err := c.SubmitTrade(ctx, 4, ledger.SideBuy, "50")
	require.NoError(t, err)
	assert.Equal(t, market.Price(0), rec.Fill.CashAfter)
}

func TestSellTrade(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	tickN(t, c, 1)

	_, err := c.SubmitTrade(ctx, 1, ledger.SideBuy, "20")
	require.NoError(t, err)
	tickN(t, c, 1)

	quote, err := c.BeginTrade(ctx, 1, ledger.SideSell)
	require.NoError(t, err)
	assert.Equal(t, market.Quantity(20), quote.MaxSellable)

	rec, err := c.SubmitTrade(ctx, 1, ledger.SideSell, "20")
	require.NoError(t, err)
	assert.Equal(t, market.Price(1038*20), rec.Fill.Amount)
	assert.Equal(t, market.Price(100000-20000+20760), rec.Fill.CashAfter)
	assert.Equal(t, market.Quantity(0), rec.Fill.SharesAfter)
}

func TestUnknownInstrument(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	_, err := c.BeginTrade(ctx, 99, ledger.SideBuy)
	assert.ErrorIs(t, err, ErrUnknownInstrument)
	_, err = c.SubmitTrade(ctx, 99, ledger.SideBuy, "1")
	assert.ErrorIs(t, err, ErrUnknownInstrument)
	assert.False(t, c.Snapshot().Session.Paused)
}

func TestTimersDriveTheGame(t *testing.T) {
	cfg := manualConfig()
	cfg.Manual = false
	cfg.TickInterval = time.Millisecond
	cfg.AfterHoursDelay = 5 * time.Millisecond
	c, _ := newController(t, cfg, fullStore())
	require.NoError(t, c.Start(context.Background()))

	require.Eventually(t, func() bool {
		return c.Snapshot().Session.Day >= 2
	}, 5*time.Second, 5*time.Millisecond)

	assert.Greater(t, c.Snapshot().Instruments[0].DayStartPrice, market.Price(1000))
}

func TestTradePauseStopsTimer(t *testing.T) {
	cfg := manualConfig()
	cfg.Manual = false
	cfg.TickInterval = 5 * time.Millisecond
	c, _ := newController(t, cfg, fullStore())
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))

	_, err := c.BeginTrade(ctx, 1, ledger.SideBuy)
	require.NoError(t, err)
	paused := c.Snapshot().Session

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, paused, c.Snapshot().Session)

	require.NoError(t, c.CancelTrade(ctx))
	require.Eventually(t, func() bool {
		return c.Snapshot().Session.Time > paused.Time
	}, 5*time.Second, time.Millisecond)
}

func TestClose(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	c, err := NewController(manualConfig(), fullStore(), logger)
	require.NoError(t, err)

	c.Close()
	c.Close()

	assert.ErrorIs(t, c.Start(context.Background()), ErrClosed)
	_, ok := <-c.Events()
	assert.False(t, ok)
}

func TestCanceledContext(t *testing.T) {
	c, _ := newController(t, manualConfig(), fullStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Tick(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

// drain returns the buffered events without blocking.
func drain(c *Controller) <-chan Event {
	out := make(chan Event, 1024)
	defer close(out)
	for {
		select {
		case ev := <-c.Events():
			out <- ev
		default:
			return out
		}
	}
}
