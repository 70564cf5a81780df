package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zappabad/daytrader/internal/analytics"
	"github.com/zappabad/daytrader/internal/history"
	"github.com/zappabad/daytrader/internal/ledger"
	"github.com/zappabad/daytrader/internal/market"
	marketview "github.com/zappabad/daytrader/internal/market/view"
	"github.com/zappabad/daytrader/internal/pricing"
	"github.com/zappabad/daytrader/internal/session"
)

// command types
type cmdType int

const (
	cmdStart cmdType = iota
	cmdTick
	cmdRollover
	cmdBeginTrade
	cmdSubmitTrade
	cmdCancelTrade
	cmdFills
	cmdSummary
)

type command struct {
	typ    cmdType
	id     market.InstrumentID
	side   ledger.Side
	qty    string
	n      int
	respCh chan<- response
}

type response struct {
	snap    Snapshot
	quote   Quote
	record  ledger.Record
	fills   []ledger.Record
	summary []analytics.DaySummary
	err     error
}

// Controller owns the whole game state. A single goroutine applies ticks,
// timer firings and player commands one at a time, so a trade always sees
// a consistent price and no two ticks overlap.
type Controller struct {
	cfg   Config
	log   *log.Entry
	synth *pricing.Synthesizer

	// owned by the run goroutine
	clock     *session.Clock
	portfolio ledger.Portfolio
	states    []market.InstrumentState
	index     map[market.InstrumentID]int
	journal   *ledger.Journal
	started   bool
	dialog    *TradeDialog

	view *marketview.MarketView
	snap atomic.Pointer[Snapshot]

	cmdCh         chan command
	events        chan Event
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewController creates a Controller and starts its goroutine. The game
// does not tick until Start is called.
func NewController(cfg Config, store *history.Store, logger log.FieldLogger) (*Controller, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.StandardLogger()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	strategy, err := pricing.New(cfg.Strategy, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	if r, ok := strategy.(*pricing.Replay); ok {
		r.StopAtEnd = cfg.StopAtEnd
	}

	c := &Controller{
		cfg:       cfg,
		log:       logger.WithField("component", "game"),
		synth:     pricing.NewSynthesizer(store, strategy),
		clock:     session.NewClock(),
		portfolio: ledger.Portfolio{Cash: cfg.StartingCash},
		index:     make(map[market.InstrumentID]int, len(cfg.Instruments)),
		journal:   ledger.NewJournal(cfg.JournalSize),
		view:      marketview.NewMarketView(),
		cmdCh:     make(chan command, cfg.CommandBuffer),
		events:    make(chan Event, cfg.EventBuffer),
		closed:    make(chan struct{}),
	}
	if c.portfolio.Cash < 0 {
		return nil, fmt.Errorf("starting cash must not be negative: %d", cfg.StartingCash)
	}

	for _, ic := range cfg.Instruments {
		if _, dup := c.index[ic.Instrument.ID]; dup {
			return nil, fmt.Errorf("duplicate instrument id %d", ic.Instrument.ID)
		}
		c.index[ic.Instrument.ID] = len(c.states)
		c.states = append(c.states, market.NewInstrumentState(ic.Instrument, ic.OpeningPrice))
	}
	c.publishSnapshot()

	c.wg.Add(1)
	go c.run()

	return c, nil
}

func (c *Controller) run() {
	defer c.wg.Done()
	defer close(c.events)

	var (
		ticker   *time.Ticker
		tickC    <-chan time.Time
		rollover *time.Timer
		rollC    <-chan time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		if rollover != nil {
			rollover.Stop()
		}
	}()

	for {
		if !c.cfg.Manual {
			// Tick only while the clock runs; restart the period on resume.
			if c.ticking() && ticker == nil {
				ticker = time.NewTicker(c.cfg.TickInterval)
				tickC = ticker.C
			} else if !c.ticking() && ticker != nil {
				ticker.Stop()
				ticker, tickC = nil, nil
			}

			st := c.clock.State()
			if st.AfterHours && rollover == nil {
				rollover = time.NewTimer(c.cfg.AfterHoursDelay)
				rollC = rollover.C
			} else if !st.AfterHours && rollover != nil {
				rollover.Stop()
				rollover, rollC = nil, nil
			}
		}

		select {
		case <-c.closed:
			return
		case cmd := <-c.cmdCh:
			c.processCommand(cmd)
		case <-tickC:
			if err := c.tick(); err != nil {
				c.log.WithError(err).Warn("tick skipped")
			}
		case <-rollC:
			rollover, rollC = nil, nil
			if err := c.advanceDay(); err != nil {
				c.log.WithError(err).Warn("rollover skipped")
			}
		}
	}
}

func (c *Controller) ticking() bool {
	return c.started && c.clock.Running()
}

func (c *Controller) processCommand(cmd command) {
	var resp response

	switch cmd.typ {
	case cmdStart:
		resp.err = c.start()
	case cmdTick:
		resp.err = c.tick()
	case cmdRollover:
		resp.err = c.advanceDay()
	case cmdBeginTrade:
		resp.quote, resp.err = c.beginTrade(cmd.id, cmd.side)
	case cmdSubmitTrade:
		resp.record, resp.err = c.submitTrade(cmd.id, cmd.side, cmd.qty)
	case cmdCancelTrade:
		resp.err = c.cancelTrade()
	case cmdFills:
		resp.fills = c.journal.Last(cmd.n)
	case cmdSummary:
		resp.summary = c.summarizeDay(c.clock.State().Day)
	}
	resp.snap = *c.snap.Load()

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

func (c *Controller) start() error {
	if c.started {
		return misuse(ErrAlreadyStarted)
	}

	usable := 0
	for _, st := range c.states {
		if c.synth.Usable(st.Instrument) {
			usable++
			continue
		}
		c.log.WithFields(log.Fields{
			"instrument":  st.Instrument.Name,
			"data_source": st.Instrument.DataSourceIndex,
		}).Warn("no usable series, price will stay frozen")
	}
	if usable == 0 {
		return ErrNoData
	}

	c.started = true
	c.log.WithFields(log.Fields{
		"instruments": len(c.states),
		"strategy":    c.synth.Strategy().Name(),
		"cash":        c.portfolio.Cash,
	}).Info("game started")
	c.emit(EventStarted)
	return nil
}

// tick prices every instrument at the current clock reading, then advances
// the clock.
func (c *Controller) tick() error {
	if !c.started {
		return misuse(ErrNotStarted)
	}
	st := c.clock.State()
	if st.AfterHours {
		return misuse(session.ErrAfterHours)
	}
	if st.Paused {
		return misuse(session.ErrPaused)
	}

	for i := range c.states {
		res := c.synth.Compute(c.states[i], st.Day, st.Time)
		if res.Frozen() {
			c.log.WithFields(log.Fields{
				"instrument": c.states[i].Instrument.Name,
				"day":        st.Day,
				"anomaly":    res.Anomaly,
			}).Debug("price frozen")
		} else {
			c.states[i].Install(res.Price)
		}
		c.view.Apply(c.states[i].Instrument.ID, marketview.PricePoint{Time: st.Time, Price: c.states[i].CurrentPrice})
	}

	next, err := c.clock.Advance()
	if err != nil {
		return misuse(err)
	}

	if next.AfterHours {
		summary := c.summarizeDay(next.Day)
		c.log.WithFields(log.Fields{
			"day":    next.Day,
			"assets": c.currentSnapshot().TotalAssets(),
		}).Info("market closed")
		c.publishSnapshot()
		c.emitEvent(Event{Type: EventAfterHours, Snapshot: *c.snap.Load(), Summary: summary})
		return nil
	}

	c.emit(EventTick)
	return nil
}

// advanceDay rolls the session to the next day and re-anchors every
// instrument at its last price in the same step.
func (c *Controller) advanceDay() error {
	next, err := c.clock.Rollover()
	if err != nil {
		return misuse(err)
	}
	for i := range c.states {
		c.states[i].DayStartPrice = c.states[i].CurrentPrice
	}
	c.dialog = nil
	c.view.Reset(next.Day)

	c.log.WithField("day", next.Day).Info("new trading day")
	c.emit(EventDayStarted)
	return nil
}

func (c *Controller) summarizeDay(day int) []analytics.DaySummary {
	out := make([]analytics.DaySummary, 0, len(c.states))
	for _, st := range c.states {
		sum, err := analytics.SummarizeDay(st.Instrument, day, st.DayStartPrice, c.view.Prices(st.Instrument.ID))
		if err != nil {
			if !errors.Is(err, analytics.ErrNoData) {
				c.log.WithError(err).WithField("instrument", st.Instrument.Name).Warn("day summary failed")
			}
			continue
		}
		out = append(out, sum)
	}
	return out
}

func (c *Controller) checkTradable() error {
	if !c.started {
		return misuse(ErrNotStarted)
	}
	if c.clock.State().AfterHours {
		return misuse(session.ErrAfterHours)
	}
	return nil
}

func (c *Controller) lookup(id market.InstrumentID) (int, error) {
	i, ok := c.index[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownInstrument, id)
	}
	return i, nil
}

func (c *Controller) beginTrade(id market.InstrumentID, side ledger.Side) (Quote, error) {
	if err := c.checkTradable(); err != nil {
		return Quote{}, err
	}
	i, err := c.lookup(id)
	if err != nil {
		return Quote{}, err
	}
	if side != ledger.SideBuy && side != ledger.SideSell {
		return Quote{}, ledger.ErrInvalidSide
	}
	if err := c.clock.PauseForTrade(); err != nil {
		return Quote{}, misuse(err)
	}

	st := c.states[i]
	c.dialog = &TradeDialog{Instrument: st.Instrument, Side: side}
	c.emit(EventTradeOpened)

	return Quote{
		Instrument:  st,
		Side:        side,
		Cash:        c.portfolio.Cash,
		MaxBuyable:  ledger.MaxBuyable(c.portfolio, st),
		MaxSellable: ledger.MaxSellable(st),
	}, nil
}

// submitTrade executes a trade at the current price. With a dialog open, a
// rejected trade leaves the dialog and its pause in place.
func (c *Controller) submitTrade(id market.InstrumentID, side ledger.Side, qtyText string) (ledger.Record, error) {
	if err := c.checkTradable(); err != nil {
		return ledger.Record{}, err
	}
	i, err := c.lookup(id)
	if err != nil {
		return ledger.Record{}, err
	}

	qty, err := ledger.ParseQuantity(qtyText)
	if err == nil {
		var (
			p    ledger.Portfolio
			st   market.InstrumentState
			fill ledger.Fill
		)
		p, st, fill, err = ledger.Execute(c.portfolio, c.states[i], side, qty)
		if err == nil {
			c.portfolio = p
			c.states[i] = st

			rec := c.journal.Append(c.clock.State(), fill)
			c.dialog = nil
			c.clock.ResumeFromTrade()

			c.log.WithFields(log.Fields{
				"trade_id":   rec.ID,
				"instrument": fill.Instrument.Name,
				"side":       fill.Side,
				"qty":        fill.Quantity,
				"price":      fill.Price,
				"cash":       fill.CashAfter,
			}).Info("trade filled")

			c.publishSnapshot()
			c.emitEvent(Event{Type: EventTradeFilled, Snapshot: *c.snap.Load(), Fill: &rec})
			return rec, nil
		}
	}

	c.log.WithFields(log.Fields{
		"instrument": c.states[i].Instrument.Name,
		"side":       side,
		"qty":        qtyText,
	}).WithError(err).Warn("trade rejected")
	c.publishSnapshot()
	c.emitEvent(Event{Type: EventTradeRejected, Snapshot: *c.snap.Load(), Err: err})
	return ledger.Record{}, err
}

func (c *Controller) cancelTrade() error {
	if c.dialog == nil {
		return misuse(ErrNoTradeOpen)
	}
	c.dialog = nil
	c.clock.ResumeFromTrade()
	c.emit(EventTradeCanceled)
	return nil
}

func (c *Controller) currentSnapshot() Snapshot {
	snap := Snapshot{
		Started:     c.started,
		Session:     c.clock.State(),
		Portfolio:   c.portfolio,
		Instruments: c.states,
		Dialog:      c.dialog,
		Strategy:    c.synth.Strategy().Name(),
		Fills:       c.journal.Total(),
	}
	return snap.clone()
}

func (c *Controller) publishSnapshot() {
	snap := c.currentSnapshot()
	c.snap.Store(&snap)
}

func (c *Controller) emit(typ EventType) {
	c.publishSnapshot()
	c.emitEvent(Event{Type: typ, Snapshot: *c.snap.Load()})
}

func (c *Controller) emitEvent(ev Event) {
	if c.cfg.DropEvents {
		select {
		case c.events <- ev:
		default:
			c.droppedEvents.Add(1)
		}
		return
	}
	select {
	case c.events <- ev:
	case <-c.closed:
	}
}

func (c *Controller) do(ctx context.Context, cmd command) (response, error) {
	respCh := make(chan response, 1)
	cmd.respCh = respCh

	select {
	case <-c.closed:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	case c.cmdCh <- cmd:
	}

	select {
	case <-c.closed:
		return response{}, ErrClosed
	case <-ctx.Done():
		return response{}, ctx.Err()
	case resp := <-respCh:
		return resp, resp.err
	}
}

// Start enables ticking.
func (c *Controller) Start(ctx context.Context) error {
	_, err := c.do(ctx, command{typ: cmdStart})
	return err
}

// Tick runs one step by hand: price every instrument, then advance the clock.
func (c *Controller) Tick(ctx context.Context) (Snapshot, error) {
	resp, err := c.do(ctx, command{typ: cmdTick})
	return resp.snap, err
}

// Rollover starts the next day without waiting for the after-hours delay.
func (c *Controller) Rollover(ctx context.Context) (Snapshot, error) {
	resp, err := c.do(ctx, command{typ: cmdRollover})
	return resp.snap, err
}

// BeginTrade opens a trade dialog and pauses the clock until the trade is
// filled or canceled.
func (c *Controller) BeginTrade(ctx context.Context, id market.InstrumentID, side ledger.Side) (Quote, error) {
	resp, err := c.do(ctx, command{typ: cmdBeginTrade, id: id, side: side})
	return resp.quote, err
}

// SubmitTrade executes a trade of qty shares (as typed by the player).
// Rejections are returned as *ledger.TradeError.
func (c *Controller) SubmitTrade(ctx context.Context, id market.InstrumentID, side ledger.Side, qty string) (ledger.Record, error) {
	resp, err := c.do(ctx, command{typ: cmdSubmitTrade, id: id, side: side, qty: qty})
	return resp.record, err
}

// CancelTrade closes the trade dialog and resumes the clock.
func (c *Controller) CancelTrade(ctx context.Context) error {
	_, err := c.do(ctx, command{typ: cmdCancelTrade})
	return err
}

// Fills returns the last n journaled fills, oldest first.
func (c *Controller) Fills(ctx context.Context, n int) ([]ledger.Record, error) {
	resp, err := c.do(ctx, command{typ: cmdFills, n: n})
	return resp.fills, err
}

// DaySummary summarizes today's ticks so far for every instrument that
// has moved.
func (c *Controller) DaySummary(ctx context.Context) ([]analytics.DaySummary, error) {
	resp, err := c.do(ctx, command{typ: cmdSummary})
	return resp.summary, err
}

// Snapshot returns the state after the most recent tick or command.
func (c *Controller) Snapshot() Snapshot {
	return c.snap.Load().clone()
}

// Paths returns today's intraday price paths.
func (c *Controller) Paths() marketview.PathSnapshot {
	return c.view.Snapshot()
}

// Events returns the game events channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// DroppedEvents returns the count of dropped events.
func (c *Controller) DroppedEvents() int64 {
	return c.droppedEvents.Load()
}

// Close stops the tick and after-hours timers and waits for the controller
// goroutine to exit. No state changes after Close returns.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
	c.wg.Wait()
}
