// Package engine drives the tick → indicators → strategy → broker pipeline.
//
// A single worker goroutine owns all per-symbol state, the active strategy,
// and the indicator engine; within a cycle symbols are processed sequentially
// in configuration order, so a failure on one symbol never touches the rest.
// Health and snapshot queries are safe to call while the loop runs.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"paperquant/internal/broker"
	"paperquant/internal/indicator"
	"paperquant/internal/metrics"
	"paperquant/internal/model"
	"paperquant/internal/provider"
	"paperquant/internal/strategy"
)

// Broadcaster receives engine events. Implementations must not block: the
// gateway hub enqueues to per-client buffers, the Redis mirror publishes with
// its own timeout.
type Broadcaster interface {
	Broadcast(evt model.Event)
}

// MultiBroadcaster fans one event out to several sinks.
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) Broadcast(evt model.Event) {
	for _, b := range m {
		b.Broadcast(evt)
	}
}

// FillRecorder persists executed paper fills. Satisfied by *broker.Journal.
type FillRecorder interface {
	RecordFill(order model.Order, reason string, filledAt time.Time) error
}

// Config holds the engine's runtime parameters.
type Config struct {
	Symbols      []string
	Interval     time.Duration
	OrderSize    int64
	StartingCash float64
	WindowCap    int // per-symbol price history capacity, 0 = default
	Strategy     strategy.Config
}

// symbolState is the per-symbol bookkeeping owned by the worker.
type symbolState struct {
	lastTick  *model.Tick
	lastInd   *model.Indicators
	lastOKTS  string
	lastErr   string
	tickCount int64
}

// Engine is the orchestration loop.
type Engine struct {
	cfg      Config
	provider provider.TickProvider
	strat    strategy.Strategy
	broker   *broker.Paper
	ind      *indicator.Engine
	sink     Broadcaster
	journal  FillRecorder
	prom     *metrics.Metrics

	mu      sync.Mutex
	states  map[string]*symbolState
	marks   map[string]float64
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds an engine. The strategy is constructed from cfg.Strategy; an
// unknown strategy type is fatal here, before the loop ever starts. journal
// and prom may be nil.
func New(cfg Config, p provider.TickProvider, sink Broadcaster, journal FillRecorder, prom *metrics.Metrics) (*Engine, error) {
	strat, err := strategy.Build(cfg.Strategy)
	if err != nil {
		return nil, err
	}

	// Only the indicators the active strategy reads are maintained.
	indCfg := indicator.Config{WindowCap: cfg.WindowCap}
	switch cfg.Strategy.Type {
	case strategy.TypeMACrossover:
		indCfg.ShortWindow = cfg.Strategy.MACrossover.ShortWindow
		indCfg.LongWindow = cfg.Strategy.MACrossover.LongWindow
	case strategy.TypeRSI:
		indCfg.RSIPeriod = cfg.Strategy.RSI.Period
	}

	e := &Engine{
		cfg:      cfg,
		provider: p,
		strat:    strat,
		broker:   broker.NewPaper(cfg.StartingCash),
		ind:      indicator.NewEngine(indCfg),
		sink:     sink,
		journal:  journal,
		prom:     prom,
		states:   make(map[string]*symbolState),
		marks:    make(map[string]float64),
	}
	for _, sym := range cfg.Symbols {
		e.states[sym] = &symbolState{}
	}
	return e, nil
}

// Broker exposes the paper ledger for read-only callers.
func (e *Engine) Broker() *broker.Paper { return e.broker }

// Start launches the loop. Idempotent: a running engine is left alone.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	go e.run(ctx)
	slog.Info("engine started",
		"symbols", e.cfg.Symbols,
		"strategy", e.strat.Name(),
		"interval", e.cfg.Interval)
}

// Stop signals termination and waits for the current cycle or sleep to
// unwind. Shutdown latency is bounded by the remaining sleep, not the full
// interval, because the inter-cycle wait races against cancellation.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	slog.Info("engine stopped")
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	for {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		for _, sym := range e.cfg.Symbols {
			e.processSymbol(ctx, sym)
		}
		elapsed := time.Since(start)
		if e.prom != nil {
			e.prom.CycleDur.Observe(elapsed.Seconds())
		}

		sleep := e.cfg.Interval - elapsed
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}

// processSymbol runs one pipeline step. Provider failures are isolated: the
// error is recorded on the symbol and broadcast, and the cycle moves on.
func (e *Engine) processSymbol(ctx context.Context, symbol string) {
	tick, err := e.provider.GetTick(ctx, symbol)
	if err != nil {
		e.mu.Lock()
		e.state(symbol).lastErr = err.Error()
		e.mu.Unlock()

		if e.prom != nil {
			e.prom.ProviderErrors.WithLabelValues(symbol).Inc()
		}
		slog.Warn("tick fetch failed", "symbol", symbol, "err", err)
		e.sink.Broadcast(model.Event{
			Type:   model.EventError,
			Symbol: symbol,
			TS:     time.Now().UTC(),
			Error:  err.Error(),
		})
		return
	}

	e.mu.Lock()
	st := e.state(symbol)
	st.lastTick = &tick
	st.lastOKTS = tick.TS.Format(time.RFC3339Nano)
	st.lastErr = ""
	st.tickCount++
	e.marks[symbol] = tick.Price
	ind := e.ind.Update(symbol, tick.Price)
	st.lastInd = &ind
	marks := e.marksLocked()
	e.mu.Unlock()

	if e.prom != nil {
		e.prom.TicksTotal.WithLabelValues(symbol).Inc()
	}

	signal, meta := e.strat.OnTick(tick, ind)
	e.executeSignal(symbol, signal, meta, tick)

	bs := e.broker.State(marks)
	if e.prom != nil {
		e.prom.Equity.Set(bs.Equity)
	}
	e.sink.Broadcast(model.Event{
		Type:       model.EventTick,
		Symbol:     symbol,
		TS:         tick.TS,
		Price:      tick.Price,
		Indicators: &ind,
		Signal:     string(signal),
		SignalMeta: meta,
		Broker:     &bs,
	})
}

func (e *Engine) executeSignal(symbol string, signal strategy.Signal, meta map[string]any, tick model.Tick) {
	if e.prom != nil {
		e.prom.SignalsTotal.WithLabelValues(string(signal)).Inc()
	}

	var filled bool
	var side model.Side
	switch signal {
	case strategy.SignalBuy:
		side = model.SideBuy
		filled = e.broker.MarketBuy(symbol, e.cfg.OrderSize, tick.Price)
	case strategy.SignalSell:
		side = model.SideSell
		filled = e.broker.MarketSell(symbol, e.cfg.OrderSize, tick.Price)
	default:
		return
	}

	if !filled {
		if e.prom != nil {
			e.prom.OrdersSkipped.WithLabelValues(string(side)).Inc()
		}
		return
	}
	if e.prom != nil {
		e.prom.OrdersExecuted.WithLabelValues(string(side)).Inc()
	}

	order := e.broker.LastOrder()
	reason, _ := meta["reason"].(string)
	slog.Info("order filled",
		"symbol", symbol, "side", side, "qty", order.Qty, "price", order.Price, "reason", reason)
	if e.journal != nil {
		if err := e.journal.RecordFill(*order, reason, tick.TS); err != nil {
			slog.Warn("journal write failed", "symbol", symbol, "err", err)
		}
	}
}

// Health reports engine liveness and per-symbol feed counters.
func (e *Engine) Health() model.Health {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.Health{
		TS:             time.Now().UTC(),
		Running:        e.running,
		Symbols:        e.cfg.Symbols,
		ProviderHealth: e.providerHealthLocked(),
	}
}

// Snapshot returns the full current state for all symbols. Safe to call
// concurrently with the loop; the view is consistent, not torn.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	last := make(map[string]model.SymbolState, len(e.cfg.Symbols))
	for _, sym := range e.cfg.Symbols {
		st := e.state(sym)
		last[sym] = model.SymbolState{Tick: st.lastTick, Indicators: st.lastInd}
	}
	marks := e.marksLocked()
	ph := e.providerHealthLocked()
	e.mu.Unlock()

	bs := e.broker.State(marks)
	return model.Snapshot{
		TS:        time.Now().UTC(),
		Symbols:   e.cfg.Symbols,
		Cash:      bs.Cash,
		Equity:    bs.Equity,
		Positions: bs.Positions,
		Provider:  ph,
		Last:      last,
	}
}

// state returns the symbol's bookkeeping, creating it lazily. Callers hold e.mu.
func (e *Engine) state(symbol string) *symbolState {
	st, ok := e.states[symbol]
	if !ok {
		st = &symbolState{}
		e.states[symbol] = st
	}
	return st
}

// marksLocked copies the mark-price map. Callers hold e.mu.
func (e *Engine) marksLocked() map[string]float64 {
	marks := make(map[string]float64, len(e.marks))
	for k, v := range e.marks {
		marks[k] = v
	}
	return marks
}

// providerHealthLocked builds the per-symbol counters. Callers hold e.mu.
func (e *Engine) providerHealthLocked() model.ProviderHealth {
	ph := model.ProviderHealth{
		LastOKTS:  make(map[string]string, len(e.cfg.Symbols)),
		LastError: make(map[string]string, len(e.cfg.Symbols)),
		TickCount: make(map[string]int64, len(e.cfg.Symbols)),
	}
	for _, sym := range e.cfg.Symbols {
		st := e.state(sym)
		ph.LastOKTS[sym] = st.lastOKTS
		ph.LastError[sym] = st.lastErr
		ph.TickCount[sym] = st.tickCount
	}
	return ph
}
