package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"paperquant/internal/model"
	"paperquant/internal/strategy"
)

// scriptedProvider returns queued prices (or errors) per symbol, FIFO.
type scriptedProvider struct {
	mu     sync.Mutex
	prices map[string][]float64
	errs   map[string][]error
	calls  []string
}

func (p *scriptedProvider) GetTick(_ context.Context, symbol string) (model.Tick, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, symbol)

	if errs := p.errs[symbol]; len(errs) > 0 {
		err := errs[0]
		p.errs[symbol] = errs[1:]
		if err != nil {
			return model.Tick{}, err
		}
	}
	prices := p.prices[symbol]
	if len(prices) == 0 {
		return model.Tick{}, errors.New("script exhausted")
	}
	price := prices[0]
	p.prices[symbol] = prices[1:]
	return model.Tick{Symbol: symbol, TS: time.Now().UTC(), Price: price}, nil
}

// captureSink records broadcast events.
type captureSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *captureSink) Broadcast(evt model.Event) {
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
}

func (s *captureSink) all() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]model.Event, len(s.events))
	copy(cp, s.events)
	return cp
}

func rsiEngine(t *testing.T, p *scriptedProvider, sink Broadcaster, symbols ...string) *Engine {
	t.Helper()
	e, err := New(Config{
		Symbols:      symbols,
		Interval:     time.Hour, // cycles driven manually in tests
		OrderSize:    10,
		StartingCash: 100000,
		Strategy: strategy.Config{
			Type: strategy.TypeRSI,
			RSI:  strategy.RSIConfig{Period: 14, BuyBelow: 30, SellAbove: 70},
		},
	}, p, sink, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestNew_UnknownStrategyIsFatal(t *testing.T) {
	_, err := New(Config{
		Symbols:  []string{"A"},
		Strategy: strategy.Config{Type: "martingale"},
	}, &scriptedProvider{}, &captureSink{}, nil, nil)
	if err == nil {
		t.Fatal("unknown strategy must fail construction")
	}
}

func TestProcessSymbol_TickEventShape(t *testing.T) {
	p := &scriptedProvider{prices: map[string][]float64{"A": {101.5}}}
	sink := &captureSink{}
	e := rsiEngine(t, p, sink, "A")

	e.processSymbol(context.Background(), "A")

	events := sink.all()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	evt := events[0]
	if evt.Type != model.EventTick || evt.Symbol != "A" || evt.Price != 101.5 {
		t.Errorf("event = %+v", evt)
	}
	if evt.Signal != string(strategy.SignalHold) {
		t.Errorf("signal = %q, want HOLD while warming up", evt.Signal)
	}
	if evt.Indicators == nil || evt.Indicators.RSI != nil {
		t.Errorf("indicators = %+v, want present with nil RSI", evt.Indicators)
	}
	if evt.Broker == nil || evt.Broker.Cash != 100000 {
		t.Errorf("broker state = %+v", evt.Broker)
	}
}

func TestProcessSymbol_ErrorIsolation(t *testing.T) {
	// A fails, B succeeds in the same cycle: B's tick event is still emitted.
	p := &scriptedProvider{
		prices: map[string][]float64{"B": {50}},
		errs:   map[string][]error{"A": {errors.New("provider down")}},
	}
	sink := &captureSink{}
	e := rsiEngine(t, p, sink, "A", "B")

	for _, sym := range []string{"A", "B"} {
		e.processSymbol(context.Background(), sym)
	}

	events := sink.all()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != model.EventError || events[0].Symbol != "A" {
		t.Errorf("events[0] = %+v, want error for A", events[0])
	}
	if events[0].Error == "" {
		t.Error("error event should carry a description")
	}
	if events[1].Type != model.EventTick || events[1].Symbol != "B" {
		t.Errorf("events[1] = %+v, want tick for B", events[1])
	}

	h := e.Health()
	if h.LastError["A"] == "" {
		t.Error("health should record A's last error")
	}
	if h.LastError["B"] != "" || h.TickCount["B"] != 1 {
		t.Errorf("health for B = err %q count %d", h.LastError["B"], h.TickCount["B"])
	}
}

func TestProcessSymbol_ErrorClearedOnRecovery(t *testing.T) {
	p := &scriptedProvider{
		prices: map[string][]float64{"A": {50}},
		errs:   map[string][]error{"A": {errors.New("blip"), nil}},
	}
	sink := &captureSink{}
	e := rsiEngine(t, p, sink, "A")

	e.processSymbol(context.Background(), "A")
	e.processSymbol(context.Background(), "A")

	h := e.Health()
	if h.LastError["A"] != "" {
		t.Errorf("last error should clear after a good tick, got %q", h.LastError["A"])
	}
	if h.TickCount["A"] != 1 {
		t.Errorf("tick count = %d, want 1 (errors don't count)", h.TickCount["A"])
	}
	if h.LastOKTS["A"] == "" {
		t.Error("last ok timestamp should be set")
	}
}

func TestSignalExecution_BuyAndJournal(t *testing.T) {
	// RSI period 2: prices 100, 90, 80 → all losses → RSI 0 → oversold BUY.
	p := &scriptedProvider{prices: map[string][]float64{"A": {100, 90, 80}}}
	sink := &captureSink{}
	rec := &fakeRecorder{}
	e, err := New(Config{
		Symbols:      []string{"A"},
		Interval:     time.Hour,
		OrderSize:    10,
		StartingCash: 100000,
		Strategy: strategy.Config{
			Type: strategy.TypeRSI,
			RSI:  strategy.RSIConfig{Period: 2, BuyBelow: 30, SellAbove: 70},
		},
	}, p, sink, rec, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 3; i++ {
		e.processSymbol(context.Background(), "A")
	}

	events := sink.all()
	last := events[len(events)-1]
	if last.Signal != string(strategy.SignalBuy) {
		t.Fatalf("signal = %q, want BUY", last.Signal)
	}
	if last.Broker.LastOrder == nil || last.Broker.LastOrder.Qty != 10 || last.Broker.LastOrder.Price != 80 {
		t.Errorf("last order = %+v, want 10 @ 80", last.Broker.LastOrder)
	}
	if last.Broker.Cash != 100000-10*80 {
		t.Errorf("cash = %v", last.Broker.Cash)
	}
	if len(rec.fills) != 1 || rec.fills[0].reason != "rsi_oversold" {
		t.Errorf("journal fills = %+v", rec.fills)
	}
}

type fakeRecorder struct {
	fills []struct {
		order  model.Order
		reason string
	}
}

func (r *fakeRecorder) RecordFill(order model.Order, reason string, _ time.Time) error {
	r.fills = append(r.fills, struct {
		order  model.Order
		reason string
	}{order, reason})
	return nil
}

func TestStartStop_IdempotentAndBounded(t *testing.T) {
	p := &scriptedProvider{prices: map[string][]float64{"A": make([]float64, 0)}}
	sink := &captureSink{}
	e := rsiEngine(t, p, sink, "A")

	e.Start()
	e.Start() // no-op on a running engine

	// Stop must return promptly even though the interval is one hour: the
	// inter-cycle sleep races against cancellation.
	stopped := make(chan struct{})
	go func() {
		e.Stop()
		e.Stop() // no-op on a stopped engine
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return; sleep is not cancellable")
	}

	if e.Health().Running {
		t.Error("health should report not running after Stop")
	}
}

func TestSnapshot_ConcurrentWithLoop(t *testing.T) {
	prices := make([]float64, 1000)
	for i := range prices {
		prices[i] = 100 + float64(i%10)
	}
	p := &scriptedProvider{prices: map[string][]float64{"A": prices}}
	sink := &captureSink{}
	e, err := New(Config{
		Symbols:      []string{"A"},
		Interval:     time.Millisecond,
		OrderSize:    1,
		StartingCash: 1000,
		Strategy: strategy.Config{
			Type: strategy.TypeRSI,
			RSI:  strategy.RSIConfig{Period: 2, BuyBelow: 30, SellAbove: 70},
		},
	}, p, sink, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Start()
	defer e.Stop()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		snap := e.Snapshot()
		if snap.Cash < 0 {
			t.Fatal("cash went negative")
		}
		_ = e.Health()
	}

	snap := e.Snapshot()
	if len(snap.Symbols) != 1 || snap.Symbols[0] != "A" {
		t.Errorf("snapshot symbols = %v", snap.Symbols)
	}
	if st, ok := snap.Last["A"]; !ok || st.Tick == nil {
		t.Error("snapshot should carry A's last tick after the loop ran")
	}
}
