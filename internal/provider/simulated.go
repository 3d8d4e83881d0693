package provider

import (
	"context"
	"math"
	"math/rand"
	"time"

	"paperquant/internal/model"
)

// Simulated is a geometric random-walk tick generator, useful for offline
// demos and tests. Per-symbol state is created lazily on first poll. Not safe
// for concurrent use; the engine is the sole caller.
type Simulated struct {
	cfg    SimulatedConfig
	rng    *rand.Rand
	prices map[string]float64
}

// NewSimulated creates a random-walk provider. A non-zero seed makes the walk
// reproducible.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 100.0
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulated{
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]float64),
	}
}

// GetTick advances the symbol's walk one step and returns the new price.
// Step: price *= exp(N(drift, volatility)), floored at 0.01.
func (s *Simulated) GetTick(_ context.Context, symbol string) (model.Tick, error) {
	price, ok := s.prices[symbol]
	if !ok {
		price = s.cfg.StartPrice
	}

	r := s.rng.NormFloat64()*s.cfg.Volatility + s.cfg.Drift
	price = math.Max(0.01, price*math.Exp(r))
	s.prices[symbol] = price

	return model.Tick{Symbol: symbol, TS: time.Now().UTC(), Price: price}, nil
}
