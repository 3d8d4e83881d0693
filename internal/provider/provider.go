// Package provider supplies market data ticks to the engine.
//
// Providers are polled once per symbol per cycle; no persistent connection or
// cross-call ordering is assumed. A failed fetch is recoverable: the engine
// records it against the symbol and moves on.
package provider

import (
	"context"
	"fmt"

	"paperquant/internal/model"
)

// TickProvider fetches one tick for a symbol.
type TickProvider interface {
	GetTick(ctx context.Context, symbol string) (model.Tick, error)
}

// Provider type identifiers, as they appear in configuration.
const (
	TypeSimulated = "simulated"
	TypeEastmoney = "eastmoney"
)

// SimulatedConfig configures the random-walk provider.
type SimulatedConfig struct {
	StartPrice float64
	Drift      float64
	Volatility float64
	Seed       int64 // 0 = non-deterministic
}

// EastmoneyConfig configures the Eastmoney quote provider.
type EastmoneyConfig struct {
	BaseURL string
	Timeout int // per-request timeout in milliseconds
}

// Config selects and parameterises the tick provider.
type Config struct {
	Type      string
	Simulated SimulatedConfig
	Eastmoney EastmoneyConfig
}

// Build constructs the configured provider. An unknown type is a
// configuration error, fatal at construction.
func Build(cfg Config) (TickProvider, error) {
	switch cfg.Type {
	case TypeSimulated:
		return NewSimulated(cfg.Simulated), nil
	case TypeEastmoney:
		return NewEastmoney(cfg.Eastmoney), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q", cfg.Type)
	}
}
