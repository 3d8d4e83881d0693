// Package strategy evaluates ticks and indicators into trading signals.
//
// Exactly one strategy is active per engine instance, chosen at construction.
// Strategies return a signal plus an unstructured metadata map (reason codes,
// raw values) consumed only by observers; metadata never drives control flow.
package strategy

import (
	"fmt"

	"paperquant/internal/model"
)

// Signal is a trading decision.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Strategy is the evaluator contract. OnTick is called once per successful
// tick with the indicators computed for that tick.
type Strategy interface {
	Name() string
	OnTick(tick model.Tick, ind model.Indicators) (Signal, map[string]any)
}

// Strategy type identifiers, as they appear in configuration.
const (
	TypeMACrossover = "ma_crossover"
	TypeRSI         = "rsi"
)

// MACrossoverConfig configures the moving-average crossover strategy.
type MACrossoverConfig struct {
	ShortWindow int
	LongWindow  int
}

// RSIConfig configures the RSI threshold strategy.
type RSIConfig struct {
	Period    int
	BuyBelow  float64
	SellAbove float64
}

// Config selects and parameterises the active strategy.
type Config struct {
	Type        string
	MACrossover MACrossoverConfig
	RSI         RSIConfig
}

// Build constructs the configured strategy. An unknown type is a
// configuration error, fatal at construction: the engine must not start.
func Build(cfg Config) (Strategy, error) {
	switch cfg.Type {
	case TypeMACrossover:
		return NewMACrossover(cfg.MACrossover), nil
	case TypeRSI:
		return NewRSIThreshold(cfg.RSI), nil
	default:
		return nil, fmt.Errorf("unknown strategy type: %q", cfg.Type)
	}
}
