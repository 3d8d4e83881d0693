package model

import "time"

// Tick represents a single observed price for one symbol.
// Ticks are produced once per poll per symbol and are immutable.
type Tick struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"` // UTC timestamp
	Price  float64   `json:"price"`
}
