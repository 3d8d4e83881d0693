package model

import "time"

// ProviderHealth carries the per-symbol feed counters exposed by both the
// health and snapshot queries. Timestamps are RFC3339 strings; an empty
// last-ok or last-error entry means "never".
type ProviderHealth struct {
	LastOKTS  map[string]string `json:"last_ok_ts"`
	LastError map[string]string `json:"last_error"`
	TickCount map[string]int64  `json:"tick_count"`
}

// Health is the engine liveness report.
type Health struct {
	TS             time.Time `json:"ts"`
	Running        bool      `json:"running"`
	Symbols        []string  `json:"symbols"`
	ProviderHealth           // last_ok_ts / last_error / tick_count, inlined
}

// SymbolState is the last observed tick and indicators for one symbol.
// Both are nil until the first successful poll.
type SymbolState struct {
	Tick       *Tick       `json:"tick"`
	Indicators *Indicators `json:"indicators"`
}

// Snapshot is the full engine state for all symbols, served on demand and
// pushed to each newly attached observer.
type Snapshot struct {
	TS        time.Time              `json:"ts"`
	Symbols   []string               `json:"symbols"`
	Cash      float64                `json:"cash"`
	Equity    float64                `json:"equity"`
	Positions []Position             `json:"positions"`
	Provider  ProviderHealth         `json:"provider_health"`
	Last      map[string]SymbolState `json:"last"`
}
