package model

import "time"

// EventType discriminates broadcast messages.
type EventType string

const (
	EventTick     EventType = "tick"
	EventError    EventType = "error"
	EventSnapshot EventType = "snapshot"
)

// Event is the structured message pushed to observers. Exactly one shape per
// type:
//
//	tick:     Symbol, TS, Price, Indicators, Signal, SignalMeta, Broker
//	error:    Symbol, TS, Error
//	snapshot: Data (sent once when a new observer attaches)
type Event struct {
	Type       EventType      `json:"type"`
	Symbol     string         `json:"symbol,omitempty"`
	TS         time.Time      `json:"ts"`
	Price      float64        `json:"price,omitempty"`
	Indicators *Indicators    `json:"indicators,omitempty"`
	Signal     string         `json:"signal,omitempty"`
	SignalMeta map[string]any `json:"signal_meta,omitempty"`
	Broker     *BrokerState   `json:"broker,omitempty"`
	Error      string         `json:"error,omitempty"`
	Data       *Snapshot      `json:"data,omitempty"`
}
