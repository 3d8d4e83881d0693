package model

// BrokerState is a point-in-time view of the paper ledger, embedded in tick
// events and snapshots.
type BrokerState struct {
	Cash      float64    `json:"cash"`
	Equity    float64    `json:"equity"`
	Positions []Position `json:"positions"`
	LastOrder *Order     `json:"last_order"`
}
