package model

// Position represents a long-only holding in one symbol.
// AvgPrice is the weighted-average cost basis and is meaningful only while
// Qty > 0; the broker resets it to 0 whenever the position is fully closed.
type Position struct {
	Symbol   string  `json:"symbol"`
	Qty      int64   `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
}
