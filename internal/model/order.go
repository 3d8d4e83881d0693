package model

// Side is the direction of an executed order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order records the most recently executed paper trade. It is overwritten on
// every fill; there is no order history in the ledger itself (the SQLite
// journal keeps the durable trail). Qty is the quantity actually executed,
// which for sells may be smaller than requested.
type Order struct {
	Symbol string  `json:"symbol"`
	Side   Side    `json:"side"`
	Qty    int64   `json:"qty"`
	Price  float64 `json:"price"`
}
