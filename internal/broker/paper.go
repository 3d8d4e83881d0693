// Package broker simulates order execution against a virtual cash/position
// ledger. No slippage, no fees, no partial fills beyond the sell-side clamp,
// and no real market interaction.
package broker

import (
	"sort"
	"sync"

	"paperquant/internal/model"
)

// Paper is the in-memory brokerage ledger. Positions are long-only and never
// go negative; cash can never be overdrawn because buys exceeding it are
// rejected. Rejections are silent no-ops; callers wanting visibility should
// watch the order metrics instead.
type Paper struct {
	mu        sync.Mutex
	cash      float64
	positions map[string]model.Position
	lastOrder *model.Order
}

// NewPaper creates a ledger seeded with starting cash.
func NewPaper(startingCash float64) *Paper {
	return &Paper{
		cash:      startingCash,
		positions: make(map[string]model.Position),
	}
}

// MarketBuy executes a simulated buy at the given price. Non-positive
// quantities and buys costing more than available cash are no-ops: the return
// reports whether the order filled, but a rejection is never an error. On
// fill the cost basis becomes the weighted average of the old position and
// the new lot, and the last order records the fill.
func (b *Paper) MarketBuy(symbol string, qty int64, price float64) bool {
	if qty <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cost := float64(qty) * price
	if cost > b.cash {
		return false
	}

	pos := b.pos(symbol)
	newQty := pos.Qty + qty
	newAvg := (pos.AvgPrice*float64(pos.Qty) + price*float64(qty)) / float64(newQty)
	b.positions[symbol] = model.Position{Symbol: symbol, Qty: newQty, AvgPrice: newAvg}
	b.cash -= cost
	b.lastOrder = &model.Order{Symbol: symbol, Side: model.SideBuy, Qty: qty, Price: price}
	return true
}

// MarketSell executes a simulated sell at the given price. Non-positive
// quantities and sells with nothing held are no-ops; oversized sells clamp to
// the held quantity rather than rejecting. The last order records the clamped
// quantity actually executed. Closing a position resets its average price.
func (b *Paper) MarketSell(symbol string, qty int64, price float64) bool {
	if qty <= 0 {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pos := b.pos(symbol)
	if pos.Qty <= 0 {
		return false
	}

	sellQty := qty
	if sellQty > pos.Qty {
		sellQty = pos.Qty
	}
	newQty := pos.Qty - sellQty
	newAvg := pos.AvgPrice
	if newQty == 0 {
		newAvg = 0
	}
	b.positions[symbol] = model.Position{Symbol: symbol, Qty: newQty, AvgPrice: newAvg}
	b.cash += float64(sellQty) * price
	b.lastOrder = &model.Order{Symbol: symbol, Side: model.SideSell, Qty: sellQty, Price: price}
	return true
}

// Cash returns the current cash balance.
func (b *Paper) Cash() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cash
}

// LastOrder returns a copy of the most recently executed order, or nil if
// nothing has traded yet.
func (b *Paper) LastOrder() *model.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastOrder == nil {
		return nil
	}
	o := *b.lastOrder
	return &o
}

// Equity values the ledger as cash plus each position marked at the supplied
// prices. A symbol missing from marks contributes 0, not an error.
func (b *Paper) Equity(marks map[string]float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	eq := b.cash
	for sym, pos := range b.positions {
		eq += float64(pos.Qty) * marks[sym]
	}
	return eq
}

// State returns a consistent snapshot of the full ledger marked at the
// supplied prices.
func (b *Paper) State(marks map[string]float64) model.BrokerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	positions := make([]model.Position, 0, len(b.positions))
	eq := b.cash
	for sym, pos := range b.positions {
		positions = append(positions, pos)
		eq += float64(pos.Qty) * marks[sym]
	}
	// Stable ordering for event payloads.
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	var last *model.Order
	if b.lastOrder != nil {
		o := *b.lastOrder
		last = &o
	}
	return model.BrokerState{Cash: b.cash, Equity: eq, Positions: positions, LastOrder: last}
}

// pos returns the tracked position or a zero-value one. Callers hold b.mu.
func (b *Paper) pos(symbol string) model.Position {
	if p, ok := b.positions[symbol]; ok {
		return p
	}
	return model.Position{Symbol: symbol}
}
