package broker

import (
	"math"
	"testing"

	"paperquant/internal/model"
)

func assertClose(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %.6f, want %.6f", label, got, want)
	}
}

func position(t *testing.T, b *Paper, symbol string) model.Position {
	t.Helper()
	for _, p := range b.State(nil).Positions {
		if p.Symbol == symbol {
			return p
		}
	}
	return model.Position{Symbol: symbol}
}

func TestMarketBuy_InsufficientCashIsNoOp(t *testing.T) {
	b := NewPaper(500)
	if b.MarketBuy("X", 10, 100) { // cost 1000 > 500
		t.Error("buy should not fill")
	}

	assertClose(t, "cash", b.Cash(), 500)
	if p := position(t, b, "X"); p.Qty != 0 {
		t.Errorf("position qty = %d, want 0", p.Qty)
	}
	if b.LastOrder() != nil {
		t.Error("rejected buy must not record an order")
	}
}

func TestMarketBuy_WeightedAverageBasis(t *testing.T) {
	b := NewPaper(10000)
	b.MarketBuy("X", 10, 100) // 10 @ 100
	b.MarketBuy("X", 10, 110) // 10 @ 110 → avg 105

	p := position(t, b, "X")
	if p.Qty != 20 {
		t.Fatalf("qty = %d, want 20", p.Qty)
	}
	assertClose(t, "avg_price", p.AvgPrice, 105)
	assertClose(t, "cash", b.Cash(), 10000-1000-1100)
}

func TestMarketBuy_NonPositiveQtyIsNoOp(t *testing.T) {
	b := NewPaper(1000)
	b.MarketBuy("X", 0, 10)
	b.MarketBuy("X", -5, 10)
	assertClose(t, "cash", b.Cash(), 1000)
	if b.LastOrder() != nil {
		t.Error("no order should be recorded")
	}
}

func TestMarketSell_ClampsToHeldQuantity(t *testing.T) {
	b := NewPaper(1000)
	b.MarketBuy("X", 5, 100) // cash 500, 5 @ 100
	// Oversized sell clamps to the held 5 and still fills.
	if !b.MarketSell("X", 10, 110) {
		t.Error("clamped sell should fill")
	}

	p := position(t, b, "X")
	if p.Qty != 0 {
		t.Errorf("qty = %d, want 0", p.Qty)
	}
	assertClose(t, "avg_price reset", p.AvgPrice, 0)
	assertClose(t, "cash", b.Cash(), 500+5*110)

	last := b.LastOrder()
	if last == nil {
		t.Fatal("sell should record an order")
	}
	if last.Side != model.SideSell || last.Qty != 5 {
		t.Errorf("last order = %+v, want SELL qty=5 (clamped)", last)
	}
	assertClose(t, "last order price", last.Price, 110)
}

func TestMarketSell_PartialKeepsBasis(t *testing.T) {
	b := NewPaper(10000)
	b.MarketBuy("X", 10, 100)
	b.MarketSell("X", 4, 120)

	p := position(t, b, "X")
	if p.Qty != 6 {
		t.Fatalf("qty = %d, want 6", p.Qty)
	}
	assertClose(t, "avg_price unchanged", p.AvgPrice, 100)
}

func TestMarketSell_NoPositionIsNoOp(t *testing.T) {
	b := NewPaper(1000)
	b.MarketSell("X", 5, 100)
	assertClose(t, "cash", b.Cash(), 1000)
	if b.LastOrder() != nil {
		t.Error("no-op sell must not record an order")
	}
}

func TestEquity_MarksAndUnknownSymbols(t *testing.T) {
	b := NewPaper(1500)
	b.MarketBuy("X", 5, 100) // cash 1000, 5 shares

	assertClose(t, "equity marked", b.Equity(map[string]float64{"X": 120}), 1000+5*120)
	// Unknown mark contributes 0.
	assertClose(t, "equity unknown mark", b.Equity(map[string]float64{"Y": 999}), 1000)
	assertClose(t, "equity nil marks", b.Equity(nil), 1000)
}

func TestState_SnapshotIsConsistent(t *testing.T) {
	b := NewPaper(2000)
	b.MarketBuy("B", 5, 100)
	b.MarketBuy("A", 5, 100)

	st := b.State(map[string]float64{"A": 110, "B": 90})
	assertClose(t, "cash", st.Cash, 1000)
	assertClose(t, "equity", st.Equity, 1000+5*110+5*90)
	if len(st.Positions) != 2 || st.Positions[0].Symbol != "A" {
		t.Errorf("positions not sorted by symbol: %+v", st.Positions)
	}
	if st.LastOrder == nil || st.LastOrder.Symbol != "A" {
		t.Errorf("last order = %+v, want most recent buy of A", st.LastOrder)
	}
}
