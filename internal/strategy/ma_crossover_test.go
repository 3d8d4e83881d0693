package strategy

import (
	"testing"
	"time"

	"paperquant/internal/model"
)

func tick(symbol string) model.Tick {
	return model.Tick{Symbol: symbol, TS: time.Now().UTC(), Price: 100}
}

func f(v float64) *float64 { return &v }

func maInd(short, long float64) model.Indicators {
	return model.Indicators{MAShort: f(short), MALong: f(long)}
}

func TestMACrossover_HoldWithoutBothAverages(t *testing.T) {
	s := NewMACrossover(MACrossoverConfig{ShortWindow: 2, LongWindow: 4})

	sig, meta := s.OnTick(tick("A"), model.Indicators{})
	if sig != SignalHold || meta["reason"] != "not_enough_data" {
		t.Errorf("no indicators: got %s/%v", sig, meta["reason"])
	}

	sig, meta = s.OnTick(tick("A"), model.Indicators{MAShort: f(10)})
	if sig != SignalHold || meta["reason"] != "not_enough_data" {
		t.Errorf("missing ma_long: got %s/%v", sig, meta["reason"])
	}

	// State untouched: the next valid evaluation must still be the seed.
	sig, meta = s.OnTick(tick("A"), maInd(11, 10))
	if sig != SignalHold || meta["reason"] != "no_cross" {
		t.Errorf("seed evaluation: got %s/%v, want HOLD/no_cross", sig, meta["reason"])
	}
}

func TestMACrossover_DiffSequence(t *testing.T) {
	// Diff sequence -1, -0.5, 0.2, 0.1, -0.3 →
	// HOLD(seed), HOLD(no_cross), BUY(golden_cross), HOLD(no_cross), SELL(death_cross)
	s := NewMACrossover(MACrossoverConfig{ShortWindow: 2, LongWindow: 4})
	diffs := []float64{-1, -0.5, 0.2, 0.1, -0.3}
	want := []struct {
		sig    Signal
		reason string
	}{
		{SignalHold, "no_cross"},
		{SignalHold, "no_cross"},
		{SignalBuy, "golden_cross"},
		{SignalHold, "no_cross"},
		{SignalSell, "death_cross"},
	}

	for i, d := range diffs {
		sig, meta := s.OnTick(tick("A"), maInd(100+d, 100))
		if sig != want[i].sig || meta["reason"] != want[i].reason {
			t.Errorf("step %d (diff=%.2f): got %s/%v, want %s/%s",
				i, d, sig, meta["reason"], want[i].sig, want[i].reason)
		}
		if got := meta["diff"].(float64); got-d > 1e-9 || d-got > 1e-9 {
			t.Errorf("step %d: meta diff = %v, want %v", i, got, d)
		}
	}
}

func TestMACrossover_ZeroTouchIsNotACross(t *testing.T) {
	// prev=0 then diff>0 IS a cross (prev <= 0); prev>0 then diff=0 is not.
	s := NewMACrossover(MACrossoverConfig{})
	s.OnTick(tick("A"), maInd(100, 100)) // seed, diff=0
	sig, _ := s.OnTick(tick("A"), maInd(101, 100))
	if sig != SignalBuy {
		t.Errorf("prev=0 → diff>0: got %s, want BUY", sig)
	}
	sig, _ = s.OnTick(tick("A"), maInd(100, 100))
	if sig != SignalHold {
		t.Errorf("diff back to 0: got %s, want HOLD", sig)
	}
}

func TestMACrossover_IndependentSymbolState(t *testing.T) {
	s := NewMACrossover(MACrossoverConfig{})
	s.OnTick(tick("A"), maInd(99, 100)) // seed A below zero

	// B's first valid evaluation is a seed regardless of A's state.
	sig, meta := s.OnTick(tick("B"), maInd(101, 100))
	if sig != SignalHold || meta["reason"] != "no_cross" {
		t.Errorf("symbol B seed: got %s/%v", sig, meta["reason"])
	}

	sig, _ = s.OnTick(tick("A"), maInd(101, 100))
	if sig != SignalBuy {
		t.Errorf("symbol A cross: got %s, want BUY", sig)
	}
}
