package indicator

import "testing"

func TestRSI_UndefinedWhileSeeding(t *testing.T) {
	// period=3 needs 3 deltas, i.e. 4 ticks, before the first value.
	r := NewRSI(3)
	prices := []float64{100, 101, 102, 103}
	for i, p := range prices[:3] {
		if _, ok := r.Update(p); ok {
			t.Errorf("tick %d: RSI should be undefined while seeding", i+1)
		}
	}
	v, ok := r.Update(prices[3])
	if !ok {
		t.Fatal("RSI should be defined after period deltas")
	}
	// All gains, no losses.
	assertClose(t, "RSI all-gain", v, 100.0, 1e-9)
}

func TestRSI_SeedAverages(t *testing.T) {
	// period=2, prices 100, 102, 101, 104:
	//   deltas: +2, -1 → seed avgGain=1, avgLoss=0.5 → RS=2 → RSI=66.666...
	//   next delta +3: avgGain=(1*1+3)/2=2, avgLoss=(0.5*1+0)/2=0.25
	//   RS=8 → RSI=100-100/9=88.888...
	r := NewRSI(2)
	r.Update(100)
	r.Update(102)
	v, ok := r.Update(101)
	if !ok {
		t.Fatal("RSI should be defined at seed completion")
	}
	assertClose(t, "RSI seeded", v, 100.0-100.0/3.0, 1e-9)

	v, ok = r.Update(104)
	if !ok {
		t.Fatal("RSI should stay defined while smoothing")
	}
	assertClose(t, "RSI smoothed", v, 100.0-100.0/9.0, 1e-9)
}

func TestRSI_MonotonicConvergence(t *testing.T) {
	up := NewRSI(14)
	down := NewRSI(14)
	var upVal, downVal float64
	for i := 0; i < 200; i++ {
		p := 100.0 + float64(i)
		if v, ok := up.Update(p); ok {
			upVal = v
		}
		if v, ok := down.Update(300.0 - float64(i)); ok {
			downVal = v
		}
	}
	if upVal < 99.999 {
		t.Errorf("monotonic up: RSI = %.4f, want ~100", upVal)
	}
	if downVal > 0.001 {
		t.Errorf("monotonic down: RSI = %.4f, want ~0", downVal)
	}
}

func TestRSI_FlatSeriesIsHundred(t *testing.T) {
	// No gains and no losses: avgLoss == 0 forces RSI to 100 by definition.
	r := NewRSI(3)
	var v float64
	var ok bool
	for i := 0; i < 10; i++ {
		v, ok = r.Update(50)
	}
	if !ok {
		t.Fatal("flat series: RSI should be defined after seeding")
	}
	assertClose(t, "RSI flat", v, 100.0, 1e-9)
}
