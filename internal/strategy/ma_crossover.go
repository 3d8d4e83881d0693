package strategy

import "paperquant/internal/model"

// MACrossover signals on the short/long moving-average difference crossing
// zero: upward is a golden cross (BUY), downward a death cross (SELL).
//
// Per-symbol state is the previous diff. The first valid evaluation only
// seeds it; no signal can fire without a prior diff to cross from. The diff
// is updated on every valid evaluation, HOLD outcomes included.
type MACrossover struct {
	cfg      MACrossoverConfig
	prevDiff map[string]float64
}

// NewMACrossover creates a crossover strategy.
func NewMACrossover(cfg MACrossoverConfig) *MACrossover {
	return &MACrossover{cfg: cfg, prevDiff: make(map[string]float64)}
}

func (s *MACrossover) Name() string { return TypeMACrossover }

func (s *MACrossover) OnTick(tick model.Tick, ind model.Indicators) (Signal, map[string]any) {
	if ind.MAShort == nil || ind.MALong == nil {
		return SignalHold, map[string]any{"reason": "not_enough_data"}
	}

	diff := *ind.MAShort - *ind.MALong
	prev, seeded := s.prevDiff[tick.Symbol]
	s.prevDiff[tick.Symbol] = diff

	signal, reason := SignalHold, "no_cross"
	if seeded {
		switch {
		case prev <= 0 && diff > 0:
			signal, reason = SignalBuy, "golden_cross"
		case prev >= 0 && diff < 0:
			signal, reason = SignalSell, "death_cross"
		}
	}
	return signal, map[string]any{"reason": reason, "diff": diff}
}
