package strategy

import "paperquant/internal/model"

// RSIThreshold signals on RSI breaching configured bounds: at or below
// BuyBelow → BUY, at or above SellAbove → SELL. Stateless per tick.
//
// BUY is checked first, so a misconfiguration with BuyBelow >= SellAbove
// resolves ties in favour of BUY. That precedence is documented behaviour,
// not validated away.
type RSIThreshold struct {
	cfg RSIConfig
}

// NewRSIThreshold creates an RSI threshold strategy.
func NewRSIThreshold(cfg RSIConfig) *RSIThreshold {
	return &RSIThreshold{cfg: cfg}
}

func (s *RSIThreshold) Name() string { return TypeRSI }

func (s *RSIThreshold) OnTick(tick model.Tick, ind model.Indicators) (Signal, map[string]any) {
	if ind.RSI == nil {
		return SignalHold, map[string]any{"reason": "not_enough_data"}
	}

	rsi := *ind.RSI
	switch {
	case rsi <= s.cfg.BuyBelow:
		return SignalBuy, map[string]any{"reason": "rsi_oversold", "rsi": rsi}
	case rsi >= s.cfg.SellAbove:
		return SignalSell, map[string]any{"reason": "rsi_overbought", "rsi": rsi}
	default:
		return SignalHold, map[string]any{"reason": "rsi_neutral", "rsi": rsi}
	}
}
