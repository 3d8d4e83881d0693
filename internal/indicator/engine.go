package indicator

import "paperquant/internal/model"

// Config selects which indicators the engine maintains. A zero window or
// period disables that indicator; the engine loop derives the config from the
// active strategy so only the indicators the strategy reads are computed.
type Config struct {
	ShortWindow int // SMA short window, 0 = off
	LongWindow  int // SMA long window, 0 = off
	RSIPeriod   int // Wilder RSI period, 0 = off
	WindowCap   int // price history capacity, 0 = DefaultWindowCap
}

// Engine owns per-symbol indicator state. Symbol state is created lazily on
// first reference. Not safe for concurrent use; the engine loop is the sole
// caller.
type Engine struct {
	cfg     Config
	windows map[string]*Window
	rsi     map[string]*RSI
}

// NewEngine creates an indicator engine for the given config.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		windows: make(map[string]*Window),
		rsi:     make(map[string]*RSI),
	}
}

// Update records a price for the symbol and returns the indicator values for
// this tick. Fields stay nil until their window is full. The price window is
// always advanced, even for indicators that are disabled, so history is
// complete if a snapshot consumer ever wants it.
func (e *Engine) Update(symbol string, price float64) model.Indicators {
	w := e.window(symbol)
	w.Push(price)

	var ind model.Indicators
	if e.cfg.ShortWindow > 0 {
		if v, ok := w.SMA(e.cfg.ShortWindow); ok {
			ind.MAShort = &v
		}
	}
	if e.cfg.LongWindow > 0 {
		if v, ok := w.SMA(e.cfg.LongWindow); ok {
			ind.MALong = &v
		}
	}
	if e.cfg.RSIPeriod > 0 {
		if v, ok := e.rsiState(symbol).Update(price); ok {
			ind.RSI = &v
		}
	}
	return ind
}

func (e *Engine) window(symbol string) *Window {
	w, ok := e.windows[symbol]
	if !ok {
		w = NewWindow(e.cfg.WindowCap)
		e.windows[symbol] = w
	}
	return w
}

func (e *Engine) rsiState(symbol string) *RSI {
	r, ok := e.rsi[symbol]
	if !ok {
		r = NewRSI(e.cfg.RSIPeriod)
		e.rsi[symbol] = r
	}
	return r
}
