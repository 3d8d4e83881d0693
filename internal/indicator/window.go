// Package indicator provides incremental technical indicator state.
//
// Each symbol owns its own window and RSI state; the Engine combines them into
// one Indicators value per tick. All updates are O(1) amortised: RSI never
// rescans history, and the price window evicts FIFO at capacity.
package indicator

// DefaultWindowCap bounds per-symbol price history when no capacity is configured.
const DefaultWindowCap = 5000

// Window is a bounded FIFO price history backed by a preallocated circular
// buffer. Appending beyond capacity silently drops the oldest sample.
type Window struct {
	buf   []float64
	start int // index of the oldest sample
	size  int
}

// NewWindow creates a price window with the given capacity.
// Non-positive capacities fall back to DefaultWindowCap.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCap
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends a price, evicting the oldest sample once full.
func (w *Window) Push(price float64) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = price
		w.size++
		return
	}
	w.buf[w.start] = price
	w.start = (w.start + 1) % len(w.buf)
}

// Len returns the number of retained samples.
func (w *Window) Len() int { return w.size }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// SMA returns the arithmetic mean of the most recent n samples. The second
// return is false while fewer than n samples are retained, or when n is not
// positive. Summation runs oldest-to-newest over exactly the last n samples so
// results are bit-for-bit reproducible.
func (w *Window) SMA(n int) (float64, bool) {
	if n <= 0 || w.size < n {
		return 0, false
	}
	sum := 0.0
	for i := w.size - n; i < w.size; i++ {
		sum += w.buf[(w.start+i)%len(w.buf)]
	}
	return sum / float64(n), true
}
