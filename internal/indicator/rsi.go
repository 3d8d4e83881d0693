package indicator

// RSI holds per-symbol Wilder RSI state. The state machine moves strictly
// forward: unseeded (no previous price) → seeding (accumulating the first
// `period` deltas) → smoothing (Wilder's recursive averages). Update is O(1).
type RSI struct {
	period    int
	havePrev  bool
	prev      float64
	seedCount int
	avgGain   float64
	avgLoss   float64
	smoothing bool
}

// NewRSI creates an RSI state machine with the given period (typically 14).
// The period is fixed for the lifetime of the value.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Update feeds one price and returns the RSI value. The second return is
// false until `period` deltas have been observed (one more tick than the
// period itself, since the first tick only seeds the previous price).
//
// When the smoothed average loss is zero the RSI is 100 by definition, even
// when the average gain is also zero (a flat series after seeding).
func (r *RSI) Update(price float64) (float64, bool) {
	if !r.havePrev {
		r.prev = price
		r.havePrev = true
		return 0, false
	}

	change := price - r.prev
	r.prev = price
	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	if !r.smoothing {
		// Seeding: raw sums of the first `period` gains/losses.
		r.avgGain += gain
		r.avgLoss += loss
		r.seedCount++
		if r.seedCount < r.period {
			return 0, false
		}
		r.avgGain /= float64(r.period)
		r.avgLoss /= float64(r.period)
		r.smoothing = true
	} else {
		p := float64(r.period)
		r.avgGain = (r.avgGain*(p-1) + gain) / p
		r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	}

	if r.avgLoss == 0 {
		return 100.0, true
	}
	rs := r.avgGain / r.avgLoss
	return 100.0 - (100.0 / (1.0 + rs)), true
}
