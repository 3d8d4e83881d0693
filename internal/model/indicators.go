package model

// Indicators holds the per-tick indicator values for one symbol.
// Each field is nil until its prerequisite window is full; absence is a
// first-class value, not zero. A nil pointer marshals to JSON null, which is
// what observers key off to distinguish "warming up" from a real value.
type Indicators struct {
	MAShort *float64 `json:"ma_short"`
	MALong  *float64 `json:"ma_long"`
	RSI     *float64 `json:"rsi"`
}
