package indicator

// EMA calculates an exponential moving average with k = 2/(period+1),
// seeded at the first value: ema[0] = values[0] and
// ema[i] = values[i]*k + ema[i-1]*(1-k). There is no warm-up gap.
func EMA(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MACDSeries holds the MACD line, its signal line and the histogram, each
// the same length as the input closes.
type MACDSeries struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// MACD calculates EMA(fast) - EMA(slow), the signal EMA of that line and
// their difference. Both EMAs span the full series, so every index has a value.
func MACD(closes []float64, fast, slow, signal int) MACDSeries {
	n := len(closes)
	if n == 0 {
		return MACDSeries{Line: []float64{}, Signal: []float64{}, Hist: []float64{}}
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	line := make([]float64, n)
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(line, signal)
	hist := make([]float64, n)
	for i := range line {
		hist[i] = line[i] - sig[i]
	}
	return MACDSeries{Line: line, Signal: sig, Hist: hist}
}
