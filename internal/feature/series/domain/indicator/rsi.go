package indicator

import "github.com/guregu/null/v6"

// RSI calculates the Relative Strength Index using Wilder's smoothing.
//
// The first average gain/loss is the simple mean of the first period
// deltas; every later average carries forward as
// avg = (avg*(period-1) + x) / period. The result has one entry per close,
// and the first period entries are invalid. With fewer than period+1
// closes every entry is invalid.
func RSI(closes []float64, period int) []null.Float {
	n := len(closes)
	out := make([]null.Float, n)
	if period < 1 || n < period+1 {
		return out
	}

	p := float64(period)
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= p
	avgLoss /= p
	out[period] = null.FloatFrom(rsiValue(avgGain, avgLoss))

	for i := period + 1; i < n; i++ {
		gain, loss := split(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = null.FloatFrom(rsiValue(avgGain, avgLoss))
	}
	return out
}

func split(delta float64) (gain, loss float64) {
	switch {
	case delta > 0:
		return delta, 0
	case delta < 0:
		return 0, -delta
	}
	return 0, 0
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
