package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		period int
		want   []float64
	}{
		{"empty", nil, 3, []float64{}},
		{"single value", []float64{42}, 9, []float64{42}},
		{"period 3", []float64{10, 11, 12}, 3, []float64{10, 10.5, 11.25}},
		{"period 1 tracks input", []float64{1, 5, 2}, 1, []float64{1, 5, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, EMA(tt.values, tt.period))
		})
	}
}

func TestEMA_SeededAtFirstValue(t *testing.T) {
	t.Parallel()

	values := []float64{3.5, 9, 1, 7}
	for _, p := range []int{1, 2, 9, 12, 26, 200} {
		out := EMA(values, p)
		require.Len(t, out, len(values))
		assert.Equal(t, values[0], out[0], "period %d", p)
	}
}

func TestMACD_Empty(t *testing.T) {
	t.Parallel()

	m := MACD(nil, 12, 26, 9)
	assert.Empty(t, m.Line)
	assert.Empty(t, m.Signal)
	assert.Empty(t, m.Hist)
	assert.NotNil(t, m.Line)
}

func TestMACD_KnownValues(t *testing.T) {
	t.Parallel()

	m := MACD([]float64{10, 11, 12}, 12, 26, 9)

	assert.InDeltaSlice(t, []float64{0, 0.0797720797720789, 0.22113456871291426}, m.Line, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.01595441595441578, 0.05699044650611548}, m.Signal, 1e-12)
}

func TestMACD_FullLengthAndHistogram(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 300)
	for i := range closes {
		closes[i] = 4000 + 50*math.Sin(float64(i)/11) + float64(i)
	}

	m := MACD(closes, 12, 26, 9)
	require.Len(t, m.Line, len(closes))
	require.Len(t, m.Signal, len(closes))
	require.Len(t, m.Hist, len(closes))

	assert.Equal(t, 0.0, m.Line[0], "both EMAs start at the first close")
	for i := range closes {
		assert.Equal(t, m.Line[i]-m.Signal[i], m.Hist[i], "index %d", i)
	}

	again := MACD(closes, 12, 26, 9)
	assert.Equal(t, m, again)
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"zero rsi", Params{RSIPeriod: 0, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}, true},
		{"negative signal", Params{RSIPeriod: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidParams))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
