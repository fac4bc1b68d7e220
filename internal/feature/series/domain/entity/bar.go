// Package entity defines the domain models for the series feature.
package entity

import "time"

// DateLayout is the calendar-day format used for record dates.
const DateLayout = "2006-01-02"

// Kind identifies one of the two stored collections.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindMonthly Kind = "monthly"
)

// Bar represents one validated OHLCV observation of the instrument.
// Time keeps the offset it was parsed with, so Date() yields the calendar
// day written in the source data.
type Bar struct {
	Time   time.Time // Observation timestamp
	Open   float64   // Opening price
	High   float64   // Highest price during the period
	Low    float64   // Lowest price during the period
	Close  float64   // Closing price
	Volume float64   // Traded volume
}

// Date formats the bar timestamp as YYYY-MM-DD.
func (b Bar) Date() string {
	return b.Time.Format(DateLayout)
}

// Closes extracts the close prices of bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
