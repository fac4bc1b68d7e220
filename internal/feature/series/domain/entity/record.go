package entity

import "github.com/guregu/null/v6"

// MACD holds the three MACD components for one bar.
type MACD struct {
	Line   float64
	Signal float64
	Hist   float64
}

// DailyRecord is a bar enriched with derived indicators.
// HighPrevCloseDiff is invalid for the first bar of a series and RSI is
// invalid until enough history has accumulated.
type DailyRecord struct {
	Bar
	Date              string
	HighPrevCloseDiff null.Float
	RSI               null.Float
	MACD              MACD
}

// MonthlyRecord is a pre-aggregated monthly bar; no indicators are derived.
type MonthlyRecord struct {
	Bar
	Date string
}

// DateRange is the first and last date of a collection in chronological
// order. Both are empty for an empty collection.
type DateRange struct {
	Start string
	End   string
}

// Stats summarises a stored collection.
// LatestClose and LatestRSI are only populated for the daily collection.
type Stats struct {
	TotalRecords int
	DateRange    DateRange
	LatestClose  null.Float
	LatestRSI    null.Float
}
