// Package normalize turns raw tabular rows into a time-ordered bar series.
package normalize

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"spx_backend/internal/feature/series/domain"
	"spx_backend/internal/feature/series/domain/entity"
)

// Required column names. Keys of a RawRow are expected to be lower-cased.
const (
	ColTime   = "time"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// RequiredColumns lists the columns every row must carry.
var RequiredColumns = []string{ColTime, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// RawRow is one parsed tabular record, column name to cell text.
type RawRow map[string]string

// Result is the outcome of Normalize.
type Result struct {
	Bars    []entity.Bar // ascending by time, stable for equal timestamps
	Skipped int          // rows dropped because a value failed to parse
}

// Epoch seconds must stay within years 0001..9999 so the date keeps the
// YYYY-MM-DD shape.
const (
	minEpochSeconds = -62135596800 // 0001-01-01T00:00:00Z
	maxEpochSeconds = 253402300799 // 9999-12-31T23:59:59Z
)

// isoLayouts are tried in order after the epoch-seconds interpretation fails.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Normalize validates rows into bars and sorts them by timestamp.
//
// A row whose timestamp or any numeric field fails to parse is dropped and
// counted in Result.Skipped. The only error is a row missing one of the
// required keys, which wraps domain.ErrInvalidInput.
// Duplicate timestamps are kept as distinct bars.
func Normalize(rows []RawRow) (Result, error) {
	bars := make([]entity.Bar, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		if missing := missingColumns(row); len(missing) > 0 {
			return Result{}, fmt.Errorf("%w: row %d missing columns %v", domain.ErrInvalidInput, i, missing)
		}
		bar, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		bars = append(bars, bar)
	}

	slices.SortStableFunc(bars, func(a, b entity.Bar) int {
		return a.Time.Compare(b.Time)
	})
	return Result{Bars: bars, Skipped: skipped}, nil
}

func missingColumns(row RawRow) []string {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func parseRow(row RawRow) (entity.Bar, bool) {
	ts, ok := ParseTimestamp(row[ColTime])
	if !ok {
		return entity.Bar{}, false
	}
	var vals [5]float64
	for i, col := range RequiredColumns[1:] {
		v, ok := parseFloat(row[col])
		if !ok {
			return entity.Bar{}, false
		}
		vals[i] = v
	}
	return entity.Bar{
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, true
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	// ParseFloat accepts Go digit separators ("1_000"); CSV cells never use them.
	if strings.Contains(s, "_") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseTimestamp interprets s as epoch seconds, then as ISO-8601, then as
// ISO-8601 after removing a trailing "Z". Epoch values are returned in UTC;
// ISO values keep the offset they carry.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if secs, ok := parseFloat(s); ok {
		if secs < minEpochSeconds || secs > maxEpochSeconds {
			return time.Time{}, false
		}
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(math.Round(frac*1e9))).UTC(), true
	}
	if t, ok := parseISO(s); ok {
		return t, true
	}
	if trimmed, found := strings.CutSuffix(s, "Z"); found {
		return parseISO(trimmed)
	}
	return time.Time{}, false
}

func parseISO(s string) (time.Time, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
