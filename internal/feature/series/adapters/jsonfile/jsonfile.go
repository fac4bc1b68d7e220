// Package jsonfile persists the series collections as JSON documents in a
// directory. Each replace writes a temporary file and renames it over the
// previous one, so readers see either the old or the new collection.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/guregu/null/v6"

	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/store"
)

const (
	DailyFile   = "daily_data.json"
	MonthlyFile = "monthly_data.json"
)

type fileBackend struct {
	dir string
}

var _ store.Backend = (*fileBackend)(nil)

// New returns a store.Backend writing under dir. The directory is created if needed.
func New(dir string) (*fileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &fileBackend{dir: dir}, nil
}

type barDoc struct {
	Date   string    `json:"date"`
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type dailyDoc struct {
	barDoc
	HighPrevCloseDiff null.Float `json:"high_prev_close_diff"`
	RSI               null.Float `json:"rsi"`
	MACDLine          float64    `json:"macd_line"`
	MACDSignal        float64    `json:"macd_signal"`
	MACDHist          float64    `json:"macd_hist"`
}

func toBarDoc(date string, b entity.Bar) barDoc {
	return barDoc{Date: date, Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
}

func (d barDoc) bar() entity.Bar {
	return entity.Bar{Time: d.Time, Open: d.Open, High: d.High, Low: d.Low, Close: d.Close, Volume: d.Volume}
}

func (f *fileBackend) ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error {
	docs := make([]dailyDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, dailyDoc{
			barDoc:            toBarDoc(r.Date, r.Bar),
			HighPrevCloseDiff: r.HighPrevCloseDiff,
			RSI:               r.RSI,
			MACDLine:          r.MACD.Line,
			MACDSignal:        r.MACD.Signal,
			MACDHist:          r.MACD.Hist,
		})
	}
	return f.write(ctx, DailyFile, docs)
}

func (f *fileBackend) ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error {
	docs := make([]barDoc, 0, len(records))
	for _, r := range records {
		docs = append(docs, toBarDoc(r.Date, r.Bar))
	}
	return f.write(ctx, MonthlyFile, docs)
}

func (f *fileBackend) FindDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error) {
	var docs []dailyDoc
	if err := f.read(ctx, DailyFile, &docs); err != nil {
		return nil, err
	}
	docs = newestFirst(docs, limit)
	out := make([]entity.DailyRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, entity.DailyRecord{
			Bar:               d.bar(),
			Date:              d.Date,
			HighPrevCloseDiff: d.HighPrevCloseDiff,
			RSI:               d.RSI,
			MACD:              entity.MACD{Line: d.MACDLine, Signal: d.MACDSignal, Hist: d.MACDHist},
		})
	}
	return out, nil
}

func (f *fileBackend) FindMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error) {
	var docs []barDoc
	if err := f.read(ctx, MonthlyFile, &docs); err != nil {
		return nil, err
	}
	docs = newestFirst(docs, limit)
	out := make([]entity.MonthlyRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, entity.MonthlyRecord{Bar: d.bar(), Date: d.Date})
	}
	return out, nil
}

// newestFirst keeps the last limit docs and reverses them.
func newestFirst[T any](docs []T, limit int) []T {
	if limit > 0 && limit < len(docs) {
		docs = docs[len(docs)-limit:]
	}
	out := make([]T, len(docs))
	for i, d := range docs {
		out[len(docs)-1-i] = d
	}
	return out
}

func (f *fileBackend) write(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, filepath.Join(f.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// read decodes the named document into v. A missing file is an empty collection.
func (f *fileBackend) read(ctx context.Context, name string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
