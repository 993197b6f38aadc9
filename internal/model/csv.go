package model

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SchemaOHLCV is the on-disk schema tag for a serialized OHLCV series.
// Cache files carry it in a comment line so readers can reject layouts
// they do not understand instead of mis-parsing them.
const SchemaOHLCV = "ohlcv-v1"

var seriesColumns = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// MarshalSeries renders bars as a CSV body: one header row, one record per
// bar, dates in YYYY-MM-DD. Rounding is an ingestion concern; values are
// written as-is.
func MarshalSeries(bars []Bar) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(seriesColumns)
	for _, b := range bars {
		_ = w.Write([]string{
			b.Date.Format("2006-01-02"),
			floatStr(b.Open),
			floatStr(b.High),
			floatStr(b.Low),
			floatStr(b.Close),
			floatStr(b.Volume),
		})
	}
	w.Flush()
	return sb.String()
}

// UnmarshalSeries parses a CSV body produced by MarshalSeries. Blank lines
// and #-prefixed comment lines are skipped; a "# schema:" comment, when
// present, must name a supported schema.
func UnmarshalSeries(data string) ([]Bar, error) {
	var rows []string
	for _, line := range strings.Split(data, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if tag, ok := strings.CutPrefix(trimmed, "# schema:"); ok {
				if strings.TrimSpace(tag) != SchemaOHLCV {
					return nil, fmt.Errorf("unsupported series schema: %s", strings.TrimSpace(tag))
				}
			}
			continue
		}
		rows = append(rows, trimmed)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty series body")
	}

	r := csv.NewReader(strings.NewReader(strings.Join(rows, "\n")))
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse series csv: %w", err)
	}
	if len(records[0]) != len(seriesColumns) {
		return nil, fmt.Errorf("series csv: expected %d columns, got %d", len(seriesColumns), len(records[0]))
	}

	bars := make([]Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		date, err := time.ParseInLocation("2006-01-02", rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("series csv: bad date %q: %w", rec[0], err)
		}
		var vals [5]float64
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("series csv: bad value %q in column %s: %w", rec[i+1], seriesColumns[i+1], err)
			}
			vals[i] = v
		}
		bars = append(bars, Bar{
			Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Volume: vals[4],
		})
	}
	return bars, nil
}
