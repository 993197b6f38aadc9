// Package indicator answers per-date technical indicator queries by bulk
// computation: one long window is fetched (through the cache) and the
// whole indicator column is computed in a single pass, then every date in
// the requested range is answered from the resulting lookup table.
package indicator

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trading-dataflows/internal/model"
	"trading-dataflows/internal/service"
	"trading-dataflows/pkg/ta"
)

// NotTradingDay is the sentinel rendered for dates absent from the series.
const NotTradingDay = "N/A: Not a trading day (weekend or holiday)"

// lookbackYears sizes the bulk window ending today. A long fixed window
// keeps cache keys stable across requests, which is what makes the
// exact-window disk cache effective.
const lookbackYears = 5

// Source loads a daily OHLCV window for a symbol. The vendor router
// provides an implementation that routes crypto/equity and goes through
// the disk cache.
type Source interface {
	DailyWindow(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
}

// Engine computes indicator reports over windows supplied by a Source.
type Engine struct {
	source Source
	logger *zap.Logger
	now    func() time.Time
}

// New builds an engine on top of a window source.
func New(source Source, logger *zap.Logger) *Engine {
	return &Engine{source: source, logger: logger, now: time.Now}
}

// WindowReport returns one line per calendar day from currDate back
// lookBackDays days (inclusive, newest first), followed by the fixed
// usage description of the indicator. Unknown indicator names fail fast
// with the supported set.
func (e *Engine) WindowReport(ctx context.Context, symbol, indicator, currDate string, lookBackDays int) (string, error) {
	if !ta.IsSupported(indicator) {
		return "", &model.InvalidIndicatorError{Indicator: indicator, Supported: ta.Supported()}
	}
	curr, err := service.ParseDate(currDate)
	if err != nil {
		return "", err
	}
	from := curr.AddDate(0, 0, -lookBackDays)

	lines, err := e.bulkLines(ctx, symbol, indicator, curr, from)
	if err != nil {
		// Degrade to the slow per-date path instead of aborting the whole
		// request; each date re-resolves its own window.
		e.logger.Warn("bulk indicator computation failed, using per-date fallback",
			zap.String("symbol", symbol), zap.String("indicator", indicator), zap.Error(err))
		lines = e.perDateLines(ctx, symbol, indicator, curr, from)
	}

	report := fmt.Sprintf("## %s values from %s to %s:\n\n",
		indicator, from.Format(service.DateLayout), currDate)
	return report + lines + "\n\n" + ta.Describe(indicator), nil
}

// IndicatorAt answers a single date. This is the fallback path: it pays a
// full window fetch and computation per call, so WindowReport prefers the
// bulk table.
func (e *Engine) IndicatorAt(ctx context.Context, symbol, indicator, date string) (string, error) {
	if !ta.IsSupported(indicator) {
		return "", &model.InvalidIndicatorError{Indicator: indicator, Supported: ta.Supported()}
	}
	table, err := e.table(ctx, symbol, indicator)
	if err != nil {
		return "", err
	}
	if v, ok := table[date]; ok {
		return v, nil
	}
	return NotTradingDay, nil
}

func (e *Engine) bulkLines(ctx context.Context, symbol, indicator string, curr, from time.Time) (string, error) {
	table, err := e.table(ctx, symbol, indicator)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for d := curr; !d.Before(from); d = d.AddDate(0, 0, -1) {
		key := d.Format(service.DateLayout)
		value, ok := table[key]
		if !ok {
			value = NotTradingDay
		}
		fmt.Fprintf(&sb, "%s: %s\n", key, value)
	}
	return sb.String(), nil
}

func (e *Engine) perDateLines(ctx context.Context, symbol, indicator string, curr, from time.Time) string {
	var sb strings.Builder
	for d := curr; !d.Before(from); d = d.AddDate(0, 0, -1) {
		key := d.Format(service.DateLayout)
		value, err := e.IndicatorAt(ctx, symbol, indicator, key)
		if err != nil {
			e.logger.Warn("per-date indicator lookup failed",
				zap.String("symbol", symbol), zap.String("date", key), zap.Error(err))
			value = ""
		}
		fmt.Fprintf(&sb, "%s: %s\n", key, value)
	}
	return sb.String()
}

// table fetches the bulk window and computes the whole indicator column,
// returning a date -> rendered value map. NaN (warm-up region) renders as
// a bare "N/A".
func (e *Engine) table(ctx context.Context, symbol, indicator string) (map[string]string, error) {
	end := service.DayUTC(e.now())
	start := end.AddDate(-lookbackYears, 0, 0)

	bars, err := e.source.DailyWindow(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	column, err := ta.Compute(indicator, bars)
	if err != nil {
		return nil, err
	}

	table := make(map[string]string, len(bars))
	for i, b := range bars {
		key := b.Date.Format(service.DateLayout)
		if math.IsNaN(column[i]) {
			table[key] = "N/A"
			continue
		}
		table[key] = strconv.FormatFloat(column[i], 'f', -1, 64)
	}
	return table, nil
}
