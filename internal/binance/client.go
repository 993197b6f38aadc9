// Package binance fetches OHLCV klines from the Binance REST API.
// The endpoint caps every response at 1000 rows, so a date span is walked
// with a millisecond cursor that advances past the close time of the last
// returned row. An inter-page delay keeps the loop inside the vendor's
// rate limits.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trading-dataflows/internal/model"
	"trading-dataflows/internal/service"
)

// Vendor is the identifier used in cache keys and report headers.
const Vendor = "Binance"

// pageLimit is the Binance hard cap on rows per kline request.
const pageLimit = 1000

const (
	maxPageRetries = 2
	retryBackoff   = 2 * time.Second
)

// supportedIntervals is the kline interval menu the endpoint accepts.
var supportedIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// Client talks to the Binance kline endpoint.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds a kline client from config. The limiter spaces page
// requests by the configured delay.
func NewClient(cfg service.BinanceConfig, logger *zap.Logger) *Client {
	delay := time.Duration(cfg.PageDelayMs) * time.Millisecond
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.RESTURL).
			SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second),
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		logger:  logger,
	}
}

// ValidateInterval checks the interval against the endpoint's menu.
func ValidateInterval(interval string) error {
	if !supportedIntervals[interval] {
		return fmt.Errorf("unsupported kline interval %q", interval)
	}
	return nil
}

// FetchKlines returns bars covering the closed date interval [start, end].
// Transport and HTTP failures surface as NetworkError so the caller can
// fall back to another vendor; an empty window surfaces as NoDataError and
// must not be retried elsewhere.
func (c *Client) FetchKlines(ctx context.Context, symbol string, start, end time.Time, interval string) ([]model.Bar, error) {
	if err := ValidateInterval(interval); err != nil {
		return nil, err
	}

	startMs := service.DayUTC(start).UnixMilli()
	endMs := service.DayUTC(end).UnixMilli()

	c.logger.Info("fetching Binance klines",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.String("start", start.Format(service.DateLayout)),
		zap.String("end", end.Format(service.DateLayout)))

	var rows [][]json.RawMessage
	cursor := startMs
	for cursor < endMs {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &model.NetworkError{Vendor: Vendor, Err: err}
		}

		page, err := c.fetchPage(ctx, symbol, interval, cursor, endMs)
		if err != nil {
			return nil, &model.NetworkError{Vendor: Vendor, Err: err}
		}
		if len(page) == 0 {
			break
		}
		rows = append(rows, page...)

		closeTime, err := rawInt64(page[len(page)-1][6])
		if err != nil {
			return nil, fmt.Errorf("decode kline close time: %w", err)
		}
		next := closeTime + 1
		if next <= cursor {
			// Upstream returned a stale page; bail out rather than loop.
			break
		}
		cursor = next
	}

	bars, err := decodeRows(rows)
	if err != nil {
		return nil, err
	}

	// A page can overshoot the window at day edges; keep the closed range.
	filtered := bars[:0]
	startDay := service.DayUTC(start)
	endDay := service.DayUTC(end)
	for _, b := range bars {
		if b.Date.Before(startDay) || b.Date.After(endDay) {
			continue
		}
		filtered = append(filtered, b)
	}

	if len(filtered) == 0 {
		return nil, &model.NoDataError{
			Symbol: symbol,
			Start:  start.Format(service.DateLayout),
			End:    end.Format(service.DateLayout),
		}
	}
	return filtered, nil
}

// fetchPage issues one kline request, retrying transient failures with a
// constant backoff. A 4xx other than 429 is terminal.
func (c *Client) fetchPage(ctx context.Context, symbol, interval string, startMs, endMs int64) ([][]json.RawMessage, error) {
	var rows [][]json.RawMessage
	backoff := retry.WithMaxRetries(maxPageRetries, retry.NewConstant(retryBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"symbol":    symbol,
				"interval":  interval,
				"startTime": fmt.Sprintf("%d", startMs),
				"endTime":   fmt.Sprintf("%d", endMs),
				"limit":     fmt.Sprintf("%d", pageLimit),
			}).
			Get("/api/v3/klines")
		if err != nil {
			return retry.RetryableError(err)
		}
		switch {
		case resp.StatusCode() == http.StatusOK:
		case resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= 500:
			return retry.RetryableError(fmt.Errorf("klines status %d", resp.StatusCode()))
		default:
			return fmt.Errorf("klines status %d: %s", resp.StatusCode(), resp.String())
		}
		rows = rows[:0]
		if err := json.Unmarshal(resp.Body(), &rows); err != nil {
			return fmt.Errorf("decode klines response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// decodeRows converts raw fixed-position kline arrays into typed bars,
// rounded to crypto precision. Row layout: open time, open, high, low,
// close, volume, close time, quote volume, trade count, taker-buy base,
// taker-buy quote, ignored.
func decodeRows(rows [][]json.RawMessage) ([]model.Bar, error) {
	bars := make([]model.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			return nil, fmt.Errorf("kline row has %d fields, want at least 7", len(row))
		}
		openTime, err := rawInt64(row[0])
		if err != nil {
			return nil, fmt.Errorf("decode kline open time: %w", err)
		}
		var vals [5]float64
		for i := 0; i < 5; i++ {
			v, err := rawFloat(row[i+1])
			if err != nil {
				return nil, fmt.Errorf("decode kline field %d: %w", i+1, err)
			}
			vals[i] = v
		}
		bar := model.Bar{
			Date:   time.UnixMilli(openTime).UTC(),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		}
		bars = append(bars, bar.Rounded(model.CryptoPrecision))
	}
	return bars, nil
}

// rawFloat decodes a kline numeric field, which Binance sends as a quoted
// decimal string.
func rawFloat(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return service.StringToFloat(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

// rawInt64 decodes a kline timestamp field, sent as a bare JSON number.
func rawInt64(raw json.RawMessage) (int64, error) {
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return service.StringToInt64(s)
}

// Report renders the normalized report text: a #-prefixed header block
// followed by the CSV body.
func Report(symbol string, start, end time.Time, interval string, bars []model.Bar) string {
	header := fmt.Sprintf("# Binance data for %s from %s to %s\n", symbol,
		start.Format(service.DateLayout), end.Format(service.DateLayout))
	header += fmt.Sprintf("# Interval: %s\n", interval)
	header += fmt.Sprintf("# Total records: %d\n", len(bars))
	header += fmt.Sprintf("# Data retrieved on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	return header + model.MarshalSeries(bars)
}
