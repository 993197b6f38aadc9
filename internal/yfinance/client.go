// Package yfinance fetches equity OHLCV and fundamental statements from
// the Yahoo Finance public API. It is the fallback vendor for crypto pairs
// and the primary vendor for everything else. Report wrappers encode
// failures as text because their output is consumed verbatim as report
// content.
package yfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"trading-dataflows/internal/model"
	"trading-dataflows/internal/service"
)

// Vendor is the identifier used in cache keys and report headers.
const Vendor = "YFin"

// Client talks to the Yahoo Finance chart and quoteSummary endpoints.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a Yahoo Finance client from config.
func NewClient(cfg service.YahooConfig, logger *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(time.Duration(cfg.TimeoutSec)*time.Second).
			SetHeader("User-Agent", "Mozilla/5.0"),
		logger: logger,
	}
}

// chartResponse is the shape of the v8 chart endpoint.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns daily bars for the closed date interval [start, end],
// rounded to equity precision. Single-request semantics: the endpoint
// handles the whole range, no pagination.
func (c *Client) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]model.Bar, error) {
	period1 := service.DayUTC(start).Unix()
	period2 := service.DayUTC(end).Add(24 * time.Hour).Unix()

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"period1":  fmt.Sprintf("%d", period1),
			"period2":  fmt.Sprintf("%d", period2),
			"interval": "1d",
			"events":   "history",
		}).
		Get("/v8/finance/chart/" + ticker)
	if err != nil {
		return nil, &model.NetworkError{Vendor: Vendor, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &model.NetworkError{Vendor: Vendor, Err: fmt.Errorf("chart status %d: %s", resp.StatusCode(), resp.String())}
	}

	var chart chartResponse
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("decode chart response: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, &model.NetworkError{Vendor: Vendor, Err: fmt.Errorf("chart api error: %s", chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, c.noData(ticker, start, end)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	endDay := service.DayUTC(end)
	startDay := service.DayUTC(start)

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl, v := deref(quote.Open, i), deref(quote.High, i), deref(quote.Low, i), deref(quote.Close, i), deref(quote.Volume, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // null bar (holiday etc.)
		}
		date := service.DayUTC(time.Unix(ts, 0))
		if date.Before(startDay) || date.After(endDay) {
			continue
		}
		bar := model.Bar{Date: date, Open: o, High: h, Low: l, Close: cl, Volume: v}
		bars = append(bars, bar.Rounded(model.EquityPrecision))
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	if len(bars) == 0 {
		return nil, c.noData(ticker, start, end)
	}
	return bars, nil
}

func (c *Client) noData(ticker string, start, end time.Time) error {
	return &model.NoDataError{
		Symbol: ticker,
		Start:  start.Format(service.DateLayout),
		End:    end.Format(service.DateLayout),
	}
}

func deref(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}

// Report renders the normalized report text for a fetched daily series.
func Report(ticker string, start, end time.Time, bars []model.Bar) string {
	header := fmt.Sprintf("# Stock data for %s from %s to %s\n", ticker,
		start.Format(service.DateLayout), end.Format(service.DateLayout))
	header += fmt.Sprintf("# Total records: %d\n", len(bars))
	header += fmt.Sprintf("# Data retrieved on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	return header + model.MarshalSeries(bars)
}
