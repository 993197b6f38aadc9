package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trading-dataflows/internal/model"
	"trading-dataflows/internal/service"
)

const dayMs = int64(24 * 60 * 60 * 1000)

// klineRow renders one Binance kline array for a daily bar opening at
// openMs.
func klineRow(openMs int64, o, h, l, c, v string) string {
	closeMs := openMs + dayMs - 1
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","%s",%d,"0",1,"0","0","0"]`,
		openMs, o, h, l, c, v, closeMs)
}

func msFor(date string) int64 {
	t, _ := service.ParseDate(date)
	return t.UnixMilli()
}

func testConfig(t *testing.T, binanceURL, yahooURL string) *service.Config {
	t.Helper()
	cfg := service.DefaultConfig()
	cfg.DataCacheDir = t.TempDir()
	cfg.Binance = service.BinanceConfig{RESTURL: binanceURL, PageDelayMs: 1, TimeoutSec: 5}
	cfg.Yahoo = service.YahooConfig{BaseURL: yahooURL, TimeoutSec: 5}
	return cfg
}

func newTestRouter(t *testing.T, binanceURL, yahooURL string) *Router {
	t.Helper()
	r, err := New(testConfig(t, binanceURL, yahooURL), zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestNewRejectsUnknownVendor(t *testing.T) {
	cfg := service.DefaultConfig()
	cfg.DataVendors["core_stock_apis"] = "bloomberg"
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bloomberg")

	cfg = service.DefaultConfig()
	cfg.ToolVendors["get_news"] = "twitter"
	_, err = New(cfg, zap.NewNop())
	require.Error(t, err)
}

func TestNewRejectsUnknownCategory(t *testing.T) {
	cfg := service.DefaultConfig()
	cfg.DataVendors["social_sentiment"] = "rss"
	_, err := New(cfg, zap.NewNop())

	var invalid *model.InvalidCategoryError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "social_sentiment", invalid.Category)
}

func TestVendorForToolOverrideWins(t *testing.T) {
	cfg := service.DefaultConfig()
	cfg.ToolVendors["get_news"] = "fmp"
	r, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	vendor, err := r.VendorFor("get_news", CategoryNews)
	require.NoError(t, err)
	assert.Equal(t, VendorFMP, vendor)

	// Without an override the category default applies.
	vendor, err = r.VendorFor("get_stock_data", CategoryCoreStock)
	require.NoError(t, err)
	assert.Equal(t, VendorYFinance, vendor)
}

func TestVendorForUnknownCategory(t *testing.T) {
	r := newTestRouter(t, "http://unused", "http://unused")
	_, err := r.VendorFor("get_sentiment", "sentiment_data")

	var invalid *model.InvalidCategoryError
	require.ErrorAs(t, err, &invalid)
}

func TestGetStockDataCryptoUsesBinance(t *testing.T) {
	yahooHits := 0
	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		yahooHits++
	}))
	defer yahoo.Close()

	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/klines", r.URL.Path)
		require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		rows := []string{
			klineRow(msFor("2025-07-01"), "60000", "61000", "59500", "60500", "1200"),
			klineRow(msFor("2025-07-02"), "60500", "62000", "60100", "61800", "1400"),
		}
		fmt.Fprint(w, "["+strings.Join(rows, ",")+"]")
	}))
	defer binanceSrv.Close()

	r := newTestRouter(t, binanceSrv.URL, yahoo.URL)
	report, err := r.GetStockData(context.Background(), "BTC-USDT", "2025-07-01", "2025-07-02", "1d")
	require.NoError(t, err)

	// Hyphenated input is normalized for the vendor and the report header.
	assert.Contains(t, report, "# Binance data for BTCUSDT")
	assert.Contains(t, report, "2025-07-01,60000,61000,59500,60500,1200")
	assert.Equal(t, 0, yahooHits, "equity vendor must not be consulted when Binance succeeds")
}

func TestGetStockDataCryptoNoDataDoesNotFallBack(t *testing.T) {
	yahooHits := 0
	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		yahooHits++
	}))
	defer yahoo.Close()

	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer binanceSrv.Close()

	r := newTestRouter(t, binanceSrv.URL, yahoo.URL)
	report, err := r.GetStockData(context.Background(), "BTC-USDT", "2025-07-01", "2025-07-02", "1d")
	require.NoError(t, err)

	assert.Contains(t, report, "No data found for symbol 'BTCUSDT'")
	assert.Equal(t, 0, yahooHits, "an empty window is an answer, not an outage")
}

func TestGetStockDataCryptoFallsBackOnFetchFailure(t *testing.T) {
	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer binanceSrv.Close()

	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts := mustDate("2025-07-01").Unix()
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d],"indicators":{"quote":[{"open":[60000],"high":[61000],"low":[59500],"close":[60500],"volume":[1200]}]}}],"error":null}}`, ts)
	}))
	defer yahoo.Close()

	r := newTestRouter(t, binanceSrv.URL, yahoo.URL)
	report, err := r.GetStockData(context.Background(), "BTC-USDT", "2025-07-01", "2025-07-02", "1d")
	require.NoError(t, err)
	assert.Contains(t, report, "# Stock data for BTC-USDT")
}

func TestGetStockDataAllVendorsFailed(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadRequest)
	}))
	defer broken.Close()

	r := newTestRouter(t, broken.URL, broken.URL)
	report, err := r.GetStockData(context.Background(), "BTC-USDT", "2025-07-01", "2025-07-02", "1d")
	require.NoError(t, err)

	// Both attempts' reasons survive into the report.
	assert.Contains(t, report, "Error: all vendors failed for symbol 'BTC-USDT'")
	assert.Contains(t, report, "Binance:")
	assert.Contains(t, report, "yfinance:")
}

func TestGetStockDataEquityGoesStraightToYahoo(t *testing.T) {
	binanceHits := 0
	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		binanceHits++
	}))
	defer binanceSrv.Close()

	yahoo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		ts := mustDate("2025-07-01").Unix()
		fmt.Fprintf(w, `{"chart":{"result":[{"timestamp":[%d],"indicators":{"quote":[{"open":[201.5],"high":[204.0],"low":[200.1],"close":[203.2],"volume":[1000000]}]}}],"error":null}}`, ts)
	}))
	defer yahoo.Close()

	r := newTestRouter(t, binanceSrv.URL, yahoo.URL)
	report, err := r.GetStockData(context.Background(), "aapl", "2025-07-01", "2025-07-02", "1d")
	require.NoError(t, err)

	assert.Contains(t, report, "# Stock data for AAPL")
	assert.Equal(t, 0, binanceHits)
}

func TestGetStockDataBadDates(t *testing.T) {
	r := newTestRouter(t, "http://unused", "http://unused")

	_, err := r.GetStockData(context.Background(), "AAPL", "01/07/2025", "2025-07-02", "1d")
	require.Error(t, err)

	_, err = r.GetStockData(context.Background(), "AAPL", "2025-07-02", "2025-07-01", "1d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start date")
}

func TestDailyWindowCachesCryptoFetch(t *testing.T) {
	binanceHits := 0
	binanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		binanceHits++
		rows := []string{
			klineRow(msFor("2025-07-01"), "60000", "61000", "59500", "60500", "1200"),
			klineRow(msFor("2025-07-02"), "60500", "62000", "60100", "61800", "1400"),
		}
		fmt.Fprint(w, "["+strings.Join(rows, ",")+"]")
	}))
	defer binanceSrv.Close()

	r := newTestRouter(t, binanceSrv.URL, "http://unused")
	start, end := mustDate("2025-07-01"), mustDate("2025-07-02")

	first, err := r.DailyWindow(context.Background(), "BTCUSDT", start, end)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.Equal(t, 1, binanceHits)

	second, err := r.DailyWindow(context.Background(), "BTCUSDT", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, binanceHits, "second window must come from the cache")
	assert.Equal(t, first, second)
}

func TestDailyWindowLocalVendorNeverFetches(t *testing.T) {
	cfg := testConfig(t, "http://unused", "http://unused")
	cfg.DataVendors["technical_indicators"] = "local"
	r, err := New(cfg, zap.NewNop())
	require.NoError(t, err)

	_, err = r.DailyWindow(context.Background(), "BTCUSDT", mustDate("2025-07-01"), mustDate("2025-07-02"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cached window")
}

func TestGetIndicatorsRejectsUnknownIndicator(t *testing.T) {
	r := newTestRouter(t, "http://unused", "http://unused")
	_, err := r.GetIndicators(context.Background(), "AAPL", "close_7_wma", "2025-07-01", 5)

	var invalid *model.InvalidIndicatorError
	require.ErrorAs(t, err, &invalid)
	assert.NotEmpty(t, invalid.Supported)
}

func mustDate(s string) time.Time {
	d, _ := service.ParseDate(s)
	return d
}
