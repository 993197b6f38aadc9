// Package router dispatches logical data requests to vendors. Selection
// has two orthogonal axes: the configured vendor per category (with
// per-tool overrides winning), and crypto-vs-equity branching inside the
// OHLCV and indicator paths, where the crypto-native vendor is tried
// first and the equity vendor is the fallback on fetch failure only. A
// true empty window is reported, never masked by a fallback.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trading-dataflows/internal/binance"
	"trading-dataflows/internal/cache"
	"trading-dataflows/internal/indicator"
	"trading-dataflows/internal/model"
	"trading-dataflows/internal/news"
	"trading-dataflows/internal/service"
	"trading-dataflows/internal/symbol"
	"trading-dataflows/internal/yfinance"
)

// VendorID enumerates the closed set of selectable vendors. Anything else
// in the configuration is a construction-time error.
type VendorID string

const (
	VendorYFinance VendorID = "yfinance"
	VendorBinance  VendorID = "binance"
	VendorRSS      VendorID = "rss"
	VendorFMP      VendorID = "fmp"
	// VendorLocal serves exclusively from already-cached windows.
	VendorLocal VendorID = "local"
)

// Data vendor categories recognized in configuration.
const (
	CategoryCoreStock    = "core_stock_apis"
	CategoryIndicators   = "technical_indicators"
	CategoryFundamentals = "fundamental_data"
	CategoryNews         = "news_data"
)

var validVendors = map[VendorID]bool{
	VendorYFinance: true,
	VendorBinance:  true,
	VendorRSS:      true,
	VendorFMP:      true,
	VendorLocal:    true,
}

var validCategories = map[string]bool{
	CategoryCoreStock:    true,
	CategoryIndicators:   true,
	CategoryFundamentals: true,
	CategoryNews:         true,
}

// Router owns the vendor clients and the cache, and answers the tool
// surface of the data layer.
type Router struct {
	cfg    *service.Config
	crypto *binance.Client
	equity *yfinance.Client
	press  *news.Aggregator
	store  *cache.Store
	engine *indicator.Engine
	logger *zap.Logger
	now    func() time.Time
}

// New validates the vendor configuration and wires up the clients.
// Invalid vendor ids or categories fail here, not mid-request.
func New(cfg *service.Config, logger *zap.Logger) (*Router, error) {
	for category, vendor := range cfg.DataVendors {
		if !validCategories[category] {
			return nil, &model.InvalidCategoryError{Category: category}
		}
		if !validVendors[VendorID(vendor)] {
			return nil, fmt.Errorf("unknown vendor %q for category %s", vendor, category)
		}
	}
	for tool, vendor := range cfg.ToolVendors {
		if !validVendors[VendorID(vendor)] {
			return nil, fmt.Errorf("unknown vendor %q for tool %s", vendor, tool)
		}
	}

	r := &Router{
		cfg:    cfg,
		crypto: binance.NewClient(cfg.Binance, logger),
		equity: yfinance.NewClient(cfg.Yahoo, logger),
		press:  news.NewAggregator(cfg.News, logger),
		store:  cache.New(cfg.DataCacheDir, logger),
		logger: logger,
		now:    time.Now,
	}
	r.engine = indicator.New(r, logger)
	return r, nil
}

// VendorFor resolves the vendor for a tool: the tool-level override wins,
// then the category default. An unknown category is a config error.
func (r *Router) VendorFor(tool, category string) (VendorID, error) {
	if v, ok := r.cfg.ToolVendors[tool]; ok {
		return VendorID(v), nil
	}
	if !validCategories[category] {
		return "", &model.InvalidCategoryError{Category: category}
	}
	v, ok := r.cfg.DataVendors[category]
	if !ok {
		return "", &model.InvalidCategoryError{Category: category}
	}
	return VendorID(v), nil
}

// GetStockData returns the OHLCV report for the closed date range. Crypto
// pairs try Binance first and fall back to Yahoo only on fetch failure;
// data-layer failures are rendered into the report text, with every
// attempt's reason retained.
func (r *Router) GetStockData(ctx context.Context, sym, startDate, endDate, interval string) (string, error) {
	if _, err := r.VendorFor("get_stock_data", CategoryCoreStock); err != nil {
		return "", err
	}
	start, err := service.ParseDate(startDate)
	if err != nil {
		return "", err
	}
	end, err := service.ParseDate(endDate)
	if err != nil {
		return "", err
	}
	if end.Before(start) {
		return "", fmt.Errorf("end date %s is before start date %s", endDate, startDate)
	}

	var attempts []string

	if symbol.IsCryptoPair(sym) {
		norm := symbol.Normalize(sym)
		r.logger.Info("trying Binance for crypto pair", zap.String("symbol", norm))
		bars, ferr := r.crypto.FetchKlines(ctx, norm, start, end, interval)
		if ferr == nil {
			return binance.Report(norm, start, end, interval, bars), nil
		}
		var noData *model.NoDataError
		if errors.As(ferr, &noData) {
			// The vendor answered; an empty window is a fact, not an outage.
			return noDataReport(noData), nil
		}
		attempts = append(attempts, fmt.Sprintf("Binance: %v", ferr))
		r.logger.Warn("Binance fetch failed, falling back to yfinance",
			zap.String("symbol", norm), zap.Error(ferr))
	}

	ticker := strings.ToUpper(sym)
	bars, ferr := r.equity.FetchDaily(ctx, ticker, start, end)
	if ferr == nil {
		return yfinance.Report(ticker, start, end, bars), nil
	}
	var noData *model.NoDataError
	if errors.As(ferr, &noData) && len(attempts) == 0 {
		return noDataReport(noData), nil
	}
	attempts = append(attempts, fmt.Sprintf("yfinance: %v", ferr))
	return fmt.Sprintf("Error: all vendors failed for symbol '%s': %s",
		sym, strings.Join(attempts, "; ")), nil
}

// noDataReport renders an empty window as report text.
func noDataReport(e *model.NoDataError) string {
	return fmt.Sprintf("No data found for symbol '%s' between %s and %s", e.Symbol, e.Start, e.End)
}

// GetIndicators returns the per-date indicator report for the window
// ending at currDate.
func (r *Router) GetIndicators(ctx context.Context, sym, indicatorName, currDate string, lookBackDays int) (string, error) {
	if _, err := r.VendorFor("get_indicators", CategoryIndicators); err != nil {
		return "", err
	}
	return r.engine.WindowReport(ctx, sym, indicatorName, currDate, lookBackDays)
}

// GetBalanceSheet returns the balance sheet report for a ticker.
func (r *Router) GetBalanceSheet(ctx context.Context, ticker, freq string) (string, error) {
	if _, err := r.VendorFor("get_balance_sheet", CategoryFundamentals); err != nil {
		return "", err
	}
	return r.equity.StatementReport(ctx, ticker, yfinance.BalanceSheet, freq), nil
}

// GetCashflow returns the cash flow report for a ticker.
func (r *Router) GetCashflow(ctx context.Context, ticker, freq string) (string, error) {
	if _, err := r.VendorFor("get_cashflow", CategoryFundamentals); err != nil {
		return "", err
	}
	return r.equity.StatementReport(ctx, ticker, yfinance.CashFlow, freq), nil
}

// GetIncomeStatement returns the income statement report for a ticker.
func (r *Router) GetIncomeStatement(ctx context.Context, ticker, freq string) (string, error) {
	if _, err := r.VendorFor("get_income_statement", CategoryFundamentals); err != nil {
		return "", err
	}
	return r.equity.StatementReport(ctx, ticker, yfinance.IncomeStatement, freq), nil
}

// GetInsiderTransactions returns the insider transactions report.
func (r *Router) GetInsiderTransactions(ctx context.Context, ticker string) (string, error) {
	if _, err := r.VendorFor("get_insider_transactions", CategoryFundamentals); err != nil {
		return "", err
	}
	return r.equity.InsiderTransactionsReport(ctx, ticker), nil
}

// GetNews returns aggregated news under the character budget, from the
// vendor configured for news_data.
func (r *Router) GetNews(ctx context.Context, maxChars int, coin string) (string, error) {
	vendor, err := r.VendorFor("get_news", CategoryNews)
	if err != nil {
		return "", err
	}
	switch vendor {
	case VendorFMP:
		params := news.APIParams{MaxChars: maxChars}
		if coin != "" {
			params.Symbol = symbol.Base(coin) + "USD"
		}
		return r.press.FetchAPINews(ctx, params), nil
	default:
		return r.press.FetchLatest(ctx, maxChars, coin), nil
	}
}

// DailyWindow implements indicator.Source: it loads the bulk window for a
// symbol through the disk cache, routing crypto pairs to Binance with a
// Yahoo fallback on fetch failure.
func (r *Router) DailyWindow(ctx context.Context, sym string, start, end time.Time) ([]model.Bar, error) {
	vendor, err := r.VendorFor("get_indicators", CategoryIndicators)
	if err != nil {
		return nil, err
	}
	if vendor == VendorLocal {
		return r.localWindow(sym, start, end)
	}

	if symbol.IsCryptoPair(sym) {
		norm := symbol.Normalize(sym)
		bars, cerr := r.store.GetOrFetch(norm, binance.Vendor, start, end, func() ([]model.Bar, error) {
			return r.crypto.FetchKlines(ctx, norm, start, end, "1d")
		})
		if cerr == nil {
			return bars, nil
		}
		var noData *model.NoDataError
		if errors.As(cerr, &noData) {
			return nil, cerr
		}
		r.logger.Warn("Binance window fetch failed, falling back to yfinance",
			zap.String("symbol", norm), zap.Error(cerr))
	}

	ticker := strings.ToUpper(sym)
	return r.store.GetOrFetch(ticker, yfinance.Vendor, start, end, func() ([]model.Bar, error) {
		return r.equity.FetchDaily(ctx, ticker, start, end)
	})
}

// localWindow serves the vendor id "local": cached files only, no network.
func (r *Router) localWindow(sym string, start, end time.Time) ([]model.Bar, error) {
	vendorName := yfinance.Vendor
	key := strings.ToUpper(sym)
	if symbol.IsCryptoPair(sym) {
		vendorName = binance.Vendor
		key = symbol.Normalize(sym)
	}
	return r.store.GetOrFetch(key, vendorName, start, end, func() ([]model.Bar, error) {
		return nil, fmt.Errorf("local vendor: no cached window for %s (%s..%s)",
			key, start.Format(service.DateLayout), end.Format(service.DateLayout))
	})
}
