package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trading-dataflows/internal/router"
	"trading-dataflows/internal/service"
)

func main() {
	// .env is optional; real deployments export the variables directly.
	_ = godotenv.Load()

	service.InitLogger()
	defer service.Logger.Sync()

	var (
		kind         = flag.String("kind", "ohlcv", "data kind: ohlcv, indicators, balance-sheet, cashflow, income-statement, insider-transactions, news")
		sym          = flag.String("symbol", "BTC-USDT", "equity ticker or crypto pair")
		startDate    = flag.String("start", time.Now().UTC().AddDate(0, -1, 0).Format(service.DateLayout), "start date (yyyy-mm-dd)")
		endDate      = flag.String("end", time.Now().UTC().Format(service.DateLayout), "end date (yyyy-mm-dd)")
		interval     = flag.String("interval", "1d", "kline interval")
		indicatorArg = flag.String("indicator", "rsi", "indicator name for -kind indicators")
		lookBack     = flag.Int("look-back", 120, "look-back days for -kind indicators")
		freq         = flag.String("freq", "quarterly", "statement frequency: annual or quarterly")
		maxChars     = flag.Int("max-chars", 4000, "character budget for -kind news")
		coin         = flag.String("coin", "", "coin filter for -kind news")
		configPath   = flag.String("config", "config", "config directory")
	)
	flag.Parse()

	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		service.Logger.Fatal("Configuration directory not found", zap.String("path", *configPath))
	}
	cfg := service.LoadConfig(*configPath)

	r, err := router.New(cfg, service.Logger)
	if err != nil {
		service.Logger.Fatal("Invalid vendor configuration", zap.Error(err))
	}

	ctx := context.Background()

	var report string
	switch *kind {
	case "ohlcv":
		report, err = r.GetStockData(ctx, *sym, *startDate, *endDate, *interval)
	case "indicators":
		report, err = r.GetIndicators(ctx, *sym, *indicatorArg, *endDate, *lookBack)
	case "balance-sheet":
		report, err = r.GetBalanceSheet(ctx, *sym, *freq)
	case "cashflow":
		report, err = r.GetCashflow(ctx, *sym, *freq)
	case "income-statement":
		report, err = r.GetIncomeStatement(ctx, *sym, *freq)
	case "insider-transactions":
		report, err = r.GetInsiderTransactions(ctx, *sym)
	case "news":
		report, err = r.GetNews(ctx, *maxChars, *coin)
	default:
		service.Logger.Fatal("Unknown data kind", zap.String("kind", *kind))
	}
	if err != nil {
		service.Logger.Fatal("Request failed", zap.String("kind", *kind), zap.Error(err))
	}

	fmt.Println(report)
}
