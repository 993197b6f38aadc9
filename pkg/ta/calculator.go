// Package ta computes named technical indicators over a full OHLCV series
// in one pass. The whole-series computation is the point: callers answer
// per-date queries from the returned column instead of recomputing per day.
package ta

import (
	"math"

	"github.com/markcheno/go-talib"

	"trading-dataflows/internal/model"
)

// Indicator parameter choices. Fixed: the supported set is a closed menu,
// not a parameterized calculator.
const (
	smaMediumPeriod = 50
	smaLongPeriod   = 200
	emaShortPeriod  = 10
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
	rsiPeriod       = 14
	bollPeriod      = 20
	bollStdDev      = 2.0
	atrPeriod       = 14
	vwmaPeriod      = 14
	mfiPeriod       = 14
)

// supported lists indicator names in presentation order. The names follow
// the stockstats column convention the rest of the system speaks.
var supported = []string{
	"close_50_sma",
	"close_200_sma",
	"close_10_ema",
	"macd",
	"macds",
	"macdh",
	"rsi",
	"boll",
	"boll_ub",
	"boll_lb",
	"atr",
	"vwma",
	"mfi",
}

// lookback is the number of leading bars an indicator needs before its
// first valid value. go-talib leaves zeros in the warm-up region; Compute
// replaces them with NaN so callers can render "N/A" honestly.
var lookback = map[string]int{
	"close_50_sma":  smaMediumPeriod - 1,
	"close_200_sma": smaLongPeriod - 1,
	"close_10_ema":  emaShortPeriod - 1,
	"macd":          macdSlow + macdSignal - 2,
	"macds":         macdSlow + macdSignal - 2,
	"macdh":         macdSlow + macdSignal - 2,
	"rsi":           rsiPeriod,
	"boll":          bollPeriod - 1,
	"boll_ub":       bollPeriod - 1,
	"boll_lb":       bollPeriod - 1,
	"atr":           atrPeriod,
	"vwma":          vwmaPeriod - 1,
	"mfi":           mfiPeriod,
}

// Supported returns the closed set of indicator names.
func Supported() []string {
	out := make([]string, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether name is in the supported set.
func IsSupported(name string) bool {
	_, ok := lookback[name]
	return ok
}

// Compute calculates the named indicator over the whole series and returns
// one value per bar. Warm-up positions are NaN. An unknown name fails with
// InvalidIndicatorError carrying the supported set.
func Compute(name string, bars []model.Bar) ([]float64, error) {
	if !IsSupported(name) {
		return nil, &model.InvalidIndicatorError{Indicator: name, Supported: Supported()}
	}
	if len(bars) == 0 {
		return nil, nil
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	var out []float64
	switch name {
	case "close_50_sma":
		out = talib.Sma(closes, smaMediumPeriod)
	case "close_200_sma":
		out = talib.Sma(closes, smaLongPeriod)
	case "close_10_ema":
		out = talib.Ema(closes, emaShortPeriod)
	case "macd":
		out, _, _ = talib.Macd(closes, macdFast, macdSlow, macdSignal)
	case "macds":
		_, out, _ = talib.Macd(closes, macdFast, macdSlow, macdSignal)
	case "macdh":
		_, _, out = talib.Macd(closes, macdFast, macdSlow, macdSignal)
	case "rsi":
		out = talib.Rsi(closes, rsiPeriod)
	case "boll":
		_, out, _ = talib.BBands(closes, bollPeriod, bollStdDev, bollStdDev, talib.SMA)
	case "boll_ub":
		out, _, _ = talib.BBands(closes, bollPeriod, bollStdDev, bollStdDev, talib.SMA)
	case "boll_lb":
		_, _, out = talib.BBands(closes, bollPeriod, bollStdDev, bollStdDev, talib.SMA)
	case "atr":
		out = talib.Atr(highs, lows, closes, atrPeriod)
	case "vwma":
		out = vwma(closes, volumes, vwmaPeriod)
	case "mfi":
		out = talib.Mfi(highs, lows, closes, volumes, mfiPeriod)
	}

	// Mask the warm-up region; talib fills it with zeros which would read
	// as real values downstream.
	result := make([]float64, len(out))
	copy(result, out)
	warm := lookback[name]
	if warm > len(result) {
		warm = len(result)
	}
	for i := 0; i < warm; i++ {
		result[i] = math.NaN()
	}
	return result, nil
}

// vwma is the volume-weighted moving average: SMA(close*volume) over
// SMA(volume). talib has no native VWMA, so it is assembled from Sum.
func vwma(closes, volumes []float64, period int) []float64 {
	weighted := make([]float64, len(closes))
	for i := range closes {
		weighted[i] = closes[i] * volumes[i]
	}
	num := talib.Sum(weighted, period)
	den := talib.Sum(volumes, period)
	out := make([]float64, len(closes))
	for i := range out {
		if den[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num[i] / den[i]
	}
	return out
}
