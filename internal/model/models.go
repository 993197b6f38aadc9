package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decimal places applied when normalizing vendor rows. Crypto pairs keep
// satoshi-level precision, equities match exchange tick display.
const (
	CryptoPrecision int32 = 8
	EquityPrecision int32 = 2
)

// Bar is one daily OHLCV candle. Date is UTC midnight, day granularity.
// A series of Bars is ordered ascending with unique dates; non-trading
// days are absent, never zero-filled.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Round returns v rounded half-up to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Rounded returns a copy of the bar with every field rounded to the given
// precision.
func (b Bar) Rounded(places int32) Bar {
	return Bar{
		Date:   b.Date,
		Open:   Round(b.Open, places),
		High:   Round(b.High, places),
		Low:    Round(b.Low, places),
		Close:  Round(b.Close, places),
		Volume: Round(b.Volume, places),
	}
}
