// Package symbol decides whether a symbol string names a crypto trading
// pair or a traditional equity, and normalizes crypto spellings to the
// exchange format. Classification is a suffix heuristic, not ground truth:
// callers must tolerate a failed fetch by falling back to the equity path.
package symbol

import "strings"

// Quote-currency suffixes that mark a symbol as a crypto pair.
var cryptoSuffixes = []string{"USDT", "USDC", "BTC", "ETH", "BNB", "XRP"}

// IsCryptoPair reports whether the symbol looks like a crypto trading pair.
func IsCryptoPair(symbol string) bool {
	s := strings.ToUpper(symbol)
	for _, suffix := range cryptoSuffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

// Normalize converts spellings like BTC-USDT to the exchange form BTCUSDT.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", ""))
}

// Base returns the base asset of a hyphenated pair ("XRP-USDT" -> "XRP").
// A symbol without a separator is returned upper-cased as-is.
func Base(symbol string) string {
	base, _, _ := strings.Cut(symbol, "-")
	return strings.ToUpper(base)
}
