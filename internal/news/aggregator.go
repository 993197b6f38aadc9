// Package news fetches and normalizes news from an RSS feed and a JSON
// news API, and assembles report text under a strict character budget.
// Nothing in this package returns an error to the caller: news is a
// non-critical enrichment signal, so every failure degrades to "".
package news

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"trading-dataflows/internal/service"
	"trading-dataflows/internal/symbol"
)

const ellipsis = "..."

var (
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	spaceRe       = regexp.MustCompile(`\s+`)
	boilerplateRe = regexp.MustCompile(`(?i)The post .*? appeared first on .*`)
)

// Aggregator fetches news from the configured sources.
type Aggregator struct {
	http       *resty.Client
	feedURL    string
	fmpBaseURL string
	logger     *zap.Logger
}

// NewAggregator builds an aggregator from config.
func NewAggregator(cfg service.NewsConfig, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		http:       resty.New().SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second),
		feedURL:    cfg.FeedURL,
		fmpBaseURL: cfg.FMPBaseURL,
		logger:     logger,
	}
}

// StripHTML removes markup from text: entities are unescaped, tags are
// replaced by spaces and whitespace runs collapse to one space.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	cleaned := html.UnescapeString(text)
	cleaned = tagRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(cleaned, " "))
}

// coinMap pairs a ticker with the spellings news articles actually use.
var coinMap = map[string][]string{
	"BTC":   {"BTC", "BITCOIN"},
	"ETH":   {"ETH", "ETHEREUM"},
	"XRP":   {"XRP", "RIPPLE"},
	"ADA":   {"ADA", "CARDANO"},
	"SOL":   {"SOL", "SOLANA"},
	"DOGE":  {"DOGE", "DOGECOIN"},
	"MATIC": {"MATIC", "POLYGON"},
	"DOT":   {"DOT", "POLKADOT"},
	"AVAX":  {"AVAX", "AVALANCHE"},
	"LINK":  {"LINK", "CHAINLINK"},
}

// coinKeywords expands a coin filter into its match set: the ticker, its
// full name, and the base asset of a hyphenated pair ("XRP-USDT" -> XRP).
func coinKeywords(coin string) []string {
	if coin == "" {
		return nil
	}
	upper := strings.ToUpper(coin)
	keywords, ok := coinMap[upper]
	if !ok {
		keywords = []string{upper}
	}
	if strings.Contains(coin, "-") {
		base := symbol.Base(coin)
		found := false
		for _, k := range keywords {
			if k == base {
				found = true
				break
			}
		}
		if !found {
			keywords = append(keywords, base)
		}
	}
	return keywords
}

func matchesAny(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	upper := strings.ToUpper(text)
	for _, k := range keywords {
		if strings.Contains(upper, k) {
			return true
		}
	}
	return false
}

// assemble joins entries with newlines under maxChars. The entry that
// would overflow the budget is truncated once (trailing punctuation
// stripped, ellipsis appended) and everything after it is dropped. The
// result never exceeds maxChars.
func assemble(entries []string, maxChars int) string {
	var kept []string
	total := 0
	for _, entry := range entries {
		sep := 0
		if len(kept) > 0 {
			sep = 1
		}
		if total+sep+len(entry) <= maxChars {
			kept = append(kept, entry)
			total += sep + len(entry)
			continue
		}
		remaining := maxChars - total - sep
		if remaining > len(ellipsis) {
			cut := strings.ToValidUTF8(entry[:remaining-len(ellipsis)], "")
			cut = strings.TrimRight(cut, " .,;:-")
			if cut != "" {
				kept = append(kept, cut+ellipsis)
			}
		}
		break
	}
	return strings.Join(kept, "\n")
}

// formatTime renders a publish time as UTC with second precision.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05") + "Z"
}
