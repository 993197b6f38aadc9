package news

import (
	"context"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// FetchLatest fetches the RSS feed and returns formatted entries in feed
// order (assumed reverse-chronological), optionally filtered by coin,
// never exceeding maxChars. Every failure mode returns "".
func (a *Aggregator) FetchLatest(ctx context.Context, maxChars int, coin string) string {
	resp, err := a.http.R().SetContext(ctx).Get(a.feedURL)
	if err != nil {
		a.logger.Warn("failed to fetch news feed", zap.Error(err))
		return ""
	}
	if resp.StatusCode() != http.StatusOK {
		a.logger.Warn("failed to fetch news feed", zap.Int("status", resp.StatusCode()))
		return ""
	}

	feed, err := gofeed.NewParser().ParseString(resp.String())
	if err != nil {
		a.logger.Warn("failed to parse news feed", zap.Error(err))
		return ""
	}

	keywords := coinKeywords(coin)

	var entries []string
	for _, item := range feed.Items {
		title := StripHTML(item.Title)
		summary := StripHTML(item.Description)
		summary = strings.TrimSpace(boilerplateRe.ReplaceAllString(summary, ""))

		if !matchesAny(title+" "+summary, keywords) {
			continue
		}

		formattedTime := strings.TrimSpace(item.Published)
		if item.PublishedParsed != nil {
			formattedTime = formatTime(*item.PublishedParsed)
		}

		var parts []string
		if formattedTime != "" {
			parts = append(parts, formattedTime)
		}
		if title != "" {
			parts = append(parts, title)
		}
		entry := strings.Join(parts, " | ")
		if summary != "" {
			if entry != "" {
				entry = entry + ": " + summary
			} else {
				entry = summary
			}
		}
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return assemble(entries, maxChars)
}
