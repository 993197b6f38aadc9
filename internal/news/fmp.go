package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"trading-dataflows/internal/model"
)

// apiKeyVar names the environment variable holding the news API key.
const apiKeyVar = "FMP_API_KEY"

const (
	summaryLimit    = 200
	defaultAPILimit = 50
	maxAPILimit     = 1000
)

// APIParams narrows an API news query. Zero values mean "not filtered".
type APIParams struct {
	Symbol   string // e.g. "BTCUSD"
	FromDate string // yyyy-mm-dd
	ToDate   string // yyyy-mm-dd
	Page     int
	Limit    int
	MaxChars int
}

type apiArticle struct {
	PublishedDate string   `json:"publishedDate"`
	Title         string   `json:"title"`
	Text          string   `json:"text"`
	URL           string   `json:"url"`
	Site          string   `json:"site"`
	Tickers       []string `json:"tickers"`
}

// FetchAPINews queries the crypto news API and returns formatted entries
// under the character budget. A missing API key, a non-200 status or a
// decode failure all degrade to "".
func (a *Aggregator) FetchAPINews(ctx context.Context, params APIParams) string {
	apiKey := os.Getenv(apiKeyVar)
	if apiKey == "" {
		a.logger.Warn("news api disabled", zap.Error(&model.MissingCredentialError{Variable: apiKeyVar}))
		return ""
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultAPILimit
	}
	if limit > maxAPILimit {
		limit = maxAPILimit
	}

	query := map[string]string{
		"page":   fmt.Sprintf("%d", params.Page),
		"limit":  fmt.Sprintf("%d", limit),
		"apikey": apiKey,
	}
	if params.Symbol != "" {
		query["symbol"] = strings.ToUpper(params.Symbol)
	}
	if params.FromDate != "" {
		query["from"] = params.FromDate
	}
	if params.ToDate != "" {
		query["to"] = params.ToDate
	}

	resp, err := a.http.R().SetContext(ctx).SetQueryParams(query).Get(a.fmpBaseURL)
	if err != nil {
		a.logger.Warn("failed to fetch api news", zap.Error(err))
		return ""
	}
	if resp.StatusCode() != http.StatusOK {
		a.logger.Warn("failed to fetch api news", zap.Int("status", resp.StatusCode()))
		return ""
	}

	var articles []apiArticle
	if err := json.Unmarshal(resp.Body(), &articles); err != nil {
		a.logger.Warn("failed to decode api news", zap.Error(err))
		return ""
	}

	var entries []string
	for _, article := range articles {
		entry := formatArticle(article)
		if entry == "" {
			continue
		}
		entries = append(entries, entry)
	}
	return assemble(entries, params.MaxChars)
}

func formatArticle(article apiArticle) string {
	formattedTime := article.PublishedDate
	if article.PublishedDate != "" {
		if parsed, err := time.Parse(time.RFC3339, article.PublishedDate); err == nil {
			formattedTime = formatTime(parsed)
		}
	}

	var parts []string
	if formattedTime != "" {
		parts = append(parts, formattedTime)
	}
	if article.Title != "" {
		parts = append(parts, article.Title)
	}
	entry := strings.Join(parts, " | ")

	if article.Text != "" {
		summary := article.Text
		if len(summary) > summaryLimit {
			summary = strings.TrimSpace(strings.ToValidUTF8(summary[:summaryLimit], "")) + ellipsis
		} else {
			summary = strings.TrimSpace(summary)
		}
		if entry != "" {
			entry = entry + ": " + summary
		} else {
			entry = summary
		}
	}

	var meta []string
	if article.Site != "" {
		meta = append(meta, "Source: "+article.Site)
	}
	if len(article.Tickers) > 0 {
		meta = append(meta, "Tickers: "+strings.Join(article.Tickers, ", "))
	}
	if article.URL != "" {
		meta = append(meta, "URL: "+article.URL)
	}
	if len(meta) > 0 {
		entry += " [" + strings.Join(meta, "; ") + "]"
	}
	return strings.TrimSpace(entry)
}
