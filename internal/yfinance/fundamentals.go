package yfinance

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"trading-dataflows/internal/model"
)

// StatementKind names one of the fundamental statement types.
type StatementKind string

const (
	BalanceSheet    StatementKind = "balance sheet"
	CashFlow        StatementKind = "cash flow"
	IncomeStatement StatementKind = "income statement"
)

// quoteSummary modules per statement kind and frequency.
var statementModules = map[StatementKind]map[string]struct{ module, key string }{
	BalanceSheet: {
		"annual":    {"balanceSheetHistory", "balanceSheetStatements"},
		"quarterly": {"balanceSheetHistoryQuarterly", "balanceSheetStatements"},
	},
	CashFlow: {
		"annual":    {"cashflowStatementHistory", "cashflowStatements"},
		"quarterly": {"cashflowStatementHistoryQuarterly", "cashflowStatements"},
	},
	IncomeStatement: {
		"annual":    {"incomeStatementHistory", "incomeStatementHistory"},
		"quarterly": {"incomeStatementHistoryQuarterly", "incomeStatementHistory"},
	},
}

// displayNames for report headers, e.g. "# Balance Sheet data for AAPL".
var displayNames = map[StatementKind]string{
	BalanceSheet:    "Balance Sheet",
	CashFlow:        "Cash Flow",
	IncomeStatement: "Income Statement",
}

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawFmt is Yahoo's number envelope: a machine value plus a display string.
type rawFmt struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

func (c *Client) fetchModule(ctx context.Context, ticker, module string) (map[string]json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("modules", module).
		Get("/v10/finance/quoteSummary/" + ticker)
	if err != nil {
		return nil, &model.NetworkError{Vendor: Vendor, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &model.NetworkError{Vendor: Vendor, Err: fmt.Errorf("quoteSummary status %d", resp.StatusCode())}
	}

	var qs quoteSummaryResponse
	if err := json.Unmarshal(resp.Body(), &qs); err != nil {
		return nil, fmt.Errorf("decode quoteSummary response: %w", err)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, &model.NetworkError{Vendor: Vendor, Err: fmt.Errorf("quoteSummary error: %s", qs.QuoteSummary.Error.Description)}
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, nil
	}
	return qs.QuoteSummary.Result[0], nil
}

// StatementReport fetches one fundamental statement and renders it as
// report text. Failures are string-encoded: the caller pastes the result
// into a report either way.
func (c *Client) StatementReport(ctx context.Context, ticker string, kind StatementKind, freq string) string {
	ticker = strings.ToUpper(ticker)
	freq = strings.ToLower(freq)
	if freq != "annual" {
		freq = "quarterly"
	}

	sel := statementModules[kind][freq]
	result, err := c.fetchModule(ctx, ticker, sel.module)
	if err != nil {
		c.logger.Warn("fundamentals fetch failed",
			zap.String("ticker", ticker), zap.String("kind", string(kind)), zap.Error(err))
		return fmt.Sprintf("Error retrieving %s for %s: %v", kind, ticker, err)
	}

	statements := extractStatements(result, sel.module, sel.key)
	if len(statements) == 0 {
		return fmt.Sprintf("No %s data found for symbol '%s'", kind, ticker)
	}

	header := fmt.Sprintf("# %s data for %s (%s)\n", displayNames[kind], ticker, freq)
	header += fmt.Sprintf("# Data retrieved on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	return header + statementsCSV(statements)
}

// InsiderTransactionsReport fetches insider transactions and renders them
// as report text, with the same string-encoded failure mode.
func (c *Client) InsiderTransactionsReport(ctx context.Context, ticker string) string {
	ticker = strings.ToUpper(ticker)

	result, err := c.fetchModule(ctx, ticker, "insiderTransactions")
	if err != nil {
		c.logger.Warn("insider transactions fetch failed", zap.String("ticker", ticker), zap.Error(err))
		return fmt.Sprintf("Error retrieving insider transactions for %s: %v", ticker, err)
	}

	transactions := extractStatements(result, "insiderTransactions", "transactions")
	if len(transactions) == 0 {
		return fmt.Sprintf("No insider transactions data found for symbol '%s'", ticker)
	}

	header := fmt.Sprintf("# Insider Transactions data for %s\n", ticker)
	header += fmt.Sprintf("# Data retrieved on: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	return header + transactionsCSV(transactions)
}

func extractStatements(result map[string]json.RawMessage, module, key string) []map[string]json.RawMessage {
	if result == nil {
		return nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(result[module], &wrapper); err != nil {
		return nil
	}
	var statements []map[string]json.RawMessage
	if err := json.Unmarshal(wrapper[key], &statements); err != nil {
		return nil
	}
	return statements
}

// statementsCSV renders line items as rows and statement periods as
// columns, newest first as the API returns them. Values are rounded to
// equity precision before serialization.
func statementsCSV(statements []map[string]json.RawMessage) string {
	periods := make([]string, len(statements))
	itemSet := map[string]bool{}
	for i, st := range statements {
		periods[i] = fieldFmt(st, "endDate")
		for name := range st {
			if name == "endDate" || name == "maxAge" {
				continue
			}
			itemSet[name] = true
		}
	}
	items := make([]string, 0, len(itemSet))
	for name := range itemSet {
		items = append(items, name)
	}
	sort.Strings(items)

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write(append([]string{"Item"}, periods...))
	for _, item := range items {
		row := []string{item}
		for _, st := range statements {
			row = append(row, fieldValue(st, item))
		}
		_ = w.Write(row)
	}
	w.Flush()
	return sb.String()
}

func transactionsCSV(transactions []map[string]json.RawMessage) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	_ = w.Write([]string{"Date", "Filer", "Relation", "Transaction", "Shares", "Value"})
	for _, tx := range transactions {
		_ = w.Write([]string{
			fieldFmt(tx, "startDate"),
			fieldString(tx, "filerName"),
			fieldString(tx, "filerRelation"),
			fieldString(tx, "transactionText"),
			fieldValue(tx, "shares"),
			fieldValue(tx, "value"),
		})
	}
	w.Flush()
	return sb.String()
}

func fieldString(m map[string]json.RawMessage, name string) string {
	var s string
	if err := json.Unmarshal(m[name], &s); err != nil {
		return ""
	}
	return s
}

func fieldFmt(m map[string]json.RawMessage, name string) string {
	var rf rawFmt
	if err := json.Unmarshal(m[name], &rf); err != nil {
		return ""
	}
	return rf.Fmt
}

func fieldValue(m map[string]json.RawMessage, name string) string {
	raw, ok := m[name]
	if !ok {
		return ""
	}
	var rf rawFmt
	if err := json.Unmarshal(raw, &rf); err != nil || (rf.Raw == 0 && rf.Fmt == "") {
		return ""
	}
	return strconv.FormatFloat(model.Round(rf.Raw, model.EquityPrecision), 'f', -1, 64)
}
