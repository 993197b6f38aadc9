package model

import (
	"fmt"
	"strings"
)

// NetworkError marks a transport or HTTP-level failure talking to a vendor.
// Callers with an alternate vendor path retry through it; everyone else
// renders the message into the report.
type NetworkError struct {
	Vendor string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Vendor, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NoDataError means the vendor answered but the requested window contains
// no rows. It is a real absence, never retried through a fallback vendor.
type NoDataError struct {
	Symbol string
	Start  string
	End    string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for symbol '%s' between %s and %s", e.Symbol, e.Start, e.End)
}

// InvalidIndicatorError reports an unsupported indicator name together with
// the full supported set.
type InvalidIndicatorError struct {
	Indicator string
	Supported []string
}

func (e *InvalidIndicatorError) Error() string {
	return fmt.Sprintf("indicator %s is not supported, choose from: %s",
		e.Indicator, strings.Join(e.Supported, ", "))
}

// InvalidCategoryError reports an unknown data-vendor category in the
// configuration.
type InvalidCategoryError struct {
	Category string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("unknown data vendor category: %s", e.Category)
}

// MissingCredentialError reports an absent API key by the environment
// variable that should hold it.
type MissingCredentialError struct {
	Variable string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("required credential %s is not set", e.Variable)
}
