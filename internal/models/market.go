// Package models defines data structures for etfscope
package models

import (
	"sort"
	"strings"
	"time"
)

// Security is one row of the active-securities listing for a cache-day.
type Security struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange,omitempty"`
	AssetType string `json:"asset_type"`
}

// IsETF reports whether the security's asset type marks it as an ETF.
// The listing uses inconsistent casing ("ETF", "Etf"), so match loosely.
func (s Security) IsETF() bool {
	return strings.Contains(strings.ToUpper(s.AssetType), "ETF")
}

// Holding is one constituent of a fund with its portfolio weight in [0,1].
// Weights arrive as strings from the remote API and are coerced on decode.
type Holding struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"description,omitempty"`
	Weight FlexFloat `json:"weight"`
}

// SectorWeight represents sector allocation in a fund
type SectorWeight struct {
	Sector string    `json:"sector"`
	Weight FlexFloat `json:"weight"`
}

// FundProfile holds the descriptive dataset for one ETF.
type FundProfile struct {
	Symbol            string         `json:"symbol"`
	Name              string         `json:"name"`
	NetAssets         FlexFloat      `json:"net_assets"`
	NetExpenseRatio   FlexFloat      `json:"net_expense_ratio"`
	PortfolioTurnover FlexFloat      `json:"portfolio_turnover"`
	DividendYield     FlexFloat      `json:"dividend_yield"`
	InceptionDate     string         `json:"inception_date"`
	Leveraged         bool           `json:"leveraged"`
	Sectors           []SectorWeight `json:"sectors"`
	Holdings          []Holding      `json:"holdings"`
}

// TopHoldings returns the fund's holdings sorted descending by weight,
// ties preserving original API order, truncated to n. Weights that failed
// numeric coercion rank as zero; NaN must never reach the comparator, where
// it would break the ordering and let a malformed row claim a top slot.
func (p *FundProfile) TopHoldings(n int) []Holding {
	sorted := make([]Holding, len(p.Holdings))
	copy(sorted, p.Holdings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rankWeight(sorted[i].Weight) > rankWeight(sorted[j].Weight)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func rankWeight(w FlexFloat) float64 {
	if w.Missing() {
		return 0
	}
	return w.Float()
}

// Periodicity is the fixed granularity of a price-series batch.
type Periodicity string

const (
	Daily   Periodicity = "DAILY"
	Weekly  Periodicity = "WEEKLY"
	Monthly Periodicity = "MONTHLY"
)

// ParsePeriodicity maps a user-supplied periodicity or time-series function
// name to a Periodicity. Unrecognized input reports false.
func ParsePeriodicity(s string) (Periodicity, bool) {
	switch strings.ToUpper(strings.TrimPrefix(strings.ToUpper(s), "TIME_SERIES_")) {
	case "DAILY":
		return Daily, true
	case "WEEKLY":
		return Weekly, true
	case "MONTHLY":
		return Monthly, true
	}
	return "", false
}

// Function returns the remote time-series function selector for p.
func (p Periodicity) Function() string {
	return "TIME_SERIES_" + string(p)
}

// PriceBar represents a single period's price data. Fields that failed
// numeric coercion carry the NaN missing-value marker (serialized as null)
// rather than zero.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   FlexFloat `json:"open"`
	High   FlexFloat `json:"high"`
	Low    FlexFloat `json:"low"`
	Close  FlexFloat `json:"close"`
	Volume FlexFloat `json:"volume"`
}

// PriceSeries holds the normalized price history for one symbol,
// strictly one bar per trading date, sorted ascending by date.
type PriceSeries struct {
	Symbol      string      `json:"symbol"`
	Periodicity Periodicity `json:"periodicity"`
	Bars        []PriceBar  `json:"bars"`
}

// FirstDate returns the earliest bar date, or zero time for an empty series.
func (s *PriceSeries) FirstDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[0].Date
}

// LastDate returns the latest bar date, or zero time for an empty series.
func (s *PriceSeries) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}

