// Package interfaces defines service contracts for etfscope
package interfaces

import (
	"context"

	"github.com/quantfold/etfscope/internal/models"
)

// MarketDataClient provides access to the remote financial-data API.
// All four query kinds go against a single GET endpoint; the remote daily
// call quota makes every method a candidate for same-day caching upstream.
type MarketDataClient interface {
	// Listing retrieves the active-securities listing for a business day (CSV endpoint).
	// Rows missing a name are discarded.
	Listing(ctx context.Context, day string) (*models.Table, error)

	// FundProfile retrieves the descriptive dataset for one ETF.
	FundProfile(ctx context.Context, symbol string) (*models.FundProfile, error)

	// TimeSeries retrieves the raw per-date price records for a symbol at the
	// given periodicity. Keys are dates, values are vendor-prefixed field maps.
	TimeSeries(ctx context.Context, symbol string, periodicity models.Periodicity, outputSize string) (models.RawSeries, error)

	// Analytics runs a fixed-window statistics query over a symbol set.
	Analytics(ctx context.Context, req AnalyticsRequest) (*models.AnalyticsPayload, error)
}

// AnalyticsRequest holds the parameters of a fixed-window statistics query.
type AnalyticsRequest struct {
	Symbols      []string           // capped by the per-query symbol limit
	FirstDate    string             // YYYY-MM-DD, inclusive
	LastDate     string             // YYYY-MM-DD, inclusive
	OHLC         string             // price field, "close" for this pipeline
	Interval     models.Periodicity // matches the price-series batch
	Calculations []string           // capped by the per-query study limit
}
