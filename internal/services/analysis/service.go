// Package analysis implements the ETF query-and-cache pipeline: listing,
// fund selection, price history, and fixed-window statistics, each stage
// backed by the same-day file cache.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
	"github.com/quantfold/etfscope/internal/storage"
)

// ValidationError is the one hard stop in the pipeline: a request rejected
// before any remote call is made. The message is user-facing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Service implements AnalysisService. Stages run strictly in sequence per
// request; each stage's output feeds the next through the Analysis struct,
// never through service state.
type Service struct {
	client interfaces.MarketDataClient
	cache  *storage.CacheStore
	limits common.LimitsConfig
	logger *common.Logger
	now    func() time.Time // injectable clock for testing

	// mu serializes pipeline runs. The cache store is single-writer: two
	// concurrent misses on the same key would both spend remote quota.
	mu sync.Mutex
}

// NewService creates the analysis pipeline service.
func NewService(client interfaces.MarketDataClient, cache *storage.CacheStore, limits common.LimitsConfig, logger *common.Logger) *Service {
	return &Service{
		client: client,
		cache:  cache,
		limits: limits,
		logger: logger,
		now:    time.Now,
	}
}

// CacheDay returns the cache-day key in effect for this service's clock.
func (s *Service) CacheDay() string {
	return common.CacheDay(s.now(), s.limits.HolidaySet())
}

// PurgeStale drops artifacts from prior cache-days. Called once at session
// start; prior days' quota is spent, their cache can never be read again.
func (s *Service) PurgeStale() int {
	return s.cache.PurgeStale(s.CacheDay())
}

// ListETFs returns the ETF subset of the current cache-day's listing.
func (s *Service) ListETFs(ctx context.Context) ([]models.Security, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := s.CacheDay()
	listing := s.fetchListing(ctx, day)
	etfs := filterETFs(listing)
	if len(etfs) == 0 {
		s.logger.Warn().Str("day", day).Msg("listing produced no ETFs")
	}
	return etfs, nil
}

// Analyze runs the pipeline stages for one request:
// ListSecurities -> SelectFund -> FetchPrices -> ComputeStatistics -> Done.
// Stage failures degrade to empty fields in the returned Analysis; only the
// validation gate returns an error.
func (s *Service) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.Analysis, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &models.Analysis{
		Day:         s.CacheDay(),
		Symbol:      strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Periodicity: req.Periodicity,
		Series:      map[string]*models.PriceSeries{},
		Studies:     map[string]*models.StudyResult{},
	}

	// Stage: ListSecurities. Resolves the display name; a degraded listing
	// leaves the name empty and the pipeline continues.
	listing := s.fetchListing(ctx, result.Day)
	result.Name = lookupName(listing, result.Symbol)

	// Stage: SelectFund. A degraded profile shrinks the fetch set to the
	// fund itself.
	result.Profile = s.fetchProfile(ctx, result.Symbol, result.Day)
	result.FetchSet = SelectFetchSet(result.Symbol, result.Profile, s.limits.TopHoldings)

	// Stage: FetchPrices. Per-symbol failures drop that symbol's series.
	for _, symbol := range result.FetchSet {
		if _, done := result.Series[symbol]; done {
			continue // fund symbol may repeat inside its own holdings
		}
		raw := s.fetchSeries(ctx, symbol, req.Periodicity, result.Day)
		if len(raw) == 0 {
			continue
		}
		result.Series[symbol] = NormalizeSeries(symbol, raw, req.Periodicity)
	}

	first, last, err := BatchBounds(result.Series, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", result.Symbol).Msg("no usable date range; skipping statistics")
	} else {
		result.FirstDate = first
		result.LastDate = last
	}

	// Stage: ComputeStatistics. Runs only with a usable date range; the
	// studies map always carries one entry per requested calculation.
	var payload *models.AnalyticsPayload
	if result.FirstDate != "" {
		symbols := result.FetchSet
		if len(symbols) > s.limits.MaxStatSymbols {
			symbols = symbols[:s.limits.MaxStatSymbols]
		}
		payload = s.fetchAnalytics(ctx, interfaces.AnalyticsRequest{
			Symbols:      symbols,
			FirstDate:    result.FirstDate,
			LastDate:     result.LastDate,
			OHLC:         "close",
			Interval:     req.Periodicity,
			Calculations: req.Calculations,
		}, result.Symbol, result.Day)
	}
	result.Studies = MapStudies(req.Calculations, payload, s.logger)

	s.logger.Info().
		Str("symbol", result.Symbol).
		Str("day", result.Day).
		Int("series", len(result.Series)).
		Int("studies", len(result.Studies)).
		Msg("analysis complete")

	return result, nil
}

// validate is the hard gate: it rejects a request before any stage runs.
func (s *Service) validate(req models.AnalysisRequest) error {
	if strings.TrimSpace(req.Symbol) == "" {
		return &ValidationError{Message: "an ETF symbol is required"}
	}
	if _, ok := models.ParsePeriodicity(string(req.Periodicity)); !ok {
		return &ValidationError{Message: fmt.Sprintf("unknown periodicity %q: choose daily, weekly or monthly", req.Periodicity)}
	}
	if n := len(req.Calculations); n < 1 || n > s.limits.MaxCalculations {
		return &ValidationError{
			Message: fmt.Sprintf("select between 1 and %d studies to proceed with the analysis", s.limits.MaxCalculations),
		}
	}
	for _, calc := range req.Calculations {
		if !models.IsKnownCalculation(calc) {
			return &ValidationError{Message: fmt.Sprintf("unknown study %q: choose from the calculation catalogue", calc)}
		}
	}
	return nil
}

// filterETFs extracts the ETF rows of a listing table.
func filterETFs(listing *models.Table) []models.Security {
	if listing.IsEmpty() {
		return nil
	}

	symCol := listing.ColumnIndex("symbol")
	nameCol := listing.ColumnIndex("name")
	typeCol := listing.ColumnIndex("assetType")
	exchCol := listing.ColumnIndex("exchange")

	var etfs []models.Security
	for _, row := range listing.Rows {
		sec := models.Security{
			Symbol:    listing.Cell(row, symCol),
			Name:      listing.Cell(row, nameCol),
			Exchange:  listing.Cell(row, exchCol),
			AssetType: listing.Cell(row, typeCol),
		}
		if sec.IsETF() {
			etfs = append(etfs, sec)
		}
	}
	return etfs
}

// lookupName resolves a symbol's display name from the listing.
func lookupName(listing *models.Table, symbol string) string {
	if listing.IsEmpty() {
		return ""
	}
	symCol := listing.ColumnIndex("symbol")
	nameCol := listing.ColumnIndex("name")
	for _, row := range listing.Rows {
		if listing.Cell(row, symCol) == symbol {
			return listing.Cell(row, nameCol)
		}
	}
	return ""
}

// Ensure Service implements AnalysisService
var _ interfaces.AnalysisService = (*Service)(nil)
