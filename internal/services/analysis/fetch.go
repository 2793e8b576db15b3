package analysis

import (
	"context"
	"strings"

	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
	"github.com/quantfold/etfscope/internal/storage"
)

// Cached fetchers. Each checks the same-day cache first, calls the remote
// only on a miss, and stores the response for the rest of the day. Remote
// failures degrade to an empty artifact here — logged, never propagated —
// so one failed call cannot abort the multi-call pipeline. Downstream
// stages must treat empty as "no data".

func (s *Service) fetchListing(ctx context.Context, day string) *models.Table {
	key := storage.Key{Kind: storage.KindListing, Scope: "active", Day: day}

	if table, ok := s.cache.LoadTable(key); ok {
		return table
	}

	table, err := s.client.Listing(ctx, day)
	if err != nil {
		s.logger.Warn().Err(err).Str("day", day).Msg("listing fetch failed; continuing with empty listing")
		return &models.Table{}
	}

	if err := s.cache.StoreTable(key, table); err != nil {
		s.logger.Warn().Err(err).Msg("failed to cache listing")
	}
	return table
}

func (s *Service) fetchProfile(ctx context.Context, symbol, day string) *models.FundProfile {
	key := storage.Key{Kind: storage.KindProfile, Scope: symbol, Day: day}

	var cached models.FundProfile
	if s.cache.LoadJSON(key, &cached) {
		return &cached
	}

	profile, err := s.client.FundProfile(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("fund profile fetch failed; continuing without profile")
		return nil
	}

	if err := s.cache.StoreJSON(key, profile); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to cache fund profile")
	}
	return profile
}

func (s *Service) fetchSeries(ctx context.Context, symbol string, periodicity models.Periodicity, day string) models.RawSeries {
	scope := symbol + "_" + string(periodicity)
	key := storage.Key{Kind: storage.KindSeries, Scope: scope, Day: day}

	var cached models.RawSeries
	if s.cache.LoadJSON(key, &cached) {
		return cached
	}

	series, err := s.client.TimeSeries(ctx, symbol, periodicity, s.limits.OutputSize)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("time series fetch failed; dropping symbol from batch")
		return nil
	}

	if err := s.cache.StoreJSON(key, series); err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("failed to cache time series")
	}
	return series
}

func (s *Service) fetchAnalytics(ctx context.Context, req interfaces.AnalyticsRequest, fund, day string) *models.AnalyticsPayload {
	key := storage.Key{Kind: storage.KindStats, Scope: statsScope(fund, req), Day: day}

	var cached models.AnalyticsPayload
	if s.cache.LoadJSON(key, &cached) {
		return &cached
	}

	payload, err := s.client.Analytics(ctx, req)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", fund).Msg("analytics fetch failed; studies will be unavailable")
		return nil
	}

	if err := s.cache.StoreJSON(key, payload); err != nil {
		s.logger.Warn().Err(err).Str("symbol", fund).Msg("failed to cache analytics payload")
	}
	return payload
}

// statsScope keys an analytics artifact by fund, interval and calculation
// list, so a same-day request with a different study selection is a fresh
// query rather than a partial cache hit.
func statsScope(fund string, req interfaces.AnalyticsRequest) string {
	calcs := make([]string, len(req.Calculations))
	for i, c := range req.Calculations {
		calcs[i] = slugify(c)
	}
	return fund + "_" + string(req.Interval) + "_" + strings.Join(calcs, "-")
}

// slugify reduces a calculation name to lowercase alphanumerics for use in
// a cache filename.
func slugify(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
