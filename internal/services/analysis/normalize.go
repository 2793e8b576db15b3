package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/models"
)

// canonicalField strips the vendor's numeric prefix from a time-series
// field name: "1. open" -> "open". Names without a prefix pass through.
func canonicalField(name string) string {
	if _, rest, found := strings.Cut(name, "."); found {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(name)
}

// coerce parses a numeric cell, substituting the explicit missing-value
// marker for anything unparseable.
func coerce(value string) models.FlexFloat {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return models.FlexFloat(math.NaN())
	}
	return models.FlexFloat(f)
}

// NormalizeSeries converts the remote's nested date->fields records into an
// ordered PriceSeries with canonical numeric columns. Rows with an
// unparseable date are dropped; unparseable numerics become missing-value
// markers, never errors. Periodicity is carried from the request, not
// re-derived from the data.
func NormalizeSeries(symbol string, raw models.RawSeries, periodicity models.Periodicity) *models.PriceSeries {
	series := &models.PriceSeries{
		Symbol:      symbol,
		Periodicity: periodicity,
		Bars:        make([]models.PriceBar, 0, len(raw)),
	}

	for dateStr, fields := range raw {
		date, err := time.Parse(common.DayFormat, dateStr)
		if err != nil {
			continue
		}

		bar := models.PriceBar{Date: date}
		for name, value := range fields {
			switch canonicalField(name) {
			case "open":
				bar.Open = coerce(value)
			case "high":
				bar.High = coerce(value)
			case "low":
				bar.Low = coerce(value)
			case "close":
				bar.Close = coerce(value)
			case "volume":
				bar.Volume = coerce(value)
			}
		}
		series.Bars = append(series.Bars, bar)
	}

	sort.Slice(series.Bars, func(i, j int) bool {
		return series.Bars[i].Date.Before(series.Bars[j].Date)
	})

	return series
}

// BatchBounds derives the effective [first, last] date range for a batch of
// series. Symbols in one batch normally share identical bounds; when they
// diverge the divergence is logged per symbol and the intersection of all
// ranges is used. An empty batch or an empty intersection is an error.
func BatchBounds(series map[string]*models.PriceSeries, logger *common.Logger) (string, string, error) {
	var first, last time.Time
	count := 0

	for symbol, s := range series {
		if len(s.Bars) == 0 {
			logger.Warn().Str("symbol", symbol).Msg("empty series excluded from batch bounds")
			continue
		}
		f, l := s.FirstDate(), s.LastDate()
		if count == 0 {
			first, last = f, l
		} else {
			if !f.Equal(first) || !l.Equal(last) {
				logger.Warn().
					Str("symbol", symbol).
					Str("first", f.Format(common.DayFormat)).
					Str("last", l.Format(common.DayFormat)).
					Msg("series bounds diverge from batch; intersecting")
			}
			if f.After(first) {
				first = f
			}
			if l.Before(last) {
				last = l
			}
		}
		count++
	}

	if count == 0 {
		return "", "", fmt.Errorf("no series in batch")
	}
	if first.After(last) {
		return "", "", fmt.Errorf("series date ranges do not overlap")
	}

	return first.Format(common.DayFormat), last.Format(common.DayFormat), nil
}
