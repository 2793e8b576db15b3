package interfaces

import (
	"context"

	"github.com/quantfold/etfscope/internal/models"
)

// AnalysisService drives the query-and-cache pipeline for one user request.
type AnalysisService interface {
	// ListETFs returns the ETF subset of the current cache-day's listing.
	ListETFs(ctx context.Context) ([]models.Security, error)

	// Analyze runs the full pipeline: fund profile, fetch-set price history,
	// fixed-window statistics. Stage failures degrade to empty fields; only
	// request validation is a hard error.
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.Analysis, error)
}

// ChartRenderer is the sink that turns tabular results into image artifacts.
// Implementations return a reference (file path) per rendered artifact.
type ChartRenderer interface {
	SectorChart(symbol, day string, sectors []models.SectorWeight) (string, error)
	PerformanceChart(symbol, day string, series map[string]*models.PriceSeries) (string, error)
	PriceChart(symbol, day string, series *models.PriceSeries) (string, error)
	HistogramChart(symbol, day, calculation string, hist *models.Histogram) (string, error)
}
