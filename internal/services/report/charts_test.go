package report

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return r
}

func requirePNG(t *testing.T, path string) {
	t.Helper()
	require.NotEmpty(t, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func testSeries(symbol string, closes ...float64) *models.PriceSeries {
	s := &models.PriceSeries{Symbol: symbol, Periodicity: models.Daily}
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Bars = append(s.Bars, models.PriceBar{
			Date:  day.AddDate(0, 0, i),
			Close: models.FlexFloat(c),
		})
	}
	return s
}

func TestSectorChart(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.SectorChart("SPY", "2025-03-05", []models.SectorWeight{
		{Sector: "Information Technology", Weight: 0.31},
		{Sector: "Financials", Weight: 0.13},
		{Sector: "Health Care", Weight: 0.11},
	})
	require.NoError(t, err)
	requirePNG(t, path)
}

func TestSectorChartEmpty(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.SectorChart("SPY", "2025-03-05", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestPerformanceChart(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.PerformanceChart("SPY", "2025-03-05", map[string]*models.PriceSeries{
		"SPY":  testSeries("SPY", 500, 505, 510),
		"AAPL": testSeries("AAPL", 170, 168, 172),
	})
	require.NoError(t, err)
	requirePNG(t, path)
}

func TestPerformanceChartEmpty(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.PerformanceChart("SPY", "2025-03-05", nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestPriceChart(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.PriceChart("SPY", "2025-03-05", testSeries("SPY", 500, 505, 502, 510))
	require.NoError(t, err)
	requirePNG(t, path)
}

func TestPriceChartTooFewBars(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.PriceChart("SPY", "2025-03-05", testSeries("SPY", 500))
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestHistogramChart(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.HistogramChart("SPY", "2025-03-05", "histogram", &models.Histogram{
		BinEdges:  []float64{-0.02, -0.01, 0, 0.01, 0.02},
		BinCounts: []float64{2, 5, 8, 3},
	})
	require.NoError(t, err)
	requirePNG(t, path)
}

func TestHistogramChartMismatchedBins(t *testing.T) {
	r := newTestRenderer(t)

	path, err := r.HistogramChart("SPY", "2025-03-05", "histogram", &models.Histogram{
		BinEdges:  []float64{-0.01, 0},
		BinCounts: []float64{2, 5},
	})
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "spy_2025-03-05_sectors.png", artifactName("SPY", "2025-03-05", "sectors"))
	assert.Equal(t, "spy_2025-03-05_correlationmethod-kendall_histogram.png",
		artifactName("SPY", "2025-03-05", "CORRELATION(METHOD=KENDALL)", "histogram"))
}
