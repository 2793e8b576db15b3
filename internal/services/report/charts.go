// Package report renders analysis results into PNG chart artifacts.
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
)

// seriesPalette is cycled across multi-symbol charts.
var seriesPalette = []string{
	"2563eb", // blue-600
	"dc2626", // red-600
	"16a34a", // green-600
	"d97706", // amber-600
	"7c3aed", // violet-600
	"0891b2", // cyan-600
	"db2777", // pink-600
	"65a30d", // lime-600
	"9333ea", // purple-600
	"ea580c", // orange-600
	"0d9488", // teal-600
	"4b5563", // gray-600
}

func paletteColor(i int) drawing.Color {
	return drawing.ColorFromHex(seriesPalette[i%len(seriesPalette)])
}

// Renderer writes chart PNGs under a base artifact directory. Empty inputs
// are not an error: the renderer returns an empty path and the caller
// reports the artifact as unavailable.
type Renderer struct {
	basePath string
	logger   *common.Logger
}

// NewRenderer creates a Renderer rooted at basePath, creating the directory
// if absent.
func NewRenderer(logger *common.Logger, basePath string) (*Renderer, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", basePath, err)
	}
	return &Renderer{basePath: basePath, logger: logger}, nil
}

// save renders the graph to a PNG file and returns its path.
func (r *Renderer) save(graph renderable, name string) (string, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return "", fmt.Errorf("chart render failed: %w", err)
	}

	path := filepath.Join(r.basePath, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}

	r.logger.Debug().Str("path", path).Msg("chart rendered")
	return path, nil
}

// renderable is the common surface of go-chart's chart types.
type renderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

func artifactName(parts ...string) string {
	slug := strings.ToLower(strings.Join(parts, "_"))
	slug = strings.NewReplacer("(", "", ")", "", "=", "-", " ", "-").Replace(slug)
	return slug + ".png"
}

// SectorChart renders a fund's sector allocation as a pie chart.
func (r *Renderer) SectorChart(symbol, day string, sectors []models.SectorWeight) (string, error) {
	values := make([]chart.Value, 0, len(sectors))
	for _, s := range sectors {
		if s.Weight.Missing() || s.Weight.Float() <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", s.Sector, s.Weight.Float()*100),
			Value: s.Weight.Float(),
		})
	}
	if len(values) == 0 {
		r.logger.Debug().Str("symbol", symbol).Msg("no sector weights to render")
		return "", nil
	}

	graph := chart.PieChart{
		Title:  fmt.Sprintf("%s Sector Allocation", symbol),
		Width:  600,
		Height: 600,
		Values: values,
	}

	return r.save(&graph, artifactName(symbol, day, "sectors"))
}

// PerformanceChart renders every series in the batch rebased to 100 at its
// first observed close, so funds and holdings with very different price
// levels share one scale.
func (r *Renderer) PerformanceChart(symbol, day string, series map[string]*models.PriceSeries) (string, error) {
	symbols := make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var chartSeries []chart.Series
	for i, sym := range symbols {
		xs, ys := rebased(series[sym])
		if len(xs) < 2 {
			continue
		}
		chartSeries = append(chartSeries, chart.TimeSeries{
			Name: sym,
			Style: chart.Style{
				StrokeColor: paletteColor(i),
				StrokeWidth: 2.0,
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(chartSeries) == 0 {
		r.logger.Debug().Str("symbol", symbol).Msg("no price series to render")
		return "", nil
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Relative Performance (first close = 100)", symbol),
		Width:  900,
		Height: 450,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition:   chart.TickPositionBetweenTicks,
			ValueFormatter: dateTickFormatter,
		},
		Series: chartSeries,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	return r.save(&graph, artifactName(symbol, day, "performance"))
}

// PriceChart renders one symbol's close prices over time.
func (r *Renderer) PriceChart(symbol, day string, series *models.PriceSeries) (string, error) {
	xs, ys := closes(series)
	if len(xs) < 2 {
		r.logger.Debug().Str("symbol", symbol).Msg("too few bars to render")
		return "", nil
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Close", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition:   chart.TickPositionBetweenTicks,
			ValueFormatter: dateTickFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: symbol,
				Style: chart.Style{
					StrokeColor: paletteColor(0),
					StrokeWidth: 2.5,
				},
				XValues: xs,
				YValues: ys,
			},
			chart.TimeSeries{
				Name: fmt.Sprintf("SMA %d", smaOverlayPeriod),
				Style: chart.Style{
					StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5.0, 3.0},
				},
				XValues: xs,
				YValues: rollingAverage(ys, smaOverlayPeriod),
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	return r.save(&graph, artifactName(symbol, day, "price"))
}

// HistogramChart renders a return-distribution study as a bar chart, one
// bar per bin, labelled by the bin's midpoint.
func (r *Renderer) HistogramChart(symbol, day, calculation string, hist *models.Histogram) (string, error) {
	if hist == nil || len(hist.BinCounts) == 0 || len(hist.BinEdges) != len(hist.BinCounts)+1 {
		r.logger.Debug().Str("symbol", symbol).Msg("no histogram to render")
		return "", nil
	}

	bars := make([]chart.Value, len(hist.BinCounts))
	for i, count := range hist.BinCounts {
		mid := (hist.BinEdges[i] + hist.BinEdges[i+1]) / 2
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.3f", mid),
			Value: count,
			Style: chart.Style{FillColor: paletteColor(0), StrokeColor: paletteColor(0)},
		}
	}

	graph := chart.BarChart{
		Title:  fmt.Sprintf("%s Return Distribution", symbol),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: max(10, 800/len(bars)-10),
		Bars:     bars,
	}

	return r.save(&graph, artifactName(symbol, day, calculation, "histogram"))
}

func dateTickFormatter(v interface{}) string {
	if t, ok := v.(float64); ok {
		return chart.TimeFromFloat64(t).Format("Jan 02")
	}
	return ""
}

// closes extracts the (date, close) pairs of a series, skipping missing
// closes.
func closes(series *models.PriceSeries) ([]time.Time, []float64) {
	if series == nil {
		return nil, nil
	}
	xs := make([]time.Time, 0, len(series.Bars))
	ys := make([]float64, 0, len(series.Bars))
	for _, bar := range series.Bars {
		if bar.Close.Missing() {
			continue
		}
		xs = append(xs, bar.Date)
		ys = append(ys, bar.Close.Float())
	}
	return xs, ys
}

// rebased scales a series' closes so the first observation is 100.
func rebased(series *models.PriceSeries) ([]time.Time, []float64) {
	xs, ys := closes(series)
	if len(ys) == 0 || ys[0] == 0 {
		return nil, nil
	}
	base := ys[0]
	for i := range ys {
		ys[i] = ys[i] / base * 100
	}
	return xs, ys
}

var _ interfaces.ChartRenderer = (*Renderer)(nil)
