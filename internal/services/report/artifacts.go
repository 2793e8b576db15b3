package report

import (
	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
)

// BuildArtifacts renders every chart an analysis supports and returns a
// name -> path map. Charts whose inputs are missing are simply absent from
// the map; a render failure is logged and skipped so one bad chart cannot
// sink the response.
func BuildArtifacts(renderer interfaces.ChartRenderer, a *models.Analysis, logger *common.Logger) map[string]string {
	artifacts := map[string]string{}

	add := func(name, path string, err error) {
		if err != nil {
			logger.Warn().Err(err).Str("chart", name).Str("symbol", a.Symbol).Msg("chart render failed")
			return
		}
		if path != "" {
			artifacts[name] = path
		}
	}

	if a.Profile != nil {
		path, err := renderer.SectorChart(a.Symbol, a.Day, a.Profile.Sectors)
		add("sectors", path, err)
	}

	path, err := renderer.PerformanceChart(a.Symbol, a.Day, a.Series)
	add("performance", path, err)

	if fund, ok := a.Series[a.Symbol]; ok {
		path, err := renderer.PriceChart(a.Symbol, a.Day, fund)
		add("price", path, err)
	}

	for calc, study := range a.Studies {
		if study == nil || study.Kind != models.StudyHistogram {
			continue
		}
		for symbol, hist := range study.Histograms {
			path, err := renderer.HistogramChart(symbol, a.Day, calc, hist)
			add(calc+"_"+symbol, path, err)
		}
	}

	return artifacts
}
