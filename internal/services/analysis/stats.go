package analysis

import (
	"encoding/json"
	"strings"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/models"
)

// MapStudies reshapes the analytics payload into one StudyResult per
// requested calculation. Names are matched case-insensitively; a requested
// calculation absent from the payload (or the whole payload missing after a
// degraded fetch) maps to an explicit nil so the renderer can show "not
// available". Malformed entries are logged and mapped to nil, never raised.
func MapStudies(requested []string, payload *models.AnalyticsPayload, logger *common.Logger) map[string]*models.StudyResult {
	studies := make(map[string]*models.StudyResult, len(requested))

	// Lowercase view of the payload keys.
	available := map[string]json.RawMessage{}
	if !payload.IsEmpty() {
		for key, raw := range payload.Payload.ReturnsCalculations {
			available[strings.ToLower(key)] = raw
		}
	}

	for _, name := range requested {
		lower := strings.ToLower(name)
		raw, ok := available[lower]
		if !ok {
			studies[lower] = nil
			continue
		}
		studies[lower] = mapStudy(lower, raw, logger)
	}

	return studies
}

// mapStudy decodes one calculation entry into its shaped result.
func mapStudy(name string, raw json.RawMessage, logger *common.Logger) *models.StudyResult {
	switch models.KindForCalculation(name) {
	case models.StudyScalar:
		var scalars models.ScalarPayload
		if err := json.Unmarshal(raw, &scalars); err != nil {
			logger.Warn().Err(err).Str("calculation", name).Msg("malformed scalar study payload")
			return nil
		}
		metrics := make(map[string]models.FlexFloat, len(scalars))
		for symbol, value := range scalars {
			metrics[symbol] = value
		}
		return &models.StudyResult{
			Calculation: name,
			Kind:        models.StudyScalar,
			Metrics:     metrics,
		}

	case models.StudyHistogram:
		var hists models.HistogramPayload
		if err := json.Unmarshal(raw, &hists); err != nil {
			logger.Warn().Err(err).Str("calculation", name).Msg("malformed histogram study payload")
			return nil
		}
		return &models.StudyResult{
			Calculation: name,
			Kind:        models.StudyHistogram,
			Histograms:  hists,
		}

	case models.StudyMatrix:
		key, _ := models.MatrixPayloadKey(name)
		var matrix models.MatrixPayload
		if err := json.Unmarshal(raw, &matrix); err != nil {
			logger.Warn().Err(err).Str("calculation", name).Msg("malformed matrix study payload")
			return nil
		}
		cells := matrix.Correlation
		if key == "covariance" {
			cells = matrix.Covariance
		}
		if cells == nil {
			logger.Warn().Str("calculation", name).Str("key", key).Msg("matrix payload missing expected key")
			return nil
		}
		return &models.StudyResult{
			Calculation: name,
			Kind:        models.StudyMatrix,
			Matrix:      buildMatrix(matrix.Index, cells),
		}

	default:
		logger.Warn().Str("calculation", name).Msg("calculation has no mapped result shape")
		return nil
	}
}

// buildMatrix squares up a symbol x symbol matrix, filling entries the
// remote omitted (it answers only the lower triangle for symmetric
// studies) with zero.
func buildMatrix(symbols []string, cells [][]*float64) *models.Matrix {
	n := len(symbols)
	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
		if i >= len(cells) {
			continue
		}
		for j := 0; j < n && j < len(cells[i]); j++ {
			if cells[i][j] != nil {
				values[i][j] = *cells[i][j]
			}
		}
	}
	return &models.Matrix{Symbols: symbols, Values: values}
}
