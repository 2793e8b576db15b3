package models

import "strings"

// CalculationOptions is the fixed catalogue of studies the analytics
// endpoint supports, in the order presented to the user. Selections are
// validated against this list before any remote call is made.
var CalculationOptions = []string{
	"MIN",
	"MAX",
	"MEAN",
	"MEDIAN",
	"CUMULATIVE_RETURN",
	"VARIANCE",
	"VARIANCE(ANNUALIZED=TRUE)",
	"STDDEV",
	"MAX_DRAWDOWN",
	"HISTOGRAM",
	"AUTOCORRELATION",
	"COVARIANCE",
	"COVARIANCE(ANNUALIZED=TRUE)",
	"CORRELATION",
	"CORRELATION(METHOD=KENDALL)",
	"CORRELATION(METHOD=SPEARMAN)",
}

// StudyKind distinguishes the three result shapes the analytics payload
// can carry for a calculation.
type StudyKind int

const (
	StudyUnknown   StudyKind = iota
	StudyScalar              // per-symbol scalar metric
	StudyHistogram           // per-symbol distribution
	StudyMatrix              // symbol x symbol matrix
)

// scalarCalculations are the studies whose payload is symbol -> value.
var scalarCalculations = map[string]bool{
	"min":                       true,
	"max":                       true,
	"mean":                      true,
	"median":                    true,
	"cumulative_return":         true,
	"variance":                  true,
	"variance(annualized=true)": true,
	"stddev":                    true,
	"max_drawdown":              true,
	"autocorrelation":           true,
}

// matrixPayloadKeys maps each pairwise calculation to the key holding its
// matrix inside the calculation payload. The mapping is total and exact:
// parameterized variants share the base key, and anything unmapped is not
// a matrix study. This avoids substring matching, which misfires when
// calculation names are prefixes of each other.
var matrixPayloadKeys = map[string]string{
	"covariance":                  "covariance",
	"covariance(annualized=true)": "covariance",
	"correlation":                 "correlation",
	"correlation(method=kendall)": "correlation",
	"correlation(method=spearman)": "correlation",
}

// KindForCalculation returns the result shape expected for the named
// calculation. Names are compared case-insensitively.
func KindForCalculation(name string) StudyKind {
	lower := strings.ToLower(name)
	switch {
	case scalarCalculations[lower]:
		return StudyScalar
	case lower == "histogram":
		return StudyHistogram
	default:
		if _, ok := matrixPayloadKeys[lower]; ok {
			return StudyMatrix
		}
		return StudyUnknown
	}
}

// MatrixPayloadKey returns the payload key carrying the matrix for a
// pairwise calculation, or false if the calculation has no matrix shape.
func MatrixPayloadKey(name string) (string, bool) {
	key, ok := matrixPayloadKeys[strings.ToLower(name)]
	return key, ok
}

// IsKnownCalculation reports whether name appears in the catalogue.
func IsKnownCalculation(name string) bool {
	return KindForCalculation(name) != StudyUnknown
}

// Histogram is a per-symbol return distribution: len(BinEdges) is one more
// than len(BinCounts).
type Histogram struct {
	BinEdges  []float64 `json:"bin_edges"`
	BinCounts []float64 `json:"bin_count"`
}

// Matrix is a symbol x symbol result with Values[i][j] pairing
// Symbols[i] and Symbols[j]. Entries absent from the payload are zero.
type Matrix struct {
	Symbols []string    `json:"symbols"`
	Values  [][]float64 `json:"values"`
}

// StudyResult is the mapped outcome of one requested calculation. Exactly
// one of Metrics, Histograms, or Matrix is populated, per Kind. A requested
// calculation the payload omitted maps to a nil *StudyResult, never an error.
type StudyResult struct {
	Calculation string                `json:"calculation"` // lowercased requested name
	Kind        StudyKind             `json:"kind"`
	Metrics     map[string]FlexFloat  `json:"metrics,omitempty"`    // StudyScalar: symbol -> value
	Histograms  map[string]*Histogram `json:"histograms,omitempty"` // StudyHistogram: symbol -> distribution
	Matrix      *Matrix               `json:"matrix,omitempty"`     // StudyMatrix
}
