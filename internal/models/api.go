package models

import "encoding/json"

// RawSeries is the remote time-series shape before normalization:
// date (YYYY-MM-DD) -> vendor-prefixed field name ("1. open") -> value.
type RawSeries map[string]map[string]string

// AnalyticsPayload is the decoded fixed-window statistics response.
// Calculation entries are kept raw; their shape depends on the study kind
// and is resolved by the statistics mapper.
type AnalyticsPayload struct {
	Payload struct {
		ReturnsCalculations map[string]json.RawMessage `json:"RETURNS_CALCULATIONS"`
	} `json:"payload"`
}

// IsEmpty reports whether the payload carries no calculations, which is how
// a degraded (failed or quota-exhausted) analytics call presents downstream.
func (p *AnalyticsPayload) IsEmpty() bool {
	return p == nil || len(p.Payload.ReturnsCalculations) == 0
}

// ScalarPayload is the wire shape of a per-symbol scalar study.
type ScalarPayload map[string]FlexFloat

// HistogramPayload is the wire shape of a per-symbol distribution study.
type HistogramPayload map[string]*Histogram

// MatrixPayload is the wire shape of a pairwise study: the "index" lists the
// symbol order, the matrix itself sits under the calculation's payload key.
// Cells may be null (the remote fills only the lower triangle for symmetric
// studies), decoded as missing and mapped to zero.
type MatrixPayload struct {
	Index       []string     `json:"index"`
	Correlation [][]*float64 `json:"correlation"`
	Covariance  [][]*float64 `json:"covariance"`
}
