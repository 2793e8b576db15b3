package models

// AnalysisRequest carries one user request through the pipeline.
type AnalysisRequest struct {
	Symbol       string      `json:"symbol"`
	Periodicity  Periodicity `json:"periodicity"`
	Calculations []string    `json:"calculations"`
}

// Analysis is the request-scoped result accumulated stage by stage.
// Each stage fills its own fields and never revisits earlier ones; the
// whole struct is rebuilt from cache or API on every request, so nothing
// leaks across requests beyond the day-scoped cache files.
type Analysis struct {
	Day         string      `json:"day"` // cache-day all artifacts were keyed under
	Symbol      string      `json:"symbol"`
	Name        string      `json:"name"`
	Periodicity Periodicity `json:"periodicity"`

	Profile  *FundProfile `json:"profile,omitempty"`
	FetchSet []string     `json:"fetch_set"`

	Series    map[string]*PriceSeries `json:"series"`
	FirstDate string                  `json:"first_date,omitempty"`
	LastDate  string                  `json:"last_date,omitempty"`

	// Studies has exactly one entry per requested calculation (lowercased);
	// a calculation the remote omitted maps to nil.
	Studies map[string]*StudyResult `json:"studies"`
}
