package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSecurity_IsETF(t *testing.T) {
	tests := []struct {
		assetType string
		expected  bool
	}{
		{"ETF", true},
		{"Etf", true},
		{"Equity ETF", true},
		{"Stock", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.assetType, func(t *testing.T) {
			s := Security{Symbol: "X", AssetType: tt.assetType}
			if got := s.IsETF(); got != tt.expected {
				t.Errorf("IsETF(%q) = %v, want %v", tt.assetType, got, tt.expected)
			}
		})
	}
}

func TestFundProfile_TopHoldings(t *testing.T) {
	p := &FundProfile{
		Holdings: []Holding{
			{Symbol: "AAA", Weight: 0.3},
			{Symbol: "BBB", Weight: 0.1},
			{Symbol: "CCC", Weight: 0.4},
			{Symbol: "DDD", Weight: 0.2},
		},
	}

	top := p.TopHoldings(2)
	if len(top) != 2 {
		t.Fatalf("len = %d, want 2", len(top))
	}
	if top[0].Symbol != "CCC" || top[1].Symbol != "AAA" {
		t.Errorf("top holdings = [%s, %s], want [CCC, AAA]", top[0].Symbol, top[1].Symbol)
	}

	// Original slice must not be reordered.
	if p.Holdings[0].Symbol != "AAA" {
		t.Errorf("source holdings mutated, first = %s", p.Holdings[0].Symbol)
	}
}

func TestFundProfile_TopHoldings_MalformedWeightRanksLast(t *testing.T) {
	// An "n/a" weight decodes to the NaN missing marker; it must rank as
	// zero, not leak into the comparator and displace a real holding.
	var bad Holding
	if err := json.Unmarshal([]byte(`{"symbol": "BAD", "weight": "n/a"}`), &bad); err != nil {
		t.Fatalf("failed to decode holding: %v", err)
	}

	p := &FundProfile{
		Holdings: []Holding{
			bad,
			{Symbol: "LOW", Weight: 0.1},
			{Symbol: "TOP", Weight: 0.4},
		},
	}

	top := p.TopHoldings(2)
	if len(top) != 2 || top[0].Symbol != "TOP" || top[1].Symbol != "LOW" {
		t.Errorf("top holdings = %v, want [TOP LOW]", top)
	}
}

func TestFundProfile_TopHoldings_StableTies(t *testing.T) {
	p := &FundProfile{
		Holdings: []Holding{
			{Symbol: "FIRST", Weight: 0.2},
			{Symbol: "SECOND", Weight: 0.2},
			{Symbol: "THIRD", Weight: 0.2},
		},
	}

	top := p.TopHoldings(3)
	if top[0].Symbol != "FIRST" || top[1].Symbol != "SECOND" || top[2].Symbol != "THIRD" {
		t.Errorf("tie order not preserved: %v", top)
	}
}

func TestParsePeriodicity(t *testing.T) {
	tests := []struct {
		in   string
		want Periodicity
		ok   bool
	}{
		{"DAILY", Daily, true},
		{"weekly", Weekly, true},
		{"TIME_SERIES_MONTHLY", Monthly, true},
		{"time_series_daily", Daily, true},
		{"HOURLY", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePeriodicity(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParsePeriodicity(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPriceSeries_Bounds(t *testing.T) {
	s := &PriceSeries{
		Symbol: "SPY",
		Bars: []PriceBar{
			{Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Close: 100},
			{Date: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), Close: 101},
			{Date: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), Close: 102},
		},
	}

	if got := s.FirstDate().Format("2006-01-02"); got != "2026-03-02" {
		t.Errorf("FirstDate = %s, want 2026-03-02", got)
	}
	if got := s.LastDate().Format("2006-01-02"); got != "2026-03-04" {
		t.Errorf("LastDate = %s, want 2026-03-04", got)
	}
}

func TestKindForCalculation(t *testing.T) {
	tests := []struct {
		name string
		want StudyKind
	}{
		{"MEAN", StudyScalar},
		{"variance(annualized=true)", StudyScalar},
		{"HISTOGRAM", StudyHistogram},
		{"CORRELATION", StudyMatrix},
		{"correlation(method=spearman)", StudyMatrix},
		{"COVARIANCE(ANNUALIZED=TRUE)", StudyMatrix},
		{"NONEXISTENT", StudyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindForCalculation(tt.name); got != tt.want {
				t.Errorf("KindForCalculation(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestMatrixPayloadKey_ExactNotSubstring(t *testing.T) {
	// Parameterized variants resolve to the base key by explicit mapping.
	key, ok := MatrixPayloadKey("CORRELATION(METHOD=KENDALL)")
	if !ok || key != "correlation" {
		t.Errorf("MatrixPayloadKey = (%q, %v), want (correlation, true)", key, ok)
	}

	// Non-matrix and unknown names are not resolved at all.
	if _, ok := MatrixPayloadKey("correlationish"); ok {
		t.Error("unexpected payload key for unmapped calculation")
	}
	if _, ok := MatrixPayloadKey("MEAN"); ok {
		t.Error("scalar study must not resolve to a matrix key")
	}
}

func TestCalculationOptionsAllMapped(t *testing.T) {
	for _, name := range CalculationOptions {
		if !IsKnownCalculation(name) {
			t.Errorf("catalogue entry %q has no mapped result shape", name)
		}
	}
}
