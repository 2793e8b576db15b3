package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/etfscope/internal/app"
	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
	"github.com/quantfold/etfscope/internal/services/analysis"
	"github.com/quantfold/etfscope/internal/services/report"
	"github.com/quantfold/etfscope/internal/storage"
)

// stubClient serves canned market data without touching the network.
type stubClient struct{}

func (c *stubClient) Listing(ctx context.Context, day string) (*models.Table, error) {
	return &models.Table{
		Header: []string{"symbol", "name", "exchange", "assetType"},
		Rows: [][]string{
			{"SPY", "SPDR S&P 500 ETF Trust", "NYSE ARCA", "ETF"},
			{"AAPL", "Apple Inc", "NASDAQ", "Stock"},
		},
	}, nil
}

func (c *stubClient) FundProfile(ctx context.Context, symbol string) (*models.FundProfile, error) {
	return &models.FundProfile{
		Symbol:   symbol,
		Holdings: []models.Holding{{Symbol: "AAPL", Weight: 0.07}},
		Sectors:  []models.SectorWeight{{Sector: "Information Technology", Weight: 0.31}},
	}, nil
}

func (c *stubClient) TimeSeries(ctx context.Context, symbol string, periodicity models.Periodicity, outputSize string) (models.RawSeries, error) {
	return models.RawSeries{
		"2025-03-03": {"1. open": "100.0", "4. close": "100.5"},
		"2025-03-04": {"1. open": "101.0", "4. close": "102.0"},
	}, nil
}

func (c *stubClient) Analytics(ctx context.Context, req interfaces.AnalyticsRequest) (*models.AnalyticsPayload, error) {
	payload := &models.AnalyticsPayload{}
	payload.Payload.ReturnsCalculations = map[string]json.RawMessage{
		"MEAN": json.RawMessage(`{"SPY": 0.001, "AAPL": 0.002}`),
	}
	return payload, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := common.NewSilentLogger()
	config := common.NewDefaultConfig()
	config.Storage.CachePath = t.TempDir()
	config.Storage.ArtifactPath = t.TempDir()

	cache, err := storage.NewCacheStore(logger, config.Storage.CachePath)
	require.NoError(t, err)
	renderer, err := report.NewRenderer(logger, config.Storage.ArtifactPath)
	require.NoError(t, err)

	client := &stubClient{}
	a := &app.App{
		Config:          config,
		Logger:          logger,
		Cache:           cache,
		Client:          client,
		AnalysisService: analysis.NewService(client, cache, config.Limits, logger),
		Renderer:        renderer,
		StartupTime:     time.Now(),
	}
	return NewServer(a)
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["cache_day"])
	assert.EqualValues(t, 25, body["daily_quota"])
}

func TestHandleListETFs(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/etfs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count int               `json:"count"`
		ETFs  []models.Security `json:"etfs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "SPY", body.ETFs[0].Symbol)
}

func TestHandleCalculations(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calculations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Calculations []string `json:"calculations"`
		MaxSelected  int      `json:"max_selected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.CalculationOptions, body.Calculations)
	assert.Equal(t, 3, body.MaxSelected)
}

func TestHandleAnalyze(t *testing.T) {
	srv := newTestServer(t)

	reqBody, _ := json.Marshal(models.AnalysisRequest{
		Symbol:       "SPY",
		Periodicity:  models.Daily,
		Calculations: []string{"MEAN"},
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Symbol  string            `json:"symbol"`
		Name    string            `json:"name"`
		Series  map[string]any    `json:"series"`
		Charts  map[string]string `json:"charts"`
		Studies map[string]any    `json:"studies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "SPY", body.Symbol)
	assert.Equal(t, "SPDR S&P 500 ETF Trust", body.Name)
	assert.Len(t, body.Series, 2)
	assert.Contains(t, body.Studies, "mean")
	assert.Contains(t, body.Charts, "performance")
	assert.Contains(t, body.Charts, "sectors")

	// Chart references must be URLs this server resolves, not filesystem
	// paths leaked from the artifact directory.
	for name, ref := range body.Charts {
		require.True(t, strings.HasPrefix(ref, "/charts/"), "chart %s ref = %q", name, ref)

		chartRec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(chartRec, httptest.NewRequest(http.MethodGet, ref, nil))
		assert.Equal(t, http.StatusOK, chartRec.Code, "chart %s not served at %s", name, ref)
	}
}

func TestHandleAnalyzeValidation(t *testing.T) {
	srv := newTestServer(t)

	reqBody := []byte(`{"symbol": "", "periodicity": "DAILY", "calculations": ["MEAN"]}`)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader(reqBody)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "symbol")
}

func TestHandleAnalyzeBadJSON(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", bytes.NewReader([]byte("{not json"))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
