// Package alphavantage provides a client for the Alpha Vantage API
package alphavantage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/models"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"
	DefaultTimeout = 10 * time.Second
	// DefaultRateLimit spaces calls for the free tier (5 requests/minute).
	// The daily call quota is not enforced here: the same-day cache keeps
	// repeat requests free, and the configured budget is surfaced to
	// consumers so they can pace cold-cache queries.
	DefaultRateLimit = 5 // requests per minute
)

// seriesKeys is the explicit, total mapping from requested periodicity to
// the top-level key the time-series response carries its records under.
// The remote varies the key name per function; resolving by exact lookup
// (rather than scanning for a "Time Series" substring) keeps a renamed or
// unexpected payload a loud error instead of a silent mismatch.
var seriesKeys = map[models.Periodicity]string{
	models.Daily:   "Time Series (Daily)",
	models.Weekly:  "Weekly Time Series",
	models.Monthly: "Monthly Time Series",
}

// Client implements the MarketDataClient interface
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit in requests per minute
func WithRateLimit(requestsPerMinute int) ClientOption {
	return func(c *Client) {
		if requestsPerMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Alpha Vantage client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/DefaultRateLimit), 1),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Function   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Alpha Vantage API error: %s (status: %d, function: %s)", e.Message, e.StatusCode, e.Function)
}

// get performs a rate-limited GET request and returns the raw body.
// All four query kinds share the single query endpoint; the function
// parameter selects the kind.
func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	function := params.Get("function")
	params.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("function", function).Msg("Alpha Vantage API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Function:   function,
		}
	}

	return body, nil
}

// Listing retrieves the active-securities listing for a business day.
// The endpoint answers CSV; rows missing a name are discarded as malformed.
func (c *Client) Listing(ctx context.Context, day string) (*models.Table, error) {
	params := url.Values{}
	params.Set("function", "LISTING_STATUS")
	params.Set("date", day)
	params.Set("state", "active")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty listing response")
	}

	table := &models.Table{Header: records[0]}
	nameCol := table.ColumnIndex("name")
	if nameCol < 0 {
		return nil, fmt.Errorf("listing response has no name column")
	}

	for _, row := range records[1:] {
		if table.Cell(row, nameCol) == "" {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	c.logger.Debug().Int("rows", len(table.Rows)).Str("day", day).Msg("listing retrieved")
	return table, nil
}

// etfProfileResponse is the wire shape of the ETF_PROFILE response.
// Numerics arrive quoted; leveraged is a YES/NO string.
type etfProfileResponse struct {
	NetAssets         models.FlexFloat `json:"net_assets"`
	NetExpenseRatio   models.FlexFloat `json:"net_expense_ratio"`
	PortfolioTurnover models.FlexFloat `json:"portfolio_turnover"`
	DividendYield     models.FlexFloat `json:"dividend_yield"`
	InceptionDate     string           `json:"inception_date"`
	Leveraged         string           `json:"leveraged"`
	Sectors           []struct {
		Sector string           `json:"sector"`
		Weight models.FlexFloat `json:"weight"`
	} `json:"sectors"`
	Holdings []struct {
		Symbol      string           `json:"symbol"`
		Description string           `json:"description"`
		Weight      models.FlexFloat `json:"weight"`
	} `json:"holdings"`
}

// FundProfile retrieves the descriptive dataset for one ETF.
func (c *Client) FundProfile(ctx context.Context, symbol string) (*models.FundProfile, error) {
	params := url.Values{}
	params.Set("function", "ETF_PROFILE")
	params.Set("symbol", symbol)

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var resp etfProfileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode fund profile: %w", err)
	}

	profile := &models.FundProfile{
		Symbol:            symbol,
		NetAssets:         resp.NetAssets,
		NetExpenseRatio:   resp.NetExpenseRatio,
		PortfolioTurnover: resp.PortfolioTurnover,
		DividendYield:     resp.DividendYield,
		InceptionDate:     resp.InceptionDate,
		Leveraged:         strings.EqualFold(resp.Leveraged, "YES"),
	}

	for _, s := range resp.Sectors {
		profile.Sectors = append(profile.Sectors, models.SectorWeight{
			Sector: s.Sector,
			Weight: s.Weight,
		})
	}
	for _, h := range resp.Holdings {
		profile.Holdings = append(profile.Holdings, models.Holding{
			Symbol: h.Symbol,
			Name:   h.Description,
			Weight: h.Weight,
		})
	}

	return profile, nil
}

// TimeSeries retrieves raw per-date price records for a symbol. The record
// key varies by periodicity and is resolved via the seriesKeys mapping.
func (c *Client) TimeSeries(ctx context.Context, symbol string, periodicity models.Periodicity, outputSize string) (models.RawSeries, error) {
	seriesKey, ok := seriesKeys[periodicity]
	if !ok {
		return nil, fmt.Errorf("unmapped periodicity %q", periodicity)
	}

	params := url.Values{}
	params.Set("function", periodicity.Function())
	params.Set("symbol", symbol)
	params.Set("outputsize", outputSize)
	params.Set("datatype", "json")

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode time series: %w", err)
	}

	raw, ok := envelope[seriesKey]
	if !ok {
		// The remote answers 200 with an error/rate-limit note instead of data.
		return nil, fmt.Errorf("time series response for %s missing %q key", symbol, seriesKey)
	}

	var series models.RawSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fmt.Errorf("failed to decode %q records: %w", seriesKey, err)
	}

	c.logger.Debug().Str("symbol", symbol).Int("dates", len(series)).Msg("time series retrieved")
	return series, nil
}

// Analytics runs a fixed-window statistics query over a symbol set.
func (c *Client) Analytics(ctx context.Context, req interfaces.AnalyticsRequest) (*models.AnalyticsPayload, error) {
	params := url.Values{}
	params.Set("function", "ANALYTICS_FIXED_WINDOW")
	params.Set("SYMBOLS", strings.Join(req.Symbols, ","))
	params.Add("RANGE", req.FirstDate)
	params.Add("RANGE", req.LastDate)
	params.Set("OHLC", req.OHLC)
	params.Set("INTERVAL", string(req.Interval))
	params.Set("CALCULATIONS", strings.Join(req.Calculations, ","))

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var payload models.AnalyticsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode analytics payload: %w", err)
	}

	c.logger.Debug().
		Int("symbols", len(req.Symbols)).
		Int("calculations", len(req.Calculations)).
		Msg("analytics retrieved")
	return &payload, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
