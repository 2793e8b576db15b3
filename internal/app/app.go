// Package app wires configuration, storage, clients and services into a
// single application core shared by the server binary and tests.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantfold/etfscope/internal/clients/alphavantage"
	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/interfaces"
	"github.com/quantfold/etfscope/internal/services/analysis"
	"github.com/quantfold/etfscope/internal/services/report"
	"github.com/quantfold/etfscope/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config          *common.Config
	Logger          *common.Logger
	Cache           *storage.CacheStore
	Client          interfaces.MarketDataClient
	AnalysisService *analysis.Service
	Renderer        interfaces.ChartRenderer
	StartupTime     time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, the day cache, the market-data
// client and the analysis pipeline. configPath may be empty, in which case
// ETFSCOPE_CONFIG and conventional locations are tried in order.
func NewApp(configPath string) (*App, error) {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("ETFSCOPE_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "etfscope.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/etfscope.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative storage paths to the binary directory so the server
	// is self-contained wherever it is installed.
	if config.Storage.CachePath != "" && !filepath.IsAbs(config.Storage.CachePath) {
		config.Storage.CachePath = filepath.Join(binDir, config.Storage.CachePath)
	}
	if config.Storage.ArtifactPath != "" && !filepath.IsAbs(config.Storage.ArtifactPath) {
		config.Storage.ArtifactPath = filepath.Join(binDir, config.Storage.ArtifactPath)
	}

	logger := common.NewLogger(config.Logging.Level)

	cache, err := storage.NewCacheStore(logger, config.Storage.CachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache store: %w", err)
	}

	if config.Clients.AlphaVantage.APIKey == "" {
		logger.Warn().Msg("Alpha Vantage API key not configured - uncached queries will fail")
	}

	client := alphavantage.NewClient(config.Clients.AlphaVantage.APIKey,
		alphavantage.WithBaseURL(config.Clients.AlphaVantage.BaseURL),
		alphavantage.WithLogger(logger),
		alphavantage.WithRateLimit(config.Clients.AlphaVantage.RateLimit),
		alphavantage.WithTimeout(config.Clients.AlphaVantage.GetTimeout()),
	)

	analysisService := analysis.NewService(client, cache, config.Limits, logger)

	// Prior cache-days can never be read again; drop them at startup.
	if removed := analysisService.PurgeStale(); removed > 0 {
		logger.Info().Int("removed", removed).Msg("stale cache entries purged at startup")
	}

	renderer, err := report.NewRenderer(logger, config.Storage.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chart renderer: %w", err)
	}

	logger.Info().
		Str("environment", config.Environment).
		Str("cache_path", config.Storage.CachePath).
		Str("cache_day", analysisService.CacheDay()).
		Msg("application initialized")

	return &App{
		Config:          config,
		Logger:          logger,
		Cache:           cache,
		Client:          client,
		AnalysisService: analysisService,
		Renderer:        renderer,
		StartupTime:     time.Now(),
	}, nil
}
