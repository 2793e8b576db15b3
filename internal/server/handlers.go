package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/quantfold/etfscope/internal/common"
	"github.com/quantfold/etfscope/internal/models"
	"github.com/quantfold/etfscope/internal/services/analysis"
	"github.com/quantfold/etfscope/internal/services/report"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     common.Version,
		"cache_day":   s.app.AnalysisService.CacheDay(),
		"daily_quota": s.app.Config.Limits.DailyQuota,
		"uptime":      time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

func (s *Server) handleListETFs(w http.ResponseWriter, r *http.Request) {
	etfs, err := s.app.AnalysisService.ListETFs(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing ETFs: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"day":   s.app.AnalysisService.CacheDay(),
		"count": len(etfs),
		"etfs":  etfs,
	})
}

func (s *Server) handleCalculations(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"calculations": models.CalculationOptions,
		"max_selected": s.app.Config.Limits.MaxCalculations,
	})
}

// AnalyzeResponse pairs the pipeline result with the chart artifacts
// rendered from it. Chart references are /charts/ URLs on this server,
// never filesystem paths.
type AnalyzeResponse struct {
	*models.Analysis
	Charts map[string]string `json:"charts"`
}

// chartURLs rewrites renderer file paths to the URLs the router serves
// them under.
func chartURLs(artifacts map[string]string) map[string]string {
	urls := make(map[string]string, len(artifacts))
	for name, path := range artifacts {
		urls[name] = "/charts/" + filepath.Base(path)
	}
	return urls
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := s.app.AnalysisService.Analyze(r.Context(), req)
	if err != nil {
		var verr *analysis.ValidationError
		if errors.As(err, &verr) {
			WriteError(w, http.StatusBadRequest, verr.Message)
			return
		}
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, AnalyzeResponse{
		Analysis: result,
		Charts:   chartURLs(report.BuildArtifacts(s.app.Renderer, result, s.logger)),
	})
}
