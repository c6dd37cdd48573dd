package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/services"
)

const serviceName = "equityscope-api"

// Analyzer runs one full analysis for a request.
type Analyzer interface {
	Run(ctx context.Context, req models.AnalysisRequest) (models.AnalyzeResponse, error)
}

type API struct {
	cfg      config.Config
	analyzer Analyzer
	cache    services.Cache
	logger   arbor.ILogger
}

func New(cfg config.Config, analyzer Analyzer, cache services.Cache, logger arbor.ILogger) *API {
	return &API{
		cfg:      cfg,
		analyzer: analyzer,
		cache:    cache,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func timeboxed(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), d)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
