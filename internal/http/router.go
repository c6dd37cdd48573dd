package http

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/handlers"
)

func NewRouter(cfg config.Config, api *handlers.API, logger arbor.ILogger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", api.Analyze)
	mux.HandleFunc("/api/v1/analyze", api.Analyze)
	mux.HandleFunc("/health", api.Health)
	mux.HandleFunc("/api/v1/health", api.Health)

	h := http.Handler(mux)
	h = withRecovery(logger)(h)
	h = withLogging(logger)(h)
	h = withCorrelationID(logger)(h)
	h = withRateLimit(cfg.RateLimitPerMin)(h)
	h = withCORS(h)
	return h
}
