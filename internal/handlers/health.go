package handlers

import (
	"net/http"

	"equityscope/backend-go/internal/models"
)

// Health reports configuration readiness. It never calls paid upstreams.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	missing := a.cfg.Missing()

	summarizer := "local"
	if a.cfg.BloggerURL != "" {
		summarizer = "blogger"
	}
	cacheBackend := "none"
	if a.cache != nil {
		cacheBackend = a.cache.Backend()
	}

	deps := map[string]models.DepStatus{
		"market_data":     depStatus(a.cfg.FinnhubAPIKey != "", "finnhub", "FINNHUB_API_KEY not set"),
		"text_generation": depStatus(a.cfg.ProviderKey() != "", a.cfg.LLMProvider, "credential not set"),
		"cache":           {Ok: true, Detail: cacheBackend},
		"summarizer":      {Ok: true, Detail: summarizer},
	}

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Ok:       len(missing) == 0,
		TsISO:    nowISO(),
		Service:  serviceName,
		Version:  a.cfg.Version,
		Provider: a.cfg.LLMProvider,
		Deps:     deps,
		Missing:  missing,
	})
}

func depStatus(ok bool, detail, reason string) models.DepStatus {
	if ok {
		return models.DepStatus{Ok: true, Detail: detail}
	}
	return models.DepStatus{Ok: false, Detail: detail, Error: reason}
}
