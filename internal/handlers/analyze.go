package handlers

import (
	"encoding/json"
	"net/http"

	"equityscope/backend-go/internal/logging"
	"equityscope/backend-go/internal/models"
)

const (
	maxBodyBytes      = 1 << 20
	msgInvalidPayload = "Invalid or missing JSON payload."
)

// Analyze handles POST /analyze.
func (a *API) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "method not allowed"})
		return
	}

	var req *models.AnalysisRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: msgInvalidPayload})
		return
	}

	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()

	resp, err := a.analyzer.Run(ctx, *req)
	if err != nil {
		writeStageError(w, err, logging.FromContext(r.Context(), a.logger))
		return
	}
	if resp.ResearcherData.News == nil {
		resp.ResearcherData.News = []models.NewsItem{}
	}
	writeJSON(w, http.StatusOK, resp)
}
