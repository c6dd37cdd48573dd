package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/handlers"
	"equityscope/backend-go/internal/logging"
	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/services"
)

type panicAnalyzer struct{}

func (panicAnalyzer) Run(context.Context, models.AnalysisRequest) (models.AnalyzeResponse, error) {
	panic("boom")
}

func newTestRouter(cfg config.Config) http.Handler {
	logger := logging.NewSilent()
	api := handlers.New(cfg, panicAnalyzer{}, services.NewMemoryCache(), logger)
	return NewRouter(cfg, api, logger)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(config.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/analyze", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorrelationID(t *testing.T) {
	h := newTestRouter(config.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(correlationHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rec.Header().Get(correlationHeader), 36)
}

func TestRecoveryReturnsJSON(t *testing.T) {
	h := newTestRouter(config.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"stock_ticker":"AAPL"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
}

func TestAnalyzeAlias(t *testing.T) {
	h := newTestRouter(config.Default())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRateLimitPerIP(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimitPerMin = 2
	h := newTestRouter(cfg)

	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, get("10.0.0.1"))
	require.Equal(t, http.StatusOK, get("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 1.2.3.4 , 5.6.7.8")
	assert.Equal(t, "1.2.3.4", clientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:80"
	assert.Equal(t, "9.9.9.9", clientIP(req))
}
