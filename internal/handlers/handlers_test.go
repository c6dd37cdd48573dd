package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/logging"
	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/pipeline"
	"equityscope/backend-go/internal/ratios"
	"equityscope/backend-go/internal/reconcile"
	"equityscope/backend-go/internal/services"
)

type stubFetcher struct {
	calls int32
	block bool
}

func (f *stubFetcher) FetchFinancials(ctx context.Context, ticker string) (models.FinancialSnapshot, []models.NewsItem, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return models.FinancialSnapshot{}, nil, ctx.Err()
	}
	return models.FinancialSnapshot{
		Ticker:        ticker,
		CompanyName:   "Apple Inc",
		Industry:      "Technology",
		CurrentPrice:  models.Known(150),
		PreviousClose: models.Known(145),
		EPS:           models.Known(6),
		Week52High:    models.Known(200),
		Week52Low:     models.Known(120),
	}, nil, nil
}

type stubGenerator struct {
	calls int32
}

func (g *stubGenerator) Generate(context.Context, string) (string, error) {
	atomic.AddInt32(&g.calls, 1)
	return "RECOMMENDATION: Buy\nSolid earnings growth makes this a buy.", nil
}

type stubSummarizer struct {
	calls int32
}

func (s *stubSummarizer) Summarize(ctx context.Context, rec models.Recommendation, snap models.FinancialSnapshot, rs models.RatioSet) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return pipeline.LocalSummarizer{}.Summarize(ctx, rec, snap, rs)
}

type fixture struct {
	api        *API
	fetcher    *stubFetcher
	gen        *stubGenerator
	summarizer *stubSummarizer
}

func newFixture(cfg config.Config) *fixture {
	f := &fixture{fetcher: &stubFetcher{}, gen: &stubGenerator{}, summarizer: &stubSummarizer{}}
	logger := logging.NewSilent()
	orch := pipeline.New(pipeline.Deps{
		Financials:     f.fetcher,
		Calculator:     ratios.Engine{},
		Generator:      f.gen,
		Reconciler:     reconcile.New(reconcile.DefaultPolicy()),
		Summarizer:     f.summarizer,
		DefaultVerdict: models.VerdictHold,
	}, logger)
	f.api = New(cfg, orch, services.NewMemoryCache(), logger)
	return f
}

func postAnalyze(api *API, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Analyze(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Error
}

func TestAnalyze_Success(t *testing.T) {
	f := newFixture(config.Default())

	rec := postAnalyze(f.api, `{"stock_ticker":"aapl"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp models.AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.VerdictBuy, resp.Recommendation)
	assert.Equal(t, "Solid earnings growth makes this a buy.", resp.Reasoning)
	assert.NotEmpty(t, resp.Summary)
	assert.Equal(t, "AAPL", resp.ResearcherData.FinancialData.Ticker)
	assert.Equal(t, models.RatioOf(5), resp.AccountantAnalysis.PriceChange)
	assert.Equal(t, models.RatioOf(3.45), resp.AccountantAnalysis.PriceChangePercent)
	assert.Equal(t, models.RatioOf(25), resp.AccountantAnalysis.PERatio)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	analysis := raw["accountant_analysis"].(map[string]any)
	assert.Equal(t, "N/A", analysis["price_to_book"])
	researcher := raw["researcher_data"].(map[string]any)
	assert.Equal(t, []any{}, researcher["news"])
	assert.Equal(t, "Buy", raw["model_verdict"])
	assert.Equal(t, false, raw["reconciled"])
}

func TestAnalyze_EmptyTicker(t *testing.T) {
	f := newFixture(config.Default())

	rec := postAnalyze(f.api, `{"stock_ticker":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Research Agent Error: stock ticker is required", decodeError(t, rec))
	assert.Zero(t, atomic.LoadInt32(&f.fetcher.calls))
	assert.Zero(t, atomic.LoadInt32(&f.gen.calls))
}

func TestAnalyze_InvalidPayload(t *testing.T) {
	f := newFixture(config.Default())

	for _, body := range []string{"", "null", "{not json", `["AAPL"]`} {
		rec := postAnalyze(f.api, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, msgInvalidPayload, decodeError(t, rec), body)
	}
	assert.Zero(t, atomic.LoadInt32(&f.fetcher.calls))
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	f := newFixture(config.Default())

	body := `{"stock_ticker":"` + strings.Repeat("A", maxBodyBytes) + `"}`
	rec := postAnalyze(f.api, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyze_ResearchTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.RequestTimeout = 50 * time.Millisecond
	f := newFixture(cfg)
	f.fetcher.block = true

	rec := postAnalyze(f.api, `{"stock_ticker":"AAPL"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	msg := decodeError(t, rec)
	assert.True(t, strings.HasPrefix(msg, "Research Agent Error: "), msg)
	assert.Zero(t, atomic.LoadInt32(&f.gen.calls))
	assert.Zero(t, atomic.LoadInt32(&f.summarizer.calls))
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	f := newFixture(config.Default())

	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	rec := httptest.NewRecorder()
	f.api.Analyze(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
	assert.Equal(t, "method not allowed", decodeError(t, rec))
}

func TestWriteStageError_RateLimitedUpstream(t *testing.T) {
	err := pipeline.Failed(pipeline.StageRecommend, pipeline.KindExternalService, &services.UpstreamError{Service: "groq", Status: 429})
	rec := httptest.NewRecorder()
	writeStageError(rec, err, logging.NewSilent())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "Recommend Agent Error: groq: 429 Too Many Requests", decodeError(t, rec))
}

func TestHealth(t *testing.T) {
	cfg := config.Default()
	cfg.Version = "1.2.3"
	f := newFixture(cfg)

	rec := httptest.NewRecorder()
	f.api.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ok)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, config.ProviderGroq, resp.Provider)
	assert.ElementsMatch(t, []string{"FINNHUB_API_KEY", "GROQ_API_KEY"}, resp.Missing)
	assert.False(t, resp.Deps["market_data"].Ok)
	assert.Equal(t, "memory", resp.Deps["cache"].Detail)
	assert.Equal(t, "local", resp.Deps["summarizer"].Detail)

	cfg.FinnhubAPIKey = "fh"
	cfg.GroqAPIKey = "gq"
	f = newFixture(cfg)
	rec = httptest.NewRecorder()
	f.api.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ok)
	assert.Empty(t, resp.Missing)
	assert.NotContains(t, rec.Body.String(), "gq")
}
