package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityscope/backend-go/internal/models"
)

func TestBloggerClient_Summarize(t *testing.T) {
	var got bloggerRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/blogger", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"summary":"  AAPL looks strong.  "}`))
	}))
	defer srv.Close()

	c := NewBloggerClient(srv.URL, fastPolicy(0))
	rec := models.Recommendation{Verdict: models.VerdictBuy, Rationale: "Earnings beat."}
	summary, err := c.Summarize(context.Background(), rec, models.FinancialSnapshot{}, models.RatioSet{})
	require.NoError(t, err)

	assert.Equal(t, "AAPL looks strong.", summary)
	assert.Equal(t, "Buy", got.Recommendation)
	assert.Equal(t, "Earnings beat.", got.Rationale)
}

func TestBloggerClient_RequiresBothFields(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	c := NewBloggerClient(srv.URL, fastPolicy(0))
	_, err := c.Summarize(context.Background(), models.Recommendation{Verdict: models.VerdictHold}, models.FinancialSnapshot{}, models.RatioSet{})
	require.ErrorIs(t, err, errMissingSummaryInput)
	assert.False(t, called)
}

func TestBloggerClient_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"missing rationale"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewBloggerClient(srv.URL, fastPolicy(2))
	_, err := c.Summarize(context.Background(), models.Recommendation{Verdict: models.VerdictSell, Rationale: "r"}, models.FinancialSnapshot{}, models.RatioSet{})

	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "blogger", up.Service)
	assert.Equal(t, http.StatusBadRequest, up.Status)
}
