package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/ratios"
)

func TestParseCompletion(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		verdict   models.Verdict
		rationale string
	}{
		{"plain header", "RECOMMENDATION: Sell\nDebt is rising.", models.VerdictSell, "Debt is rising."},
		{"markdown header", "**Recommendation:** **Buy**\n\nGrowth is strong.", models.VerdictBuy, "Growth is strong."},
		{"inline reasoning", "Recommendation: hold - valuation is stretched", models.VerdictHold, "valuation is stretched"},
		{"header after preamble", "Here is my view.\nRECOMMENDATION: Buy\nCash flow is solid.", models.VerdictBuy, "Here is my view.\nCash flow is solid."},
		{"no header", "  Cash flow is solid.  ", models.VerdictHold, "Cash flow is solid."},
		{"unparseable verdict", "RECOMMENDATION: Strong Buy\nMomentum.", models.VerdictHold, "Strong Buy\nMomentum."},
		{"header only", "RECOMMENDATION: Buy", models.VerdictBuy, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, r := ParseCompletion(tt.text, models.VerdictHold)
			assert.Equal(t, tt.verdict, v)
			assert.Equal(t, tt.rationale, r)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	snap := aaplSnapshot()
	snap.Ticker = "AAPL"
	news := make([]models.NewsItem, 5)
	for i := range news {
		news[i] = models.NewsItem{Headline: "headline " + string(rune('A'+i)), Source: "Wire", Summary: "s"}
	}

	prompt := BuildPrompt(snap, ratios.Compute(snap), news)

	assert.Contains(t, prompt, "- Current Price: 150\n")
	assert.Contains(t, prompt, "- Market Cap: N/A\n")
	assert.Contains(t, prompt, "- Price-to-Earnings Ratio: 25.00\n")
	assert.Contains(t, prompt, "- Price-to-Book Ratio: N/A\n")
	assert.Contains(t, prompt, "headline C (Source: Wire): s")
	assert.NotContains(t, prompt, "headline D")
	assert.Contains(t, prompt, "RECOMMENDATION: Buy")
}

func TestBuildPrompt_NoNews(t *testing.T) {
	prompt := BuildPrompt(models.FinancialSnapshot{Ticker: "X"}, models.RatioSet{}, nil)
	assert.True(t, strings.Contains(prompt, "Recent News:\n- none\n"))
}
