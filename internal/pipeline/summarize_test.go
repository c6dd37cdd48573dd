package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/ratios"
)

func TestLocalSummarizer(t *testing.T) {
	snap := aaplSnapshot()
	snap.Ticker = "AAPL"
	rec := models.Recommendation{Verdict: models.VerdictBuy, Rationale: "Revenue   grew.\nMargins held."}

	out, err := LocalSummarizer{}.Summarize(context.Background(), rec, snap, ratios.Compute(snap))
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Apple Inc (AAPL): Buy", lines[0])
	assert.Equal(t, "Price 150, change 5.00 (3.45%)", lines[1])
	assert.Equal(t, "Revenue grew. Margins held.", lines[2])
}

func TestLocalSummarizer_UnknownChange(t *testing.T) {
	snap := models.FinancialSnapshot{Ticker: "XYZ", CurrentPrice: models.Known(10)}
	rec := models.Recommendation{Verdict: models.VerdictHold, Rationale: "Flat."}

	out, err := LocalSummarizer{}.Summarize(context.Background(), rec, snap, ratios.Compute(snap))
	require.NoError(t, err)
	assert.Contains(t, out, "XYZ (XYZ): Hold\nPrice 10, change N/A\n")
}

func TestTruncateWords(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := truncateWords(strings.TrimSpace(long), summaryLimit)

	assert.LessOrEqual(t, len(got), summaryLimit)
	assert.True(t, strings.HasSuffix(got, "word..."))
	assert.Equal(t, "short", truncateWords("short", summaryLimit))
}

func TestTruncateWords_PrefersSentenceEnd(t *testing.T) {
	text := "Revenue grew. Margins held! " + strings.Repeat("more ", 100)
	got := truncateWords(strings.TrimSpace(text), summaryLimit)
	assert.Equal(t, "Revenue grew. Margins held!", got)

	got = truncateWords("Revenue grew. Margins held steady overall", 30)
	assert.Equal(t, "Revenue grew.", got)
}

func TestTruncateWords_StaysWithinLimit(t *testing.T) {
	for _, limit := range []int{3, 10, 40, summaryLimit} {
		got := truncateWords(strings.Repeat("abcdefg ", 80), limit)
		assert.LessOrEqual(t, len(got), limit, "limit %d", limit)
	}
}

func TestTruncateWords_NoSpaceKeepsRunes(t *testing.T) {
	got := truncateWords(strings.Repeat("é", 200), 5)
	assert.Equal(t, "é...", got)
}

func TestSummarizeStage_RequiresRecommendation(t *testing.T) {
	snap := aaplSnapshot()
	pc := NewPipelineContext(models.AnalysisRequest{StockTicker: "AAPL"})
	pc.Snapshot = &snap
	pc.Recommendation = &models.Recommendation{Verdict: models.VerdictBuy}

	err := NewSummarizeStage(LocalSummarizer{}).Run(context.Background(), pc)
	se, ok := AsStageError(err)
	require.True(t, ok)
	assert.Equal(t, KindConsistency, se.Kind)
	assert.Nil(t, pc.Summary)
}
