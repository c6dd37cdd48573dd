package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"equityscope/backend-go/internal/models"
	"equityscope/backend-go/internal/reconcile"
)

// TextGenerator produces free text for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VerdictReconciler forces a verdict to agree with its rationale.
type VerdictReconciler interface {
	Reconcile(candidate models.Verdict, rationale string) (models.Verdict, error)
}

type RecommendStage struct {
	gen        TextGenerator
	reconciler VerdictReconciler
	fallback   models.Verdict
}

func NewRecommendStage(gen TextGenerator, reconciler VerdictReconciler, fallback models.Verdict) *RecommendStage {
	if !fallback.Valid() {
		fallback = models.VerdictHold
	}
	return &RecommendStage{gen: gen, reconciler: reconciler, fallback: fallback}
}

func (s *RecommendStage) Name() StageName { return StageRecommend }

// Precedence is the reconciler's tie-break order when it exposes one.
func (s *RecommendStage) Precedence() string {
	if p, ok := s.reconciler.(interface{ Precedence() string }); ok {
		return p.Precedence()
	}
	return ""
}

func (s *RecommendStage) Run(ctx context.Context, pc *PipelineContext) error {
	if pc.Snapshot == nil || pc.Ratios == nil {
		return Failed(StageRecommend, KindComputation, errors.New("missing research or ratio data"))
	}

	text, err := s.gen.Generate(ctx, BuildPrompt(*pc.Snapshot, *pc.Ratios, pc.News))
	if err != nil {
		return adapterFailure(ctx, StageRecommend, KindExternalService, err)
	}

	candidate, rationale := ParseCompletion(text, s.fallback)
	verdict, err := s.reconciler.Reconcile(candidate, rationale)
	if err != nil {
		var ce *reconcile.ConsistencyError
		if errors.As(err, &ce) {
			return Failed(StageRecommend, KindExternalService, err)
		}
		return Failed(StageRecommend, KindConsistency, err)
	}

	pc.Recommendation = &models.Recommendation{
		Verdict:    verdict,
		Rationale:  rationale,
		Candidate:  candidate,
		Reconciled: verdict != candidate,
	}
	return nil
}

const promptNews = 3

// BuildPrompt lists the researched figures, the computed ratios and the top
// news items. Unknown values render as N/A.
func BuildPrompt(snap models.FinancialSnapshot, ratios models.RatioSet, news []models.NewsItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following data for %s (%s) and decide whether the stock is a Buy, Hold or Sell.\n\n", snap.CompanyName, snap.Ticker)

	b.WriteString("Financial Data:\n")
	fmt.Fprintf(&b, "- Current Price: %s\n", snap.CurrentPrice)
	fmt.Fprintf(&b, "- 52-Week High: %s\n", snap.Week52High)
	fmt.Fprintf(&b, "- 52-Week Low: %s\n", snap.Week52Low)
	fmt.Fprintf(&b, "- Market Cap: %s\n", snap.MarketCap)
	fmt.Fprintf(&b, "- PE Ratio: %s\n", snap.PERatio)
	fmt.Fprintf(&b, "- Dividend Yield: %s\n", snap.DividendYield)
	fmt.Fprintf(&b, "- Industry: %s\n\n", snap.Industry)

	b.WriteString("Calculations:\n")
	fmt.Fprintf(&b, "- Price-to-Earnings Ratio: %s\n", ratios.PERatio)
	fmt.Fprintf(&b, "- Dividend Yield (%%): %s\n", ratios.DividendYieldPercent)
	fmt.Fprintf(&b, "- Price Change: %s (%s%%)\n", ratios.PriceChange, ratios.PriceChangePercent)
	fmt.Fprintf(&b, "- Intraday Range: %s\n", ratios.Volatility)
	fmt.Fprintf(&b, "- Price-to-Book Ratio: %s\n", ratios.PriceToBook)
	fmt.Fprintf(&b, "- Below 52-Week High (%%): %s\n", ratios.PctVs52WeekHigh)
	fmt.Fprintf(&b, "- Above 52-Week Low (%%): %s\n\n", ratios.PctVs52WeekLow)

	b.WriteString("Recent News:\n")
	if len(news) == 0 {
		b.WriteString("- none\n")
	}
	for i, n := range news {
		if i == promptNews {
			break
		}
		fmt.Fprintf(&b, "- %s (Source: %s): %s\n", n.Headline, n.Source, n.Summary)
	}

	b.WriteString("\nTask:\nStart with a line 'RECOMMENDATION: Buy', 'RECOMMENDATION: Hold' or 'RECOMMENDATION: Sell', then explain your reasoning.\n")
	return b.String()
}

var headerPattern = regexp.MustCompile(`(?im)^[\s*#_]*recommendation[\s*_]*[:\-][\s*_]*(.*)$`)

// ParseCompletion splits model output into the stated verdict and the
// remaining rationale. Without a recognisable header the fallback verdict is
// used and the whole text is the rationale.
func ParseCompletion(text string, fallback models.Verdict) (models.Verdict, string) {
	loc := headerPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return fallback, strings.TrimSpace(text)
	}

	candidate := fallback
	rest := strings.TrimSpace(text[loc[2]:loc[3]])
	word, tail, _ := strings.Cut(rest, " ")
	if v, ok := models.ParseVerdict(word); ok {
		candidate = v
		rest = strings.TrimLeft(tail, " -:;,.")
	}

	var parts []string
	for _, p := range []string{text[:loc[0]], rest, text[loc[1]:]} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	rationale := strings.Join(parts, "\n")
	return candidate, rationale
}
