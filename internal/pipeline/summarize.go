package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"equityscope/backend-go/internal/models"
)

// Summarizer renders a short text artifact from a recommendation.
type Summarizer interface {
	Summarize(ctx context.Context, rec models.Recommendation, snap models.FinancialSnapshot, ratios models.RatioSet) (string, error)
}

type SummarizeStage struct {
	summarizer Summarizer
}

func NewSummarizeStage(summarizer Summarizer) *SummarizeStage {
	return &SummarizeStage{summarizer: summarizer}
}

func (s *SummarizeStage) Name() StageName { return StageSummarize }

func (s *SummarizeStage) Run(ctx context.Context, pc *PipelineContext) error {
	rec := pc.Recommendation
	if rec == nil || !rec.Verdict.Valid() || strings.TrimSpace(rec.Rationale) == "" {
		return Failed(StageSummarize, KindConsistency, errors.New("both recommendation and rationale are required"))
	}
	var ratios models.RatioSet
	if pc.Ratios != nil {
		ratios = *pc.Ratios
	}
	summary, err := s.summarizer.Summarize(ctx, *rec, *pc.Snapshot, ratios)
	if err != nil {
		return adapterFailure(ctx, StageSummarize, KindExternalService, err)
	}
	pc.Summary = &summary
	return nil
}

const summaryLimit = 280

// LocalSummarizer renders the summary in-process without any I/O.
type LocalSummarizer struct{}

func (LocalSummarizer) Summarize(_ context.Context, rec models.Recommendation, snap models.FinancialSnapshot, ratios models.RatioSet) (string, error) {
	name := snap.CompanyName
	if name == "" {
		name = snap.Ticker
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): %s\n", name, snap.Ticker, rec.Verdict)
	change := ratios.PriceChange.String()
	if ratios.PriceChangePercent.Computable {
		change += fmt.Sprintf(" (%s%%)", ratios.PriceChangePercent)
	}
	fmt.Fprintf(&b, "Price %s, change %s\n", snap.CurrentPrice, change)
	b.WriteString(truncateWords(strings.Join(strings.Fields(rec.Rationale), " "), summaryLimit))
	return b.String(), nil
}

const ellipsis = "..."

// truncateWords cuts s to at most limit bytes. It keeps the leading
// sentences that fit whole; failing that it backs up to the last space
// within the room left for an ellipsis.
func truncateWords(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if end := lastSentenceEnd(s, limit); end > 0 {
		return s[:end]
	}
	room := limit - len(ellipsis)
	if room <= 0 {
		return ""
	}
	cut := s[:room]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	} else {
		for len(cut) > 0 && !utf8.RuneStart(s[len(cut)]) {
			cut = cut[:len(cut)-1]
		}
	}
	return strings.TrimRight(cut, " ,;:") + ellipsis
}

// lastSentenceEnd returns the byte offset just past the last '.', '!' or '?'
// followed by a space that lies within limit, or 0.
func lastSentenceEnd(s string, limit int) int {
	for i := limit - 1; i > 0; i-- {
		switch s[i] {
		case '.', '!', '?':
			if i+1 < len(s) && s[i+1] == ' ' {
				return i + 1
			}
		}
	}
	return 0
}
