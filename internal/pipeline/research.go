package pipeline

import (
	"context"

	"equityscope/backend-go/internal/models"
)

const maxNews = 5

// FinancialsFetcher retrieves a ticker's snapshot and recent news.
type FinancialsFetcher interface {
	FetchFinancials(ctx context.Context, ticker string) (models.FinancialSnapshot, []models.NewsItem, error)
}

type ResearchStage struct {
	fetcher FinancialsFetcher
}

func NewResearchStage(fetcher FinancialsFetcher) *ResearchStage {
	return &ResearchStage{fetcher: fetcher}
}

func (s *ResearchStage) Name() StageName { return StageResearch }

func (s *ResearchStage) Run(ctx context.Context, pc *PipelineContext) error {
	if pc.Request.StockTicker == "" {
		return Failed(StageResearch, KindValidation, ErrTickerRequired)
	}
	snap, news, err := s.fetcher.FetchFinancials(ctx, pc.Request.StockTicker)
	if err != nil {
		return adapterFailure(ctx, StageResearch, KindUpstreamData, err)
	}

	kept := make([]models.NewsItem, 0, len(news))
	for _, n := range news {
		if n.Complete() && len(kept) < maxNews {
			kept = append(kept, n)
		}
	}
	pc.Snapshot = &snap
	pc.News = kept
	return nil
}
