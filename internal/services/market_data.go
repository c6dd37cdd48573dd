package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"equityscope/backend-go/internal/config"
	"equityscope/backend-go/internal/models"
)

// MarketData gathers one ticker's snapshot and recent news from Finnhub.
// It is safe for concurrent use; no per-request state is kept.
type MarketData struct {
	client       *FinnhubClient
	cache        Cache
	ttl          time.Duration
	retry        RetryPolicy
	cb           *circuitBreaker
	newsLimit    int
	lookbackDays int
	logger       arbor.ILogger
	now          func() time.Time
}

type researchCacheEntry struct {
	Snapshot models.FinancialSnapshot `json:"snapshot"`
	News     []models.NewsItem        `json:"news"`
}

func NewMarketData(cfg config.Config, client *FinnhubClient, cache Cache, logger arbor.ILogger) *MarketData {
	return &MarketData{
		client:       client,
		cache:        cache,
		ttl:          cfg.CacheTTLResearch,
		retry:        NewRetryPolicy(cfg),
		cb:           newCircuitBreaker(cfg.CircuitFailLimit, cfg.CircuitCooldown),
		newsLimit:    cfg.NewsLimit,
		lookbackDays: cfg.NewsLookbackDays,
		logger:       logger,
		now:          time.Now,
	}
}

// FetchFinancials issues the quote, profile, metrics and news lookups
// concurrently. Any failing lookup fails the whole call.
func (m *MarketData) FetchFinancials(ctx context.Context, ticker string) (models.FinancialSnapshot, []models.NewsItem, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	key := "research:v1:" + symbol

	if m.cache != nil && m.ttl > 0 {
		if b, ok := m.cache.Get(ctx, key); ok {
			var cached researchCacheEntry
			if err := UnmarshalCache(b, &cached); err == nil {
				m.logger.Debug().Str("ticker", symbol).Msg("Research cache hit")
				return cached.Snapshot, cached.News, nil
			}
		}
	}

	if !m.cb.allow() {
		return models.FinancialSnapshot{}, nil, transientErr("finnhub", errCircuitOpen)
	}

	var (
		quote   FinnhubQuote
		profile FinnhubProfile
		metrics FinnhubMetrics
		news    []FinnhubNews
	)
	to := m.now().UTC()
	from := to.AddDate(0, 0, -m.lookbackDays)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return m.retry.Do(gctx, func(c context.Context) (err error) {
			quote, err = m.client.Quote(c, symbol)
			return err
		})
	})
	g.Go(func() error {
		return m.retry.Do(gctx, func(c context.Context) (err error) {
			profile, err = m.client.Profile(c, symbol)
			return err
		})
	})
	g.Go(func() error {
		return m.retry.Do(gctx, func(c context.Context) (err error) {
			metrics, err = m.client.Metrics(c, symbol)
			return err
		})
	})
	g.Go(func() error {
		return m.retry.Do(gctx, func(c context.Context) (err error) {
			news, err = m.client.CompanyNews(c, symbol, from, to)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		// Caller deadline expiry is not counted against Finnhub.
		if IsTransient(err) && ctx.Err() == nil {
			m.cb.fail()
		}
		return models.FinancialSnapshot{}, nil, err
	}
	m.cb.success()

	snap := buildSnapshot(symbol, quote, profile, metrics, to)
	items := selectNews(news, m.newsLimit)

	if m.cache != nil && m.ttl > 0 {
		if b, err := MarshalCache(researchCacheEntry{Snapshot: snap, News: items}); err == nil {
			_ = m.cache.Set(ctx, key, b, m.ttl)
		}
	}
	return snap, items, nil
}

func buildSnapshot(symbol string, q FinnhubQuote, p FinnhubProfile, mt FinnhubMetrics, fetchedAt time.Time) models.FinancialSnapshot {
	snap := models.FinancialSnapshot{
		Ticker:        symbol,
		CompanyName:   p.Name,
		Industry:      p.Industry,
		CurrentPrice:  num(q.Current),
		OpenPrice:     num(q.Open),
		HighPrice:     num(q.High),
		LowPrice:      num(q.Low),
		PreviousClose: num(q.PreviousClose),
		MarketCap:     num(p.MarketCap),
		PERatio:       firstNum(mt.Metric.PEBasicExclExtraTTM, mt.Metric.PETTM),
		EPS:           firstNum(mt.Metric.EPSTTM, mt.Metric.EPSBasicExclExtra),
		Week52High:    num(mt.Metric.Week52High),
		Week52Low:     num(mt.Metric.Week52Low),
		FetchedAt:     fetchedAt,
	}
	// Finnhub reports the yield in percent; the snapshot carries a fraction.
	if dy := num(mt.Metric.DividendYieldTTM); dy.Valid {
		snap.DividendYield = models.Known(dy.Value / 100)
	}
	if snap.CompanyName == "" {
		snap.CompanyName = symbol
	}
	if snap.Industry == "" {
		snap.Industry = models.NotAvailable
	}
	return snap
}

// selectNews keeps complete items only, most recent first.
func selectNews(raw []FinnhubNews, limit int) []models.NewsItem {
	items := make([]models.NewsItem, 0, len(raw))
	for _, n := range raw {
		item := models.NewsItem{
			Headline: strings.TrimSpace(n.Headline),
			Source:   strings.TrimSpace(n.Source),
			Summary:  strings.TrimSpace(n.Summary),
			URL:      strings.TrimSpace(n.URL),
		}
		if n.Datetime > 0 {
			item.PublishedAt = time.Unix(n.Datetime, 0).UTC()
		}
		if item.Complete() {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})
	if limit >= 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func num(v *float64) models.Num {
	if v == nil {
		return models.Num{}
	}
	return models.Known(*v)
}

func firstNum(vals ...*float64) models.Num {
	for _, v := range vals {
		if v != nil {
			return models.Known(*v)
		}
	}
	return models.Num{}
}
