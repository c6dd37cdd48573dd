package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

const (
	DefaultFinnhubBaseURL   = "https://finnhub.io/api/v1"
	DefaultFinnhubRateLimit = 25
	finnhubService          = "finnhub"
)

// FinnhubClient covers the four Finnhub endpoints the research stage needs.
type FinnhubClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

type FinnhubOption func(*FinnhubClient)

func WithBaseURL(baseURL string) FinnhubOption {
	return func(c *FinnhubClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(hc *http.Client) FinnhubOption {
	return func(c *FinnhubClient) {
		c.httpClient = hc
	}
}

func WithLogger(logger arbor.ILogger) FinnhubOption {
	return func(c *FinnhubClient) {
		c.logger = logger
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond int) FinnhubOption {
	return func(c *FinnhubClient) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

func NewFinnhubClient(apiKey string, opts ...FinnhubOption) *FinnhubClient {
	c := &FinnhubClient{
		baseURL:    DefaultFinnhubBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(DefaultFinnhubRateLimit), DefaultFinnhubRateLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type FinnhubQuote struct {
	Current       *float64 `json:"c"`
	Open          *float64 `json:"o"`
	High          *float64 `json:"h"`
	Low           *float64 `json:"l"`
	PreviousClose *float64 `json:"pc"`
	Timestamp     int64    `json:"t"`
}

type FinnhubProfile struct {
	Name      string   `json:"name"`
	Ticker    string   `json:"ticker"`
	Industry  string   `json:"finnhubIndustry"`
	Currency  string   `json:"currency"`
	MarketCap *float64 `json:"marketCapitalization"`
}

type FinnhubMetrics struct {
	Metric struct {
		PEBasicExclExtraTTM *float64 `json:"peBasicExclExtraTTM"`
		PETTM               *float64 `json:"peTTM"`
		EPSTTM              *float64 `json:"epsTTM"`
		EPSBasicExclExtra   *float64 `json:"epsBasicExclExtraItemsTTM"`
		DividendYieldTTM    *float64 `json:"currentDividendYieldTTM"`
		Week52High          *float64 `json:"52WeekHigh"`
		Week52Low           *float64 `json:"52WeekLow"`
	} `json:"metric"`
}

type FinnhubNews struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

var errUnknownSymbol = errors.New("no market data for symbol")

func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (FinnhubQuote, error) {
	var out FinnhubQuote
	if err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}}, &out); err != nil {
		return out, err
	}
	if out.Timestamp == 0 && (out.Current == nil || *out.Current == 0) {
		return out, fatalErr("finnhub quote "+symbol, errUnknownSymbol)
	}
	return out, nil
}

func (c *FinnhubClient) Profile(ctx context.Context, symbol string) (FinnhubProfile, error) {
	var out FinnhubProfile
	err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}}, &out)
	return out, err
}

func (c *FinnhubClient) Metrics(ctx context.Context, symbol string) (FinnhubMetrics, error) {
	var out FinnhubMetrics
	err := c.get(ctx, "/stock/metric", url.Values{"symbol": {symbol}, "metric": {"all"}}, &out)
	return out, err
}

func (c *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]FinnhubNews, error) {
	var out []FinnhubNews
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
	}
	err := c.get(ctx, "/company-news", params, &out)
	return out, err
}

func (c *FinnhubClient) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return transientErr("finnhub rate limit", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", path).
			Str("symbol", params.Get("symbol")).
			Msg("Finnhub API request")
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	headers := map[string]string{"X-Finnhub-Token": c.apiKey}
	return doJSON(ctx, c.httpClient, finnhubService, http.MethodGet, reqURL, headers, nil, out)
}
