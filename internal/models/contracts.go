package models

import "time"

type AnalysisRequest struct {
	StockTicker string `json:"stock_ticker" validate:"required,alphanum,max=12"`
}

type FinancialSnapshot struct {
	Ticker        string    `json:"stock_ticker"`
	CompanyName   string    `json:"company_name"`
	Industry      string    `json:"industry"`
	CurrentPrice  Num       `json:"current_price"`
	OpenPrice     Num       `json:"open_price"`
	HighPrice     Num       `json:"high_price"`
	LowPrice      Num       `json:"low_price"`
	PreviousClose Num       `json:"previous_close"`
	MarketCap     Num       `json:"market_cap"`
	PERatio       Num       `json:"pe_ratio"`
	EPS           Num       `json:"eps"`
	DividendYield Num       `json:"dividend_yield"`
	Week52High    Num       `json:"52_week_high"`
	Week52Low     Num       `json:"52_week_low"`
	FetchedAt     time.Time `json:"fetched_at"`
}

type NewsItem struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
}

// Complete reports whether every field needed to show the item is present.
func (n NewsItem) Complete() bool {
	return n.Headline != "" && n.Source != "" && n.Summary != "" && n.URL != "" && !n.PublishedAt.IsZero()
}

type ResearcherData struct {
	FinancialData FinancialSnapshot `json:"financial_data"`
	News          []NewsItem        `json:"news"`
}

type RatioSet struct {
	PERatio              Ratio `json:"pe_ratio"`
	DividendYieldPercent Ratio `json:"dividend_yield_percent"`
	PriceChange          Ratio `json:"price_change"`
	PriceChangePercent   Ratio `json:"price_change_percent"`
	Volatility           Ratio `json:"volatility"`
	PriceToBook          Ratio `json:"price_to_book"`
	PctVs52WeekHigh      Ratio `json:"pct_vs_52_week_high"`
	PctVs52WeekLow       Ratio `json:"pct_vs_52_week_low"`
}

type Recommendation struct {
	Verdict    Verdict `json:"recommendation"`
	Rationale  string  `json:"reasoning"`
	Candidate  Verdict `json:"model_verdict"`
	Reconciled bool    `json:"reconciled"`
}

type AnalyzeResponse struct {
	Recommendation     Verdict        `json:"recommendation"`
	Reasoning          string         `json:"reasoning"`
	Summary            string         `json:"summary"`
	ModelVerdict       Verdict        `json:"model_verdict"`
	Reconciled         bool           `json:"reconciled"`
	ResearcherData     ResearcherData `json:"researcher_data"`
	AccountantAnalysis RatioSet       `json:"accountant_analysis"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DepStatus struct {
	Ok     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type HealthResponse struct {
	Ok       bool                 `json:"ok"`
	TsISO    string               `json:"ts"`
	Service  string               `json:"service"`
	Version  string               `json:"version"`
	Provider string               `json:"provider"`
	Deps     map[string]DepStatus `json:"deps"`
	Missing  []string             `json:"missing"`
}
