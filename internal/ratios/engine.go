// Package ratios derives valuation and price ratios from a financial snapshot.
//
// Compute is pure and total: every ratio is either a value rounded to two
// decimals (half away from zero) or the not-computable marker. It never
// divides by a missing, zero or negative denominator.
//
// Formulas:
//
//	priceChange          = currentPrice - previousClose
//	priceChangePercent   = priceChange / previousClose * 100            previousClose > 0
//	volatility           = highPrice - lowPrice                         intraday range only
//	peRatio              = supplied peRatio, else currentPrice / eps    eps > 0
//	dividendYieldPercent = dividendYield * 100                          dividendYield > 0
//	priceToBook          = marketCap / (eps * MarketCapScale)           eps > 0
//	pctVs52WeekHigh      = (week52High - currentPrice) / week52High * 100
//	pctVs52WeekLow       = (currentPrice - week52Low) / week52Low * 100
//
// Volatility is the session range. The 52-week band is already reported
// through the two pctVs52Week ratios, so it is not folded in here.
package ratios

import (
	"math"

	"equityscope/backend-go/internal/models"
)

// MarketCapScale converts market capitalization, reported in millions, into
// billions before it is related to earnings per share.
const MarketCapScale = 1000.0

type Engine struct{}

func (Engine) Compute(s models.FinancialSnapshot) models.RatioSet {
	return Compute(s)
}

func Compute(s models.FinancialSnapshot) models.RatioSet {
	out := models.RatioSet{
		PERatio:              peRatio(s),
		DividendYieldPercent: models.NotComputable(),
		PriceChange:          models.NotComputable(),
		PriceChangePercent:   models.NotComputable(),
		Volatility:           models.NotComputable(),
		PriceToBook:          models.NotComputable(),
		PctVs52WeekHigh:      models.NotComputable(),
		PctVs52WeekLow:       models.NotComputable(),
	}

	if s.CurrentPrice.Valid && s.PreviousClose.Valid {
		change := s.CurrentPrice.Value - s.PreviousClose.Value
		out.PriceChange = round2(change)
		if pc, ok := s.PreviousClose.Positive(); ok {
			out.PriceChangePercent = round2(change / pc * 100)
		}
	}

	if s.HighPrice.Valid && s.LowPrice.Valid {
		out.Volatility = round2(s.HighPrice.Value - s.LowPrice.Value)
	}

	if dy, ok := s.DividendYield.Positive(); ok {
		out.DividendYieldPercent = round2(dy * 100)
	}

	if eps, ok := s.EPS.Positive(); ok && s.MarketCap.Valid {
		out.PriceToBook = round2(s.MarketCap.Value / (eps * MarketCapScale))
	}

	if s.CurrentPrice.Valid {
		price := s.CurrentPrice.Value
		if hi, ok := s.Week52High.Positive(); ok {
			out.PctVs52WeekHigh = round2((hi - price) / hi * 100)
		}
		if lo, ok := s.Week52Low.Positive(); ok {
			out.PctVs52WeekLow = round2((price - lo) / lo * 100)
		}
	}

	return out
}

func peRatio(s models.FinancialSnapshot) models.Ratio {
	if s.PERatio.Valid {
		return round2(s.PERatio.Value)
	}
	eps, ok := s.EPS.Positive()
	if !ok || !s.CurrentPrice.Valid {
		return models.NotComputable()
	}
	return round2(s.CurrentPrice.Value / eps)
}

// round2 rounds half away from zero. Non-finite results become the marker.
func round2(v float64) models.Ratio {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return models.NotComputable()
	}
	return models.RatioOf(math.Round(v*100) / 100)
}
