package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"sentiment-desk/internal/domain"
	"sentiment-desk/internal/ta"

	"github.com/shopspring/decimal"
)

// ErrNotGenerated means the pipeline has not produced artifacts for the ticker yet.
var ErrNotGenerated = errors.New("data not generated, run the pipeline first")

type ArtifactReader interface {
	ReadPrices(ctx context.Context, ticker string) ([]domain.PriceBar, error)
	ReadSentiment(ctx context.Context, ticker string) ([]domain.EnrichedHeadline, error)
}

type LabelStat struct {
	Label          domain.SentimentLabel `json:"label"`
	Count          int                   `json:"count"`
	Share          float64               `json:"share"`
	MeanConfidence float64               `json:"mean_confidence"`
}

// View is everything the dashboard renders for one ticker.
type View struct {
	Ticker string `json:"ticker"`

	LatestClose    *decimal.Decimal `json:"latest_close"`
	LatestDate     string           `json:"latest_date,omitempty"`
	MeanConfidence float64          `json:"mean_confidence"`

	// ChangePct is nil with fewer than two closes.
	ChangePct  *float64 `json:"change_pct"`
	Volatility float64  `json:"volatility_pct"`

	Dominant      domain.SentimentLabel `json:"dominant,omitempty"`
	DominantCount int                   `json:"dominant_count"`

	// Labels is in the fixed positive, negative, neutral order.
	Labels []LabelStat `json:"labels"`

	Prices    []domain.PriceBar         `json:"prices"`
	Headlines []domain.EnrichedHeadline `json:"headlines"`
}

// Load reads both artifacts for ticker and derives the dashboard metrics.
func Load(ctx context.Context, reader ArtifactReader, ticker string) (*View, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	prices, err := reader.ReadPrices(ctx, ticker)
	if err != nil {
		return nil, wrapRead(ticker, err)
	}
	headlines, err := reader.ReadSentiment(ctx, ticker)
	if err != nil {
		return nil, wrapRead(ticker, err)
	}
	return Build(ticker, prices, headlines), nil
}

func wrapRead(ticker string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", ticker, ErrNotGenerated)
	}
	return fmt.Errorf("%s: %w", ticker, err)
}

// Build computes a View from already loaded records.
func Build(ticker string, prices []domain.PriceBar, headlines []domain.EnrichedHeadline) *View {
	v := &View{
		Ticker:    ticker,
		Prices:    prices,
		Headlines: headlines,
	}

	if n := len(prices); n > 0 {
		latest := prices[n-1].Close
		v.LatestClose = &latest
		v.LatestDate = prices[n-1].Day()
	}
	closes := v.CloseSeries()
	if change, ok := ta.PercentChange(closes); ok {
		v.ChangePct = &change
	}
	v.Volatility = ta.Volatility(closes)

	counts := domain.CountSentiment(headlines)
	sums := make(map[domain.SentimentLabel]float64, len(domain.SentimentLabels))
	var total float64
	for _, h := range headlines {
		sums[h.Sentiment.Label] += h.Sentiment.Confidence
		total += h.Sentiment.Confidence
	}
	if len(headlines) > 0 {
		v.MeanConfidence = total / float64(len(headlines))
	}
	if label, count, ok := counts.Dominant(); ok {
		v.Dominant, v.DominantCount = label, count
	}

	v.Labels = make([]LabelStat, 0, len(domain.SentimentLabels))
	for _, label := range domain.SentimentLabels {
		stat := LabelStat{Label: label, Count: counts[label]}
		if stat.Count > 0 {
			stat.Share = float64(stat.Count) / float64(len(headlines))
			stat.MeanConfidence = sums[label] / float64(stat.Count)
		}
		v.Labels = append(v.Labels, stat)
	}
	return v
}

// FilterHeadlines returns the rows with the given label, or all rows when
// label is empty.
func FilterHeadlines(rows []domain.EnrichedHeadline, label domain.SentimentLabel) []domain.EnrichedHeadline {
	if label == "" {
		return rows
	}
	out := make([]domain.EnrichedHeadline, 0, len(rows))
	for _, r := range rows {
		if r.Sentiment.Label == label {
			out = append(out, r)
		}
	}
	return out
}

// CloseSeries returns the closes as floats for charting.
func (v *View) CloseSeries() []float64 {
	out := make([]float64, len(v.Prices))
	for i, p := range v.Prices {
		out[i] = p.Close.InexactFloat64()
	}
	return out
}
