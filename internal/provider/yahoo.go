package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"sentiment-desk/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider fetches daily close and volume from the Yahoo Finance chart API.
type YahooProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *rate.Limiter
}

// NewYahooProvider creates a provider limited to one request every two seconds.
func NewYahooProvider(tracer trace.Tracer, proxyURL string) *YahooProvider {
	return &YahooProvider{
		client:  newHTTPClient(30*time.Second, proxyURL),
		baseURL: yahooBaseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 2),
	}
}

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
				GMTOffset            int    `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchPrices returns one bar per trading day over period, ascending by date.
func (p *YahooProvider) FetchPrices(ctx context.Context, ticker, period string) ([]domain.PriceBar, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-prices")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker), attribute.String("period", period))

	bars, err := p.fetchPrices(ctx, ticker, period)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch prices failed")
		return nil, fmt.Errorf("%w: yahoo %s: %v", domain.ErrDataUnavailable, ticker, err)
	}
	span.SetAttributes(attribute.Int("bars", len(bars)))
	return bars, nil
}

func (p *YahooProvider) fetchPrices(ctx context.Context, ticker, period string) ([]domain.PriceBar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s",
		p.baseURL, url.PathEscape(strings.ToUpper(ticker)), url.QueryEscape(period))

	body, err := get(ctx, p.client, p.limiter, u, http.Header{"Accept": {"application/json"}})
	if err != nil {
		return nil, err
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no data returned")
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	loc := exchangeLocation(result.Meta.ExchangeTimezoneName, result.Meta.GMTOffset)

	byDay := make(map[time.Time]domain.PriceBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue // holidays and the in-progress session come back as nulls
		}
		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = int64(*quote.Volume[i])
		}
		day := domain.TruncateDay(time.Unix(ts, 0).In(loc))
		byDay[day] = domain.PriceBar{
			Date:   day,
			Close:  decimal.NewFromFloat(*quote.Close[i]).Round(4),
			Volume: volume,
		}
	}
	if len(byDay) == 0 {
		return nil, fmt.Errorf("no bars in range %s", period)
	}

	bars := make([]domain.PriceBar, 0, len(byDay))
	for _, bar := range byDay {
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", gmtOffset)
}
