package pipeline

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sentiment-desk/internal/domain"
	"sentiment-desk/internal/sentiment"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type MarketDataFetcher interface {
	FetchPrices(ctx context.Context, ticker, period string) ([]domain.PriceBar, error)
}

type NewsFetcher interface {
	FetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error)
}

// ArtifactStore replaces both artifacts of a run together.
type ArtifactStore interface {
	WriteRun(ctx context.Context, ticker string, bars []domain.PriceBar, rows []domain.EnrichedHeadline) (pricesPath, sentimentPath string, err error)
}

// Notifier receives the summary of every successful run.
type Notifier interface {
	NotifyRun(ctx context.Context, result *Result) error
}

type Request struct {
	Ticker         string `yaml:"ticker"`
	NewsQuery      string `yaml:"query"`
	PricePeriod    string `yaml:"period"`
	NewsWindowDays int    `yaml:"days"`
}

type Result struct {
	RunID     string
	Request   Request
	StartedAt time.Time

	Prices    []domain.PriceBar
	Headlines []domain.EnrichedHeadline
	Summary   domain.SentimentCounts

	// PriceErr and NewsErr hold absorbed fetch failures.
	PriceErr error
	NewsErr  error

	PricesPath    string
	SentimentPath string
}

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.^=-]+$`)

// Validate normalizes r and reports a configuration error for unusable input.
func (r *Request) Validate() error {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.NewsQuery = strings.TrimSpace(r.NewsQuery)
	r.PricePeriod = strings.TrimSpace(r.PricePeriod)

	if !tickerPattern.MatchString(r.Ticker) {
		return fmt.Errorf("%w: invalid ticker %q", domain.ErrConfiguration, r.Ticker)
	}
	if r.NewsQuery == "" {
		return fmt.Errorf("%w: news query is required", domain.ErrConfiguration)
	}
	if !domain.ValidPricePeriod(r.PricePeriod) {
		return fmt.Errorf("%w: unsupported price period %q", domain.ErrConfiguration, r.PricePeriod)
	}
	if r.NewsWindowDays < 1 {
		return fmt.Errorf("%w: news window must be at least one day, got %d", domain.ErrConfiguration, r.NewsWindowDays)
	}
	return nil
}

// Pipeline fetches prices and headlines for one ticker, classifies the
// headlines and writes both artifacts.
type Pipeline struct {
	tracer     trace.Tracer
	prices     MarketDataFetcher
	news       NewsFetcher
	classifier sentiment.TextClassifier
	store      ArtifactStore
	notifier   Notifier
	now        func() time.Time
}

// New builds a pipeline. news may be nil when no news source is configured;
// runs then proceed with an empty headline set.
func New(tracer trace.Tracer, prices MarketDataFetcher, news NewsFetcher, classifier sentiment.TextClassifier, store ArtifactStore) *Pipeline {
	return &Pipeline{
		tracer:     tracer,
		prices:     prices,
		news:       news,
		classifier: classifier,
		store:      store,
		now:        time.Now,
	}
}

func (p *Pipeline) WithNotifier(n Notifier) *Pipeline {
	p.notifier = n
	return p
}

var errNewsDisabled = fmt.Errorf("%w: no news source configured", domain.ErrConfiguration)

// Run executes one enrichment cycle. Fetch failures are logged and recorded
// on the Result; classification and persistence failures abort the run.
// Nothing is written unless classification succeeds.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Request:   req,
		StartedAt: p.now(),
	}
	logger := log.With("run", res.RunID, "ticker", req.Ticker)

	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", res.RunID),
		attribute.String("ticker", req.Ticker),
	)

	prices, err := p.prices.FetchPrices(ctx, req.Ticker, req.PricePeriod)
	if err == nil && len(prices) == 0 {
		err = fmt.Errorf("%w: no price bars for %s", domain.ErrDataUnavailable, req.Ticker)
	}
	if err != nil {
		logger.Warn("price fetch failed, continuing with empty series", "err", err)
		res.PriceErr = err
		prices = []domain.PriceBar{}
	}
	res.Prices = prices

	to := res.StartedAt
	from := to.AddDate(0, 0, -req.NewsWindowDays)
	var headlines []domain.Headline
	if p.news == nil {
		err = errNewsDisabled
	} else {
		headlines, err = p.news.FetchHeadlines(ctx, req.NewsQuery, from, to)
	}
	if err != nil {
		logger.Warn("news fetch failed, continuing without headlines", "err", err)
		res.NewsErr = err
		headlines = nil
	}

	enriched := []domain.EnrichedHeadline{}
	if len(headlines) > 0 {
		enriched, err = sentiment.Enrich(ctx, p.classifier, headlines)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "classification failed")
			logger.Error("sentiment classification failed, nothing persisted", "err", err)
			return nil, err
		}
	}
	res.Headlines = enriched

	if res.PricesPath, res.SentimentPath, err = p.store.WriteRun(ctx, req.Ticker, res.Prices, res.Headlines); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		logger.Error("persisting artifacts failed, previous artifacts kept", "err", err)
		return nil, err
	}

	res.Summary = domain.CountSentiment(res.Headlines)
	span.SetAttributes(
		attribute.Int("prices", len(res.Prices)),
		attribute.Int("headlines", len(res.Headlines)),
	)
	logger.Info("run complete",
		"prices", len(res.Prices),
		"headlines", len(res.Headlines),
		"sentiment", res.Summary.String(),
	)

	if p.notifier != nil {
		if err := p.notifier.NotifyRun(ctx, res); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("run notification failed", "err", err)
		}
	}
	return res, nil
}
