package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sentiment-desk/internal/artifact"
	"sentiment-desk/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var fixedNow = time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC)

type stubPrices struct {
	bars  []domain.PriceBar
	err   error
	calls int
}

func (s *stubPrices) FetchPrices(ctx context.Context, ticker, period string) ([]domain.PriceBar, error) {
	s.calls++
	return s.bars, s.err
}

type stubNews struct {
	headlines []domain.Headline
	err       error
	from, to  time.Time
}

func (s *stubNews) FetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error) {
	s.from, s.to = from, to
	return s.headlines, s.err
}

type stubClassifier struct {
	results []domain.SentimentResult
	err     error
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, texts []string) ([]domain.SentimentResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubNotifier struct {
	got *Result
}

func (s *stubNotifier) NotifyRun(ctx context.Context, result *Result) error {
	s.got = result
	return nil
}

func aaplBars() []domain.PriceBar {
	return []domain.PriceBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("185.64"), Volume: 82488700},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("184.25"), Volume: 58414500},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("181.91"), Volume: 71983600},
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("181.18"), Volume: 62303300},
		{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("185.56"), Volume: 59144500},
	}
}

func aaplHeadlines() []domain.Headline {
	return []domain.Headline{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Title: "Stocks are soaring!", Source: "CNBC"},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Title: "Inflation is destroying the market.", Source: "Reuters"},
	}
}

func aaplResults() []domain.SentimentResult {
	return []domain.SentimentResult{
		{Label: domain.SentimentPositive, Confidence: 0.95},
		{Label: domain.SentimentNegative, Confidence: 0.92},
	}
}

func aaplRequest() Request {
	return Request{Ticker: "AAPL", NewsQuery: "Apple Inc", PricePeriod: "5d", NewsWindowDays: 5}
}

func newTestPipeline(t *testing.T, prices MarketDataFetcher, news NewsFetcher, c *stubClassifier) (*Pipeline, *artifact.Store) {
	t.Helper()
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	store := artifact.NewStore(filepath.Join(t.TempDir(), "data"), tracer)
	p := New(tracer, prices, news, c, store)
	p.now = func() time.Time { return fixedNow }
	return p, store
}

func TestRunEnrichesAndPersists(t *testing.T) {
	news := &stubNews{headlines: aaplHeadlines()}
	classifier := &stubClassifier{results: aaplResults()}
	notifier := &stubNotifier{}
	p, store := newTestPipeline(t, &stubPrices{bars: aaplBars()}, news, classifier)
	p.WithNotifier(notifier)

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("expected run id")
	}
	if res.PriceErr != nil || res.NewsErr != nil {
		t.Fatalf("unexpected absorbed errors: %v / %v", res.PriceErr, res.NewsErr)
	}
	if !news.from.Equal(fixedNow.AddDate(0, 0, -5)) || !news.to.Equal(fixedNow) {
		t.Fatalf("unexpected news window %v..%v", news.from, news.to)
	}

	rows, err := store.ReadSentiment(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Stocks are soaring!" || rows[0].Sentiment.Label != domain.SentimentPositive || rows[0].Sentiment.Confidence != 0.95 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Title != "Inflation is destroying the market." || rows[1].Sentiment.Label != domain.SentimentNegative || rows[1].Sentiment.Confidence != 0.92 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	wantSentiment := "date,title,source,sentiment,confidence\n" +
		"2024-01-02,Stocks are soaring!,CNBC,positive,0.95\n" +
		"2024-01-03,Inflation is destroying the market.,Reuters,negative,0.92\n"
	if got, _ := os.ReadFile(store.SentimentPath("AAPL")); string(got) != wantSentiment {
		t.Fatalf("unexpected sentiment artifact:\n%s", got)
	}

	bars, err := store.ReadPrices(context.Background(), "AAPL")
	if err != nil || len(bars) != 5 {
		t.Fatalf("expected 5 bars, got %d (%v)", len(bars), err)
	}
	if bars[0].Day() != "2024-01-02" || bars[4].Day() != "2024-01-08" {
		t.Fatalf("unexpected price range %s..%s", bars[0].Day(), bars[4].Day())
	}
	if got := res.Summary.String(); got != "positive=1 negative=1 neutral=0" {
		t.Fatalf("unexpected summary line %q", got)
	}

	if res.Summary[domain.SentimentPositive] != 1 || res.Summary[domain.SentimentNegative] != 1 || res.Summary[domain.SentimentNeutral] != 0 {
		t.Fatalf("unexpected summary: %v", res.Summary)
	}
	if notifier.got != res {
		t.Fatal("expected notifier to receive the run result")
	}
}

func TestRunZeroHeadlinesSkipsClassifier(t *testing.T) {
	classifier := &stubClassifier{}
	p, store := newTestPipeline(t, &stubPrices{bars: aaplBars()}, &stubNews{}, classifier)

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if classifier.calls != 0 {
		t.Fatalf("classifier should not be called, got %d calls", classifier.calls)
	}
	got, _ := os.ReadFile(store.SentimentPath("AAPL"))
	if string(got) != "date,title,source,sentiment,confidence\n" {
		t.Fatalf("expected header-only sentiment artifact, got %q", got)
	}
	if res.Summary.Total() != 0 {
		t.Fatalf("expected empty summary, got %v", res.Summary)
	}
	if bars, _ := store.ReadPrices(context.Background(), "AAPL"); len(bars) != 5 {
		t.Fatalf("expected price artifact with 5 rows, got %d", len(bars))
	}
}

func TestRunPriceFailureContinues(t *testing.T) {
	prices := &stubPrices{err: fmt.Errorf("%w: chart request failed", domain.ErrDataUnavailable)}
	classifier := &stubClassifier{results: aaplResults()}
	p, store := newTestPipeline(t, prices, &stubNews{headlines: aaplHeadlines()}, classifier)

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PriceErr == nil {
		t.Fatal("expected price error to be recorded")
	}
	got, _ := os.ReadFile(store.PricesPath("AAPL"))
	if string(got) != "Date,Close,Volume\n" {
		t.Fatalf("expected header-only price artifact, got %q", got)
	}
	if rows, _ := store.ReadSentiment(context.Background(), "AAPL"); len(rows) != 2 {
		t.Fatalf("expected sentiment rows, got %d", len(rows))
	}
}

func TestRunEmptyPriceSeriesIsRecorded(t *testing.T) {
	p, _ := newTestPipeline(t, &stubPrices{}, &stubNews{}, &stubClassifier{})

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(res.PriceErr, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", res.PriceErr)
	}
}

func TestRunNewsFailureContinues(t *testing.T) {
	classifier := &stubClassifier{}
	news := &stubNews{err: errors.New("rate limited")}
	p, store := newTestPipeline(t, &stubPrices{bars: aaplBars()}, news, classifier)

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NewsErr == nil || classifier.calls != 0 {
		t.Fatalf("expected recorded news error and no classification, got %v / %d", res.NewsErr, classifier.calls)
	}
	if rows, err := store.ReadSentiment(context.Background(), "AAPL"); err != nil || len(rows) != 0 {
		t.Fatalf("expected empty sentiment artifact, got %d (%v)", len(rows), err)
	}
}

func TestRunWithoutNewsSource(t *testing.T) {
	p, _ := newTestPipeline(t, &stubPrices{bars: aaplBars()}, nil, &stubClassifier{})

	res, err := p.Run(context.Background(), aaplRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(res.NewsErr, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", res.NewsErr)
	}
	if len(res.Prices) != 5 {
		t.Fatalf("expected price-only run, got %d bars", len(res.Prices))
	}
}

func TestRunClassifierFailureWritesNothing(t *testing.T) {
	classifier := &stubClassifier{err: domain.ErrModelUnavailable}
	p, store := newTestPipeline(t, &stubPrices{bars: aaplBars()}, &stubNews{headlines: aaplHeadlines()}, classifier)

	_, err := p.Run(context.Background(), aaplRequest())
	if !errors.Is(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(store.PricesPath("AAPL")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no price artifact, stat err=%v", statErr)
	}
	if _, statErr := os.Stat(store.SentimentPath("AAPL")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no sentiment artifact, stat err=%v", statErr)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	p, store := newTestPipeline(t, &stubPrices{bars: aaplBars()}, &stubNews{headlines: aaplHeadlines()}, &stubClassifier{results: aaplResults()})

	if _, err := p.Run(context.Background(), aaplRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstPrices, _ := os.ReadFile(store.PricesPath("AAPL"))
	firstSentiment, _ := os.ReadFile(store.SentimentPath("AAPL"))

	if _, err := p.Run(context.Background(), aaplRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondPrices, _ := os.ReadFile(store.PricesPath("AAPL"))
	secondSentiment, _ := os.ReadFile(store.SentimentPath("AAPL"))

	if !bytes.Equal(firstPrices, secondPrices) || !bytes.Equal(firstSentiment, secondSentiment) {
		t.Fatal("expected byte-identical artifacts on rerun")
	}
}

type failingStore struct{}

func (failingStore) WriteRun(ctx context.Context, ticker string, bars []domain.PriceBar, rows []domain.EnrichedHeadline) (string, string, error) {
	return "", "", domain.ErrPersistence
}

func TestRunPersistenceFailure(t *testing.T) {
	p := New(trace.NewNoopTracerProvider().Tracer("test"), &stubPrices{bars: aaplBars()}, &stubNews{}, &stubClassifier{}, failingStore{})

	if _, err := p.Run(context.Background(), aaplRequest()); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestRequestValidate(t *testing.T) {
	tests := map[string]Request{
		"empty ticker":  {Ticker: " ", NewsQuery: "q", PricePeriod: "5d", NewsWindowDays: 1},
		"path ticker":   {Ticker: "../AAPL", NewsQuery: "q", PricePeriod: "5d", NewsWindowDays: 1},
		"empty query":   {Ticker: "AAPL", NewsQuery: "", PricePeriod: "5d", NewsWindowDays: 1},
		"bad period":    {Ticker: "AAPL", NewsQuery: "q", PricePeriod: "7d", NewsWindowDays: 1},
		"zero days":     {Ticker: "AAPL", NewsQuery: "q", PricePeriod: "5d", NewsWindowDays: 0},
		"negative days": {Ticker: "AAPL", NewsQuery: "q", PricePeriod: "5d", NewsWindowDays: -3},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			if err := req.Validate(); !errors.Is(err, domain.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}

	req := Request{Ticker: " brk.b ", NewsQuery: " Berkshire ", PricePeriod: "1mo", NewsWindowDays: 3}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Ticker != "BRK.B" || req.NewsQuery != "Berkshire" {
		t.Fatalf("expected normalized request, got %+v", req)
	}
}

func TestRunRejectsInvalidRequestBeforeFetching(t *testing.T) {
	prices := &stubPrices{bars: aaplBars()}
	p, _ := newTestPipeline(t, prices, &stubNews{}, &stubClassifier{})

	req := aaplRequest()
	req.NewsWindowDays = 0
	if _, err := p.Run(context.Background(), req); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if prices.calls != 0 {
		t.Fatal("fetchers should not run for an invalid request")
	}
}
