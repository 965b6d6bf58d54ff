package artifact

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sentiment-desk/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	pricesHeader    = []string{"Date", "Close", "Volume"}
	sentimentHeader = []string{"date", "title", "source", "sentiment", "confidence"}
)

// Store reads and writes the per-ticker CSV artifacts under one directory.
type Store struct {
	dir    string
	tracer trace.Tracer
}

func NewStore(dir string, tracer trace.Tracer) *Store {
	return &Store{dir: dir, tracer: tracer}
}

func (s *Store) Dir() string { return s.dir }

// PricesPath is <dir>/<TICKER>_prices.csv.
func (s *Store) PricesPath(ticker string) string {
	return filepath.Join(s.dir, fileTicker(ticker)+"_prices.csv")
}

// SentimentPath is <dir>/<TICKER>_sentiment.csv.
func (s *Store) SentimentPath(ticker string) string {
	return filepath.Join(s.dir, fileTicker(ticker)+"_sentiment.csv")
}

// WritePrices replaces the price artifact for ticker. bars are written in
// the order given.
func (s *Store) WritePrices(ctx context.Context, ticker string, bars []domain.PriceBar) (string, error) {
	path := s.PricesPath(ticker)
	return path, s.write(ctx, "artifact.write-prices", path, priceRecords(bars))
}

// WriteSentiment replaces the sentiment artifact for ticker. An empty slice
// produces a header-only file.
func (s *Store) WriteSentiment(ctx context.Context, ticker string, rows []domain.EnrichedHeadline) (string, error) {
	path := s.SentimentPath(ticker)
	return path, s.write(ctx, "artifact.write-sentiment", path, sentimentRecords(rows))
}

// WriteRun replaces both artifacts for ticker as a pair. Both files are
// written out in full before either is renamed into place, so a failed write
// leaves the previous pair untouched.
func (s *Store) WriteRun(ctx context.Context, ticker string, bars []domain.PriceBar, rows []domain.EnrichedHeadline) (pricesPath, sentimentPath string, err error) {
	_, span := s.tracer.Start(ctx, "artifact.write-run")
	defer span.End()

	pricesPath, sentimentPath = s.PricesPath(ticker), s.SentimentPath(ticker)
	span.SetAttributes(
		attribute.String("ticker", ticker),
		attribute.Int("prices", len(bars)),
		attribute.Int("headlines", len(rows)),
	)

	fail := func(path string, err error) (string, string, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return "", "", fmt.Errorf("%w: %s: %v", domain.ErrPersistence, path, err)
	}

	pricesTmp, err := stageCSV(pricesPath, priceRecords(bars))
	if err != nil {
		return fail(pricesPath, err)
	}
	sentimentTmp, err := stageCSV(sentimentPath, sentimentRecords(rows))
	if err != nil {
		os.Remove(pricesTmp)
		return fail(sentimentPath, err)
	}
	if err := os.Rename(pricesTmp, pricesPath); err != nil {
		os.Remove(pricesTmp)
		os.Remove(sentimentTmp)
		return fail(pricesPath, err)
	}
	if err := os.Rename(sentimentTmp, sentimentPath); err != nil {
		os.Remove(sentimentTmp)
		return fail(sentimentPath, err)
	}
	return pricesPath, sentimentPath, nil
}

func priceRecords(bars []domain.PriceBar) [][]string {
	records := make([][]string, 0, len(bars)+1)
	records = append(records, pricesHeader)
	for _, b := range bars {
		records = append(records, []string{b.Day(), b.Close.String(), strconv.FormatInt(b.Volume, 10)})
	}
	return records
}

func sentimentRecords(rows []domain.EnrichedHeadline) [][]string {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, sentimentHeader)
	for _, r := range rows {
		records = append(records, []string{
			r.Day(),
			r.Title,
			r.Source,
			string(r.Sentiment.Label),
			strconv.FormatFloat(r.Sentiment.Confidence, 'f', -1, 64),
		})
	}
	return records
}

func (s *Store) write(ctx context.Context, spanName, path string, records [][]string) error {
	_, span := s.tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("path", path), attribute.Int("rows", len(records)-1))

	if err := writeAtomic(path, records); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, path, err)
	}
	return nil
}

var createTemp = os.CreateTemp

// writeAtomic writes records to a temp file beside path and renames it into
// place, so readers see either the old file or the complete new one.
func writeAtomic(path string, records [][]string) error {
	tmp, err := stageCSV(path, records)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// stageCSV writes records to a synced temp file in the directory of path and
// returns its name. Nothing is left behind on failure.
func stageCSV(path string, records [][]string) (name string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp, err := createTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.WriteAll(records); err != nil {
		return "", err
	}
	if err = tmp.Sync(); err != nil {
		return "", err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// ReadPrices loads the price artifact for ticker. A missing file yields an
// error matching fs.ErrNotExist.
func (s *Store) ReadPrices(ctx context.Context, ticker string) ([]domain.PriceBar, error) {
	_, span := s.tracer.Start(ctx, "artifact.read-prices")
	defer span.End()

	records, err := readCSV(s.PricesPath(ticker), pricesHeader)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.PriceBar, 0, len(records))
	for i, rec := range records {
		date, err := time.Parse(domain.DateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("prices row %d: date: %w", i+1, err)
		}
		closePrice, err := decimal.NewFromString(rec[1])
		if err != nil {
			return nil, fmt.Errorf("prices row %d: close: %w", i+1, err)
		}
		volume, err := strconv.ParseInt(rec[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("prices row %d: volume: %w", i+1, err)
		}
		bars = append(bars, domain.PriceBar{Date: date, Close: closePrice, Volume: volume})
	}
	return bars, nil
}

// ReadSentiment loads the sentiment artifact for ticker in file order.
func (s *Store) ReadSentiment(ctx context.Context, ticker string) ([]domain.EnrichedHeadline, error) {
	_, span := s.tracer.Start(ctx, "artifact.read-sentiment")
	defer span.End()

	records, err := readCSV(s.SentimentPath(ticker), sentimentHeader)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.EnrichedHeadline, 0, len(records))
	for i, rec := range records {
		date, err := time.Parse(domain.DateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("sentiment row %d: date: %w", i+1, err)
		}
		label, err := domain.ParseSentimentLabel(rec[3])
		if err != nil {
			return nil, fmt.Errorf("sentiment row %d: %w", i+1, err)
		}
		confidence, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("sentiment row %d: confidence: %w", i+1, err)
		}
		rows = append(rows, domain.EnrichedHeadline{
			Headline:  domain.Headline{Date: date, Title: rec[1], Source: rec[2]},
			Sentiment: domain.SentimentResult{Label: label, Confidence: confidence},
		})
	}
	return rows, nil
}

// ModTimes returns the modification times of both artifacts. Missing files
// report the zero time.
func (s *Store) ModTimes(ticker string) (prices, sentiment time.Time) {
	if fi, err := os.Stat(s.PricesPath(ticker)); err == nil {
		prices = fi.ModTime()
	}
	if fi, err := os.Stat(s.SentimentPath(ticker)); err == nil {
		sentiment = fi.ModTime()
	}
	return prices, sentiment
}

func readCSV(path string, header []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("artifact %s: %w", filepath.Base(path), fs.ErrNotExist)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: missing header", filepath.Base(path))
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("read %s: unexpected column %q", filepath.Base(path), records[0][i])
		}
	}
	return records[1:], nil
}

// fileTicker normalizes a ticker for use in a file name.
func fileTicker(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '^', r == '=', r == '-':
			return r
		default:
			return '_'
		}
	}, ticker)
}
