package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/domain"
	"sentiment-desk/internal/pipeline"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"
)

type stubSender struct {
	to   tele.Recipient
	what interface{}
	err  error
}

func (s *stubSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.to, s.what = to, what
	return &tele.Message{}, s.err
}

func sampleResult() *pipeline.Result {
	day := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	rows := []domain.EnrichedHeadline{
		{Headline: domain.Headline{Date: day, Title: "Stocks are soaring!"}, Sentiment: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 0.93}},
		{Headline: domain.Headline{Date: day, Title: "Inflation fears destroy markets."}, Sentiment: domain.SentimentResult{Label: domain.SentimentNegative, Confidence: 0.88}},
	}
	return &pipeline.Result{
		Request:   pipeline.Request{Ticker: "AAPL"},
		StartedAt: time.Date(2024, 1, 5, 15, 0, 0, 0, time.UTC),
		Prices:    []domain.PriceBar{{Date: day, Close: decimal.RequireFromString("184.25"), Volume: 1}},
		Headlines: rows,
		Summary:   domain.CountSentiment(rows),
	}
}

func TestNewTelegramNotifierDisabled(t *testing.T) {
	n, err := NewTelegramNotifier("", 42)
	if err != nil || n != nil {
		t.Fatalf("expected disabled notifier, got %v / %v", n, err)
	}
	if err := n.NotifyRun(context.Background(), sampleResult()); err != nil {
		t.Fatalf("nil notifier should be a no-op, got %v", err)
	}
}

func TestNotifyRunSendsSummary(t *testing.T) {
	s := &stubSender{}
	n := &TelegramNotifier{bot: s, chat: tele.ChatID(-100)}

	if err := n.NotifyRun(context.Background(), sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.to.Recipient() != "-100" {
		t.Fatalf("unexpected recipient %s", s.to.Recipient())
	}
	msg, _ := s.what.(string)
	for _, want := range []string{"AAPL", "$184.25", "positive=1 negative=1 neutral=0", "Dominant: positive (1)"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
}

func TestNotifyRunPropagatesSendError(t *testing.T) {
	n := &TelegramNotifier{bot: &stubSender{err: errors.New("blocked")}, chat: 1}
	if err := n.NotifyRun(context.Background(), sampleResult()); err == nil {
		t.Fatal("expected send error")
	}
}

func TestFormatRunSummaryWithoutData(t *testing.T) {
	res := &pipeline.Result{Request: pipeline.Request{Ticker: "ZZZZ"}, NewsErr: domain.ErrDataUnavailable}
	msg := FormatRunSummary(res)
	if !strings.Contains(msg, "Prices unavailable") || !strings.Contains(msg, "news source unavailable") {
		t.Fatalf("unexpected summary:\n%s", msg)
	}
}

func TestStartBotSkipsWithoutToken(t *testing.T) {
	b, err := StartBot("", nil)
	if err != nil || b != nil {
		t.Fatalf("expected skipped bot, got %v / %v", b, err)
	}
}

func TestSentimentReply(t *testing.T) {
	load := func(ctx context.Context, ticker string) (*dashboard.View, error) {
		if ticker == "MSFT" {
			return nil, fmt.Errorf("%s: %w", ticker, dashboard.ErrNotGenerated)
		}
		return dashboard.Build(ticker, sampleResult().Prices, sampleResult().Headlines), nil
	}

	if got := sentimentReply(context.Background(), load, nil); !strings.HasPrefix(got, "Usage") {
		t.Fatalf("expected usage, got %q", got)
	}
	if got := sentimentReply(context.Background(), load, []string{"msft"}); !strings.Contains(got, "Run the pipeline first") {
		t.Fatalf("expected not generated reply, got %q", got)
	}
	got := sentimentReply(context.Background(), load, []string{"aapl"})
	if !strings.Contains(got, "$184.25") || !strings.Contains(got, "positive (1 of 2)") {
		t.Fatalf("unexpected reply %q", got)
	}
}
