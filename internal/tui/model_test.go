package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/domain"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

func sampleView() *dashboard.View {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return dashboard.Build("AAPL",
		[]domain.PriceBar{
			{Date: day, Close: decimal.RequireFromString("185.64"), Volume: 1},
			{Date: day.AddDate(0, 0, 1), Close: decimal.RequireFromString("184.25"), Volume: 2},
		},
		[]domain.EnrichedHeadline{
			{
				Headline:  domain.Headline{Date: day, Title: "Stocks are soaring!", Source: "CNBC"},
				Sentiment: domain.SentimentResult{Label: domain.SentimentPositive, Confidence: 0.93},
			},
		},
	)
}

func TestModelLoadsAndRendersView(t *testing.T) {
	calls := 0
	m := NewModel("aapl", func(ctx context.Context, ticker string) (*dashboard.View, error) {
		calls++
		if ticker != "AAPL" {
			t.Fatalf("unexpected ticker %s", ticker)
		}
		return sampleView(), nil
	})
	m.SetSize(120, 50)

	msg := m.Init()()
	if calls != 1 {
		t.Fatalf("expected one load, got %d", calls)
	}
	m.Update(msg)

	out := m.View()
	for _, want := range []string{"AAPL sentiment dashboard", "$184.25", "-0.75%", "0.93", "Stocks are soaring!", "positive (1)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestModelShowsNotGenerated(t *testing.T) {
	m := NewModel("MSFT", func(ctx context.Context, ticker string) (*dashboard.View, error) {
		return nil, fmt.Errorf("%s: %w", ticker, dashboard.ErrNotGenerated)
	})
	m.Update(m.Init()())

	if out := m.View(); !strings.Contains(out, "pipeline run --ticker MSFT") {
		t.Fatalf("expected run hint, got:\n%s", out)
	}
}

func TestModelQuitAndReload(t *testing.T) {
	m := NewModel("AAPL", func(ctx context.Context, ticker string) (*dashboard.View, error) {
		return sampleView(), nil
	})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected reload command")
	}
	if _, ok := cmd().(viewLoadedMsg); !ok {
		t.Fatal("expected reload to produce a view")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{1, 2, 3}); got != "▁▄█" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := sparkline([]float64{5, 5}); got != "▅▅" {
		t.Fatalf("flat series should render mid blocks, got %q", got)
	}
	if sparkline(nil) != "" {
		t.Fatal("expected empty sparkline")
	}
}

func TestBar(t *testing.T) {
	if got := bar(0.5, 4); got != "██░░" {
		t.Fatalf("unexpected bar %q", got)
	}
	if got := bar(2, 3); got != "███" {
		t.Fatalf("expected clamped bar, got %q", got)
	}
}
