package ta

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if !almostEqual(mean, 5) || !almostEqual(std, 2) {
		t.Fatalf("got mean=%v std=%v", mean, std)
	}
	if mean, std := MeanStd(nil); mean != 0 || std != 0 {
		t.Fatalf("expected zeros for empty input, got %v %v", mean, std)
	}
}

func TestReturns(t *testing.T) {
	got := Returns([]float64{100, 110, 99})
	if len(got) != 2 || !almostEqual(got[0], 0.1) || !almostEqual(got[1], -0.1) {
		t.Fatalf("unexpected returns %v", got)
	}
	if Returns([]float64{100}) != nil {
		t.Fatal("expected nil for a single close")
	}
	if got := Returns([]float64{0, 5}); got[0] != 0 {
		t.Fatalf("expected zero return after a zero close, got %v", got)
	}
}

func TestPercentChange(t *testing.T) {
	got, ok := PercentChange([]float64{185.64, 190, 184.25})
	if !ok || !almostEqual(got, (184.25/185.64-1)*100) {
		t.Fatalf("got %v ok=%v", got, ok)
	}
	if _, ok := PercentChange([]float64{185.64}); ok {
		t.Fatal("expected no change for a single close")
	}
	if _, ok := PercentChange([]float64{0, 1}); ok {
		t.Fatal("expected no change from a zero close")
	}
}

func TestVolatility(t *testing.T) {
	if got := Volatility([]float64{100, 110, 99}); !almostEqual(got, 10) {
		t.Fatalf("got %v", got)
	}
	if got := Volatility([]float64{100}); got != 0 {
		t.Fatalf("expected zero volatility, got %v", got)
	}
}
