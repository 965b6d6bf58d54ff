package tui

import (
	"fmt"
	"strings"

	"sentiment-desk/internal/dashboard"

	"github.com/charmbracelet/lipgloss"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkline renders values as a single row of block characters scaled
// between the series minimum and maximum.
func sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	var b strings.Builder
	for _, v := range values {
		idx := len(sparkRunes) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// bar renders a horizontal bar of width cells filled to frac.
func bar(frac float64, width int) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func distributionChart(stats []dashboard.LabelStat, width int) string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		style := lipgloss.NewStyle().Foreground(labelColor(s.Label))
		lines = append(lines, fmt.Sprintf("%-8s %s %3d  %5.1f%%",
			s.Label, style.Render(bar(s.Share, width)), s.Count, s.Share*100))
	}
	return strings.Join(lines, "\n")
}

func confidenceChart(stats []dashboard.LabelStat, width int) string {
	lines := make([]string, 0, len(stats))
	for _, s := range stats {
		style := lipgloss.NewStyle().Foreground(labelColor(s.Label))
		lines = append(lines, fmt.Sprintf("%-8s %s %.2f",
			s.Label, style.Render(bar(s.MeanConfidence, width)), s.MeanConfidence))
	}
	return strings.Join(lines, "\n")
}
