package domain

import (
	"fmt"
	"strings"
	"time"
)

// Headline is one news article returned by a news provider.
type Headline struct {
	Date   time.Time `json:"date"`
	Title  string    `json:"title"`
	Source string    `json:"source"`
}

// Day returns the publication date as YYYY-MM-DD.
func (h Headline) Day() string {
	return h.Date.Format(DateLayout)
}

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentLabels is the fixed label order used for summaries and tie-breaks.
var SentimentLabels = []SentimentLabel{SentimentPositive, SentimentNegative, SentimentNeutral}

// ParseSentimentLabel maps a model label onto the three-way scale.
func ParseSentimentLabel(v string) (SentimentLabel, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "positive", "pos", "bullish":
		return SentimentPositive, nil
	case "negative", "neg", "bearish":
		return SentimentNegative, nil
	case "neutral":
		return SentimentNeutral, nil
	default:
		return "", fmt.Errorf("unknown sentiment label %q", v)
	}
}

// SentimentResult is the classification of a single text.
type SentimentResult struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// EnrichedHeadline pairs a headline with the sentiment of its title.
type EnrichedHeadline struct {
	Headline
	Sentiment SentimentResult `json:"sentiment"`
}

// SentimentCounts tallies headlines per label.
type SentimentCounts map[SentimentLabel]int

// CountSentiment builds the per-label tally for rows.
func CountSentiment(rows []EnrichedHeadline) SentimentCounts {
	counts := make(SentimentCounts, len(SentimentLabels))
	for _, row := range rows {
		counts[row.Sentiment.Label]++
	}
	return counts
}

// Total returns the number of counted headlines.
func (c SentimentCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Dominant returns the most frequent label and its count. Ties go to the
// label that comes first in SentimentLabels. ok is false when nothing was counted.
func (c SentimentCounts) Dominant() (label SentimentLabel, count int, ok bool) {
	for _, l := range SentimentLabels {
		if c[l] > count {
			label, count, ok = l, c[l], true
		}
	}
	return label, count, ok
}

// String renders the tally as "positive=1 negative=1 neutral=0".
func (c SentimentCounts) String() string {
	parts := make([]string, 0, len(SentimentLabels))
	for _, l := range SentimentLabels {
		parts = append(parts, fmt.Sprintf("%s=%d", l, c[l]))
	}
	return strings.Join(parts, " ")
}
