package sentiment

import (
	"context"
	"fmt"

	"sentiment-desk/internal/domain"
)

// TextClassifier is the subset of Classifier used by Enrich.
type TextClassifier interface {
	Classify(ctx context.Context, texts []string) ([]domain.SentimentResult, error)
}

// Enrich classifies the title of every headline and pairs each headline with
// its result. Output order matches input order.
func Enrich(ctx context.Context, classifier TextClassifier, headlines []domain.Headline) ([]domain.EnrichedHeadline, error) {
	if len(headlines) == 0 {
		return []domain.EnrichedHeadline{}, nil
	}

	titles := make([]string, len(headlines))
	for i, h := range headlines {
		titles[i] = h.Title
	}

	results, err := classifier.Classify(ctx, titles)
	if err != nil {
		return nil, err
	}
	if len(results) != len(headlines) {
		return nil, fmt.Errorf("%w: %d results for %d headlines", domain.ErrModelUnavailable, len(results), len(headlines))
	}

	out := make([]domain.EnrichedHeadline, len(headlines))
	for i, h := range headlines {
		out[i] = domain.EnrichedHeadline{Headline: h, Sentiment: results[i]}
	}
	return out, nil
}
