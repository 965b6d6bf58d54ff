package sentiment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"sentiment-desk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Prediction is a raw model output before label validation.
type Prediction struct {
	Label string
	Score float64
}

// Model is a pretrained three-way financial sentiment model.
type Model interface {
	Name() string
	Load(ctx context.Context) error
	Predict(ctx context.Context, texts []string) ([]Prediction, error)
}

// Classifier maps texts to sentiment results using a Model that is loaded at
// most once for the lifetime of the Classifier.
type Classifier struct {
	model  Model
	tracer trace.Tracer

	once    sync.Once
	loadErr error
}

func NewClassifier(model Model, tracer trace.Tracer) *Classifier {
	return &Classifier{model: model, tracer: tracer}
}

func (c *Classifier) ModelName() string {
	if c == nil || c.model == nil {
		return ""
	}
	return c.model.Name()
}

// Load initializes the model. A failed load is remembered; later calls
// return the same error without retrying.
func (c *Classifier) Load(ctx context.Context) error {
	c.once.Do(func() {
		ctx, span := c.tracer.Start(ctx, "sentiment.load")
		defer span.End()

		if c.model == nil {
			c.loadErr = fmt.Errorf("%w: no model configured", domain.ErrModelUnavailable)
			return
		}
		span.SetAttributes(attribute.String("sentiment.model", c.model.Name()))
		if err := c.model.Load(ctx); err != nil {
			c.loadErr = fmt.Errorf("%w: load %s: %v", domain.ErrModelUnavailable, c.model.Name(), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "model load failed")
		}
	})
	return c.loadErr
}

// Classify returns one result per input text, in input order. All texts are
// sent to the model in a single batch.
func (c *Classifier) Classify(ctx context.Context, texts []string) ([]domain.SentimentResult, error) {
	if len(texts) == 0 {
		return []domain.SentimentResult{}, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: text %d is empty", domain.ErrModelUnavailable, i)
		}
	}

	if err := c.Load(ctx); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "sentiment.classify")
	defer span.End()
	span.SetAttributes(
		attribute.String("sentiment.model", c.model.Name()),
		attribute.Int("sentiment.batch_size", len(texts)),
	)

	preds, err := c.model.Predict(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "predict failed")
		return nil, fmt.Errorf("%w: predict: %v", domain.ErrModelUnavailable, err)
	}
	if len(preds) != len(texts) {
		return nil, fmt.Errorf("%w: model returned %d results for %d texts", domain.ErrModelUnavailable, len(preds), len(texts))
	}

	out := make([]domain.SentimentResult, len(preds))
	for i, p := range preds {
		label, err := domain.ParseSentimentLabel(p.Label)
		if err != nil {
			return nil, fmt.Errorf("%w: result %d: %v", domain.ErrModelUnavailable, i, err)
		}
		out[i] = domain.SentimentResult{Label: label, Confidence: clamp(p.Score, 0, 1)}
	}
	return out, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
