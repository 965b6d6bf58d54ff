package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sentiment-desk/internal/domain"
)

const (
	defaultInferenceURL = "https://router.huggingface.co/hf-inference/models"
	defaultFinBERTModel = "ProsusAI/finbert"
)

// FinBERTModel classifies text with a FinBERT checkpoint served by the
// Hugging Face inference API.
type FinBERTModel struct {
	client  *http.Client
	baseURL string
	model   string
	token   string
}

func NewFinBERTModel(token, model, baseURL string) (*FinBERTModel, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: HF_API_TOKEN is required for the finbert backend", domain.ErrConfiguration)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultFinBERTModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultInferenceURL
	}
	return &FinBERTModel{
		// Cold starts on the hosted endpoint can take well over a minute.
		client:  &http.Client{Timeout: 3 * time.Minute},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
	}, nil
}

func (m *FinBERTModel) Name() string { return "finbert:" + m.model }

// Load sends a one-item request so the hosted model is resident before the
// real batch arrives.
func (m *FinBERTModel) Load(ctx context.Context) error {
	_, err := m.Predict(ctx, []string{"Markets were flat today."})
	return err
}

func (m *FinBERTModel) Predict(ctx context.Context, texts []string) ([]Prediction, error) {
	payload, err := json.Marshal(map[string]any{
		"inputs":  texts,
		"options": map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/"+m.model, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseFinBERTResponse(body, len(texts))
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// parseFinBERTResponse accepts both the per-input score lists
// ([[{label,score},...],...]) and the flat top-1 form ([{label,score},...]).
func parseFinBERTResponse(body []byte, n int) ([]Prediction, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(body, &nested); err == nil {
		out := make([]Prediction, 0, len(nested))
		for i, scores := range nested {
			if len(scores) == 0 {
				return nil, fmt.Errorf("no scores for input %d", i)
			}
			out = append(out, top(scores))
		}
		return out, nil
	}

	var flat []labelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("parse inference response: %w", err)
	}
	if n == 1 && len(flat) > 1 {
		return []Prediction{top(flat)}, nil
	}
	out := make([]Prediction, len(flat))
	for i, s := range flat {
		out[i] = Prediction{Label: s.Label, Score: s.Score}
	}
	return out, nil
}

func top(scores []labelScore) Prediction {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return Prediction{Label: best.Label, Score: best.Score}
}
