package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sentiment-desk/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
	GetModel(ctx context.Context, model string) error
}

// OpenAIModel classifies headlines with a chat completion model that is
// asked for a JSON verdict per input.
type OpenAIModel struct {
	client openAIChatClient
	model  string
}

func NewOpenAIModel(apiKey, model string) (*OpenAIModel, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai backend", domain.ErrConfiguration)
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIModel{
		client: &openAIClient{client: client},
		model:  model,
	}, nil
}

func (m *OpenAIModel) Name() string { return "llm:" + m.model }

// Load checks that the configured model is reachable with the given key.
func (m *OpenAIModel) Load(ctx context.Context) error {
	return m.client.GetModel(ctx, m.model)
}

func (m *OpenAIModel) Predict(ctx context.Context, texts []string) ([]Prediction, error) {
	var sb strings.Builder
	for i, text := range texts {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i, strings.TrimSpace(text)))
	}

	systemPrompt := "You classify financial news headlines. Return ONLY a JSON array with one object per headline. Each object requires: index (int), label (positive|negative|neutral), confidence (0..1). No markdown."
	userPrompt := "Headlines:\n" + sb.String()

	completion, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: m.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty classifier completion")
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)

	var parsed []struct {
		Index      int     `json:"index"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse classifier json: %w", err)
	}

	out := make([]Prediction, len(texts))
	seen := make([]bool, len(texts))
	for _, row := range parsed {
		if row.Index < 0 || row.Index >= len(texts) {
			return nil, fmt.Errorf("classifier returned unknown index %d", row.Index)
		}
		if seen[row.Index] {
			return nil, fmt.Errorf("classifier returned index %d twice", row.Index)
		}
		seen[row.Index] = true
		out[row.Index] = Prediction{Label: row.Label, Score: row.Confidence}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("classifier skipped index %d", i)
		}
	}
	return out, nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

func (c *openAIClient) GetModel(ctx context.Context, model string) error {
	_, err := c.client.Models.Get(ctx, model)
	return err
}
