package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sentiment-desk/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	newsAPIBaseURL = "https://newsapi.org/v2"

	// NewsAPI replaces articles taken down after indexing with this title.
	removedTitle = "[Removed]"
)

// NewsAPIProvider searches NewsAPI's /everything endpoint.
type NewsAPIProvider struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	tracer   trace.Tracer
	limiter  *rate.Limiter
}

func NewNewsAPIProvider(tracer trace.Tracer, apiKey string, pageSize int, proxyURL string) (*NewsAPIProvider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: NEWS_API key is not set", domain.ErrConfiguration)
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return &NewsAPIProvider{
		client:   newHTTPClient(20*time.Second, proxyURL),
		baseURL:  newsAPIBaseURL,
		apiKey:   apiKey,
		pageSize: pageSize,
		tracer:   tracer,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// FetchHeadlines returns up to pageSize English articles matching query
// published between from and to, ordered by relevancy.
func (p *NewsAPIProvider) FetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error) {
	ctx, span := p.tracer.Start(ctx, "newsapi.fetch-headlines")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	headlines, err := p.fetchHeadlines(ctx, query, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch headlines failed")
		return nil, fmt.Errorf("%w: newsapi %q: %v", domain.ErrDataUnavailable, query, err)
	}
	span.SetAttributes(attribute.Int("headlines", len(headlines)))
	return headlines, nil
}

func (p *NewsAPIProvider) fetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.Format(domain.DateLayout))
	params.Set("to", to.Format(domain.DateLayout))
	params.Set("language", "en")
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", strconv.Itoa(p.pageSize))

	body, err := get(ctx, p.client, p.limiter, p.baseURL+"/everything?"+params.Encode(), http.Header{
		"Accept":    {"application/json"},
		"X-Api-Key": {p.apiKey},
	})
	if err != nil {
		// Error bodies carry the API's own code and message.
		var se *statusError
		if errors.As(err, &se) {
			var payload newsAPIResponse
			if json.Unmarshal([]byte(se.body), &payload) == nil && payload.Code != "" {
				return nil, fmt.Errorf("%s: %s", payload.Code, payload.Message)
			}
		}
		return nil, err
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode articles: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("%s: %s", payload.Code, payload.Message)
	}

	seen := make(map[string]struct{}, len(payload.Articles))
	out := make([]domain.Headline, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		title := sanitizeText(a.Title, 500)
		if title == "" || title == removedTitle {
			continue
		}
		if a.URL != "" {
			if _, dup := seen[a.URL]; dup {
				continue
			}
			seen[a.URL] = struct{}{}
		}
		published, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			continue
		}
		out = append(out, domain.Headline{
			Date:   domain.TruncateDay(published.UTC()),
			Title:  title,
			Source: sanitizeText(a.Source.Name, 120),
		})
	}
	return out, nil
}
