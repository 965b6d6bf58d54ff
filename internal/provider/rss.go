package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentiment-desk/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// DefaultRSSSearchURL is a news search feed; %s receives the escaped query.
const DefaultRSSSearchURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// RSSProvider searches a news RSS feed. It needs no credential.
type RSSProvider struct {
	client      *http.Client
	urlTemplate string
	maxItems    int
	tracer      trace.Tracer
	limiter     *rate.Limiter
	parser      *gofeed.Parser
}

func NewRSSProvider(tracer trace.Tracer, urlTemplate string, maxItems int, proxyURL string) *RSSProvider {
	if strings.TrimSpace(urlTemplate) == "" {
		urlTemplate = DefaultRSSSearchURL
	}
	if maxItems <= 0 {
		maxItems = 20
	}
	return &RSSProvider{
		client:      newHTTPClient(20*time.Second, proxyURL),
		urlTemplate: urlTemplate,
		maxItems:    maxItems,
		tracer:      tracer,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		parser:      gofeed.NewParser(),
	}
}

func (p *RSSProvider) FetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-headlines")
	defer span.End()
	span.SetAttributes(attribute.String("query", query))

	headlines, err := p.fetchHeadlines(ctx, query, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch feed failed")
		return nil, fmt.Errorf("%w: rss %q: %v", domain.ErrDataUnavailable, query, err)
	}
	span.SetAttributes(attribute.Int("headlines", len(headlines)))
	return headlines, nil
}

func (p *RSSProvider) fetchHeadlines(ctx context.Context, query string, from, to time.Time) ([]domain.Headline, error) {
	feedURL := p.urlTemplate
	if strings.Contains(feedURL, "%s") {
		feedURL = fmt.Sprintf(feedURL, url.QueryEscape(query))
	}

	body, err := get(ctx, p.client, p.limiter, feedURL, http.Header{
		"Accept": {"application/rss+xml, application/atom+xml, application/xml, text/xml"},
	})
	if err != nil {
		return nil, err
	}

	feed, err := p.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	fromDay := domain.TruncateDay(from.UTC())
	toDay := domain.TruncateDay(to.UTC())

	out := make([]domain.Headline, 0, p.maxItems)
	for _, item := range feed.Items {
		if len(out) >= p.maxItems {
			break
		}
		if item.PublishedParsed == nil {
			continue
		}
		day := domain.TruncateDay(item.PublishedParsed.UTC())
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		title, source := stripHTML(item.Title), ""
		if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
			source = sanitizeText(item.Author.Name, 120)
		} else {
			title, source = splitSourceSuffix(title)
		}
		if title == "" {
			continue
		}
		if source == "" {
			source = sanitizeText(feed.Title, 120)
		}
		out = append(out, domain.Headline{Date: day, Title: title, Source: source})
	}
	return out, nil
}

// splitSourceSuffix separates aggregator titles of the form "Title - Source".
func splitSourceSuffix(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

func stripHTML(in string) string {
	if !strings.ContainsAny(in, "<&") {
		return sanitizeText(in, 500)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return sanitizeText(in, 500)
	}
	return sanitizeText(doc.Text(), 500)
}
