package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"sentiment-desk/internal/domain"
)

const rssBody = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>"Apple Inc" - Google News</title>
<item><title>Apple shares rally after earnings beat - Reuters</title><link>https://n/1</link><pubDate>Tue, 02 Jan 2024 15:00:00 GMT</pubDate></item>
<item><title>&lt;b&gt;Supply&lt;/b&gt; worries weigh on iPhone maker</title><author>desk@example.com (Bloomberg)</author><link>https://n/2</link><pubDate>Wed, 03 Jan 2024 09:00:00 GMT</pubDate></item>
<item><title>Old story - Wire</title><link>https://n/3</link><pubDate>Mon, 01 Jan 2018 09:00:00 GMT</pubDate></item>
<item><title>Undated - Wire</title><link>https://n/4</link></item>
</channel></rss>`

func TestRSSProviderFetchHeadlines(t *testing.T) {
	t.Parallel()

	p := NewRSSProvider(noopTracer(), "http://example/search?q=%s", 10, "")
	p.limiter = unlimited()
	p.client = stubClient(http.StatusOK, rssBody, func(req *http.Request) {
		if req.URL.Query().Get("q") != "Apple Inc" {
			t.Errorf("unexpected query %s", req.URL.RawQuery)
		}
	})

	to := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	headlines, err := p.FetchHeadlines(context.Background(), "Apple Inc", to.AddDate(0, 0, -5), to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headlines) != 2 {
		t.Fatalf("expected 2 headlines in window, got %d: %+v", len(headlines), headlines)
	}
	if headlines[0].Title != "Apple shares rally after earnings beat" || headlines[0].Source != "Reuters" {
		t.Fatalf("unexpected first headline: %+v", headlines[0])
	}
	if headlines[1].Title != "Supply worries weigh on iPhone maker" {
		t.Fatalf("expected html stripped title, got %q", headlines[1].Title)
	}
	if !strings.Contains(headlines[1].Source, "Bloomberg") {
		t.Fatalf("expected author as source, got %q", headlines[1].Source)
	}
	if headlines[1].Day() != "2024-01-03" {
		t.Fatalf("unexpected day %s", headlines[1].Day())
	}
}

func TestRSSProviderCapsItems(t *testing.T) {
	p := NewRSSProvider(noopTracer(), "http://example/feed", 1, "")
	p.limiter = unlimited()
	p.client = stubClient(http.StatusOK, rssBody, nil)

	to := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	headlines, err := p.FetchHeadlines(context.Background(), "Apple Inc", to.AddDate(0, 0, -5), to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(headlines) != 1 {
		t.Fatalf("expected 1 headline, got %d", len(headlines))
	}
}

func TestRSSProviderBadFeed(t *testing.T) {
	p := NewRSSProvider(noopTracer(), "", 10, "")
	p.limiter = unlimited()
	p.client = stubClient(http.StatusOK, "not a feed", nil)

	_, err := p.FetchHeadlines(context.Background(), "Apple Inc", time.Now().AddDate(0, 0, -5), time.Now())
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestSplitSourceSuffix(t *testing.T) {
	title, source := splitSourceSuffix("Apple - iPhone sales slip - CNBC")
	if title != "Apple - iPhone sales slip" || source != "CNBC" {
		t.Fatalf("unexpected split %q / %q", title, source)
	}
	if title, source = splitSourceSuffix("No source here"); title != "No source here" || source != "" {
		t.Fatalf("unexpected split %q / %q", title, source)
	}
}
