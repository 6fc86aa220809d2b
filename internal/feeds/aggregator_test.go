package feeds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/adityamenon/newsdesk/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rssItem(title, link, desc, pubDate string) string {
	s := fmt.Sprintf("<item><title>%s</title><link>%s</link><description>%s</description>", title, link, desc)
	if pubDate != "" {
		s += fmt.Sprintf("<pubDate>%s</pubDate>", pubDate)
	}
	return s + "</item>"
}

func rssFeed(items ...string) string {
	body := ""
	for _, it := range items {
		body += it
	}
	return `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>` + body + `</channel></rss>`
}

func TestMergeFeedLists(t *testing.T) {
	got := mergeFeedLists(
		[]string{"https://a.example/feed", "https://yourstory.com/category/funding/feed", ""},
		[]string{"https://yourstory.com/category/funding/feed", "https://b.example/feed"},
	)
	want := []string{
		"https://a.example/feed",
		"https://yourstory.com/category/funding/feed",
		"https://b.example/feed",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeFeedLists = %v, want %v", got, want)
	}
}

func TestIsTrustedFeed(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://yourstory.com/category/funding/feed", true},
		{"https://inc42.com/startups/funding/feed/", true},
		{"https://example.com/news/feed", false},
		{"https://funding.example.com/feed", false}, // host, not path
	}
	for _, tt := range tests {
		if got := isTrustedFeed(tt.url); got != tt.want {
			t.Errorf("isTrustedFeed(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestLikelyFunding(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"FintechX raises $5M", true},
		{"HealthCo closes Series B round", true},
		{"New CMO for Acme", false},
		{"Inside the seed round of Cumin Co", true},
	}
	for _, tt := range tests {
		if got := likelyFunding(tt.title, ""); got != tt.want {
			t.Errorf("likelyFunding(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://YourStory.com/category/funding/feed", "yourstory.com"},
		{"https://techcrunch.com:443/tag/funding/feed/", "techcrunch.com"},
	}
	for _, tt := range tests {
		if got := hostname(tt.url); got != tt.want {
			t.Errorf("hostname(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func newTestAggregator(feedURLs []string) *Aggregator {
	return NewAggregator(config.FundingConfig{Feeds: feedURLs}, testLogger())
}

func TestFetchTrustedKeepsEverything(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/category/funding/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(
			rssItem("Company X expands operations", "https://news.example/x-1", "", "Mon, 10 Aug 2026 08:00:00 GMT"),
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Only this feed; the defaults would hit the network.
	a := &Aggregator{
		feeds:       []string{srv.URL + "/category/funding/feed"},
		client:      srv.Client(),
		rateLimiter: make(map[string]time.Time),
		logger:      testLogger(),
	}

	items, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (trusted feeds skip the keyword filter)", len(items))
	}
	it := items[0]
	if it.Title != "Company X expands operations" {
		t.Errorf("Title = %q", it.Title)
	}
	wantDate := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if it.PublishedAt == nil || !it.PublishedAt.Equal(wantDate) {
		t.Errorf("PublishedAt = %v, want %v", it.PublishedAt, wantDate)
	}
}

func TestFetchGeneralFeedIsKeywordFiltered(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/news/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(
			rssItem("FintechX raises &#36;5M from Alpha Capital", "https://news.example/f-1", "", ""),
			rssItem("Acme hires new CMO", "https://news.example/f-2", "", ""),
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := &Aggregator{
		feeds:       []string{srv.URL + "/news/feed"},
		client:      srv.Client(),
		rateLimiter: make(map[string]time.Time),
		logger:      testLogger(),
	}

	items, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 || items[0].URL != "https://news.example/f-1" {
		t.Errorf("items = %+v, want only the funding-like entry", items)
	}
}

func TestFetchWindowTrimKeepsUndated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/category/funding/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(
			rssItem("Old raise", "https://news.example/w-1", "", "Wed, 01 Jan 2020 08:00:00 GMT"),
			rssItem("Recent raise", "https://news.example/w-2", "", "Mon, 10 Aug 2026 08:00:00 GMT"),
			rssItem("Undated raise", "https://news.example/w-3", "", ""),
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := &Aggregator{
		feeds:       []string{srv.URL + "/category/funding/feed"},
		client:      srv.Client(),
		rateLimiter: make(map[string]time.Time),
		logger:      testLogger(),
	}

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	items, err := a.Fetch(context.Background(), &start, &end)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	urls := make(map[string]bool)
	for _, it := range items {
		urls[it.URL] = true
	}
	if urls["https://news.example/w-1"] {
		t.Error("item older than the window should be dropped")
	}
	if !urls["https://news.example/w-2"] || !urls["https://news.example/w-3"] {
		t.Errorf("windowed and undated items should be kept, got %+v", items)
	}
}

func TestFetchDedupesByURLLastWins(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/category/funding/feed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(
			rssItem("First title", "https://news.example/d-1", "", ""),
			rssItem("Second title", "https://news.example/d-1", "", ""),
		))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := &Aggregator{
		feeds:       []string{srv.URL + "/category/funding/feed"},
		client:      srv.Client(),
		rateLimiter: make(map[string]time.Time),
		logger:      testLogger(),
	}

	items, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 after dedupe", len(items))
	}
	if items[0].Title != "Second title" {
		t.Errorf("Title = %q, last occurrence should win", items[0].Title)
	}
}

func TestFetchSkipsFailingFeed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/broken/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := &Aggregator{
		feeds:       []string{srv.URL + "/broken/feed"},
		client:      srv.Client(),
		rateLimiter: make(map[string]time.Time),
		logger:      testLogger(),
	}

	items, err := a.Fetch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Fetch must not fail the batch on one bad feed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want none", items)
	}
}

func TestWaitForRateLimitHonorsCancel(t *testing.T) {
	a := &Aggregator{
		rateLimiter: map[string]time.Time{"news.example": time.Now()},
		logger:      testLogger(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	a.waitForRateLimit(ctx, "news.example")
	if elapsed := time.Since(start); elapsed >= rateLimitDelay {
		t.Errorf("waited %v, a cancelled context must not sit out the full delay", elapsed)
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML("<p>FintechX <b>raises</b> &amp; grows</p>")
	if got != "FintechX raises & grows" {
		t.Errorf("stripHTML = %q", got)
	}
}

func TestNewAggregatorMergesDefaults(t *testing.T) {
	a := NewAggregator(config.FundingConfig{Feeds: []string{"https://custom.example/funding/feed"}}, testLogger())
	if a.feeds[0] != "https://custom.example/funding/feed" {
		t.Errorf("configured feed must come first, got %v", a.feeds)
	}
	if len(a.feeds) != 1+len(defaultFeeds) {
		t.Errorf("feeds = %v, want configured + defaults", a.feeds)
	}
}
