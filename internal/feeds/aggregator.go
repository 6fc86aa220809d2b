// Package feeds aggregates startup-funding items from RSS/Atom feeds.
package feeds

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/adityamenon/newsdesk/internal/config"
	"github.com/adityamenon/newsdesk/internal/models"
)

const (
	httpTimeout    = 30 * time.Second
	maxConcurrent  = 10
	rateLimitDelay = 1 * time.Second
)

// defaultFeeds are funding-section feeds used when none are configured.
var defaultFeeds = []string{
	"https://yourstory.com/category/funding/feed",
	"https://techcrunch.com/tag/funding/feed/",
	"https://inc42.com/startups/funding/feed/",
}

// fundingKeywords keep only funding-like items from general feeds.
var fundingKeywords = []string{
	"raises", "raised", "secures", "secured", "bags", "snags", "lands",
	"gets", "obtains", "picks up", "closes", "funding", "series a",
	"series b", "series c", "seed round", "pre-seed", "venture debt",
	"investment round", "led by",
}

// Aggregator fetches configured feeds concurrently with per-domain rate
// limiting and merges their items into a deduplicated list.
type Aggregator struct {
	feeds            []string
	extractSummaries bool
	client           *http.Client
	rateLimiter      map[string]time.Time // per-domain last request time
	mu               sync.Mutex           // protects rateLimiter
	logger           *slog.Logger
}

// NewAggregator creates an aggregator from config. Configured feeds take
// priority over the built-in defaults; duplicates are removed with order
// preserved.
func NewAggregator(cfg config.FundingConfig, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		feeds:            mergeFeedLists(cfg.Feeds, defaultFeeds),
		extractSummaries: cfg.ExtractSummaries,
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		rateLimiter: make(map[string]time.Time),
		logger:      logger,
	}
}

// userAgentTransport wraps an http.RoundTripper to inject browser-like
// headers on every request; some feed hosts reject default Go clients.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// mergeFeedLists concatenates configured and default feeds, configured
// first, dropping duplicates while preserving order.
func mergeFeedLists(configured, defaults []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range [][]string{configured, defaults} {
		for _, u := range list {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	return out
}

// isTrustedFeed reports whether a feed URL points at a dedicated funding
// section; every item from such feeds is kept without keyword filtering.
func isTrustedFeed(feedURL string) bool {
	u, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(u.Path), "funding")
}

// likelyFunding reports whether title+summary reads like a funding story.
func likelyFunding(title, summary string) bool {
	txt := strings.ToLower(title + " " + summary)
	for _, k := range fundingKeywords {
		if strings.Contains(txt, k) {
			return true
		}
	}
	return false
}

// hostname extracts the lowercased host of a feed URL for use as the
// item source label.
func hostname(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Hostname())
}

// Fetch pulls all feeds concurrently and returns funding items, newest
// data included, deduplicated by URL (last seen wins). Items dated
// outside [start, end] are dropped; undated items are always kept — the
// caller decides their fate per window policy. Individual feed failures
// are logged and skipped rather than failing the batch.
func (a *Aggregator) Fetch(ctx context.Context, start, end *time.Time) ([]models.FundingItem, error) {
	var (
		all []models.FundingItem
		mu  sync.Mutex
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, feedURL := range a.feeds {
		g.Go(func() error {
			items, err := a.fetchFeed(ctx, feedURL)
			if err != nil {
				a.logger.Warn("failed to fetch funding feed", "url", feedURL, "error", err)
				return nil // skip failures, don't fail the batch
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()

			a.logger.Info("fetched funding feed", "url", feedURL, "items", len(items))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching funding feeds: %w", err)
	}

	// Window trim, then de-dupe by URL keeping the last occurrence.
	var trimmed []models.FundingItem
	for _, it := range all {
		if it.PublishedAt != nil {
			if start != nil && it.PublishedAt.Before(*start) {
				continue
			}
			if end != nil && it.PublishedAt.After(*end) {
				continue
			}
		}
		trimmed = append(trimmed, it)
	}

	seen := make(map[string]int)
	var out []models.FundingItem
	for _, it := range trimmed {
		if idx, dup := seen[it.URL]; dup {
			out[idx] = it
			continue
		}
		seen[it.URL] = len(out)
		out = append(out, it)
	}
	return out, nil
}

// fetchFeed retrieves one feed and converts its entries.
func (a *Aggregator) fetchFeed(ctx context.Context, feedURL string) ([]models.FundingItem, error) {
	a.waitForRateLimit(ctx, extractDomain(feedURL))

	fp := gofeed.NewParser()
	fp.Client = a.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	trusted := isTrustedFeed(feedURL)
	source := hostname(feedURL)

	var items []models.FundingItem
	for _, entry := range feed.Items {
		title := cleanText(entry.Title)
		link := cleanText(entry.Link)
		if title == "" || link == "" {
			continue
		}

		summary := cleanText(stripHTML(entry.Description))
		if summary == "" {
			summary = cleanText(stripHTML(entry.Content))
		}
		if summary == "" && !trusted && a.extractSummaries {
			summary = a.pageSummary(ctx, link)
		}

		if !trusted && !likelyFunding(title, summary) {
			continue
		}

		items = append(items, models.FundingItem{
			Title:       title,
			URL:         link,
			Summary:     summary,
			PublishedAt: entryDate(entry),
			Source:      source,
		})
	}
	return items, nil
}

// entryDate resolves an entry's publication date from the common feed
// fields, truncated to date precision. Unparseable dates yield nil.
func entryDate(entry *gofeed.Item) *time.Time {
	var t *time.Time
	switch {
	case entry.PublishedParsed != nil:
		t = entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		t = entry.UpdatedParsed
	default:
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// waitForRateLimit enforces a minimum delay between requests to the
// same domain. It blocks until the delay has elapsed or ctx is
// cancelled.
func (a *Aggregator) waitForRateLimit(ctx context.Context, domain string) {
	a.mu.Lock()
	lastReq, ok := a.rateLimiter[domain]
	if ok {
		elapsed := time.Since(lastReq)
		if elapsed < rateLimitDelay {
			a.mu.Unlock()
			select {
			case <-time.After(rateLimitDelay - elapsed):
			case <-ctx.Done():
			}
			a.mu.Lock()
		}
	}
	a.rateLimiter[domain] = time.Now()
	a.mu.Unlock()
}

// extractDomain parses a URL and returns its hostname. If parsing
// fails, it returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// stripHTML removes HTML tags from s and unescapes HTML entities.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return html.UnescapeString(clean)
}

// cleanText collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
