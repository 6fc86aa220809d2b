package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/adityamenon/newsdesk/internal/config"
)

// Item is one article card scraped from a listing page.
type Item struct {
	Title       string
	URL         string
	PublishedAt *time.Time // date precision; nil when no nearby date found
}

// Scraper walks paginated people-spotting listing pages.
type Scraper struct {
	baseURL     string
	listingPath string
	userAgent   string
	politeDelay time.Duration
	jitterMax   time.Duration
	client      *http.Client
	logger      *slog.Logger
}

// NewScraper creates a scraper from config.
func NewScraper(cfg config.ScrapeConfig, logger *slog.Logger) *Scraper {
	return &Scraper{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		listingPath: cfg.ListingPath,
		userAgent:   cfg.UserAgent,
		politeDelay: time.Duration(cfg.PoliteDelayMS) * time.Millisecond,
		jitterMax:   time.Duration(cfg.JitterMaxMS) * time.Millisecond,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
		logger: logger,
	}
}

const (
	fetchAttempts = 3
	backoffStep   = 600 * time.Millisecond
)

// fetchDocument fetches a URL with retries on transient failures and
// parses the body. Retries on network errors and 429/5xx statuses with
// linear backoff (0.6s, 1.2s).
func (s *Scraper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			wait := backoffStep * time.Duration(attempt-1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		doc, retryable, err := s.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) (doc *goquery.Document, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("fetching %s: status %d", url, resp.StatusCode)
	}

	doc, err = goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, false, nil
}

// isArticleHref reports whether a listing href points at a real article.
// Article slugs carry digits; category and query pages do not.
func (s *Scraper) isArticleHref(href string) bool {
	if href == "" || strings.Contains(href, "?") {
		return false
	}
	if !strings.HasPrefix(href, s.listingPath+"/") {
		return false
	}
	return strings.ContainsAny(href, "0123456789")
}

func (s *Scraper) absolutize(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	return s.baseURL + href
}

// parseCardDate parses a short date-ish string to date precision.
func parseCardDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > 40 || !strings.ContainsAny(text, "0123456789") {
		return nil
	}
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// nearbyDate climbs up to four ancestors of an anchor and sniffs
// time/small/span/p tags for a parseable date.
func nearbyDate(node *goquery.Selection) *time.Time {
	cur := node
	for hops := 0; hops < 4 && cur.Length() > 0; hops++ {
		if t := cur.Find("time").First(); t.Length() > 0 {
			if d := parseCardDate(t.Text()); d != nil {
				return d
			}
		}
		found := (*time.Time)(nil)
		cur.Find("small, span, p").EachWithBreak(func(i int, tag *goquery.Selection) bool {
			if i >= 6 {
				return false
			}
			if d := parseCardDate(tag.Text()); d != nil {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
		cur = cur.Parent()
	}
	return nil
}

// ScrapePage fetches one listing page and returns its article cards.
// When positivesOnly is set, headlines failing IsPositiveMovement are
// dropped. A fetch failure returns an error; callers treat it like an
// empty page.
func (s *Scraper) ScrapePage(ctx context.Context, page int, positivesOnly bool) ([]Item, error) {
	url := fmt.Sprintf("%s%s?page=%d", s.baseURL, s.listingPath, page)
	doc, err := s.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	selector := fmt.Sprintf("a[href^='%s/']", s.listingPath)

	picked := make(map[string]Item)
	var order []string
	doc.Find(selector).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if !s.isArticleHref(href) {
			return
		}

		// Prefer anchor text, fall back to a nearby heading.
		title := strings.TrimSpace(a.Text())
		if title == "" {
			title = strings.TrimSpace(a.Parent().Find("h2, h3, h4").First().Text())
		}

		if len(title) < 8 {
			return
		}
		if _, skip := skipTitles[strings.ToLower(title)]; skip {
			return
		}
		if positivesOnly && !IsPositiveMovement(title) {
			return
		}

		absURL := s.absolutize(href)
		prev, seen := picked[absURL]
		if !seen {
			order = append(order, absURL)
		}
		// Same article can appear as an image link and a headline link;
		// keep the longer title.
		if !seen || len(title) > len(prev.Title) {
			picked[absURL] = Item{Title: title, URL: absURL, PublishedAt: nearbyDate(a)}
		}
	})

	items := make([]Item, 0, len(order))
	for _, u := range order {
		items = append(items, picked[u])
	}
	return items, nil
}

// ScrapePaginated walks listing pages starting at startPage and collects
// article cards, at most maxPages pages. When stopBefore is set, items
// strictly older than it (by date) are dropped, undated items are kept,
// and the walk stops early once a page's oldest dated item predates the
// cutoff. Two consecutive empty or failed pages also stop the walk.
func (s *Scraper) ScrapePaginated(ctx context.Context, startPage, maxPages int, stopBefore *time.Time, positivesOnly bool) ([]Item, error) {
	var cutoff *time.Time
	if stopBefore != nil {
		d := time.Date(stopBefore.Year(), stopBefore.Month(), stopBefore.Day(), 0, 0, 0, 0, time.UTC)
		cutoff = &d
	}

	var collected []Item
	empties := 0

	for page := startPage; page < startPage+maxPages; page++ {
		if ctx.Err() != nil {
			return collected, ctx.Err()
		}

		items, err := s.ScrapePage(ctx, page, positivesOnly)
		if err != nil {
			s.logger.Warn("listing page fetch failed", "page", page, "error", err)
		}

		if len(items) == 0 {
			empties++
			if empties >= 2 {
				break
			}
			if err := s.politeSleep(ctx); err != nil {
				return collected, err
			}
			continue
		}
		empties = 0

		oldestDated := (*time.Time)(nil)
		for _, it := range items {
			if cutoff != nil && it.PublishedAt != nil && it.PublishedAt.Before(*cutoff) {
				if oldestDated == nil || it.PublishedAt.Before(*oldestDated) {
					oldestDated = it.PublishedAt
				}
				continue
			}
			if it.PublishedAt != nil {
				if oldestDated == nil || it.PublishedAt.Before(*oldestDated) {
					oldestDated = it.PublishedAt
				}
			}
			collected = append(collected, it)
		}

		// Once a page reaches items older than the cutoff, further pages
		// are older still.
		if cutoff != nil && oldestDated != nil && oldestDated.Before(*cutoff) {
			break
		}

		if err := s.politeSleep(ctx); err != nil {
			return collected, err
		}
	}

	return collected, nil
}

func (s *Scraper) politeSleep(ctx context.Context) error {
	wait := s.politeDelay
	if s.jitterMax > 0 {
		wait += time.Duration(rand.Int63n(int64(s.jitterMax)))
	}
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
