package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adityamenon/newsdesk/internal/config"
	"github.com/adityamenon/newsdesk/internal/models"
	"github.com/adityamenon/newsdesk/internal/news"
	"github.com/adityamenon/newsdesk/internal/parse"
	"github.com/adityamenon/newsdesk/internal/scrape"
	"github.com/adityamenon/newsdesk/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubScraper struct {
	items []scrape.Item
}

func (s *stubScraper) ScrapePaginated(ctx context.Context, startPage, maxPages int, stopBefore *time.Time, positivesOnly bool) ([]scrape.Item, error) {
	return s.items, nil
}

type stubFetcher struct {
	items []models.FundingItem
}

func (f *stubFetcher) Fetch(ctx context.Context, start, end *time.Time) ([]models.FundingItem, error) {
	return f.items, nil
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return storage.NewStore(db)
}

func newTestService(t *testing.T, scraper *stubScraper, fetcher *stubFetcher) (*news.Service, *storage.Store) {
	t.Helper()

	store := newTestStore(t)
	cfg := &config.Config{
		Funding: config.FundingConfig{LookbackDays: 30, LLMBudget: 20},
		People:  config.PeopleConfig{BackstopDays: 14},
	}
	svc := news.NewService(
		store,
		scraper,
		fetcher,
		news.NewFundingCache(),
		parse.NewPeopleParser(nil, testLogger()),
		parse.NewFundingParser(nil, testLogger()),
		cfg,
		testLogger(),
	)
	return svc, store
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return body
}

func TestNewsTableInvalidDate(t *testing.T) {
	svc, _ := newTestService(t, &stubScraper{}, &stubFetcher{})
	h := NewsTable(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/news/table?from=not-a-date", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestNewsTableOK(t *testing.T) {
	pub := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)
	fetcher := &stubFetcher{items: []models.FundingItem{
		{Title: "FintechX secures USD 3 million Seed round from Alpha Capital", URL: "https://news.example/f-1", PublishedAt: &pub, Source: "news.example"},
	}}
	svc, _ := newTestService(t, &stubScraper{}, fetcher)
	h := NewsTable(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/news/table?from=2026-08-01&to=2026-08-31", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)

	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("items = %v, want one row", body["items"])
	}
	row := items[0].(map[string]any)
	if row["company"] != "FintechX" || row["type"] != models.TypeFunding {
		t.Errorf("row = %v", row)
	}
	if row["date"] != "12-Aug-26" || row["month"] != "August" {
		t.Errorf("date/month = %v/%v", row["date"], row["month"])
	}

	window := body["window"].(map[string]any)
	if window["from"] != "2026-08-01" || window["to"] != "2026-08-31" {
		t.Errorf("window = %v", window)
	}
	if _, ok := body["funding_parse_stats"]; !ok {
		t.Error("response must include funding_parse_stats")
	}
}

func TestSyncRangeRequiresFrom(t *testing.T) {
	svc, _ := newTestService(t, &stubScraper{}, &stubFetcher{})
	h := SyncRangeNews(svc)

	for _, target := range []string{
		"/api/news/sync_range",
		"/api/news/sync_range?from=garbage-date",
	} {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: got status %d, want %d", target, w.Code, http.StatusBadRequest)
		}
	}
}

func TestSyncRangeOK(t *testing.T) {
	pub := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)
	scraper := &stubScraper{items: []scrape.Item{
		{Title: "Acme appoints Jane Roe as CEO", URL: "https://afaqs.com/news/acme-1", PublishedAt: &pub},
	}}
	svc, _ := newTestService(t, scraper, &stubFetcher{})
	h := SyncRangeNews(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/news/sync_range?from=2026-08-01&to=2026-08-31", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["added"] != float64(1) || body["fetched"] != float64(1) {
		t.Errorf("body = %v", body)
	}
	if body["from"] != "2026-08-01" || body["to"] != "2026-08-31" {
		t.Errorf("echoed window = %v/%v", body["from"], body["to"])
	}
}

func TestSyncNewsDefaults(t *testing.T) {
	svc, _ := newTestService(t, &stubScraper{}, &stubFetcher{})
	h := SyncNews(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/news/sync", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["scanned_pages"] != float64(8) {
		t.Errorf("scanned_pages = %v, want the default 8", body["scanned_pages"])
	}
	if body["cutoff"] == nil {
		t.Error("cutoff must be reported")
	}
}

func TestAutoSyncStatus(t *testing.T) {
	svc, store := newTestService(t, &stubScraper{}, &stubFetcher{})
	h := AutoSyncStatus(svc)

	r := httptest.NewRequest(http.MethodGet, "/api/news/auto_sync_status", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["total"] != float64(0) {
		t.Errorf("total = %v, want 0", body["total"])
	}

	pub := time.Now().UTC().AddDate(0, 0, -2)
	if _, err := store.InsertMovement(context.Background(), "Acme appoints Jane Roe as CEO", "https://afaqs.com/news/acme-1", "afaqs", &pub); err != nil {
		t.Fatal(err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	body = decodeBody(t, w)
	if body["total"] != float64(1) || body["latest"] == nil {
		t.Errorf("body = %v", body)
	}
}

func TestAutoSyncNow(t *testing.T) {
	pub := time.Now().UTC().AddDate(0, 0, -1)
	scraper := &stubScraper{items: []scrape.Item{
		{Title: "Acme appoints Jane Roe as CEO", URL: "https://afaqs.com/news/acme-1", PublishedAt: &pub},
	}}
	svc, _ := newTestService(t, scraper, &stubFetcher{})
	h := AutoSyncNow(svc)

	r := httptest.NewRequest(http.MethodPost, "/api/news/auto_sync_now", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["added"] != float64(1) || body["total"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestRebuildFundingCacheHandler(t *testing.T) {
	fetcher := &stubFetcher{items: []models.FundingItem{
		{Title: "FintechX secures USD 3 million Seed round from Alpha Capital", URL: "https://news.example/f-1"},
	}}
	svc, _ := newTestService(t, &stubScraper{}, fetcher)
	h := RebuildFundingCache(svc)

	r := httptest.NewRequest(http.MethodPost, "/api/news/funding_cache/rebuild", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" || body["items"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestPurgeNegativesHandler(t *testing.T) {
	svc, store := newTestService(t, &stubScraper{}, &stubFetcher{})
	pub := time.Now().UTC()
	if _, err := store.InsertMovement(context.Background(), "Acme reports quarterly results", "https://afaqs.com/news/drop-1", "afaqs", &pub); err != nil {
		t.Fatal(err)
	}

	h := PurgeNegatives(svc)
	r := httptest.NewRequest(http.MethodPost, "/api/news/purge_negatives", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["removed"] != float64(1) {
		t.Errorf("removed = %v, want 1", body["removed"])
	}
}
