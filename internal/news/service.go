package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/adityamenon/newsdesk/internal/config"
	"github.com/adityamenon/newsdesk/internal/models"
	"github.com/adityamenon/newsdesk/internal/parse"
	"github.com/adityamenon/newsdesk/internal/scrape"
	"github.com/adityamenon/newsdesk/internal/storage"
)

const (
	overrideFetchLimit = 10000
	movementFetchLimit = 20000
)

// PageScraper walks paginated listing pages for people movements.
type PageScraper interface {
	ScrapePaginated(ctx context.Context, startPage, maxPages int, stopBefore *time.Time, positivesOnly bool) ([]scrape.Item, error)
}

// FeedFetcher pulls funding items from the configured feeds.
type FeedFetcher interface {
	Fetch(ctx context.Context, start, end *time.Time) ([]models.FundingItem, error)
}

// Service builds the merged news table and runs sync operations.
type Service struct {
	store      *storage.Store
	scraper    PageScraper
	fetcher    FeedFetcher
	cache      *FundingCache
	people     *parse.PeopleParser
	funding    *parse.FundingParser
	fundingCfg config.FundingConfig
	peopleCfg  config.PeopleConfig
	logger     *slog.Logger
}

// NewService wires the table/sync service together.
func NewService(
	store *storage.Store,
	scraper PageScraper,
	fetcher FeedFetcher,
	cache *FundingCache,
	people *parse.PeopleParser,
	funding *parse.FundingParser,
	cfg *config.Config,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		scraper:    scraper,
		fetcher:    fetcher,
		cache:      cache,
		people:     people,
		funding:    funding,
		fundingCfg: cfg.Funding,
		peopleCfg:  cfg.People,
		logger:     logger,
	}
}

// Window reports the effective date range of a table response. To is
// the inclusive upper day.
type Window struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// TableResult is the merged, sorted news table plus request stats.
type TableResult struct {
	Items  []models.FlatRow `json:"items"`
	Stats  *parse.Stats     `json:"funding_parse_stats"`
	Window Window           `json:"window"`
}

// Table builds the merged table of people movements and funding events.
// from/to bound the window by day; when both are nil a default trailing
// window is applied (lookback through tomorrow). query filters rows by
// substring match on raw title or URL.
func (s *Service) Table(ctx context.Context, from, to *time.Time, query string) (*TableResult, error) {
	explicitWindow := from != nil || to != nil

	var start, end *time.Time
	if from != nil {
		d := dayFloor(*from)
		start = &d
	}
	if to != nil {
		// Inclusive upper day: bound is the start of the next day.
		d := dayFloor(*to).AddDate(0, 0, 1)
		end = &d
	}
	if start == nil && end == nil {
		now := time.Now().UTC()
		lo := now.AddDate(0, 0, -s.fundingCfg.LookbackDays)
		hi := now.AddDate(0, 0, 1)
		start, end = &lo, &hi
	}

	stats := parse.NewStats(s.fundingCfg.LLMBudget)

	overrides, err := s.store.OverridesByURL(ctx, overrideFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("loading overrides: %w", err)
	}

	type keyedRow struct {
		basis *time.Time
		row   models.FlatRow
	}
	var rows []keyedRow

	// People side: stored movements in window, positive only.
	movements, err := s.store.ListMovementsInWindow(ctx, start, end, movementFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("listing movements: %w", err)
	}
	for _, m := range movements {
		if !scrape.IsPositiveMovement(m.Title) {
			continue
		}
		basis := m.PublishedAt
		if basis == nil {
			created := m.CreatedAt
			basis = &created
		}
		if !matchesQuery(query, m.Title, m.URL) {
			continue
		}

		parsed := s.people.Parse(ctx, m.Title)
		row := models.FlatRow{
			Company:             parsed.Company,
			Name:                parsed.Name,
			Designation:         parsed.Designation,
			AmbassadorFeaturing: parsed.AmbassadorFeaturing,
			Link:                m.URL,
			Date:                formatDayMonYear(*basis),
			Month:               basis.Format("January"),
			Type:                models.TypePeople,
			Source:              m.Source,
		}
		if ov, ok := overrides[m.URL]; ok {
			row = applyOverride(row, ov)
		}
		rows = append(rows, keyedRow{basis: basis, row: row})
	}

	// Funding side: cached snapshot when warm, live fetch otherwise.
	items, err := s.fundingItems(ctx, start, end)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		pub := it.PublishedAt
		if pub != nil {
			if start != nil && pub.Before(*start) {
				continue
			}
			if end != nil && !pub.Before(*end) {
				continue
			}
		} else if explicitWindow {
			// Undated items only appear under the implicit default window.
			continue
		}
		if !matchesQuery(query, it.Title, it.URL) {
			continue
		}

		parsed := s.funding.Parse(ctx, it.Title, it.Summary, stats)
		if parsed.Empty() {
			continue
		}

		row := models.FlatRow{
			Company:   parsed.Company,
			Amount:    parsed.Amount,
			Round:     parsed.Round,
			Investors: parsed.Investors,
			Link:      it.URL,
			Type:      models.TypeFunding,
			Source:    it.Source,
		}
		if pub != nil {
			row.Date = formatDayMonYear(*pub)
			row.Month = pub.Format("January")
		}
		if ov, ok := overrides[it.URL]; ok {
			row = applyOverride(row, ov)
		}
		rows = append(rows, keyedRow{basis: pub, row: row})
	}

	// Newest first; undated rows sink to the bottom.
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].basis, rows[j].basis
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	out := make([]models.FlatRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.row)
	}

	win := Window{}
	if start != nil {
		win.From = start.Format("2006-01-02")
	}
	if end != nil {
		win.To = end.AddDate(0, 0, -1).Format("2006-01-02")
	}
	return &TableResult{Items: out, Stats: stats, Window: win}, nil
}

// fundingItems returns the warm cache snapshot when caching is enabled,
// else fetches live for the requested window.
func (s *Service) fundingItems(ctx context.Context, start, end *time.Time) ([]models.FundingItem, error) {
	if s.fundingCfg.CacheEnabled {
		if items, ok := s.cache.Snapshot(); ok {
			return items, nil
		}
	}
	items, err := s.fetcher.Fetch(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching funding items: %w", err)
	}
	return items, nil
}

// applyOverride merges a user correction into a row. Non-empty override
// fields replace parsed values; empty fields never blank anything. The
// merge is type-routed: funding rows take company/amount/round/investors,
// people rows take name/company/designation; both take date/month.
func applyOverride(row models.FlatRow, ov models.Override) models.FlatRow {
	if row.Type == models.TypeFunding {
		row.Company = firstNonEmpty(ov.Company, row.Company)
		row.Amount = firstNonEmpty(ov.Amount, row.Amount)
		row.Round = firstNonEmpty(ov.Round, row.Round)
		row.Investors = firstNonEmpty(ov.Investors, row.Investors)
	} else {
		row.Name = firstNonEmpty(ov.Name, row.Name)
		row.Company = firstNonEmpty(ov.Company, row.Company)
		row.Designation = firstNonEmpty(ov.Designation, row.Designation)
	}
	row.Date = firstNonEmpty(ov.Date, row.Date)
	row.Month = firstNonEmpty(ov.Month, row.Month)
	return row
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func matchesQuery(query, title, url string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(title), q) || strings.Contains(strings.ToLower(url), q)
}

// formatDayMonYear renders "16-Jan-25" with no leading zero on the day.
func formatDayMonYear(t time.Time) string {
	return fmt.Sprintf("%d-%s-%s", t.Day(), t.Format("Jan"), t.Format("06"))
}

func dayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SyncResult summarizes one people sync cycle.
type SyncResult struct {
	LatestBefore *time.Time `json:"latest_before,omitempty"`
	CutoffUsed   *time.Time `json:"cutoff_used,omitempty"`
	Fetched      int        `json:"fetched"`
	Considered   int        `json:"considered"`
	Added        int        `json:"added"`
	Total        int        `json:"total"`
}

// SyncStatus reports how fresh the movements store is.
type SyncStatus struct {
	Latest    *time.Time `json:"latest,omitempty"`
	DaysSince *int       `json:"days_since,omitempty"`
	Total     int        `json:"total"`
}

// SyncOnce runs one catch-up cycle: scrape from the newest known item
// (minus a day of slack) or a backstop window when the store is empty,
// and insert any URL not yet seen.
func (s *Service) SyncOnce(ctx context.Context, backstopDays, maxPages, startPage int) (*SyncResult, error) {
	latest, err := s.store.LatestMovementTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding latest movement: %w", err)
	}

	var cutoff time.Time
	if latest != nil {
		cutoff = *latest
	} else {
		cutoff = time.Now().UTC().AddDate(0, 0, -backstopDays)
	}
	stop := cutoff.AddDate(0, 0, -1)

	scraped, err := s.scraper.ScrapePaginated(ctx, startPage, maxPages, &stop, true)
	if err != nil {
		return nil, fmt.Errorf("scraping listing pages: %w", err)
	}

	res := &SyncResult{LatestBefore: latest, CutoffUsed: &cutoff, Fetched: len(scraped)}
	for _, it := range scraped {
		if it.PublishedAt != nil && it.PublishedAt.Before(stop) {
			continue
		}
		res.Considered++
		added, err := s.insertIfNew(ctx, it)
		if err != nil {
			return nil, err
		}
		if added {
			res.Added++
		}
	}

	res.Total, err = s.store.CountMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting movements: %w", err)
	}
	return res, nil
}

// SyncRange backfills a historical window [start, end). The scraper
// walks until it reaches items older than start.
func (s *Service) SyncRange(ctx context.Context, start, end time.Time, maxPages, startPage int) (*SyncResult, error) {
	scraped, err := s.scraper.ScrapePaginated(ctx, startPage, maxPages, &start, true)
	if err != nil {
		return nil, fmt.Errorf("scraping listing pages: %w", err)
	}

	res := &SyncResult{Fetched: len(scraped)}
	for _, it := range scraped {
		if it.PublishedAt != nil && (it.PublishedAt.Before(start) || !it.PublishedAt.Before(end)) {
			continue
		}
		res.Considered++
		added, err := s.insertIfNew(ctx, it)
		if err != nil {
			return nil, err
		}
		if added {
			res.Added++
		}
	}

	res.Total, err = s.store.CountMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting movements: %w", err)
	}
	return res, nil
}

// SyncRecent scrapes approximately the last N days and stores new items.
func (s *Service) SyncRecent(ctx context.Context, days, maxPages, startPage int) (*SyncResult, error) {
	if days < 1 {
		days = 1
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	scraped, err := s.scraper.ScrapePaginated(ctx, startPage, maxPages, &cutoff, true)
	if err != nil {
		return nil, fmt.Errorf("scraping listing pages: %w", err)
	}

	res := &SyncResult{CutoffUsed: &cutoff, Fetched: len(scraped)}
	for _, it := range scraped {
		if it.PublishedAt != nil && it.PublishedAt.Before(cutoff) {
			continue
		}
		res.Considered++
		added, err := s.insertIfNew(ctx, it)
		if err != nil {
			return nil, err
		}
		if added {
			res.Added++
		}
	}

	res.Total, err = s.store.CountMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting movements: %w", err)
	}
	return res, nil
}

func (s *Service) insertIfNew(ctx context.Context, it scrape.Item) (bool, error) {
	_, err := s.store.GetMovementByURL(ctx, it.URL)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("checking for existing movement: %w", err)
	}
	if _, err := s.store.InsertMovement(ctx, it.Title, it.URL, "afaqs", it.PublishedAt); err != nil {
		return false, fmt.Errorf("inserting movement: %w", err)
	}
	return true, nil
}

// Status reports the newest known movement and the store size.
func (s *Service) Status(ctx context.Context) (*SyncStatus, error) {
	latest, err := s.store.LatestMovementTime(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding latest movement: %w", err)
	}
	total, err := s.store.CountMovements(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting movements: %w", err)
	}

	st := &SyncStatus{Latest: latest, Total: total}
	if latest != nil {
		days := int(time.Since(*latest).Hours() / 24)
		st.DaysSince = &days
	}
	return st, nil
}

// PurgeNegatives deletes stored movements whose titles no longer pass
// the positive-movement filter (keyword lists evolve).
func (s *Service) PurgeNegatives(ctx context.Context) (int, error) {
	all, err := s.store.ListAllMovements(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing movements: %w", err)
	}
	removed := 0
	for _, m := range all {
		if scrape.IsPositiveMovement(m.Title) {
			continue
		}
		if err := s.store.DeleteMovement(ctx, m.ID); err != nil {
			return removed, fmt.Errorf("deleting movement %d: %w", m.ID, err)
		}
		removed++
	}
	return removed, nil
}

// RebuildFundingCache fetches the trailing lookback window (through
// tomorrow) and replaces the snapshot wholesale. On fetch failure the
// previous snapshot stays in place.
func (s *Service) RebuildFundingCache(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.fundingCfg.LookbackDays)
	end := now.AddDate(0, 0, 1)

	items, err := s.fetcher.Fetch(ctx, &start, &end)
	if err != nil {
		return 0, fmt.Errorf("rebuilding funding cache: %w", err)
	}
	s.cache.Set(items)
	return len(items), nil
}
