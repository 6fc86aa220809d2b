package handlers

import (
	"net/http"
	"time"

	"github.com/adityamenon/newsdesk/internal/news"
)

// NewsTable returns the merged flat table of people movements and funding
// events. Optional `from`/`to` bound the window by day (`to` inclusive);
// with neither set a default trailing window applies. `q` filters rows by
// substring match on the raw title or URL.
func NewsTable(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := queryDate(r, "from")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from date")
			return
		}
		to, err := queryDate(r, "to")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to date")
			return
		}

		res, err := svc.Table(r.Context(), from, to, r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// SyncNews runs a manual people sync over roughly the last `days` days.
func SyncNews(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := queryInt(r, "days", 7, 1, 365)
		maxPages := queryInt(r, "max_pages", 8, 1, 40)
		startPage := queryInt(r, "start_page", 1, 1, 10000)

		res, err := svc.SyncRecent(r.Context(), days, maxPages, startPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"fetched":       res.Fetched,
			"added":         res.Added,
			"total":         res.Total,
			"scanned_pages": maxPages,
			"cutoff":        res.CutoffUsed,
		})
	}
}

// SyncRangeNews backfills a historical date range (inclusive) of people
// movements. `from` is required; `to` defaults to today. Invalid dates are
// the one user-visible failure and return 400.
func SyncRangeNews(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := queryDate(r, "from")
		if err != nil || from == nil {
			writeError(w, http.StatusBadRequest, "invalid from/to date")
			return
		}
		to, err := queryDate(r, "to")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from/to date")
			return
		}
		if to == nil {
			now := time.Now().UTC()
			d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			to = &d
		}
		end := to.AddDate(0, 0, 1) // inclusive upper day

		maxPages := queryInt(r, "max_pages", 600, 1, 5000)
		startPage := queryInt(r, "start_page", 1, 1, 10000)

		res, err := svc.SyncRange(r.Context(), *from, end, maxPages, startPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"fetched":       res.Fetched,
			"considered":    res.Considered,
			"added":         res.Added,
			"total":         res.Total,
			"from":          from.Format("2006-01-02"),
			"to":            to.Format("2006-01-02"),
			"scanned_pages": maxPages,
		})
	}
}

// AutoSyncNow runs one catch-up sync cycle on demand.
func AutoSyncNow(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		backstopDays := queryInt(r, "backstop_days", 14, 1, 120)
		maxPages := queryInt(r, "max_pages", 12, 1, 40)
		startPage := queryInt(r, "start_page", 1, 1, 10000)

		res, err := svc.SyncOnce(r.Context(), backstopDays, maxPages, startPage)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AutoSyncStatus reports the newest stored movement and the row count.
func AutoSyncStatus(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.Status(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// RebuildFundingCache fetches the funding feeds and replaces the cache
// snapshot. On failure the previous snapshot stays in place.
func RebuildFundingCache(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := svc.RebuildFundingCache(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "items": n})
	}
}

// PurgeNegatives deletes stored movements that no longer pass the
// positive-movement filter.
func PurgeNegatives(svc *news.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := svc.PurgeNegatives(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}
