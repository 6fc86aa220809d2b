package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adityamenon/newsdesk/internal/api/handlers"
	"github.com/adityamenon/newsdesk/internal/news"
	"github.com/adityamenon/newsdesk/internal/storage"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(store *storage.Store, svc *news.Service) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	r.Route("/api", func(api chi.Router) {
		api.Route("/news", func(n chi.Router) {
			n.Get("/table", handlers.NewsTable(svc))
			n.Get("/sync", handlers.SyncNews(svc))
			n.Get("/sync_range", handlers.SyncRangeNews(svc))
			n.Post("/auto_sync_now", handlers.AutoSyncNow(svc))
			n.Get("/auto_sync_status", handlers.AutoSyncStatus(svc))
			n.Post("/funding_cache/rebuild", handlers.RebuildFundingCache(svc))
			n.Post("/purge_negatives", handlers.PurgeNegatives(svc))
		})

		api.Route("/overrides", func(o chi.Router) {
			o.Post("/upsert", handlers.UpsertOverride(store))
			o.Get("/one", handlers.GetOverride(store))
			o.Get("/all", handlers.ListOverrides(store))
			o.Delete("/one", handlers.DeleteOverride(store))
		})

		api.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok":true}`))
		})
	})

	return r
}
