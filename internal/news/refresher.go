package news

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher runs the two background schedules: a weekly funding-cache
// rebuild anchored to a fixed UTC time, and a periodic people catch-up
// sync. A failed cycle is logged and the loop continues; Stop cancels
// in-flight work and waits for both loops to exit.
type Refresher struct {
	svc    *Service
	logger *slog.Logger

	mu     sync.Mutex // guards cancel across Start/Stop callers
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher creates a refresher around the service. Config comes
// from the service itself.
func NewRefresher(svc *Service, logger *slog.Logger) *Refresher {
	return &Refresher{svc: svc, logger: logger}
}

// Start launches the enabled loops. Calling Start twice is a no-op
// until Stop is called.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if r.svc.fundingCfg.CacheEnabled {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.fundingLoop(ctx)
		}()
	}
	if r.svc.peopleCfg.SyncEnabled {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.peopleLoop(ctx)
		}()
	}
}

// Stop cancels both loops and waits for them to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
	r.cancel = nil
}

// fundingLoop rebuilds the funding cache on start (when configured) and
// then at the weekly anchor time.
func (r *Refresher) fundingLoop(ctx context.Context) {
	cfg := r.svc.fundingCfg

	if cfg.WarmOnStart {
		if n, err := r.svc.RebuildFundingCache(ctx); err != nil {
			r.logger.Error("funding cache warm-up failed", "error", err)
		} else {
			r.logger.Info("funding cache warmed", "items", n)
		}
	}

	for {
		wait := untilNextWeeklyAnchor(time.Now().UTC(), time.Monday, cfg.RefreshUTCHour, cfg.RefreshUTCMinute)
		r.logger.Info("funding cache refresh scheduled", "in", wait.Round(time.Second))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			r.logger.Info("funding refresh loop stopped")
			return
		}

		if n, err := r.svc.RebuildFundingCache(ctx); err != nil {
			// Keep the previous snapshot; try again next week.
			r.logger.Error("funding cache rebuild failed", "error", err)
		} else {
			r.logger.Info("funding cache rebuilt", "items", n)
		}
	}
}

// peopleLoop optionally backfills a trailing window once, then runs a
// catch-up sync on the configured interval.
func (r *Refresher) peopleLoop(ctx context.Context) {
	cfg := r.svc.peopleCfg

	if cfg.BackfillOnStart {
		now := time.Now().UTC()
		start := now.AddDate(0, 0, -cfg.BackfillDays)
		end := now.AddDate(0, 0, 1)
		if res, err := r.svc.SyncRange(ctx, start, end, cfg.BackfillMaxPages, 1); err != nil {
			r.logger.Error("people backfill on start failed", "error", err)
		} else {
			r.logger.Info("people backfill on start done",
				"days", cfg.BackfillDays,
				"fetched", res.Fetched,
				"added", res.Added,
			)
		}
	}

	interval := time.Duration(cfg.SyncIntervalMinutes) * time.Minute
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}

	for {
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			r.logger.Info("people sync loop stopped")
			return
		}

		if res, err := r.svc.SyncOnce(ctx, cfg.BackstopDays, cfg.SyncMaxPages, 1); err != nil {
			r.logger.Error("people auto-sync failed", "error", err)
		} else {
			r.logger.Info("people auto-sync done",
				"fetched", res.Fetched,
				"added", res.Added,
				"total", res.Total,
			)
		}
	}
}

// untilNextWeeklyAnchor returns the duration from now until the next
// occurrence of weekday at hour:minute UTC, always strictly in the
// future.
func untilNextWeeklyAnchor(now time.Time, weekday time.Weekday, hour, minute int) time.Duration {
	now = now.UTC()
	anchor := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7
	anchor = anchor.AddDate(0, 0, daysAhead)
	if !anchor.After(now) {
		anchor = anchor.AddDate(0, 0, 7)
	}
	return anchor.Sub(now)
}
