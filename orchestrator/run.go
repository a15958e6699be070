package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/Ar7340/CS2-Player-States/extractor"
	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/scraper"
)

type itemOutcome int

const (
	itemSucceeded itemOutcome = iota
	itemFailed
	itemSkipped
)

// run is the batch loop.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Recover stale rows   – processing → pending from a crashed run
//  2. Rendering session    – created once, released exactly once
//  3. Pacing               – token bucket, one fetch per ItemDelay
//  4. Batch loop           – claim a batch, process items, short breather,
//     repeat until zero pending or cancelled
//
// One item's scrape failure never aborts the run; only infrastructure
// faults outside item scope (store unreachable, browser cannot start) do.
// Cancellation is checked after every pacing wait, so a stop request takes
// effect before the next fetch, and the in-flight item always reaches a
// terminal state.
func (r *Runner) run(ctx context.Context) (*models.RunReport, error) {
	start := time.Now()
	report := &models.RunReport{}
	defer func() {
		report.Elapsed = time.Since(start)
		report.ElapsedMs = report.Elapsed.Milliseconds()
	}()

	// ── 1. Recover stale processing rows ──────────────────────────────
	recovered, err := r.queue.RecoverStale(ctx)
	if err != nil {
		return report, fmt.Errorf("recover stale players: %w", err)
	}
	if recovered > 0 {
		slog.Warn("recovered stale processing players", "count", recovered)
	}

	// ── 2. Create the rendering session ───────────────────────────────
	fetcher, err := r.factory()
	if err != nil {
		return report, fmt.Errorf("create rendering client: %w", err)
	}
	defer func() {
		if closeErr := fetcher.Close(); closeErr != nil {
			slog.Warn("rendering client close failed", "error", closeErr)
		}
	}()

	// ── 3. Inter-item pacing ──────────────────────────────────────────
	// Burst 1: the first fetch is immediate, every later one waits out
	// the full ItemDelay.
	limiter := rate.NewLimiter(rate.Every(r.queueCfg.ItemDelay), 1)

	// ── 4. Batch loop ─────────────────────────────────────────────────
	for {
		if r.cancelled(ctx) {
			slog.Info("run cancelled", "processed", report.Processed)
			return report, nil
		}

		players, err := r.queue.ListPending(ctx, r.queueCfg.BatchSize)
		if err != nil {
			return report, fmt.Errorf("list pending players: %w", err)
		}
		if len(players) == 0 {
			report.Completed = true
			break
		}
		report.Batches++
		slog.Info("batch started", "batch", report.Batches, "size", len(players))

		for _, player := range players {
			if err := limiter.Wait(ctx); err != nil {
				slog.Info("run cancelled during pacing wait", "processed", report.Processed)
				return report, nil
			}
			if r.cancelled(ctx) {
				slog.Info("run cancelled", "processed", report.Processed)
				return report, nil
			}

			outcome, itemErr := r.processItem(ctx, fetcher, player)
			if itemErr != nil {
				return report, itemErr
			}
			switch outcome {
			case itemSucceeded:
				report.Processed++
				report.Succeeded++
				r.liveProcessed.Add(1)
				r.liveSucceeded.Add(1)
			case itemFailed:
				report.Processed++
				report.Failed++
				r.liveProcessed.Add(1)
				r.liveFailed.Add(1)
			}
		}

		if !r.sleep(ctx, r.queueCfg.BatchDelay) {
			slog.Info("run cancelled between batches", "processed", report.Processed)
			return report, nil
		}
	}

	slog.Info("run finished",
		"processed", report.Processed,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"batches", report.Batches,
	)
	return report, nil
}

// processItem runs the per-item procedure: open a log row, claim the
// player, fetch, extract, persist, terminal log. The returned error is an
// infrastructure fault that aborts the whole run; scrape failures are
// absorbed into the itemFailed outcome.
func (r *Runner) processItem(ctx context.Context, fetcher Fetcher, player models.Player) (itemOutcome, error) {
	started := time.Now()
	// Terminal writes must land even when the run context is cancelled
	// mid-item; otherwise a player could be stranded in processing.
	wctx := context.WithoutCancel(ctx)

	// ── 1. Open the log row and claim the player ──────────────────────
	logID, err := r.log.LogStart(wctx, player.SteamID)
	if err != nil {
		return itemSkipped, fmt.Errorf("log start for %s: %w", player.SteamID, err)
	}
	if err := r.queue.SetStatus(wctx, player.SteamID, models.StatusProcessing); err != nil {
		return itemSkipped, fmt.Errorf("claim %s: %w", player.SteamID, err)
	}

	slog.Info("scraping player", "steamID", player.SteamID, "priority", player.Priority)

	// ── 2. Fetch the rendered page ────────────────────────────────────
	page, fetchErr := fetcher.FetchPlayer(ctx, player.SteamID)
	if fetchErr != nil {
		if ctx.Err() != nil {
			// Cancelled mid-fetch: back to pending so the next run
			// retries; the log row still reaches a terminal phase.
			r.revertItem(wctx, player.SteamID, logID, started)
			return itemSkipped, nil
		}
		r.failItem(wctx, player, logID, started, nil, fetchErr)
		return itemFailed, nil
	}

	// ── 3. Extract stats from the snapshot ────────────────────────────
	snap, snapErr := extractor.NewSnapshot(page.HTML, page.Title, page.FinalURL, r.scrapeCfg.ContainerSelector)
	if snapErr != nil {
		r.failItem(wctx, player, logID, started, page, snapErr)
		return itemFailed, nil
	}
	out, exErr := r.ex.Extract(snap)
	if exErr != nil {
		r.failItem(wctx, player, logID, started, page, exErr)
		return itemFailed, nil
	}

	// ── 4. Persist: stat upsert, then status, then terminal log ──────
	rec := &models.StatRecord{
		SteamID:       player.SteamID,
		PlayerName:    out.PlayerName,
		ProfileURL:    page.FinalURL,
		Fields:        out.Fields,
		LastAttemptAt: time.Now(),
		Success:       true,
	}
	if err := r.stats.UpsertStatSuccess(wctx, rec); err != nil {
		slog.Error("stat upsert failed", "steamID", player.SteamID, "error", err)
	}
	if err := r.queue.SetStatus(wctx, player.SteamID, models.StatusCompleted); err != nil {
		slog.Error("status update failed", "steamID", player.SteamID, "error", err)
	}
	fieldCount := out.Fields.Count()
	if err := r.log.LogSuccess(wctx, logID, time.Since(started).Milliseconds(), fieldCount); err != nil {
		slog.Error("log update failed", "steamID", player.SteamID, "error", err)
	}

	slog.Info("player scraped",
		"steamID", player.SteamID,
		"player", out.PlayerName,
		"fields", fieldCount,
		"method", page.FetchMethod,
		"durationMs", time.Since(started).Milliseconds(),
	)
	return itemSucceeded, nil
}

// failItem records a scrape failure: failure upsert (last good metrics
// survive), status failed, terminal log row, optional page dump.
func (r *Runner) failItem(ctx context.Context, player models.Player, logID int64, started time.Time, page *scraper.PageResult, cause error) {
	msg := cause.Error()
	profileURL := fmt.Sprintf(r.scrapeCfg.ProfileURLPattern, url.PathEscape(player.SteamID))
	if page != nil && page.FinalURL != "" {
		profileURL = page.FinalURL
	}

	if err := r.stats.UpsertStatFailure(ctx, player.SteamID, "", profileURL, msg); err != nil {
		slog.Error("failure upsert failed", "steamID", player.SteamID, "error", err)
	}
	if err := r.queue.SetStatus(ctx, player.SteamID, models.StatusFailed); err != nil {
		slog.Error("status update failed", "steamID", player.SteamID, "error", err)
	}
	if err := r.log.LogFailure(ctx, logID, time.Since(started).Milliseconds(), msg); err != nil {
		slog.Error("log update failed", "steamID", player.SteamID, "error", err)
	}
	if r.dump != nil && page != nil {
		r.dump.DumpFailure(player.SteamID, page, cause)
	}
	slog.Warn("player scrape failed",
		"steamID", player.SteamID,
		"code", models.ErrorCode(cause),
		"error", msg,
	)
}

// revertItem returns a player interrupted mid-fetch to the pending state.
func (r *Runner) revertItem(ctx context.Context, steamID string, logID int64, started time.Time) {
	if err := r.queue.SetStatus(ctx, steamID, models.StatusPending); err != nil {
		slog.Error("revert to pending failed", "steamID", steamID, "error", err)
	}
	if err := r.log.LogFailure(ctx, logID, time.Since(started).Milliseconds(), "fetch canceled"); err != nil {
		slog.Error("log update failed", "steamID", steamID, "error", err)
	}
	slog.Info("run cancelled mid-fetch; player returned to queue", "steamID", steamID)
}

// sleep waits for d unless the context ends first.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
