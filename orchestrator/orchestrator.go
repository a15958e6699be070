// Package orchestrator drives the scrape queue. A strictly sequential
// worker claims pending players in priority order, renders and extracts
// each profile, persists the outcome, and paces itself between requests.
// The runner is drivable concurrently from the console, the admin API and
// the MCP server: one run at a time, cooperative stop, live status.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/extractor"
	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/scraper"
)

// ErrAlreadyRunning is returned by Run and Start when a run is active.
var ErrAlreadyRunning = errors.New("a run is already active")

// Queue is the slice of the store the run loop drives.
type Queue interface {
	ListPending(ctx context.Context, limit int) ([]models.Player, error)
	SetStatus(ctx context.Context, steamID string, status models.Status) error
	RecoverStale(ctx context.Context) (int64, error)
}

// Stats persists per-player extraction results.
type Stats interface {
	UpsertStatSuccess(ctx context.Context, rec *models.StatRecord) error
	UpsertStatFailure(ctx context.Context, steamID, playerName, profileURL, errMsg string) error
}

// RunLog records one row per scrape attempt.
type RunLog interface {
	LogStart(ctx context.Context, steamID string) (int64, error)
	LogSuccess(ctx context.Context, id int64, durationMs int64, fieldsExtracted int) error
	LogFailure(ctx context.Context, id int64, durationMs int64, message string) error
}

// Fetcher renders one player profile. Both scraper modes implement it.
type Fetcher interface {
	FetchPlayer(ctx context.Context, steamID string) (*scraper.PageResult, error)
	Close() error
}

// FetcherFactory defers browser startup to the beginning of a run, so the
// Chrome process only exists while a run is active.
type FetcherFactory func() (Fetcher, error)

// Dumper writes failed pages somewhere inspectable. Optional.
type Dumper interface {
	DumpFailure(steamID string, page *scraper.PageResult, cause error)
}

// Runner owns the sequential run loop.
type Runner struct {
	queue     Queue
	stats     Stats
	log       RunLog
	factory   FetcherFactory
	ex        *extractor.Extractor
	queueCfg  config.QueueConfig
	scrapeCfg config.ScrapeConfig
	dump      Dumper
	hook      func(*models.RunReport)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	started time.Time
	last    *models.RunReport

	stop          atomic.Bool
	liveProcessed atomic.Int64
	liveSucceeded atomic.Int64
	liveFailed    atomic.Int64
}

// NewRunner wires the run loop to its stores and the rendering client
// factory.
func NewRunner(queue Queue, stats Stats, runLog RunLog, factory FetcherFactory, queueCfg config.QueueConfig, scrapeCfg config.ScrapeConfig) *Runner {
	return &Runner{
		queue:     queue,
		stats:     stats,
		log:       runLog,
		factory:   factory,
		ex:        extractor.New(),
		queueCfg:  queueCfg,
		scrapeCfg: scrapeCfg,
	}
}

// SetDumper enables failure dumps. Nil leaves them off.
func (r *Runner) SetDumper(d Dumper) { r.dump = d }

// SetReportHook registers a callback invoked with the final report after
// every run, including aborted ones. Called outside the runner mutex.
func (r *Runner) SetReportHook(fn func(*models.RunReport)) { r.hook = fn }

// RunStatus is the live view of the runner.
type RunStatus struct {
	Running   bool              `json:"running"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	Processed int               `json:"processed"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	LastRun   *models.RunReport `json:"last_run,omitempty"`
}

// Run drains the queue and blocks until the run finishes or is cancelled.
func (r *Runner) Run(ctx context.Context) (*models.RunReport, error) {
	runCtx, err := r.begin(ctx)
	if err != nil {
		return nil, err
	}
	report, runErr := r.run(runCtx)
	r.finish(report)
	return report, runErr
}

// Start launches Run in the background.
func (r *Runner) Start(ctx context.Context) error {
	runCtx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		report, runErr := r.run(runCtx)
		if runErr != nil {
			slog.Error("background run aborted", "error", runErr)
		}
		r.finish(report)
	}()
	return nil
}

// Stop requests a cooperative stop and reports whether a run was active.
// The in-flight item finishes its terminal write; the loop exits before
// taking the next item.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return false
	}
	r.stop.Store(true)
	return true
}

// Status returns the live counters of the active run, plus the report of
// the last finished one.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := RunStatus{
		Running:   r.running,
		Processed: int(r.liveProcessed.Load()),
		Succeeded: int(r.liveSucceeded.Load()),
		Failed:    int(r.liveFailed.Load()),
		LastRun:   r.last,
	}
	if r.running {
		t := r.started
		st.StartedAt = &t
	}
	return st
}

// begin claims the single run slot; the mutex makes concurrent Run/Start
// calls race-free.
func (r *Runner) begin(parent context.Context) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil, ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(parent)
	r.running = true
	r.cancel = cancel
	r.started = time.Now()
	r.stop.Store(false)
	r.liveProcessed.Store(0)
	r.liveSucceeded.Store(0)
	r.liveFailed.Store(0)
	return ctx, nil
}

func (r *Runner) finish(report *models.RunReport) {
	r.mu.Lock()
	r.running = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.last = report
	hook := r.hook
	r.mu.Unlock()

	if hook != nil && report != nil {
		hook(report)
	}
}

// cancelled reports whether the run should stop before taking another item.
func (r *Runner) cancelled(ctx context.Context) bool {
	return r.stop.Load() || ctx.Err() != nil
}
