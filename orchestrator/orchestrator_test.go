package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/scraper"
	"github.com/Ar7340/CS2-Player-States/store"
)

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]*scraper.PageResult
	errs    map[string]error
	calls   []string
	closed  int
	block   chan struct{} // when set, FetchPlayer waits for it or ctx
	onFetch func()
}

func (f *fakeFetcher) FetchPlayer(ctx context.Context, steamID string) (*scraper.PageResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, steamID)
	onFetch := f.onFetch
	block := f.block
	f.mu.Unlock()

	if onFetch != nil {
		onFetch()
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[steamID]; ok {
		return nil, err
	}
	if page, ok := f.pages[steamID]; ok {
		return page, nil
	}
	return nil, models.NewScrapeError(models.ErrCodeTransport, "no fixture for "+steamID, nil)
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeFetcher) fetchCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeDumper struct {
	mu    sync.Mutex
	calls []string
}

func (d *fakeDumper) DumpFailure(steamID string, _ *scraper.PageResult, _ error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, steamID)
}

func statsPage(name string, kills int) *scraper.PageResult {
	return &scraper.PageResult{
		HTML: fmt.Sprintf(`<html><head><title>%s | CS2 Stats</title></head><body><h1>%s</h1><div><span>Kills</span><span>%d</span></div></body></html>`,
			name, name, kills),
		Title:       name + " | CS2 Stats",
		StatusCode:  200,
		FinalURL:    "https://csstats.gg/player/" + name,
		FetchMethod: scraper.FetchMethodBrowser,
	}
}

func newTestRunner(t *testing.T, f Fetcher) (*Runner, *store.Store) {
	t.Helper()
	s := store.OpenMemory(t)
	factory := func() (Fetcher, error) { return f, nil }
	r := NewRunner(s, s, s, factory,
		config.QueueConfig{BatchSize: 2},
		config.ScrapeConfig{ProfileURLPattern: "https://csstats.gg/player/%s", FetchTimeout: 5 * time.Second},
	)
	return r, s
}

func TestRunDrainsQueueInPriorityOrder(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*scraper.PageResult{
		"100": statsPage("alpha", 10),
		"200": statsPage("bravo", 20),
		"300": statsPage("charlie", 30),
	}}
	r, s := newTestRunner(t, f)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 5))
	require.NoError(t, s.Enqueue(ctx, "200", 1))
	require.NoError(t, s.Enqueue(ctx, "300", 9))

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Batches)
	assert.True(t, report.Completed)

	assert.Equal(t, []string{"300", "100", "200"}, f.fetchCalls())
	assert.Equal(t, 1, f.closed)

	for _, id := range []string{"100", "200", "300"} {
		p, err := s.GetPlayer(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, models.StatusCompleted, p.Status)
	}

	rec, err := s.GetStat(ctx, "300")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Success)
	assert.Equal(t, "charlie", rec.PlayerName)
	require.NotNil(t, rec.Fields.Kills)
	assert.Equal(t, 30, *rec.Fields.Kills)

	logs, err := s.RecentLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for _, entry := range logs {
		assert.Equal(t, models.PhaseSuccess, entry.Phase)
	}
}

func TestRunIsolatesItemFailure(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]*scraper.PageResult{
			"100": statsPage("alpha", 10),
			"300": statsPage("charlie", 30),
		},
		errs: map[string]error{
			"200": models.NewScrapeError(models.ErrCodeTransport, "profile request returned HTTP 503", nil),
		},
	}
	r, s := newTestRunner(t, f)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 3))
	require.NoError(t, s.Enqueue(ctx, "200", 2))
	require.NoError(t, s.Enqueue(ctx, "300", 1))

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, report.Completed)

	p, err := s.GetPlayer(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, p.Status)

	rec, err := s.GetStat(ctx, "200")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Success)
	assert.Contains(t, rec.ErrorMessage, "TRANSPORT_ERROR")
	assert.Nil(t, rec.Fields.Kills)

	for _, id := range []string{"100", "300"} {
		p, err := s.GetPlayer(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, p.Status)
	}
}

func TestRunNoDataFailureDumpsPage(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*scraper.PageResult{
		"100": {
			HTML:        `<html><body><p>This profile is private.</p></body></html>`,
			Title:       "Private",
			StatusCode:  200,
			FinalURL:    "https://csstats.gg/player/100",
			FetchMethod: scraper.FetchMethodBrowser,
		},
	}}
	r, s := newTestRunner(t, f)
	d := &fakeDumper{}
	r.SetDumper(d)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 0))

	report, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	rec, err := s.GetStat(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Contains(t, rec.ErrorMessage, "NO_DATA_FOUND")

	logs, err := s.RecentLogs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PhaseFailed, logs[0].Phase)

	assert.Equal(t, []string{"100"}, d.calls)
}

func TestRunCooperativeStopFinishesInFlightItem(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*scraper.PageResult{
		"100": statsPage("alpha", 10),
		"200": statsPage("bravo", 20),
	}}
	r, s := newTestRunner(t, f)
	f.onFetch = func() { r.Stop() }
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 2))
	require.NoError(t, s.Enqueue(ctx, "200", 1))

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Succeeded)
	assert.False(t, report.Completed)
	assert.Equal(t, []string{"100"}, f.fetchCalls())

	p, err := s.GetPlayer(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)

	p, err = s.GetPlayer(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
}

func TestRunHardCancelRevertsInFlightItem(t *testing.T) {
	f := &fakeFetcher{block: make(chan struct{})}
	r, s := newTestRunner(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Enqueue(ctx, "100", 0))

	fetchStarted := make(chan struct{})
	f.onFetch = func() { close(fetchStarted) }
	go func() {
		<-fetchStarted
		cancel()
	}()

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Processed)
	assert.False(t, report.Completed)

	p, err := s.GetPlayer(context.Background(), "100")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, models.StatusPending, p.Status)

	logs, err := s.RecentLogs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PhaseFailed, logs[0].Phase)
	assert.Equal(t, "fetch canceled", logs[0].Message)

	assert.Equal(t, 1, f.closed)
}

func TestRunRecoversStaleProcessingRows(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*scraper.PageResult{
		"100": statsPage("alpha", 10),
	}}
	r, s := newTestRunner(t, f)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 0))
	require.NoError(t, s.SetStatus(ctx, "100", models.StatusProcessing))

	report, err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.True(t, report.Completed)

	p, err := s.GetPlayer(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
}

func TestRunAbortsWhenFetcherCannotStart(t *testing.T) {
	s := store.OpenMemory(t)
	factory := func() (Fetcher, error) { return nil, errors.New("chrome not found") }
	r := NewRunner(s, s, s, factory,
		config.QueueConfig{BatchSize: 2},
		config.ScrapeConfig{ProfileURLPattern: "https://csstats.gg/player/%s"},
	)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 0))

	report, err := r.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rendering client")
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Processed)

	p, err := s.GetPlayer(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, p.Status)
}

func TestStartStopAndStatus(t *testing.T) {
	f := &fakeFetcher{
		block: make(chan struct{}),
		pages: map[string]*scraper.PageResult{"100": statsPage("alpha", 10)},
	}
	r, s := newTestRunner(t, f)
	ctx := context.Background()

	require.NoError(t, s.Enqueue(ctx, "100", 0))
	require.NoError(t, r.Start(ctx))

	require.ErrorIs(t, r.Start(ctx), ErrAlreadyRunning)
	_, err := r.Run(ctx)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	st := r.Status()
	assert.True(t, st.Running)
	require.NotNil(t, st.StartedAt)

	assert.True(t, r.Stop())
	close(f.block)

	require.Eventually(t, func() bool { return !r.Status().Running }, 2*time.Second, 10*time.Millisecond)

	st = r.Status()
	require.NotNil(t, st.LastRun)
	assert.Equal(t, 1, st.LastRun.Processed)
	assert.False(t, st.LastRun.Completed)

	assert.False(t, r.Stop())
}
