// Package console implements the interactive operator console. It reads
// commands from stdin line by line and drives the runner and the store,
// rendering results as pterm tables. The console shares its process with
// the runner, so `start` is non-blocking and `stats` can watch a run that
// is still going.
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/Ar7340/CS2-Player-States/orchestrator"
	"github.com/Ar7340/CS2-Player-States/store"
)

const helpText = `commands:
  start      begin a queue run in the background
  stop       request a cooperative stop (in-flight player finishes)
  stats      queue and stat-store summary
  reset      move failed players back to pending
  logs [n]   show the n most recent execution log rows (default 20)
  exit       leave the console`

// Console is the interactive shell around a runner and its store.
type Console struct {
	store  *store.Store
	runner *orchestrator.Runner
	in     io.Reader
}

// New builds a console reading from the given input stream, normally
// os.Stdin.
func New(st *store.Store, runner *orchestrator.Runner, in io.Reader) *Console {
	return &Console{store: st, runner: runner, in: in}
}

// Run blocks reading commands until `exit`, end of input, or a cancelled
// context. Scanner.Scan cannot be interrupted mid-read, so cancellation
// takes effect between commands.
func (c *Console) Run(ctx context.Context) error {
	pterm.Info.Println("cs2stats console, type 'help' for commands")

	scanner := bufio.NewScanner(c.in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pterm.Print("cs2stats> ")
		if !scanner.Scan() {
			pterm.Println()
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "start":
			c.cmdStart(ctx)
		case "stop":
			c.cmdStop()
		case "stats":
			c.cmdStats(ctx)
		case "reset":
			c.cmdReset(ctx)
		case "logs":
			c.cmdLogs(ctx, fields[1:])
		case "exit", "quit":
			return nil
		case "help":
			pterm.Println(helpText)
		default:
			pterm.Warning.Printfln("unknown command %q", fields[0])
			pterm.Println(helpText)
		}
	}
}

func (c *Console) cmdStart(ctx context.Context) {
	if err := c.runner.Start(ctx); err != nil {
		if errors.Is(err, orchestrator.ErrAlreadyRunning) {
			pterm.Warning.Println("a run is already in progress")
			return
		}
		pterm.Error.Printfln("start failed: %v", err)
		return
	}
	pterm.Success.Println("run started in the background, use 'stats' to watch it")
}

func (c *Console) cmdStop() {
	if c.runner.Stop() {
		pterm.Info.Println("stop requested, the in-flight player will finish first")
		return
	}
	pterm.Warning.Println("no run in progress")
}

func (c *Console) cmdStats(ctx context.Context) {
	sum, err := c.store.Summary(ctx)
	if err != nil {
		pterm.Error.Printfln("summary failed: %v", err)
		return
	}

	queueTable := pterm.TableData{
		{"STATUS", "PLAYERS"},
		{"pending", strconv.Itoa(sum.Pending)},
		{"processing", strconv.Itoa(sum.Processing)},
		{"completed", strconv.Itoa(sum.Completed)},
		{"failed", strconv.Itoa(sum.Failed)},
		{"total", strconv.Itoa(sum.Total)},
	}
	if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(queueTable).Render(); err != nil {
		pterm.Error.Printfln("render failed: %v", err)
		return
	}

	pterm.Printfln("stat records: %d stored (%d succeeded, %d failed)",
		sum.StatsStored, sum.StatsSucceeded, sum.StatsFailed)
	if sum.LastActivity != nil {
		pterm.Printfln("last activity: %s", sum.LastActivity.Format(time.RFC3339))
	}

	rs := c.runner.Status()
	switch {
	case rs.Running:
		since := ""
		if rs.StartedAt != nil {
			since = " since " + rs.StartedAt.Format("15:04:05")
		}
		pterm.Info.Printfln("run active%s: processed=%d succeeded=%d failed=%d",
			since, rs.Processed, rs.Succeeded, rs.Failed)
	case rs.LastRun != nil:
		outcome := "completed"
		if !rs.LastRun.Completed {
			outcome = "cancelled"
		}
		pterm.Printfln("last run %s: processed=%d succeeded=%d failed=%d batches=%d in %s",
			outcome, rs.LastRun.Processed, rs.LastRun.Succeeded, rs.LastRun.Failed,
			rs.LastRun.Batches, rs.LastRun.Elapsed.Round(time.Millisecond))
	default:
		pterm.Println("no run yet")
	}
}

func (c *Console) cmdReset(ctx context.Context) {
	n, err := c.store.ResetFailed(ctx)
	if err != nil {
		pterm.Error.Printfln("reset failed: %v", err)
		return
	}
	pterm.Success.Printfln("%d failed players moved back to pending", n)
}

func (c *Console) cmdLogs(ctx context.Context, args []string) {
	limit := 20
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			pterm.Warning.Println("logs takes a positive number, e.g. 'logs 50'")
			return
		}
		limit = n
	}

	entries, err := c.store.RecentLogs(ctx, limit)
	if err != nil {
		pterm.Error.Printfln("reading logs failed: %v", err)
		return
	}
	if len(entries) == 0 {
		pterm.Println("execution log is empty")
		return
	}

	table := pterm.TableData{{"TIME", "STEAM ID", "PHASE", "FIELDS", "MS", "MESSAGE"}}
	for _, e := range entries {
		table = append(table, []string{
			e.CreatedAt.Format("01-02 15:04:05"),
			e.SteamID,
			e.Phase,
			strconv.Itoa(e.FieldsExtracted),
			strconv.FormatInt(e.DurationMs, 10),
			e.Message,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(table).Render(); err != nil {
		pterm.Error.Printfln("render failed: %v", err)
	}
}
