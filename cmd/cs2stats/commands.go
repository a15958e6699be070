package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Ar7340/CS2-Player-States/api"
	"github.com/Ar7340/CS2-Player-States/console"
	"github.com/Ar7340/CS2-Player-States/models"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drain the pending queue once and exit",
	Long: `Runs one full pass over the pending queue in the foreground. The first
SIGINT requests a cooperative stop: the in-flight player finishes and its
result is written before the loop exits. A second SIGINT aborts
immediately and the in-flight player returns to pending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner := newRunner(st)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sig)
		go func() {
			<-sig
			slog.Info("stop requested, in-flight player will finish first")
			runner.Stop()
			<-sig
			slog.Warn("second signal, aborting")
			cancel()
		}()

		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive operator console",
	Long: `Opens the interactive console on stdin. When the HTTP API is enabled in
the configuration it is served in the background of the same process, so
console and API share one runner and one database handle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner := newRunner(st)

		var srv *http.Server
		if cfg.Server.Enabled {
			srv = &http.Server{
				Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler: api.NewRouter(st, runner, cfg, time.Now()),
			}
			go func() {
				slog.Info("HTTP server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server error", "error", err)
				}
			}()
		}

		err = console.New(st, runner, os.Stdin).Run(cmd.Context())

		if runner.Status().Running {
			pterm.Warning.Println("a run is still active, requesting stop before exit")
			runner.Stop()
		}
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
				slog.Error("HTTP server forced shutdown", "error", shutdownErr)
			}
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the admin HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		runner := newRunner(st)
		startTime := time.Now()

		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		srv := &http.Server{
			Addr:    addr,
			Handler: api.NewRouter(st, runner, cfg, startTime),
		}

		go func() {
			slog.Info("HTTP server listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server error", "error", err)
				os.Exit(1)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		slog.Info("shutdown signal received", "signal", s.String())

		// A run started over the API survives as long as the process;
		// request a stop so the in-flight player gets its terminal write.
		if runner.Stop() {
			slog.Info("active run stopping")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server forced shutdown", "error", err)
		} else {
			slog.Info("HTTP server drained gracefully")
		}

		slog.Info("cs2stats stopped")
		return nil
	},
}

var addPriority int

var addCmd = &cobra.Command{
	Use:   "add <steam_id>",
	Short: "Queue a player for the next run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Enqueue(cmd.Context(), args[0], addPriority); err != nil {
			return err
		}
		pterm.Success.Printfln("queued %s with priority %d", args[0], addPriority)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [steam_id]",
	Short: "Show the queue summary, or one player's stat record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if len(args) == 1 {
			return printPlayerStats(cmd.Context(), st, args[0])
		}

		sum, err := st.Summary(cmd.Context())
		if err != nil {
			return err
		}
		table := pterm.TableData{
			{"STATUS", "PLAYERS"},
			{"pending", strconv.Itoa(sum.Pending)},
			{"processing", strconv.Itoa(sum.Processing)},
			{"completed", strconv.Itoa(sum.Completed)},
			{"failed", strconv.Itoa(sum.Failed)},
			{"total", strconv.Itoa(sum.Total)},
		}
		if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(table).Render(); err != nil {
			return err
		}
		pterm.Printfln("stat records: %d stored (%d succeeded, %d failed)",
			sum.StatsStored, sum.StatsSucceeded, sum.StatsFailed)
		return nil
	},
}

var resetCompleted bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Move failed players back to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.ResetFailed(cmd.Context())
		if err != nil {
			return err
		}
		pterm.Success.Printfln("%d failed players moved back to pending", n)

		if resetCompleted {
			n, err = st.ResetCompleted(cmd.Context())
			if err != nil {
				return err
			}
			pterm.Success.Printfln("%d completed players moved back to pending", n)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", 0, "queue priority, higher first")
	resetCmd.Flags().BoolVar(&resetCompleted, "completed", false, "also reset completed players for a full re-scrape")
}

func printReport(report *models.RunReport) {
	line := fmt.Sprintf("processed=%d succeeded=%d failed=%d batches=%d in %s",
		report.Processed, report.Succeeded, report.Failed, report.Batches,
		report.Elapsed.Round(time.Millisecond))
	if report.Completed {
		pterm.Success.Printfln("run completed: %s", line)
	} else {
		pterm.Warning.Printfln("run stopped early: %s", line)
	}
}

func printPlayerStats(ctx context.Context, st statGetter, steamID string) error {
	rec, err := st.GetStat(ctx, steamID)
	if err != nil {
		return err
	}
	if rec == nil {
		pterm.Warning.Printfln("no stat record for %s, queue it with 'cs2stats add %s'", steamID, steamID)
		return nil
	}

	pterm.Printfln("%s (%s)", rec.PlayerName, rec.SteamID)
	pterm.Printfln("profile: %s", rec.ProfileURL)
	pterm.Printfln("last attempt: %s", rec.LastAttemptAt.Format(time.RFC3339))
	if !rec.Success {
		pterm.Error.Printfln("last attempt failed: %s", rec.ErrorMessage)
	}

	rows := pterm.TableData{{"METRIC", "VALUE"}}
	addInt := func(label string, v *int) {
		if v != nil {
			rows = append(rows, []string{label, strconv.Itoa(*v)})
		}
	}
	addInt("kills", rec.Fields.Kills)
	addInt("deaths", rec.Fields.Deaths)
	addInt("assists", rec.Fields.Assists)
	addInt("headshots", rec.Fields.Headshots)
	addInt("matches played", rec.Fields.MatchesPlayed)
	addInt("matches won", rec.Fields.MatchesWon)
	addInt("matches lost", rec.Fields.MatchesLost)
	addInt("matches tied", rec.Fields.MatchesTied)
	addInt("rounds played", rec.Fields.RoundsPlayed)
	addInt("total damage", rec.Fields.TotalDamage)
	addInt("adr", rec.Fields.ADR)
	if rec.Fields.KDRatio != nil {
		rows = append(rows, []string{"k/d ratio", strconv.FormatFloat(*rec.Fields.KDRatio, 'f', 2, 64)})
	}
	if rec.Fields.HLTVRating != nil {
		rows = append(rows, []string{"hltv rating", strconv.FormatFloat(*rec.Fields.HLTVRating, 'f', 2, 64)})
	}
	addString := func(label string, v *string) {
		if v != nil {
			rows = append(rows, []string{label, *v})
		}
	}
	addString("win rate", rec.Fields.WinRate)
	addString("headshot %", rec.Fields.HeadshotPercent)
	addString("clutch success", rec.Fields.ClutchSuccess)
	addString("entry success", rec.Fields.EntrySuccess)

	if len(rows) == 1 {
		pterm.Println("no metrics extracted")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(rows).Render()
}

// statGetter narrows the store to what printPlayerStats needs.
type statGetter interface {
	GetStat(ctx context.Context, steamID string) (*models.StatRecord, error)
}
