package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Ar7340/CS2-Player-States/config"
	"github.com/Ar7340/CS2-Player-States/dump"
	"github.com/Ar7340/CS2-Player-States/models"
	"github.com/Ar7340/CS2-Player-States/orchestrator"
	"github.com/Ar7340/CS2-Player-States/scraper"
	"github.com/Ar7340/CS2-Player-States/store"
	"github.com/Ar7340/CS2-Player-States/webhook"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cs2stats",
	Short: "Batch scraper for per-player CS2 statistics",
	Long: `cs2stats drains a queue of Steam IDs, renders each player's stats page
in a headless browser and stores the extracted metrics in SQLite.

Configuration comes from environment variables (CS2STATS_*), with a .env
file in the working directory loaded first when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		initLogger(cfg.Log)
		return cfg.Validate()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}

// initLogger configures slog based on the LogConfig. With a file target the
// sink rotates via lumberjack; otherwise everything goes to stdout.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// openStore opens the SQLite database named in the configuration.
func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.Path, cfg.Store.BusyTimeoutMs)
}

// newRunner assembles the orchestrator around the store. The fetcher
// factory defers browser startup to the first run, so commands that never
// scrape (add, stats, reset) never launch Chrome.
func newRunner(st *store.Store) *orchestrator.Runner {
	factory := func() (orchestrator.Fetcher, error) {
		switch cfg.Scrape.FetchMode {
		case "http":
			return scraper.NewHTTPFetcher(cfg.Browser, cfg.Scrape), nil
		case "auto":
			return scraper.NewAutoFetcher(cfg.Browser, cfg.Scrape), nil
		default:
			return scraper.NewScraper(cfg.Browser, cfg.Scrape)
		}
	}

	runner := orchestrator.NewRunner(st, st, st, factory, cfg.Queue, cfg.Scrape)

	if cfg.Dump.Dir != "" {
		w, err := dump.NewWriter(cfg.Dump.Dir)
		if err != nil {
			slog.Warn("failure dumps disabled", "error", err)
		} else {
			runner.SetDumper(w)
		}
	}

	if cfg.Webhook.URL != "" {
		notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
		runner.SetReportHook(func(report *models.RunReport) {
			notifier.DeliverAsync(webhook.NewRunEvent(report))
		})
	}

	return runner
}
