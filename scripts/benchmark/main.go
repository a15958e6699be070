// Command benchmark measures the extraction engine offline against a
// directory of saved HTML pages, typically the failure dump directory or
// pages captured from a browser session. It reports per-file timing and
// field yield plus cross-file field coverage, so rule table changes can be
// compared without touching the live site.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Ar7340/CS2-Player-States/extractor"
	"github.com/Ar7340/CS2-Player-States/models"
)

// CLI flags
var (
	dir       = flag.String("dir", "dumps", "directory of saved .html pages")
	runs      = flag.Int("runs", 3, "number of extraction runs per file for averaging")
	output    = flag.String("output", "benchmark-results.json", "JSON output file path")
	container = flag.String("container", "", "optional CSS selector scoping extraction to a page region")
)

// fieldOrder fixes the coverage table ordering; names match the JSON tags
// of the stat fields.
var fieldOrder = []string{
	"kills", "deaths", "assists", "headshots",
	"matches_played", "matches_won", "matches_lost", "matches_tied",
	"rounds_played", "total_damage", "adr",
	"kd_ratio", "hltv_rating",
	"win_rate", "headshot_percentage", "clutch_success", "entry_success",
}

// --- Benchmark result types ---

type runResult struct {
	Run        int     `json:"run"`
	ParseMs    float64 `json:"parse_ms"`
	Fields     int     `json:"fields"`
	PlayerName string  `json:"player_name,omitempty"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

type fileAverages struct {
	ParseMs float64 `json:"parse_ms"`
	Fields  float64 `json:"fields"`
}

type fileResult struct {
	File     string        `json:"file"`
	Runs     []runResult   `json:"runs"`
	Averages *fileAverages `json:"averages,omitempty"`
	Present  []string      `json:"fields_present,omitempty"`
}

type benchmarkReport struct {
	Timestamp   string         `json:"timestamp"`
	Dir         string         `json:"dir"`
	RunsPerFile int            `json:"runs_per_file"`
	Results     []fileResult   `json:"results"`
	Coverage    map[string]int `json:"field_coverage"`
}

func main() {
	flag.Parse()

	fmt.Println("=== CS2 Stats Extraction Benchmark ===")
	fmt.Printf("Pages:     %s\n", *dir)
	fmt.Printf("Runs/file: %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	files, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: bad page directory %s: %v\n", *dir, err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no .html files under %s\n", *dir)
		fmt.Fprintf(os.Stderr, "Point --dir at the failure dump directory or a folder of saved pages\n")
		os.Exit(1)
	}
	sort.Strings(files)

	report := benchmarkReport{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Dir:         *dir,
		RunsPerFile: *runs,
		Coverage:    map[string]int{},
	}

	eng := extractor.New()

	for _, file := range files {
		name := filepath.Base(file)
		fmt.Printf("Benchmarking %s ...\n", name)
		fr := fileResult{File: name}

		raw, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("  read failed: %v\n\n", err)
			fr.Runs = append(fr.Runs, runResult{Run: 1, Error: err.Error()})
			report.Results = append(report.Results, fr)
			continue
		}

		var last *extractor.Extraction
		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr, ext := benchmarkFile(eng, string(raw), i)
			if rr.Success {
				fmt.Printf("OK  %.1fms  %d fields\n", rr.ParseMs, rr.Fields)
				last = ext
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			fr.Runs = append(fr.Runs, rr)
		}

		fr.Averages = computeAverages(fr.Runs)
		if last != nil {
			fr.Present = presentFields(&last.Fields)
			for _, f := range fr.Present {
				report.Coverage[f]++
			}
		}
		report.Results = append(report.Results, fr)
		fmt.Println()
	}

	printTable(report.Results)
	printCoverage(report)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func benchmarkFile(eng *extractor.Extractor, raw string, run int) (runResult, *extractor.Extraction) {
	rr := runResult{Run: run}

	start := time.Now()
	snap, err := extractor.NewSnapshot(raw, "", "", *container)
	if err != nil {
		rr.Error = fmt.Sprintf("parse error: %v", err)
		return rr, nil
	}

	ext, err := eng.Extract(snap)
	rr.ParseMs = float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		rr.Error = err.Error()
		return rr, nil
	}

	rr.Success = true
	rr.Fields = ext.Fields.Count()
	rr.PlayerName = ext.PlayerName
	return rr, ext
}

func computeAverages(runs []runResult) *fileAverages {
	var successCount int
	var avg fileAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.ParseMs += r.ParseMs
		avg.Fields += float64(r.Fields)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.ParseMs /= n
	avg.Fields /= n
	return &avg
}

// presentFields lists the populated metrics in fieldOrder order.
func presentFields(f *models.StatFields) []string {
	present := map[string]bool{
		"kills":               f.Kills != nil,
		"deaths":              f.Deaths != nil,
		"assists":             f.Assists != nil,
		"headshots":           f.Headshots != nil,
		"matches_played":      f.MatchesPlayed != nil,
		"matches_won":         f.MatchesWon != nil,
		"matches_lost":        f.MatchesLost != nil,
		"matches_tied":        f.MatchesTied != nil,
		"rounds_played":       f.RoundsPlayed != nil,
		"total_damage":        f.TotalDamage != nil,
		"adr":                 f.ADR != nil,
		"kd_ratio":            f.KDRatio != nil,
		"hltv_rating":         f.HLTVRating != nil,
		"win_rate":            f.WinRate != nil,
		"headshot_percentage": f.HeadshotPercent != nil,
		"clutch_success":      f.ClutchSuccess != nil,
		"entry_success":       f.EntrySuccess != nil,
	}

	var out []string
	for _, name := range fieldOrder {
		if present[name] {
			out = append(out, name)
		}
	}
	return out
}

func printTable(results []fileResult) {
	fmt.Println(strings.Repeat("─", 72))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "File\tAvg Parse\tFields\tPlayer\n")
	fmt.Fprintf(w, "────\t─────────\t──────\t──────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\n", truncateName(r.File, 40))
			continue
		}

		player := "-"
		for _, rr := range r.Runs {
			if rr.Success && rr.PlayerName != "" {
				player = rr.PlayerName
				break
			}
		}

		fmt.Fprintf(w, "%s\t%.1fms\t%.1f\t%s\n",
			truncateName(r.File, 40),
			r.Averages.ParseMs,
			r.Averages.Fields,
			player,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 72))
}

func printCoverage(report benchmarkReport) {
	withData := 0
	for _, r := range report.Results {
		if len(r.Present) > 0 {
			withData++
		}
	}
	if withData == 0 {
		fmt.Println("\nNo page yielded any fields.")
		return
	}

	fmt.Println("\nField coverage:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Field\tPages\tCoverage\n")
	fmt.Fprintf(w, "─────\t─────\t────────\n")

	for _, name := range fieldOrder {
		count := report.Coverage[name]
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "%s\t%d/%d\t%.0f%%\n",
			name, count, withData, float64(count)/float64(withData)*100)
	}

	w.Flush()
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
