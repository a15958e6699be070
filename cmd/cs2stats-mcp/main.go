package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// statRecord mirrors the cs2stats API stat record model.
type statRecord struct {
	SteamID       string `json:"steam_id"`
	PlayerName    string `json:"player_name"`
	ProfileURL    string `json:"profile_url"`
	LastAttemptAt string `json:"last_attempt_at"`
	Success       bool   `json:"success"`
	ErrorMessage  string `json:"error_message"`
	Fields        struct {
		Kills           *int     `json:"kills"`
		Deaths          *int     `json:"deaths"`
		Assists         *int     `json:"assists"`
		Headshots       *int     `json:"headshots"`
		MatchesPlayed   *int     `json:"matches_played"`
		MatchesWon      *int     `json:"matches_won"`
		MatchesLost     *int     `json:"matches_lost"`
		MatchesTied     *int     `json:"matches_tied"`
		RoundsPlayed    *int     `json:"rounds_played"`
		TotalDamage     *int     `json:"total_damage"`
		ADR             *int     `json:"adr"`
		KDRatio         *float64 `json:"kd_ratio"`
		HLTVRating      *float64 `json:"hltv_rating"`
		WinRate         *string  `json:"win_rate"`
		HeadshotPercent *string  `json:"headshot_percentage"`
		ClutchSuccess   *string  `json:"clutch_success"`
		EntrySuccess    *string  `json:"entry_success"`
	} `json:"fields"`
}

// enqueueResponse mirrors the cs2stats API enqueue response.
type enqueueResponse struct {
	Success bool `json:"success"`
	Player  *struct {
		SteamID  string `json:"steam_id"`
		Status   string `json:"status"`
		Priority int    `json:"priority"`
	} `json:"player"`
}

// queueSummary mirrors the cs2stats API summary response.
type queueSummary struct {
	Pending        int    `json:"pending"`
	Processing     int    `json:"processing"`
	Completed      int    `json:"completed"`
	Failed         int    `json:"failed"`
	Total          int    `json:"total"`
	StatsStored    int    `json:"stats_stored"`
	StatsSucceeded int    `json:"stats_succeeded"`
	StatsFailed    int    `json:"stats_failed"`
	LastActivity   string `json:"last_activity"`
}

// runStatus mirrors the cs2stats API run status response.
type runStatus struct {
	Running   bool   `json:"running"`
	StartedAt string `json:"started_at"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	LastRun   *struct {
		Processed int   `json:"processed"`
		Succeeded int   `json:"succeeded"`
		Failed    int   `json:"failed"`
		Batches   int   `json:"batches"`
		Completed bool  `json:"completed"`
		ElapsedMs int64 `json:"elapsed_ms"`
	} `json:"last_run"`
}

// errorResponse mirrors the cs2stats API failure envelope.
type errorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("CS2STATS_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8211"
	}
	// Optional: the admin API runs without auth by default.
	apiKey := os.Getenv("CS2STATS_API_KEY")

	s := server.NewMCPServer(
		"cs2stats",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	getStatsTool := mcp.NewTool("get_player_stats",
		mcp.WithDescription("Fetch the stored CS2 statistics for one player by Steam ID. Returns the extracted metrics from the player's most recent scrape."),
		mcp.WithString("steam_id",
			mcp.Required(),
			mcp.Description("The 64-bit Steam ID (or vanity name) of the player"),
		),
	)
	s.AddTool(getStatsTool, handleGetPlayerStats(apiURL, apiKey))

	queuePlayerTool := mcp.NewTool("queue_player",
		mcp.WithDescription("Queue a player for scraping on the next run. Re-queueing a known player updates its priority."),
		mcp.WithString("steam_id",
			mcp.Required(),
			mcp.Description("The 64-bit Steam ID (or vanity name) of the player"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Queue priority, higher values are scraped first (default: 0)"),
		),
	)
	s.AddTool(queuePlayerTool, handleQueuePlayer(apiURL, apiKey))

	queueSummaryTool := mcp.NewTool("queue_summary",
		mcp.WithDescription("Summarise the scrape queue: how many players are pending, processing, completed and failed, plus stat-store counters."),
	)
	s.AddTool(queueSummaryTool, handleQueueSummary(apiURL, apiKey))

	runStatusTool := mcp.NewTool("run_status",
		mcp.WithDescription("Report whether a scrape run is active, its live counters, and the outcome of the most recent run."),
	)
	s.AddTool(runStatusTool, handleRunStatus(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiGet sends a GET request to the cs2stats API.
func apiGet(ctx context.Context, client *http.Client, apiURL, apiKey, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

// apiPost sends a POST request to the cs2stats API.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return respBody, resp.StatusCode, err
}

// apiError extracts the error message from a failure envelope.
func apiError(body []byte, fallback string) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != nil {
		return fmt.Sprintf("[%s] %s", er.Error.Code, er.Error.Message)
	}
	return fallback
}

func handleGetPlayerStats(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		steamID, err := request.RequireString("steam_id")
		if err != nil {
			return mcp.NewToolResultError("steam_id is required"), nil
		}

		body, status, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/stats/"+steamID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("stats request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, "stats request failed")), nil
		}

		var rec statRecord
		if err := json.Unmarshal(body, &rec); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Stats for %s (%s)\n", rec.PlayerName, rec.SteamID))
		sb.WriteString(fmt.Sprintf("Profile: %s\n", rec.ProfileURL))
		sb.WriteString(fmt.Sprintf("Last attempt: %s\n", rec.LastAttemptAt))
		if !rec.Success {
			sb.WriteString(fmt.Sprintf("Last attempt failed: %s\n", rec.ErrorMessage))
		}
		sb.WriteString("\n")
		writeFields(&sb, &rec)

		return mcp.NewToolResultText(sb.String()), nil
	}
}

// writeFields appends one "label: value" line per populated metric.
func writeFields(sb *strings.Builder, rec *statRecord) {
	n := 0
	addInt := func(label string, v *int) {
		if v != nil {
			sb.WriteString(fmt.Sprintf("%s: %d\n", label, *v))
			n++
		}
	}
	addStr := func(label string, v *string) {
		if v != nil {
			sb.WriteString(fmt.Sprintf("%s: %s\n", label, *v))
			n++
		}
	}

	f := &rec.Fields
	addInt("kills", f.Kills)
	addInt("deaths", f.Deaths)
	addInt("assists", f.Assists)
	addInt("headshots", f.Headshots)
	addInt("matches played", f.MatchesPlayed)
	addInt("matches won", f.MatchesWon)
	addInt("matches lost", f.MatchesLost)
	addInt("matches tied", f.MatchesTied)
	addInt("rounds played", f.RoundsPlayed)
	addInt("total damage", f.TotalDamage)
	addInt("adr", f.ADR)
	if f.KDRatio != nil {
		sb.WriteString(fmt.Sprintf("k/d ratio: %s\n", strconv.FormatFloat(*f.KDRatio, 'f', 2, 64)))
		n++
	}
	if f.HLTVRating != nil {
		sb.WriteString(fmt.Sprintf("hltv rating: %s\n", strconv.FormatFloat(*f.HLTVRating, 'f', 2, 64)))
		n++
	}
	addStr("win rate", f.WinRate)
	addStr("headshot %", f.HeadshotPercent)
	addStr("clutch success", f.ClutchSuccess)
	addStr("entry success", f.EntrySuccess)

	if n == 0 {
		sb.WriteString("no metrics extracted\n")
	}
}

func handleQueuePlayer(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		steamID, err := request.RequireString("steam_id")
		if err != nil {
			return mcp.NewToolResultError("steam_id is required"), nil
		}

		payload := map[string]interface{}{
			"steam_id": steamID,
		}
		args := request.GetArguments()
		if priority, ok := args["priority"]; ok {
			payload["priority"] = priority
		}

		body, status, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/players", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("queue request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, "queue request failed")), nil
		}

		var qr enqueueResponse
		if err := json.Unmarshal(body, &qr); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !qr.Success || qr.Player == nil {
			return mcp.NewToolResultError(apiError(body, "queueing failed")), nil
		}

		return mcp.NewToolResultText(fmt.Sprintf(
			"Queued %s with priority %d (status: %s)",
			qr.Player.SteamID, qr.Player.Priority, qr.Player.Status)), nil
	}
}

func handleQueueSummary(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, status, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/stats/summary")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("summary request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, "summary request failed")), nil
		}

		var sum queueSummary
		if err := json.Unmarshal(body, &sum); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		sb.WriteString("Queue summary:\n")
		sb.WriteString(fmt.Sprintf("pending: %d\n", sum.Pending))
		sb.WriteString(fmt.Sprintf("processing: %d\n", sum.Processing))
		sb.WriteString(fmt.Sprintf("completed: %d\n", sum.Completed))
		sb.WriteString(fmt.Sprintf("failed: %d\n", sum.Failed))
		sb.WriteString(fmt.Sprintf("total: %d\n", sum.Total))
		sb.WriteString(fmt.Sprintf("\nstat records: %d stored (%d succeeded, %d failed)\n",
			sum.StatsStored, sum.StatsSucceeded, sum.StatsFailed))
		if sum.LastActivity != "" {
			sb.WriteString(fmt.Sprintf("last activity: %s\n", sum.LastActivity))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleRunStatus(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		body, status, err := apiGet(ctx, client, apiURL, apiKey, "/api/v1/run/status")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("status request failed: %v", err)), nil
		}
		if status != http.StatusOK {
			return mcp.NewToolResultError(apiError(body, "status request failed")), nil
		}

		var rs runStatus
		if err := json.Unmarshal(body, &rs); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		if rs.Running {
			sb.WriteString("A run is active")
			if rs.StartedAt != "" {
				sb.WriteString(" since " + rs.StartedAt)
			}
			sb.WriteString(fmt.Sprintf(": processed=%d succeeded=%d failed=%d\n",
				rs.Processed, rs.Succeeded, rs.Failed))
		} else {
			sb.WriteString("No run is active.\n")
		}
		if rs.LastRun != nil {
			outcome := "completed"
			if !rs.LastRun.Completed {
				outcome = "was stopped early"
			}
			sb.WriteString(fmt.Sprintf(
				"Last run %s: processed=%d succeeded=%d failed=%d batches=%d in %dms\n",
				outcome, rs.LastRun.Processed, rs.LastRun.Succeeded,
				rs.LastRun.Failed, rs.LastRun.Batches, rs.LastRun.ElapsedMs))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
