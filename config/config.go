package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scrape    ScrapeConfig
	Queue     QueueConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Dump      DumpConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the admin HTTP API.
type ServerConfig struct {
	Enabled bool   // default: true
	Host    string // default: "127.0.0.1"
	Port    int    // default: 8211
	Mode    string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the proxy URL for all requests.
	Proxy string

	// Stealth injects the stealth script into the session page.
	Stealth bool // default: true
}

// ScrapeConfig controls how player pages are fetched and read.
type ScrapeConfig struct {
	// FetchMode selects the rendering client: "browser", "http", or
	// "auto" (http first, browser when the page needs rendering).
	FetchMode string // default: "browser"

	// ProfileURLPattern builds the page URL from a Steam ID via Sprintf.
	ProfileURLPattern string // default: "https://csstats.gg/player/%s"

	// FetchTimeout is the deadline for one page fetch.
	FetchTimeout time.Duration // default: 45s

	// BlockedResourceTypes lists resource types the hijack router blocks.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string

	// BlockAds additionally blocks known ad/tracking domains.
	BlockAds bool // default: true

	// ContainerSelector optionally scopes extraction to a page region
	// (CSS selector). Empty means the whole document.
	ContainerSelector string
}

// QueueConfig controls the batch run loop.
type QueueConfig struct {
	// BatchSize is the number of pending players claimed per batch.
	BatchSize int // default: 10

	// ItemDelay is the fixed pacing delay between items in a batch.
	ItemDelay time.Duration // default: 3s

	// BatchDelay is the shorter pause between consecutive batches.
	BatchDelay time.Duration // default: 1s
}

// StoreConfig controls the SQLite database.
type StoreConfig struct {
	// Path is the database file. ":memory:" is valid for throwaway runs.
	Path string // default: "cs2stats.db"

	// BusyTimeoutMs is PRAGMA busy_timeout in milliseconds.
	BusyTimeoutMs int // default: 10000
}

// AuthConfig controls API key authentication on the admin API.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting on the admin API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 10

	// Burst is the maximum burst size per API key.
	Burst int // default: 20
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"

	// File, when set, routes logs to a rotating file instead of stdout.
	File string

	// MaxSizeMB / MaxBackups bound the rotating file sink.
	MaxSizeMB  int // default: 50
	MaxBackups int // default: 3
}

// DumpConfig controls failure dumps of pages that yielded no fields.
type DumpConfig struct {
	// Dir, when set, receives <steamid>-<ts>.html and .md for each
	// extraction failure. Empty disables dumping.
	Dir string
}

// WebhookConfig controls run-completion notifications.
type WebhookConfig struct {
	// URL, when set, receives a POST with the run report after every run.
	// Empty disables notifications.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Enabled: envBoolOr("CS2STATS_HTTP_ENABLED", true),
			Host:    envOr("CS2STATS_HOST", "127.0.0.1"),
			Port:    envIntOr("CS2STATS_PORT", 8211),
			Mode:    envOr("CS2STATS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("CS2STATS_HEADLESS", true),
			NoSandbox:  envBoolOr("CS2STATS_NO_SANDBOX", false),
			BrowserBin: os.Getenv("CS2STATS_BROWSER_BIN"),
			Proxy:      os.Getenv("CS2STATS_PROXY"),
			Stealth:    envBoolOr("CS2STATS_STEALTH", true),
		},
		Scrape: ScrapeConfig{
			FetchMode:         envOr("CS2STATS_FETCH_MODE", "browser"),
			ProfileURLPattern: envOr("CS2STATS_PROFILE_URL", "https://csstats.gg/player/%s"),
			FetchTimeout:      envDurationOr("CS2STATS_FETCH_TIMEOUT", 45*time.Second),
			BlockedResourceTypes: envSliceOr("CS2STATS_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
			BlockAds:          envBoolOr("CS2STATS_BLOCK_ADS", true),
			ContainerSelector: os.Getenv("CS2STATS_CONTAINER_SELECTOR"),
		},
		Queue: QueueConfig{
			BatchSize:  envIntOr("CS2STATS_BATCH_SIZE", 10),
			ItemDelay:  envDurationOr("CS2STATS_ITEM_DELAY", 3*time.Second),
			BatchDelay: envDurationOr("CS2STATS_BATCH_DELAY", time.Second),
		},
		Store: StoreConfig{
			Path:          envOr("CS2STATS_DB_PATH", "cs2stats.db"),
			BusyTimeoutMs: envIntOr("CS2STATS_DB_BUSY_TIMEOUT_MS", 10000),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("CS2STATS_AUTH_ENABLED", false),
			APIKeys: envSliceOr("CS2STATS_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("CS2STATS_RATE_RPS", 10.0),
			Burst:             envIntOr("CS2STATS_RATE_BURST", 20),
		},
		Log: LogConfig{
			Level:      envOr("CS2STATS_LOG_LEVEL", "info"),
			Format:     envOr("CS2STATS_LOG_FORMAT", "text"),
			File:       os.Getenv("CS2STATS_LOG_FILE"),
			MaxSizeMB:  envIntOr("CS2STATS_LOG_MAX_SIZE_MB", 50),
			MaxBackups: envIntOr("CS2STATS_LOG_MAX_BACKUPS", 3),
		},
		Dump: DumpConfig{
			Dir: os.Getenv("CS2STATS_DUMP_DIR"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("CS2STATS_WEBHOOK_URL"),
			Secret: os.Getenv("CS2STATS_WEBHOOK_SECRET"),
		},
	}
}

// Validate rejects configurations the run loop cannot work with.
func (c *Config) Validate() error {
	switch c.Scrape.FetchMode {
	case "browser", "http", "auto":
	default:
		return fmt.Errorf("config: CS2STATS_FETCH_MODE must be \"browser\", \"http\" or \"auto\", got %q", c.Scrape.FetchMode)
	}
	if !strings.Contains(c.Scrape.ProfileURLPattern, "%s") {
		return fmt.Errorf("config: CS2STATS_PROFILE_URL must contain a %%s placeholder")
	}
	if c.Queue.BatchSize < 1 {
		return fmt.Errorf("config: CS2STATS_BATCH_SIZE must be >= 1, got %d", c.Queue.BatchSize)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("config: CS2STATS_DB_PATH must not be empty")
	}
	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
