package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEmptyThreshold is the byte size at or below which a screenshot is
// treated as a blank render: 10663 bytes measured for a blank reader page at
// 540x960, device scale 2, with the bundled stylesheet, plus a 100 byte margin.
// Changing the viewport, scale, format or stylesheet invalidates it.
const DefaultEmptyThreshold = 10763

// DefaultNextPageXPath locates the reader's "next page" button.
const DefaultNextPageXPath = "/html/body/div[1]/div/div/div[1]/div[2]/div/div[2]/div[4]/div[2]/button"

// DefaultUserAgent is a desktop Chrome user agent; the reader serves a
// different layout to headless user agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Reader  ReaderConfig  `yaml:"reader"`
	Export  ExportConfig  `yaml:"export"`
	Output  OutputConfig  `yaml:"output"`
	Status  StatusConfig  `yaml:"status"`
	Webhook WebhookConfig `yaml:"webhook"`
	Log     LogConfig     `yaml:"log"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless. Dev mode forces false.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// UserDataDir keeps cookies between runs so the reader login survives.
	UserDataDir string `yaml:"user_data_dir"` // default: "./cache/default"

	// WindowSize is the initial "width,height" window size.
	WindowSize string `yaml:"window_size"` // default: "1920,1080"

	// UserAgent overrides the browser user agent.
	UserAgent string `yaml:"user_agent"`

	// Stealth injects anti-automation evasions before navigation.
	Stealth bool `yaml:"stealth"` // default: true
}

// ReaderConfig describes how the reader page is prepared before the export.
type ReaderConfig struct {
	// NavigationTimeout bounds page load of the book URL.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s

	// ActionTimeout bounds each screenshot, next page lookup and click. A
	// hung DevTools call fails the export instead of blocking it forever.
	ActionTimeout time.Duration `yaml:"action_timeout"` // default: 30s

	// InitialSettle is the wait after load before the stylesheet is injected.
	InitialSettle time.Duration `yaml:"initial_settle"` // default: 6s

	// StylePath overrides the embedded print stylesheet.
	StylePath string `yaml:"style_path"`

	// ViewportWidth and ViewportHeight are CSS pixels.
	ViewportWidth  int `yaml:"viewport_width"`  // default: 540
	ViewportHeight int `yaml:"viewport_height"` // default: 960

	// ScaleFactor is the device pixel ratio; 2 gives 1080x1920 images.
	ScaleFactor float64 `yaml:"scale_factor"` // default: 2

	// NextPageXPath locates the page-turn control.
	NextPageXPath string `yaml:"next_page_xpath"`

	// AvatarSelector is present only for a logged in user.
	AvatarSelector string `yaml:"avatar_selector"` // default: ".wr_avatar_img"
}

// ExportConfig holds the export loop policy parameters.
type ExportConfig struct {
	// EmptyThreshold is the blank page byte size, margin included.
	EmptyThreshold int64 `yaml:"empty_threshold"`

	// MaxEmptyRun is the consecutive-empty count that ends the book.
	MaxEmptyRun int `yaml:"max_empty_run"` // default: 5

	// SettleBeforeCapture is the grace interval before each screenshot.
	SettleBeforeCapture time.Duration `yaml:"settle_before_capture"` // default: 3s

	// SettleAfterAdvance is the grace interval after each page turn.
	SettleAfterAdvance time.Duration `yaml:"settle_after_advance"` // default: 3s

	// Format is "png" or "jpeg". The default threshold assumes png.
	Format string `yaml:"format"` // default: "png"

	// Quality is the jpeg quality (0-100).
	Quality int `yaml:"quality"` // default: 90
}

// OutputConfig controls the output directory.
type OutputConfig struct {
	// Dir is the output directory; defaults to ./<book id>.
	Dir string `yaml:"dir"`

	// AssumeYes overwrites a non-empty output directory without asking.
	AssumeYes bool `yaml:"assume_yes"`
}

// StatusConfig controls the optional status HTTP server.
type StatusConfig struct {
	// Addr enables the status server when non-empty, e.g. "127.0.0.1:8080".
	Addr string `yaml:"addr"`

	// Mode is the gin mode: "debug", "release", "test"; default: "release".
	Mode string `yaml:"mode"`
}

// WebhookConfig controls the completion webhook.
type WebhookConfig struct {
	// URL enables delivery of the final report when non-empty.
	URL string `yaml:"url"`

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string `yaml:"secret"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:    envBoolOr("WREXPORT_HEADLESS", true),
			NoSandbox:   envBoolOr("WREXPORT_NO_SANDBOX", true),
			BrowserBin:  os.Getenv("WREXPORT_BROWSER_BIN"),
			UserDataDir: envOr("WREXPORT_USER_DATA_DIR", "./cache/default"),
			WindowSize:  envOr("WREXPORT_WINDOW_SIZE", "1920,1080"),
			UserAgent:   envOr("WREXPORT_USER_AGENT", DefaultUserAgent),
			Stealth:     envBoolOr("WREXPORT_STEALTH", true),
		},
		Reader: ReaderConfig{
			NavigationTimeout: envDurationOr("WREXPORT_NAV_TIMEOUT", 30*time.Second),
			ActionTimeout:     envDurationOr("WREXPORT_ACTION_TIMEOUT", 30*time.Second),
			InitialSettle:     envDurationOr("WREXPORT_INITIAL_SETTLE", 6*time.Second),
			StylePath:         os.Getenv("WREXPORT_STYLE"),
			ViewportWidth:     envIntOr("WREXPORT_VIEWPORT_WIDTH", 540),
			ViewportHeight:    envIntOr("WREXPORT_VIEWPORT_HEIGHT", 960),
			ScaleFactor:       envFloatOr("WREXPORT_SCALE_FACTOR", 2),
			NextPageXPath:     envOr("WREXPORT_NEXT_XPATH", DefaultNextPageXPath),
			AvatarSelector:    envOr("WREXPORT_AVATAR_SELECTOR", ".wr_avatar_img"),
		},
		Export: ExportConfig{
			EmptyThreshold:      int64(envIntOr("WREXPORT_EMPTY_THRESHOLD", DefaultEmptyThreshold)),
			MaxEmptyRun:         envIntOr("WREXPORT_MAX_EMPTY_RUN", 5),
			SettleBeforeCapture: envDurationOr("WREXPORT_SETTLE_BEFORE", 3*time.Second),
			SettleAfterAdvance:  envDurationOr("WREXPORT_SETTLE_AFTER", 3*time.Second),
			Format:              envOr("WREXPORT_FORMAT", "png"),
			Quality:             envIntOr("WREXPORT_QUALITY", 90),
		},
		Output: OutputConfig{
			Dir:       os.Getenv("WREXPORT_OUTPUT"),
			AssumeYes: envBoolOr("WREXPORT_YES", false),
		},
		Status: StatusConfig{
			Addr: os.Getenv("WREXPORT_STATUS_ADDR"),
			Mode: envOr("WREXPORT_STATUS_MODE", "release"),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("WREXPORT_WEBHOOK_URL"),
			Secret: os.Getenv("WREXPORT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("WREXPORT_LOG_LEVEL", "info"),
			Format: envOr("WREXPORT_LOG_FORMAT", "text"),
		},
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Validate rejects policy values the export loop cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Export.MaxEmptyRun < 1:
		return fmt.Errorf("config: max_empty_run must be >= 1, got %d", c.Export.MaxEmptyRun)
	case c.Export.EmptyThreshold < 0:
		return fmt.Errorf("config: empty_threshold must be >= 0, got %d", c.Export.EmptyThreshold)
	case c.Export.SettleBeforeCapture < 0 || c.Export.SettleAfterAdvance < 0:
		return fmt.Errorf("config: settle durations must not be negative")
	case c.Export.Format != "png" && c.Export.Format != "jpeg":
		return fmt.Errorf("config: format must be png or jpeg, got %q", c.Export.Format)
	case c.Export.Quality < 0 || c.Export.Quality > 100:
		return fmt.Errorf("config: quality must be within 0-100, got %d", c.Export.Quality)
	case c.Reader.ActionTimeout <= 0:
		return fmt.Errorf("config: action_timeout must be positive, got %s", c.Reader.ActionTimeout)
	case c.Reader.ViewportWidth <= 0 || c.Reader.ViewportHeight <= 0:
		return fmt.Errorf("config: viewport must be positive, got %dx%d", c.Reader.ViewportWidth, c.Reader.ViewportHeight)
	}
	return nil
}

// Warnings lists settings that are valid but likely to misbehave.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Export.Format == "jpeg" && c.Export.EmptyThreshold == DefaultEmptyThreshold {
		warnings = append(warnings, fmt.Sprintf(
			"empty_threshold %d is calibrated for png; measure a blank jpeg page and set it explicitly",
			DefaultEmptyThreshold,
		))
	}
	return warnings
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
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return fallback
}
