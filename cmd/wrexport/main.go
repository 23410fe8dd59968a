package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jsonleex/wr-exporter/config"
	"github.com/spf13/cobra"
)

// flagValues holds CLI flags; they override env and file configuration only
// when set explicitly.
type flagValues struct {
	configPath    string
	output        string
	dev           bool
	yes           bool
	wait          bool
	emptyThresh   int64
	maxEmptyRun   int
	settleBefore  time.Duration
	settleAfter   time.Duration
	format        string
	quality       int
	actionTimeout time.Duration
	style         string
	statusAddr    string
	webhookURL    string
	webhookSecret string
	logLevel      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&flagValues{})
}

// buildRootCmd binds the CLI flags to fv.
func buildRootCmd(fv *flagValues) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wrexport <url>",
		Short:         "Simple Exporter for WeRead.",
		Long:          "Capture every page of a WeRead book as screenshots, stopping when the book ends.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			initLogger(cfg.Log)
			for _, w := range cfg.Warnings() {
				slog.Warn(w)
			}
			return run(cfg, args[0], fv.dev, fv.wait)
		},
	}

	f := cmd.Flags()
	f.StringVar(&fv.configPath, "config", "", "YAML configuration file")
	f.StringVarP(&fv.output, "output", "o", "", "Output directory for the exported files (default ./<book id>)")
	f.BoolVar(&fv.dev, "dev", false, "Disable headless mode for debugging/login")
	f.BoolVarP(&fv.yes, "yes", "y", false, "Overwrite a non-empty output directory without asking")
	f.BoolVar(&fv.wait, "wait", false, "Wait for Enter before closing the browser")
	f.Int64Var(&fv.emptyThresh, "empty-threshold", config.DefaultEmptyThreshold, "Byte size at or below which a page counts as empty")
	f.IntVar(&fv.maxEmptyRun, "max-empty-run", 5, "Consecutive empty pages that end the export")
	f.DurationVar(&fv.settleBefore, "settle-before", 3*time.Second, "Wait before each capture")
	f.DurationVar(&fv.settleAfter, "settle-after", 3*time.Second, "Wait after each page turn")
	f.StringVar(&fv.format, "format", "png", "Screenshot format: png or jpeg")
	f.IntVar(&fv.quality, "quality", 90, "JPEG quality (0-100)")
	f.DurationVar(&fv.actionTimeout, "action-timeout", 30*time.Second, "Deadline for each screenshot, lookup and click")
	f.StringVar(&fv.style, "style", "", "Stylesheet injected into the reader (default: bundled)")
	f.StringVar(&fv.statusAddr, "status-addr", "", "Serve export status on this address, e.g. 127.0.0.1:8080")
	f.StringVar(&fv.webhookURL, "webhook-url", "", "POST the final report to this URL")
	f.StringVar(&fv.webhookSecret, "webhook-secret", "", "HMAC secret for the webhook signature")
	f.StringVar(&fv.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

// loadConfig layers env defaults, the optional YAML file and explicit flags.
func loadConfig(cmd *cobra.Command, fv *flagValues) (*config.Config, error) {
	cfg := config.Load()
	if fv.configPath != "" {
		if err := config.LoadFile(cfg, fv.configPath); err != nil {
			return nil, err
		}
	}

	changed := cmd.Flags().Changed
	if changed("output") {
		cfg.Output.Dir = fv.output
	}
	if changed("yes") {
		cfg.Output.AssumeYes = fv.yes
	}
	if changed("empty-threshold") {
		cfg.Export.EmptyThreshold = fv.emptyThresh
	}
	if changed("max-empty-run") {
		cfg.Export.MaxEmptyRun = fv.maxEmptyRun
	}
	if changed("settle-before") {
		cfg.Export.SettleBeforeCapture = fv.settleBefore
	}
	if changed("settle-after") {
		cfg.Export.SettleAfterAdvance = fv.settleAfter
	}
	if changed("format") {
		cfg.Export.Format = fv.format
	}
	if changed("quality") {
		cfg.Export.Quality = fv.quality
	}
	if changed("action-timeout") {
		cfg.Reader.ActionTimeout = fv.actionTimeout
	}
	if changed("style") {
		cfg.Reader.StylePath = fv.style
	}
	if changed("status-addr") {
		cfg.Status.Addr = fv.statusAddr
	}
	if changed("webhook-url") {
		cfg.Webhook.URL = fv.webhookURL
	}
	if changed("webhook-secret") {
		cfg.Webhook.Secret = fv.webhookSecret
	}
	if changed("log-level") {
		cfg.Log.Level = fv.logLevel
	}
	if fv.dev {
		cfg.Browser.Headless = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// stdout carries only the progress line.
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

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
