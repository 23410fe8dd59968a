package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jsonleex/wr-exporter/api"
	"github.com/jsonleex/wr-exporter/bookurl"
	"github.com/jsonleex/wr-exporter/browser"
	"github.com/jsonleex/wr-exporter/config"
	"github.com/jsonleex/wr-exporter/exporter"
	"github.com/jsonleex/wr-exporter/models"
	"github.com/jsonleex/wr-exporter/output"
	"github.com/jsonleex/wr-exporter/progress"
	"github.com/jsonleex/wr-exporter/webhook"
	"github.com/spf13/afero"
)

func run(cfg *config.Config, rawURL string, dev, wait bool) error {
	// ── 1. Parse book URL ───────────────────────────────────────────
	book, err := bookurl.Parse(rawURL)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	slog.Info("wrexport starting", "runID", runID, "bookID", book.ID, "dev", dev)

	// ── 2. Prepare output directory ─────────────────────────────────
	fs := afero.NewOsFs()
	outDir := "No Output."
	if dev {
		fmt.Println("🛠️ Running in dev mode.")
	} else {
		dir := cfg.Output.Dir
		if dir == "" {
			dir = "./" + book.ID
		}
		confirm := output.NewPrompter(os.Stdin, os.Stdout).Ask
		if cfg.Output.AssumeYes {
			confirm = output.AssumeYes
		}
		if outDir, err = output.Prepare(fs, dir, confirm); err != nil {
			return err
		}
	}
	fmt.Printf("📁 %s\n", outDir)
	fmt.Printf("🔗 %s\n", book.URL)

	// ── 3. Launch browser and open the book ─────────────────────────
	b, err := browser.Launch(cfg.Browser)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := context.Background()
	reader, err := b.Open(ctx, book.URL, cfg.Reader)
	if err != nil {
		return err
	}
	defer reader.Close()

	// ── 4. Dev mode: leave the window open for login ────────────────
	if dev {
		fmt.Println("🟣 Log in with WeChat in the browser window, then press Enter.")
		waitForEnter()
		return nil
	}

	if err := reader.EnsureLoggedIn(); err != nil {
		return err
	}
	fmt.Println("🟢 Already logged in.")
	fmt.Printf("📖 %s\n", reader.Title())

	if err := reader.Prepare(ctx, cfg.Export.Format, cfg.Export.Quality); err != nil {
		return err
	}

	// ── 5. Progress reporting and optional status server ────────────
	rep := progress.New(os.Stdout, runID, book.ID)
	if cfg.Status.Addr != "" {
		srv := startStatusServer(cfg.Status, rep)
		defer shutdownStatusServer(srv)
	}

	// ── 6. Export loop ──────────────────────────────────────────────
	// Ctrl-C only sets the signal; the loop notices it at its next
	// checkpoint so an in-flight capture or page turn completes.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	sink := output.NewDirSink(fs, outDir)
	loop := exporter.New(exporter.NewDetector(cfg.Export.EmptyThreshold, sink), exporter.Options{
		MaxEmptyRun: cfg.Export.MaxEmptyRun,
		Settle: exporter.FixedSettle{
			Before: cfg.Export.SettleBeforeCapture,
			After:  cfg.Export.SettleAfterAdvance,
		},
		Signal:   exporter.NewContextSignal(sigCtx),
		Observer: rep,
		Ext:      cfg.Export.Format,
	})

	rep.Start()
	report, runErr := loop.Run(ctx, reader, sink)
	stop()
	rep.Finish(report, runErr)

	slog.Info("export finished",
		"pages", report.Pages,
		"emptyRun", report.EmptyRun,
		"reason", report.Reason,
		"error", runErr,
	)

	// ── 7. Completion webhook ───────────────────────────────────────
	if cfg.Webhook.URL != "" {
		ev := &webhook.Event{
			Type:      eventType(report, runErr),
			RunID:     runID,
			BookID:    book.ID,
			Timestamp: time.Now().Unix(),
			Data:      webhookData(report, runErr),
		}
		whCtx, cancel := context.WithTimeout(ctx, time.Minute)
		_ = webhook.DeliverWithRetry(whCtx, cfg.Webhook.URL, cfg.Webhook.Secret, ev, webhook.DefaultDelays)
		cancel()
	}

	if wait {
		fmt.Print("\nPress Enter to exit...")
		waitForEnter()
	}
	return runErr
}

// eventType maps a run outcome to a webhook event type.
func eventType(report *exporter.Report, err error) string {
	switch {
	case err != nil:
		return webhook.EventFailed
	case report.Reason == exporter.ReasonUserCancelled:
		return webhook.EventCancelled
	default:
		return webhook.EventCompleted
	}
}

// reportPayload is the webhook data: the report plus the failure, if any.
type reportPayload struct {
	*exporter.Report
	Error *models.ErrorDetail `json:"error,omitempty"`
}

func webhookData(report *exporter.Report, err error) reportPayload {
	return reportPayload{Report: report, Error: models.DetailOf(err)}
}

func startStatusServer(cfg config.StatusConfig, rep *progress.Reporter) *http.Server {
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewRouter(rep, cfg, time.Now()),
	}
	go func() {
		slog.Info("status server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("status server error", "error", err)
		}
	}()
	return srv
}

func shutdownStatusServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("status server forced shutdown", "error", err)
	}
}

func waitForEnter() {
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
