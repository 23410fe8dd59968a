package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/jsonleex/wr-exporter/config"
	"github.com/jsonleex/wr-exporter/models"
)

// Browser owns the Chrome process used for one export.
type Browser struct {
	browser *rod.Browser
	cfg     config.BrowserConfig
}

// Launch starts Chrome with a persistent profile so the reader login
// survives between runs.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		UserDataDir(cfg.UserDataDir)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), cfg.WindowSize)
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("no-first-run"))
	if cfg.UserAgent != "" {
		l.Set(flags.Flag("user-agent"), cfg.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewExportError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched",
		"controlURL", controlURL,
		"headless", cfg.Headless,
		"userDataDir", cfg.UserDataDir,
	)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewExportError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}
	return &Browser{browser: b, cfg: cfg}, nil
}

// Open creates a tab, installs the stealth script and loads url.
//
// Stealth must be installed before navigation: it only applies to documents
// created after it is registered.
func (b *Browser) Open(ctx context.Context, url string, rc config.ReaderConfig) (*Reader, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, models.NewExportError(
			models.ErrCodeBrowserCrash,
			"failed to create page",
			err,
		)
	}

	if b.cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}
	if b.cfg.UserAgent != "" {
		if uaErr := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}); uaErr != nil {
			slog.Warn("user agent override failed", "error", uaErr)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, rc.NavigationTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(url); err != nil {
		return nil, categorizeError(err, "navigation to book URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		return nil, categorizeError(err, "book page did not finish loading")
	}
	if stableErr := p.WaitDOMStable(300*time.Millisecond, 0.1); stableErr != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", stableErr,
		)
	}

	return &Reader{page: page, cfg: rc}, nil
}

// Close kills the browser process.
func (b *Browser) Close() {
	if err := b.browser.Close(); err != nil {
		slog.Warn("failed to close browser", "error", err)
		return
	}
	slog.Info("browser closed")
}
