package browser

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/jsonleex/wr-exporter/config"
	"github.com/jsonleex/wr-exporter/exporter"
	"github.com/jsonleex/wr-exporter/models"
	"github.com/ysmood/gson"
)

// defaultStyle hides the reader chrome and paints a plain background so
// blank pages compress to a stable size.
//
//go:embed assets/override.css
var defaultStyle string

// injectStyleJS appends a <style> element holding its argument.
const injectStyleJS = `(css) => {
	const style = document.createElement('style');
	style.type = 'text/css';
	style.textContent = css;
	document.head.appendChild(style);
}`

// Reader is a loaded book page. It implements exporter.Session.
type Reader struct {
	page *rod.Page
	cfg  config.ReaderConfig

	format  proto.PageCaptureScreenshotFormat
	quality *int
}

var _ exporter.Session = (*Reader)(nil)

// Control is the located next page button.
type Control struct {
	el    *rod.Element
	xpath string
}

func (c *Control) String() string { return c.xpath }

// Title returns the book title, the part of the document title before " - ".
func (r *Reader) Title() string {
	html, err := r.page.HTML()
	if err != nil {
		slog.Debug("failed to read page HTML for title", "error", err)
		return ""
	}
	return bookTitle(html)
}

// EnsureLoggedIn fails unless the reader shows the user avatar.
func (r *Reader) EnsureLoggedIn() error {
	html, err := r.page.HTML()
	if err != nil {
		return categorizeError(err, "failed to read page HTML")
	}
	ok, err := hasElement(html, r.cfg.AvatarSelector)
	if err != nil {
		return models.NewExportError(models.ErrCodeInvalidInput, "invalid avatar selector", err)
	}
	if !ok {
		return models.NewExportError(
			models.ErrCodeNotLoggedIn,
			"please login with WeChat; use --dev to disable headless mode for login",
			nil,
		)
	}
	return nil
}

// Prepare waits for the reader to settle, injects the print stylesheet and
// sizes the viewport for capture. format is "png" or "jpeg".
func (r *Reader) Prepare(ctx context.Context, format string, quality int) error {
	time.Sleep(r.cfg.InitialSettle)

	css := defaultStyle
	if r.cfg.StylePath != "" {
		data, err := os.ReadFile(r.cfg.StylePath)
		if err != nil {
			return models.NewExportError(models.ErrCodeInvalidInput, "failed to read stylesheet", err)
		}
		css = string(data)
	}

	p := r.page.Context(ctx)
	if _, err := p.Eval(injectStyleJS, css); err != nil {
		return categorizeError(err, "failed to inject stylesheet")
	}

	err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             r.cfg.ViewportWidth,
		Height:            r.cfg.ViewportHeight,
		DeviceScaleFactor: r.cfg.ScaleFactor,
	})
	if err != nil {
		return categorizeError(err, "failed to set viewport")
	}

	r.format = proto.PageCaptureScreenshotFormatPng
	if format == "jpeg" {
		r.format = proto.PageCaptureScreenshotFormatJpeg
		r.quality = gson.Int(quality)
	}
	slog.Info("reader prepared",
		"viewport", fmt.Sprintf("%dx%d@%gx", r.cfg.ViewportWidth, r.cfg.ViewportHeight, r.cfg.ScaleFactor),
		"format", format,
	)
	return nil
}

// actionContext bounds a single DevTools call by ActionTimeout. The export
// loop runs on a context that interrupts never cancel, so this deadline is
// what stops a hung call.
func (r *Reader) actionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.ActionTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.ActionTimeout)
}

// Screenshot captures the current viewport.
func (r *Reader) Screenshot(ctx context.Context) ([]byte, error) {
	format := r.format
	if format == "" {
		format = proto.PageCaptureScreenshotFormatPng
	}

	ctx, cancel := r.actionContext(ctx)
	defer cancel()

	return r.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  format,
		Quality: r.quality,
	})
}

// NextPageControl looks the button up once, without waiting for it.
func (r *Reader) NextPageControl(ctx context.Context) (exporter.Control, error) {
	ctx, cancel := r.actionContext(ctx)
	defer cancel()

	has, el, err := r.page.Context(ctx).HasX(r.cfg.NextPageXPath)
	if err != nil {
		return nil, categorizeError(err, "next page lookup failed")
	}
	if !has {
		return nil, models.NewExportError(
			models.ErrCodeNavigation,
			"next page control not found: "+r.cfg.NextPageXPath,
			nil,
		)
	}
	return &Control{el: el, xpath: r.cfg.NextPageXPath}, nil
}

// Click presses c with the left mouse button.
func (r *Reader) Click(ctx context.Context, c exporter.Control) error {
	ctrl, ok := c.(*Control)
	if !ok {
		return fmt.Errorf("browser: unexpected control type %T", c)
	}

	ctx, cancel := r.actionContext(ctx)
	defer cancel()

	return ctrl.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Close closes the tab.
func (r *Reader) Close() {
	if err := r.page.Close(); err != nil {
		slog.Debug("failed to close reader page", "error", err)
	}
}
