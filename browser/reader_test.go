package browser

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/jsonleex/wr-exporter/config"
	"github.com/jsonleex/wr-exporter/exporter"
	"github.com/jsonleex/wr-exporter/models"
	"github.com/jsonleex/wr-exporter/output"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readerPage = `<!DOCTYPE html>
<html>
<head><title>Book - Author - 微信读书</title></head>
<body>
  <img class="wr_avatar_img" alt="">
  <p>Chapter one</p>
  <button id="next" onclick="document.body.dataset.turns = (+document.body.dataset.turns || 0) + 1">next</button>
</body>
</html>`

const nextXPath = "//button[@id='next']"

// launchForTest starts a local Chrome or skips when none is installed.
func launchForTest(t *testing.T) *Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no Chrome or Chromium found")
	}

	b, err := Launch(config.BrowserConfig{
		Headless:    true,
		NoSandbox:   true,
		BrowserBin:  bin,
		UserDataDir: t.TempDir(),
		WindowSize:  "800,600",
	})
	require.NoError(t, err)
	t.Cleanup(b.Close)
	return b
}

func testReaderConfig() config.ReaderConfig {
	return config.ReaderConfig{
		NavigationTimeout: 10 * time.Second,
		ActionTimeout:     10 * time.Second,
		ViewportWidth:     320,
		ViewportHeight:    480,
		ScaleFactor:       1,
		NextPageXPath:     nextXPath,
		AvatarSelector:    ".wr_avatar_img",
	}
}

func openTestReader(t *testing.T, rc config.ReaderConfig) *Reader {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(readerPage))
	}))
	t.Cleanup(srv.Close)

	b := launchForTest(t)
	r, err := b.Open(context.Background(), srv.URL, rc)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestReader_PageTurn(t *testing.T) {
	r := openTestReader(t, testReaderConfig())
	ctx := context.Background()

	require.NoError(t, r.EnsureLoggedIn())
	assert.Equal(t, "Book", r.Title())
	require.NoError(t, r.Prepare(ctx, "png", 0))

	shot, err := r.Screenshot(ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(shot, []byte("\x89PNG")), "png signature")

	ctrl, err := r.NextPageControl(ctx)
	require.NoError(t, err)
	assert.Equal(t, nextXPath, ctrl.String())

	require.NoError(t, r.Click(ctx, ctrl))
	res, err := r.page.Eval(`() => document.body.dataset.turns`)
	require.NoError(t, err)
	assert.Equal(t, "1", res.Value.Str())
}

func TestReader_JPEG(t *testing.T) {
	r := openTestReader(t, testReaderConfig())
	ctx := context.Background()

	require.NoError(t, r.Prepare(ctx, "jpeg", 80))
	shot, err := r.Screenshot(ctx)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(shot, []byte{0xFF, 0xD8}), "jpeg signature")
}

func TestReader_MissingNextControl(t *testing.T) {
	rc := testReaderConfig()
	rc.NextPageXPath = "//button[@id='absent']"
	r := openTestReader(t, rc)

	_, err := r.NextPageControl(context.Background())
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeNavigation))
}

func TestReader_NotLoggedIn(t *testing.T) {
	rc := testReaderConfig()
	rc.AvatarSelector = ".someone_else"
	r := openTestReader(t, rc)

	err := r.EnsureLoggedIn()
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeNotLoggedIn))
}

// TestExport_MissingControlAfterCapture runs the loop against a real page
// whose next button cannot be found: the first capture is kept and the run
// fails with a navigation error.
func TestExport_MissingControlAfterCapture(t *testing.T) {
	rc := testReaderConfig()
	rc.NextPageXPath = "//button[@id='absent']"
	r := openTestReader(t, rc)
	require.NoError(t, r.Prepare(context.Background(), "png", 0))

	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/book", 0o755))
	sink := output.NewDirSink(mem, "/book")

	loop := exporter.New(exporter.NewDetector(0, sink), exporter.Options{
		Settle: exporter.FixedSettle{},
		Signal: &exporter.FlagSignal{},
	})
	report, err := loop.Run(context.Background(), r, sink)
	require.Error(t, err)

	assert.True(t, models.HasCode(err, models.ErrCodeNavigation))
	assert.Equal(t, 1, report.Pages)
	require.Len(t, report.Artifacts, 1)

	ok, err := afero.Exists(mem, "/book/"+report.Artifacts[0])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestActionContext(t *testing.T) {
	r := &Reader{cfg: config.ReaderConfig{ActionTimeout: 2 * time.Second}}

	ctx, cancel := r.actionContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, time.Second)
}

func TestActionContext_KeepsEarlierDeadline(t *testing.T) {
	r := &Reader{cfg: config.ReaderConfig{ActionTimeout: time.Hour}}

	parent, cancelParent := context.WithTimeout(context.Background(), time.Second)
	defer cancelParent()
	ctx, cancel := r.actionContext(parent)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}
