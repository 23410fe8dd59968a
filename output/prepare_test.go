package output

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jsonleex/wr-exporter/models"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func never(t *testing.T) ConfirmFunc {
	return func(q string, _ bool) bool {
		t.Fatalf("unexpected confirmation: %q", q)
		return false
	}
}

func TestPrepare_CreatesMissingDir(t *testing.T) {
	mem := afero.NewMemMapFs()
	dir, _ := filepath.Abs("book")

	got, err := Prepare(mem, "book", never(t))
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	ok, err := afero.DirExists(mem, dir)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrepare_EmptyDirKept(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/out", 0o755))

	got, err := Prepare(mem, "/out", never(t))
	require.NoError(t, err)
	assert.Equal(t, "/out", got)
}

func TestPrepare_NonEmptyOverwrite(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/out/old.png", []byte("x"), 0o644))

	asked := ""
	got, err := Prepare(mem, "/out", func(q string, def bool) bool {
		asked = q
		assert.True(t, def)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, "/out", got)
	assert.Contains(t, asked, "not empty")

	empty, err := afero.IsEmpty(mem, "/out")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestPrepare_NonEmptyDeclined(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/out/old.png", []byte("x"), 0o644))

	_, err := Prepare(mem, "/out", func(string, bool) bool { return false })
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeOutputNotEmpty))

	ok, _ := afero.Exists(mem, "/out/old.png")
	assert.True(t, ok, "declined prepare keeps existing files")
}

func TestPrompter_Ask(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"yes", "y\n", false, true},
		{"YES upper", "YES\n", false, true},
		{"no", "no\n", true, false},
		{"empty takes default yes", "\n", true, true},
		{"empty takes default no", "\n", false, false},
		{"invalid then yes", "maybe\ny\n", false, true},
		{"eof answers no", "", true, false},
		{"invalid then eof answers no", "maybe\n", true, false},
		{"answer without newline", "y", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, p.Ask("Overwrite?", tt.def))
		})
	}
}

func TestPrepare_ClosedStdinKeepsFiles(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/out/keep.png", []byte("x"), 0o644))

	var out bytes.Buffer
	_, err := Prepare(mem, "/out", NewPrompter(strings.NewReader(""), &out).Ask)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.ErrCodeOutputNotEmpty))

	ok, err := afero.Exists(mem, "/out/keep.png")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPrompter_Hint(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("maybe\nn\n"), &out)
	p.Ask("Overwrite?", true)

	assert.Contains(t, out.String(), "Overwrite? [Y/n] ")
	assert.Contains(t, out.String(), "Invalid input")
}
