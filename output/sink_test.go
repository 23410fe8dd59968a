package output

import (
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSink_WriteAndStat(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/out", 0o755))
	s := NewDirSink(mem, "/out")

	path, err := s.Write("20240101120000-00001.png", make([]byte, 1234))
	require.NoError(t, err)
	assert.Equal(t, "/out/20240101120000-00001.png", path)

	size, err := s.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), size)
}

func TestDirSink_NeverOverwrites(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/out", 0o755))
	s := NewDirSink(mem, "/out")

	_, err := s.Write("page.png", []byte("first"))
	require.NoError(t, err)

	_, err = s.Write("page.png", []byte("second"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrExist)

	data, err := afero.ReadFile(mem, "/out/page.png")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestDirSink_StatMissing(t *testing.T) {
	s := NewDirSink(afero.NewMemMapFs(), "/out")

	_, err := s.Stat("/out/nope.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
