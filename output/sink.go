package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// DirSink is an append-only artifact directory.
type DirSink struct {
	fs  afero.Fs
	dir string

	mu sync.Mutex
}

// NewDirSink stores artifacts in dir on fs. dir must already exist.
func NewDirSink(fs afero.Fs, dir string) *DirSink {
	return &DirSink{fs: fs, dir: dir}
}

// Dir returns the sink directory.
func (s *DirSink) Dir() string { return s.dir }

// Write creates name exclusively, writes data and syncs it to storage before
// returning its path. An existing file is never overwritten.
func (s *DirSink) Write(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("output: create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("output: write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("output: sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("output: close %s: %w", name, err)
	}
	return path, nil
}

// Stat returns the size of the artifact at path. Missing files yield an
// error matching fs.ErrNotExist.
func (s *DirSink) Stat(path string) (int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
