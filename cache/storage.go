package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmgilman/go/fs/billy"
	"github.com/jmgilman/go/fs/core"
)

const (
	// tempPrefix marks in-progress writes. Scans skip and clean these up.
	tempPrefix = ".tmp-"

	filePerm = 0o644
	dirPerm  = 0o755
)

// storedFile is a cache file found while scanning the cache root.
type storedFile struct {
	name    string
	size    uint64
	modTime time.Time
}

// storage performs atomic file operations on the cache root.
// All names are relative to the root of fs.
type storage struct {
	fs core.FS
}

// openLocal returns a local filesystem rooted at dir, creating dir if needed.
func openLocal(dir string) (core.FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}

	// billy.NewLocal() is rooted at "/", so the cache root must be absolute
	local := billy.NewLocal()
	if err := local.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %q: %w", abs, err)
	}

	root, err := local.Chroot(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache directory %q: %w", abs, err)
	}
	return root, nil
}

func newStorage(fsys core.FS) *storage {
	return &storage{fs: fsys}
}

// write stores data under name by writing a temporary file and renaming it,
// so readers never observe a partial file.
func (s *storage) write(name string, data []byte) error {
	tmp := tempPrefix + uuid.NewString()

	if err := s.fs.WriteFile(tmp, data, filePerm); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to rename temp file to %q: %w", name, err)
	}

	return nil
}

// read returns the content of name. A missing file yields fs.ErrNotExist.
func (s *storage) read(name string) ([]byte, error) {
	return s.fs.ReadFile(name)
}

// remove deletes name. A missing file is not an error.
func (s *storage) remove(name string) error {
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// scan lists the cache files under the root. Directories and reserved
// dot-files are skipped; leftover temporary files are removed.
func (s *storage) scan() ([]storedFile, error) {
	entries, err := s.fs.ReadDir(".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	files := make([]storedFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, tempPrefix) {
			_ = s.fs.Remove(name)
			continue
		}
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		files = append(files, storedFile{
			name:    name,
			size:    uint64(info.Size()),
			modTime: info.ModTime(),
		})
	}

	return files, nil
}
