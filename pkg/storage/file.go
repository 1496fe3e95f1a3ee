package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileAdapter stores each key in its own file inside a directory. Writes go
// through a temporary file and a rename so readers never see partial data.
type FileAdapter struct {
	dir string
	ext string

	// mu serializes writers; the filesystem handles concurrent readers.
	mu sync.Mutex
}

// FileOption configures a FileAdapter.
type FileOption func(*FileAdapter)

// WithExtension sets the file extension used for stored keys.
// Default: ".json".
func WithExtension(ext string) FileOption {
	return func(f *FileAdapter) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.ext = ext
	}
}

// NewFileAdapter creates a FileAdapter, ensuring dir exists.
func NewFileAdapter(dir string, opts ...FileOption) (*FileAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f := &FileAdapter{dir: dir, ext: ".json"}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Dir returns the backing directory.
func (f *FileAdapter) Dir() string {
	return f.dir
}

func (f *FileAdapter) path(key string) string {
	return filepath.Join(f.dir, escapeKey(key)+f.ext)
}

// escapeKey makes key a single file name. A leading dot is escaped too, so
// no key collides with temp files or hidden files.
func escapeKey(key string) string {
	name := url.PathEscape(key)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name
}

// Get reads the file for key.
func (f *FileAdapter) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	fn := f.path(key)
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, true, nil
}

// Set writes value for key atomically.
func (f *FileAdapter) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fn := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", fn, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, fn); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", fn, err)
	}
	return nil
}

// Delete removes the file for key. Missing files are ignored.
func (f *FileAdapter) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fn := f.path(key)
	if err := os.Remove(fn); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", fn, err)
	}
	return nil
}

// Keys lists stored keys in sorted order.
func (f *FileAdapter) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", f.dir, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, f.ext) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, f.ext))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
