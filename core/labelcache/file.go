package labelcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// osRename is a variable to allow testing of rename errors.
var osRename = os.Rename

// tempFileWrite is a function variable for writing to temp files (for testing).
var tempFileWrite = func(f *os.File, data []byte) (int, error) {
	return f.Write(data)
}

// FileStore keeps one xz-compressed JSON file per locator at
// <dir>/<key[:2]>/<key>.json.xz.
type FileStore struct {
	dir string
}

// NewFileStore creates the cache directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("label cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create label cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the cache root.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the entry file for locator.
func (s *FileStore) Path(locator string) string {
	key := Key(locator)
	return filepath.Join(s.dir, key[:2], key+".json.xz")
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, locator string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path(locator))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to open label cache entry: %w", err)
	}
	defer f.Close()

	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, locator, err)
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, locator, err)
	}
	return decodeEntry(locator, data)
}

// Save implements Store. The entry is written to a temp file and renamed
// into place so readers never observe a partial entry.
func (s *FileStore) Save(ctx context.Context, locator string, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeEntry(locator, records)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := xw.Write(data); err != nil {
		return fmt.Errorf("failed to compress label cache entry: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("failed to compress label cache entry: %w", err)
	}

	path := s.Path(locator)
	prefixDir := filepath.Dir(path)
	if err := os.MkdirAll(prefixDir, 0755); err != nil {
		return fmt.Errorf("failed to create prefix directory: %w", err)
	}

	tempFile, err := os.CreateTemp(prefixDir, ".entry-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFileWrite(tempFile, buf.Bytes()); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write label cache entry: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := osRename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename label cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry but keeps the root directory.
func (s *FileStore) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read label cache directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() || len(e.Name()) != 2 {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("failed to clear label cache: %w", err)
		}
	}
	return nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
