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
)

// File permission constants
const (
	// FileModeDir is the permission for directories (rwxr-xr-x)
	FileModeDir os.FileMode = 0755
	// FileModeFile is the permission for data files (rw-------)
	FileModeFile os.FileMode = 0600

	documentExt = ".json"
)

// FileStore keeps one JSON file per key under a directory. Writes are
// atomic renames performed under a directory lock shared by every process
// using the same state directory.
type FileStore struct {
	dir     string
	lockDir string
}

var _ DocumentStore = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file storage: directory cannot be empty")
	}
	if err := os.MkdirAll(dir, FileModeDir); err != nil {
		return nil, fmt.Errorf("file storage: create directory: %w", err)
	}
	return &FileStore{dir: dir, lockDir: filepath.Join(dir, ".lock")}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+documentExt)
}

func (f *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file storage: read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileStore) Put(ctx context.Context, key string, data []byte) error {
	return WithLock(ctx, f.lockDir, func() error {
		tmp, err := os.CreateTemp(f.dir, ".tmp-*")
		if err != nil {
			return fmt.Errorf("file storage: create temp file: %w", err)
		}
		tmpName := tmp.Name()
		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("file storage: write %s: %w", key, err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("file storage: close %s: %w", key, err)
		}
		if err := os.Chmod(tmpName, FileModeFile); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("file storage: chmod %s: %w", key, err)
		}
		if err := os.Rename(tmpName, f.path(key)); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("file storage: replace %s: %w", key, err)
		}
		return nil
	})
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	return WithLock(ctx, f.lockDir, func() error {
		err := os.Remove(f.path(key))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file storage: delete %s: %w", key, err)
		}
		return nil
	})
}

func (f *FileStore) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("file storage: list: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, documentExt) || strings.HasPrefix(name, ".") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, documentExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileStore) Close() error { return nil }
