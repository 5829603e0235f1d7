package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// FileStorage persists each namespace as a separate file inside a directory.
// Writes go through a temporary file and rename, so readers never see partial values.
type FileStorage struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStorage creates the directory if needed and returns a file-backed storage.
// The directory is created with 0700 permissions because values may contain credentials.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty directory", ErrUnavailable)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Join(ErrUnavailable, err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir returns the storage directory.
func (f *FileStorage) Dir() string {
	return f.dir
}

func (f *FileStorage) Read(ctx context.Context, namespace string) (string, bool, error) {
	path, err := f.path(namespace)
	if err != nil {
		return "", false, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, errors.Join(ErrUnavailable, err)
	}
	return string(data), true, nil
}

func (f *FileStorage) Write(ctx context.Context, namespace, value string) error {
	path, err := f.path(namespace)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Join(ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

func (f *FileStorage) Remove(ctx context.Context, namespace string) error {
	path, err := f.path(namespace)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}

// path maps a namespace to a file name; escaping keeps separators out of the name.
func (f *FileStorage) path(namespace string) (string, error) {
	if namespace == "" {
		return "", ErrEmptyNamespace
	}
	return filepath.Join(f.dir, url.PathEscape(namespace)+".json"), nil
}
