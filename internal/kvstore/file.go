package kvstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/spf13/afero"

	"mindmend/pkg/mindtypes"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileStore keeps one file per key inside a directory.
// Writes go to a temporary file that is renamed over the record so a crash
// never leaves a half-written record behind.
type FileStore struct {
	fs  afero.Fs
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the directory if needed and returns a store rooted there.
func NewFileStore(fs afero.Fs, dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStore{fs: fs, dir: dir}, nil
}

func (f *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid key '%s'", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Get reads the record for key.
func (f *FileStore) Get(key string) ([]byte, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mindtypes.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}
	return data, nil
}

// Set replaces the record for key.
func (f *FileStore) Set(key string, value []byte) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := path + ".tmp"
	if err := afero.WriteFile(f.fs, tmp, value, 0600); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := f.fs.Rename(tmp, path); err != nil {
		_ = f.fs.Remove(tmp)
		return fmt.Errorf("failed to replace record: %w", err)
	}
	return nil
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}
