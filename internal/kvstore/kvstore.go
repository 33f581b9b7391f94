// Package kvstore provides the durable key-value backends that session state is persisted to.
package kvstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// SQLiteFileName is the database file created inside the storage directory.
const SQLiteFileName = "mindmend.db"

// Open creates the store selected by backend, rooted at dir.
func Open(backend, dir string) (mindtypes.KVStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		logger.Debug("Opening file key-value store", "dir", dir)
		return NewFileStore(afero.NewOsFs(), dir)
	case BackendSQLite:
		path := filepath.Join(dir, SQLiteFileName)
		logger.Debug("Opening sqlite key-value store", "path", path)
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend '%s' (expected file, sqlite or memory)", backend)
	}
}
