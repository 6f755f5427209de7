package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/univ-portal/portal-inbox/internal/colors"
	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/storage/sqlite"
)

const (
	// BackendSQLite selects the SQLite document table.
	BackendSQLite = "sqlite"
	// BackendFile selects one JSON file per document.
	BackendFile = "file"
	// BackendMemory keeps documents in memory only.
	BackendMemory = "memory"

	databaseFileName = "portal-inbox.db"
	documentsDirName = "documents"
)

// NewFromConfig creates the backend named by storage_backend under state_dir.
func NewFromConfig() (DocumentStore, error) {
	backend := config.Get("storage_backend", BackendSQLite)
	return NewForBackend(backend, config.Get("state_dir", ""))
}

// NewForBackend creates a store for the named backend. A SQLite database
// that cannot be opened falls back to the file backend with a warning.
func NewForBackend(backend, stateDir string) (DocumentStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSQLite:
		db, err := sqlite.Open(filepath.Join(stateDir, databaseFileName))
		if err != nil {
			colors.Warning(fmt.Sprintf("failed to initialize sqlite backend, falling back to file: %v", err))
			return NewFileStore(filepath.Join(stateDir, documentsDirName))
		}
		return &sqliteDocuments{Store: db}, nil
	case BackendFile:
		return NewFileStore(filepath.Join(stateDir, documentsDirName))
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		colors.Warning(fmt.Sprintf("unknown storage backend '%s', falling back to sqlite", backend))
		return NewForBackend(BackendSQLite, stateDir)
	}
}

// sqliteDocuments maps sqlite.ErrNotFound onto ErrNotFound.
type sqliteDocuments struct {
	*sqlite.Store
}

var _ DocumentStore = (*sqliteDocuments)(nil)

func (s *sqliteDocuments) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.Store.Get(ctx, key)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}
