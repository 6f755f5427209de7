package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string         `json:"name"`
	Count int            `json:"count"`
	Tags  map[string]int `json:"tags,omitempty"`
}

func backends(t *testing.T) map[string]DocumentStore {
	t.Helper()
	dir := t.TempDir()
	file, err := NewFileStore(filepath.Join(dir, "documents"))
	require.NoError(t, err)
	sqliteStore, err := NewForBackend(BackendSQLite, dir)
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })
	return map[string]DocumentStore{
		BackendMemory: NewMemoryStore(),
		BackendFile:   file,
		BackendSQLite: sqliteStore,
	}
}

func TestDocumentStoreContract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, KeyStatusCache)
			require.ErrorIs(t, err, ErrNotFound)

			var got sample
			found, err := Load(ctx, store, KeyStatusCache, &got)
			require.NoError(t, err)
			assert.False(t, found)

			want := sample{Name: "cache", Count: 2, Tags: map[string]int{"a": 1}}
			require.NoError(t, Save(ctx, store, KeyStatusCache, want))
			found, err = Load(ctx, store, KeyStatusCache, &got)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, want, got)

			// Whole-document overwrite, not merge.
			require.NoError(t, Save(ctx, store, KeyStatusCache, sample{Name: "other"}))
			got = sample{}
			_, err = Load(ctx, store, KeyStatusCache, &got)
			require.NoError(t, err)
			assert.Equal(t, sample{Name: "other"}, got)

			require.NoError(t, Save(ctx, store, KeyOfflineQueue, []int{1, 2}))
			keys, err := store.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{KeyOfflineQueue, KeyStatusCache}, keys)

			require.NoError(t, store.Delete(ctx, KeyStatusCache))
			require.NoError(t, store.Delete(ctx, KeyStatusCache))
			_, err = store.Get(ctx, KeyStatusCache)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLoadReportsCorruptDocument(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, KeyPreferences, []byte("{not json")))

	var got sample
	_, err := Load(ctx, store, KeyPreferences, &got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), KeyPreferences)
}

func TestMemoryStoreCopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStoreEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a/b c", []byte("1")))
	_, err = os.Stat(filepath.Join(dir, "a%2Fb%20c.json"))
	require.NoError(t, err)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b c"}, keys)

	_, err = os.Stat(filepath.Join(dir, ".lock"))
	assert.True(t, os.IsNotExist(err), "lock released after write")
}

func TestFileStoreConcurrentWrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "shared", []byte(fmt.Sprint(i))))
		}(i)
	}
	wg.Wait()

	data, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, data, 1)
}

func TestLockHonoursContext(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lock")
	held := NewLock(dir)
	require.NoError(t, held.Acquire(context.Background()))
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewLock(dir).Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewForBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := NewForBackend("memory", dir)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewForBackend("FILE", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = NewForBackend("", dir)
	require.NoError(t, err)
	assert.IsType(t, &sqliteDocuments{}, s)
	require.NoError(t, s.Close())
	_, err = os.Stat(filepath.Join(dir, databaseFileName))
	require.NoError(t, err)

	s, err = NewForBackend("postgres", dir)
	require.NoError(t, err)
	assert.IsType(t, &sqliteDocuments{}, s)
	require.NoError(t, s.Close())
}

func TestNewForBackendFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	// A directory where the database file should be makes sqlite fail.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, databaseFileName), 0755))

	s, err := NewForBackend(BackendSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
}
