package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "portal-inbox.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestPutGetDelete(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "requestStatusCache")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "requestStatusCache", []byte(`{"r1":{"status":"pending"}}`)))
	data, err := s.Get(ctx, "requestStatusCache")
	require.NoError(t, err)
	require.JSONEq(t, `{"r1":{"status":"pending"}}`, string(data))

	require.NoError(t, s.Put(ctx, "requestStatusCache", []byte(`{}`)))
	data, err = s.Get(ctx, "requestStatusCache")
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))

	require.NoError(t, s.Delete(ctx, "requestStatusCache"))
	require.NoError(t, s.Delete(ctx, "requestStatusCache"))
	_, err = s.Get(ctx, "requestStatusCache")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKeysAndUpdatedAt(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Put(ctx, "offlineNotifications", []byte(`[]`)))
	require.NoError(t, s.Put(ctx, "notificationPreferences", []byte(`{}`)))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"notificationPreferences", "offlineNotifications"}, keys)

	updated, err := s.UpdatedAt(ctx, "offlineNotifications")
	require.NoError(t, err)
	require.True(t, fixed.Equal(updated))

	_, err = s.UpdatedAt(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsDataAndSchema(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", []byte(`1`)))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.schemaVersion()
	require.NoError(t, err)
	require.Equal(t, 1, version)

	data, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "1", string(data))
}
