package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/univ-portal/portal-inbox/internal/domain"
	"github.com/univ-portal/portal-inbox/internal/storage"
)

type mockMirror struct {
	mock.Mock
}

func (m *mockMirror) UpdatePreferences(ctx context.Context, userID string, prefs any) error {
	args := m.Called(ctx, userID, prefs)
	return args.Error(0)
}

func TestDefault(t *testing.T) {
	p := Default(domain.GroupDaily)
	assert.Equal(t, domain.GroupDaily, p.Grouping)
	assert.True(t, p.Email)
	for _, typ := range domain.KnownTypes {
		assert.True(t, p.Types[typ])
	}
	assert.Equal(t, domain.GroupNone, Default("weekly").Grouping)
}

func TestEnabledAndHidden(t *testing.T) {
	p := Default(domain.GroupNone)
	require.NoError(t, p.SetType("cours", false))
	require.Error(t, p.SetType("annonce", false))

	assert.False(t, p.Enabled(domain.TypeCours))
	assert.True(t, p.Enabled(domain.TypeAdmin))
	assert.True(t, p.Enabled("annonce"), "unknown types are always shown")
	assert.Equal(t, map[domain.NotificationType]bool{domain.TypeCours: true}, p.Hidden())

	empty := Preferences{}
	assert.True(t, empty.Enabled(domain.TypeExamen), "missing type means enabled")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default(domain.GroupType).Validate())

	bad := Default(domain.GroupType)
	bad.Grouping = "weekly"
	assert.Error(t, bad.Validate())

	bad = Default(domain.GroupType)
	bad.Types["annonce"] = true
	assert.Error(t, bad.Validate())
}

func TestStoreLoadDefaults(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), WithDefaultGrouping(domain.GroupType))
	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Default(domain.GroupType), p)
}

func TestStoreLoadNormalizesDocument(t *testing.T) {
	docs := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, docs.Put(ctx, storage.KeyPreferences,
		[]byte(`{"types":{"cours":false,"legacy":true},"email":false,"grouping":"DAILY"}`)))

	p, err := NewStore(docs).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GroupDaily, p.Grouping)
	assert.False(t, p.Email)
	assert.False(t, p.Types[domain.TypeCours])
	assert.True(t, p.Types[domain.TypeAdmin])
	assert.NotContains(t, p.Types, domain.NotificationType("legacy"))
}

func TestStoreLoadCorruptDocument(t *testing.T) {
	docs := storage.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, docs.Put(ctx, storage.KeyPreferences, []byte(`nope`)))

	p, err := NewStore(docs).Load(ctx)
	require.Error(t, err)
	assert.Equal(t, Default(domain.GroupNone), p)
}

func TestStoreSaveMirrorsBestEffort(t *testing.T) {
	docs := storage.NewMemoryStore()
	mirror := &mockMirror{}
	mirror.On("UpdatePreferences", mock.Anything, "u1", mock.AnythingOfType("settings.Preferences")).
		Return(errors.New("offline")).Once()

	s := NewStore(docs, WithMirror(mirror, "u1"))
	p := Default(domain.GroupNone)
	p.Grouping = domain.GroupType
	p.Email = false

	require.NoError(t, s.Save(context.Background(), p))
	mirror.AssertExpectations(t)

	loaded, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p, loaded)
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	mirror := &mockMirror{}
	s := NewStore(storage.NewMemoryStore(), WithMirror(mirror, "u1"))
	p := Default(domain.GroupNone)
	p.Grouping = "hourly"

	require.Error(t, s.Save(context.Background(), p))
	mirror.AssertNotCalled(t, "UpdatePreferences", mock.Anything, mock.Anything, mock.Anything)
}

func TestStoreSaveWithoutUserSkipsMirror(t *testing.T) {
	mirror := &mockMirror{}
	s := NewStore(storage.NewMemoryStore(), WithMirror(mirror, ""))
	require.NoError(t, s.Save(context.Background(), Default(domain.GroupNone)))
	mirror.AssertNotCalled(t, "UpdatePreferences", mock.Anything, mock.Anything, mock.Anything)
}
