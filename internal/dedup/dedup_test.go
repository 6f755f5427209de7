package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/univ-portal/portal-inbox/internal/domain"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func TestParseCriteria(t *testing.T) {
	require.Equal(t, CriteriaID, ParseCriteria(""))
	require.Equal(t, CriteriaID, ParseCriteria("bogus"))
	require.Equal(t, CriteriaContent, ParseCriteria("CONTENT"))
	require.Equal(t, CriteriaExact, ParseCriteria("exact"))
}

func TestBuildKeysCriteria(t *testing.T) {
	records := []domain.Notification{
		{ID: "1", Type: domain.TypeCours, Title: "Cours annulé", Content: "Pas de cours"},
		{ID: "2", Type: domain.TypeCours, Title: "Cours annulé", Content: "Pas de cours"},
	}

	require.Equal(t, []string{"1", "2"}, BuildKeys(records, Options{}))
	require.Equal(t, []string{"1", "2"}, BuildKeys(records, Options{Criteria: CriteriaID}))

	keys := BuildKeys(records, Options{Criteria: CriteriaContent})
	require.Equal(t, "cours\x00Cours annulé\x00Pas de cours", keys[0])
	require.Equal(t, keys[0], keys[1])

	keys = BuildKeys(records, Options{Criteria: CriteriaExact})
	require.NotEqual(t, keys[0], keys[1])
}

func TestUnique(t *testing.T) {
	records := []domain.Notification{
		{ID: "1", Title: "a"},
		{ID: "2", Title: "b"},
		{ID: "1", Title: "a (again)"},
		{ID: "3", Title: "b"},
	}

	got := Unique(records, Options{Criteria: CriteriaID})
	require.Len(t, got, 3)
	require.Equal(t, "a", got[0].Title, "first occurrence wins")
	require.Equal(t, "3", got[2].ID)

	got = Unique(records, Options{Criteria: CriteriaContent})
	require.Len(t, got, 3)
	require.Equal(t, []string{"1", "2", "1"}, []string{got[0].ID, got[1].ID, got[2].ID})

	require.Empty(t, Unique(nil, Options{}))
}

func TestBuildKeysWindow(t *testing.T) {
	records := []domain.Notification{
		{ID: "a", Content: "alert", CreatedAt: ts(t, "2024-01-01T10:00:00Z")},
		{ID: "b", Content: "alert", CreatedAt: ts(t, "2024-01-01T09:55:00Z")},
		{ID: "c", Content: "alert", CreatedAt: ts(t, "2024-01-01T09:30:00Z")},
	}

	keys := BuildKeys(records, Options{Criteria: CriteriaContent, Window: 15 * time.Minute})
	require.Len(t, keys, 3)
	require.Equal(t, keys[0], keys[1])
	require.Equal(t, -1, BucketFromKey(keys[0]))
	require.Equal(t, 1, BucketFromKey(keys[2]))
	require.Equal(t, keys[0], StripBucketSuffix(keys[2]))

	require.Len(t, Unique(records, Options{Criteria: CriteriaContent, Window: 15 * time.Minute}), 2)
	require.Len(t, Unique(records, Options{Criteria: CriteriaContent}), 1)
}

func TestBuildKeysWindowZeroTimestamp(t *testing.T) {
	records := []domain.Notification{
		{ID: "a", Content: "x"},
		{ID: "b", Content: "x", CreatedAt: ts(t, "2024-01-01T10:00:00Z")},
	}
	keys := BuildKeys(records, Options{Criteria: CriteriaContent, Window: time.Minute})
	require.Equal(t, keys[0], keys[1])
}

func TestStripBucketSuffixWithoutSuffix(t *testing.T) {
	require.Equal(t, "plain", StripBucketSuffix("plain"))
	require.Equal(t, -1, BucketFromKey("plain"))
	require.Equal(t, -1, BucketFromKey("x\x1fnotanumber"))
}
