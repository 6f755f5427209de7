package domain

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris = time.FixedZone("CET", 3600)

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02T15:04", value, paris)
	require.NoError(t, err)
	return ts
}

func notif(id string, typ NotificationType, created time.Time) Notification {
	return Notification{ID: id, Title: "t" + id, Content: "c" + id, Type: typ, CreatedAt: created}
}

func ids(records []Notification) []string {
	out := make([]string, 0, len(records))
	for _, n := range records {
		out = append(out, n.ID)
	}
	return out
}

func TestGroupingStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    GroupingStrategy
		wantErr bool
	}{
		{"none", GroupNone, false},
		{"Daily", GroupDaily, false},
		{" type ", GroupType, false},
		{"weekly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGroupingStrategy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeLabel(t *testing.T) {
	assert.Equal(t, "Administration", TypeAdmin.Label())
	assert.Equal(t, "Cours", TypeCours.Label())
	assert.Equal(t, "Examens", TypeExamen.Label())
	assert.Equal(t, "Emploi du temps", TypeSchedule.Label())
	assert.Equal(t, "Notification", NotificationType("annonce").Label())
	assert.Equal(t, "Notification", NotificationType("").Label())
}

func TestGroupNoneIsIdentity(t *testing.T) {
	g := Grouper{Location: paris}
	records := []Notification{
		notif("1", TypeCours, at(t, "2024-01-01T08:00")),
		notif("2", TypeCours, at(t, "2024-01-03T08:00")),
		notif("3", TypeAdmin, at(t, "2024-01-02T08:00")),
	}

	items := g.Group(records, GroupNone)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.False(t, item.IsGrouped)
		assert.Equal(t, records[i], item.Notification)
	}

	assert.Equal(t, items, g.Group(records, GroupingStrategy("bogus")), "unknown strategy falls back to none")
}

func TestGroupDailyBoundary(t *testing.T) {
	g := Grouper{Location: paris}

	t.Run("across midnight stays separate", func(t *testing.T) {
		items := g.Group([]Notification{
			notif("a", TypeCours, at(t, "2024-01-01T23:59")),
			notif("b", TypeCours, at(t, "2024-01-02T00:01")),
		}, GroupDaily)
		require.Len(t, items, 2)
		assert.False(t, items[0].IsGrouped)
		assert.False(t, items[1].IsGrouped)
		assert.Equal(t, "b", items[0].ID)
		assert.Equal(t, "a", items[1].ID)
	})

	t.Run("same day folds", func(t *testing.T) {
		items := g.Group([]Notification{
			notif("a", TypeCours, at(t, "2024-01-01T15:00")),
			notif("b", TypeCours, at(t, "2024-01-01T09:00")),
		}, GroupDaily)
		require.Len(t, items, 1)
		group := items[0]
		assert.True(t, group.IsGrouped)
		assert.Equal(t, 2, group.GroupCount)
		assert.Equal(t, []string{"b", "a"}, ids(group.GroupItems), "members in chronological order")
		assert.Equal(t, "b", group.ID, "oldest member is the template")
		assert.Equal(t, at(t, "2024-01-01T09:00"), group.CreatedAt)
		assert.Equal(t, "2 notifications de Cours - 01/01/2024", group.Title)
		assert.Equal(t, "Vous avez 2 notifications de cours aujourd'hui.", group.Content)
	})

	t.Run("same day different types stay apart", func(t *testing.T) {
		items := g.Group([]Notification{
			notif("a", TypeCours, at(t, "2024-01-01T08:00")),
			notif("b", TypeExamen, at(t, "2024-01-01T09:00")),
		}, GroupDaily)
		require.Len(t, items, 2)
		assert.Equal(t, []string{"b", "a"}, ids(Flatten(items)))
	})

	t.Run("date uses the grouper location", func(t *testing.T) {
		utc := Grouper{Location: time.UTC}
		// 00:30 CET on Jan 2 is 23:30 UTC on Jan 1.
		items := utc.Group([]Notification{
			notif("a", TypeCours, at(t, "2024-01-01T20:00")),
			notif("b", TypeCours, at(t, "2024-01-02T00:30")),
		}, GroupDaily)
		require.Len(t, items, 1)
		assert.Equal(t, "2 notifications de Cours - 01/01/2024", items[0].Title)
	})
}

func TestGroupDailyOrdering(t *testing.T) {
	g := Grouper{Location: paris}
	items := g.Group([]Notification{
		notif("1", TypeAdmin, at(t, "2024-01-01T08:00")),
		notif("2", TypeCours, at(t, "2024-01-02T10:00")),
		notif("3", TypeAdmin, at(t, "2024-01-01T12:00")),
		notif("4", TypeCours, at(t, "2024-01-02T07:00")),
		notif("5", NotificationType("other"), at(t, "2024-01-03T07:00")),
	}, GroupDaily)

	require.Len(t, items, 3)
	assert.Equal(t, "5", items[0].ID)
	assert.Equal(t, "4", items[1].ID)
	assert.Equal(t, "2 notifications de Cours - 02/01/2024", items[1].Title)
	assert.Equal(t, "1", items[2].ID)
	assert.Equal(t, "2 notifications de Administration - 01/01/2024", items[2].Title)
}

func TestGroupTypeThreshold(t *testing.T) {
	g := Grouper{Location: paris}
	base := at(t, "2024-03-01T08:00")
	var records []Notification
	for i := 1; i <= 3; i++ {
		records = append(records, notif(fmt.Sprint(i), TypeExamen, base.Add(time.Duration(i)*time.Hour)))
	}

	items := g.Group(records, GroupType)
	require.Len(t, items, 3)
	for _, item := range items {
		assert.False(t, item.IsGrouped)
	}
	assert.Equal(t, []string{"3", "2", "1"}, ids(Flatten(items)))

	records = append(records, notif("4", TypeExamen, base.Add(-time.Hour)))
	items = g.Group(records, GroupType)
	require.Len(t, items, 1)
	group := items[0]
	assert.True(t, group.IsGrouped)
	assert.Equal(t, 4, group.GroupCount)
	assert.Equal(t, "3", group.ID, "newest member is the template")
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(group.GroupItems))
	assert.Equal(t, "4 notifications de Examens", group.Title)
	assert.Equal(t, "Vous avez 4 notifications récentes de type examens.", group.Content)
}

func TestGroupTypeMixed(t *testing.T) {
	g := Grouper{Location: paris}
	base := at(t, "2024-03-01T08:00")
	var records []Notification
	for i := 0; i < 5; i++ {
		records = append(records, notif(fmt.Sprintf("c%d", i), TypeCours, base.Add(time.Duration(i)*time.Minute)))
	}
	records = append(records,
		notif("a1", TypeAdmin, base.Add(time.Hour)),
		notif("a2", TypeAdmin, base.Add(-time.Hour)),
	)

	items := g.Group(records, GroupType)
	require.Len(t, items, 3)
	assert.Equal(t, "a1", items[0].ID)
	assert.True(t, items[1].IsGrouped)
	assert.Equal(t, "c4", items[1].ID)
	assert.Equal(t, "a2", items[2].ID)
}

func TestGroupingConservesRecords(t *testing.T) {
	g := Grouper{Location: paris}
	types := []NotificationType{TypeAdmin, TypeCours, TypeExamen, TypeSchedule, "", "annonce"}
	base := at(t, "2024-05-01T00:00")

	for _, size := range []int{0, 1, 2, 7, 40} {
		var records []Notification
		for i := 0; i < size; i++ {
			created := base.Add(time.Duration(i*i*37%(72*60)) * time.Minute)
			records = append(records, notif(fmt.Sprintf("n%d", i), types[(i*7)%len(types)], created))
		}
		for _, strategy := range []GroupingStrategy{GroupNone, GroupDaily, GroupType} {
			t.Run(fmt.Sprintf("%s/%d", strategy, size), func(t *testing.T) {
				items := g.Group(records, strategy)

				count := 0
				for _, item := range items {
					if item.IsGrouped {
						assert.GreaterOrEqual(t, item.GroupCount, 2)
						assert.Len(t, item.GroupItems, item.GroupCount)
						count += len(item.GroupItems)
					} else {
						assert.Empty(t, item.GroupItems)
						count++
					}
				}
				assert.Equal(t, size, count)

				got := ids(Flatten(items))
				want := ids(records)
				sort.Strings(got)
				sort.Strings(want)
				assert.Equal(t, want, got)

				if strategy != GroupNone {
					for i := 1; i < len(items); i++ {
						assert.False(t, items[i].CreatedAt.After(items[i-1].CreatedAt), "output sorted newest first")
					}
				}
			})
		}
	}
}

func TestGroupDoesNotMutateInput(t *testing.T) {
	records := []Notification{
		notif("1", TypeCours, at(t, "2024-01-01T08:00")),
		notif("2", TypeCours, at(t, "2024-01-01T09:00")),
	}
	before := append([]Notification(nil), records...)
	Grouper{Location: paris}.Group(records, GroupDaily)
	assert.Equal(t, before, records)
}

func TestDisplayItemUnreadCount(t *testing.T) {
	read := notif("1", TypeCours, at(t, "2024-01-01T08:00"))
	read.IsRead = true
	unread := notif("2", TypeCours, at(t, "2024-01-01T09:00"))

	items := Grouper{Location: paris}.Group([]Notification{read, unread}, GroupDaily)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].UnreadCount())
	assert.Equal(t, 0, DisplayItem{Notification: read}.UnreadCount())
}
