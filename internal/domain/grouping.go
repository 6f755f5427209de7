package domain

import (
	"fmt"
	"strings"
	"time"
)

// GroupingStrategy controls how notifications are folded for display.
type GroupingStrategy string

const (
	GroupNone  GroupingStrategy = "none"
	GroupDaily GroupingStrategy = "daily"
	GroupType  GroupingStrategy = "type"
)

// typeGroupThreshold is the largest type partition still shown item by item.
const typeGroupThreshold = 3

// IsValid checks if the strategy is valid.
func (g GroupingStrategy) IsValid() bool {
	switch g {
	case GroupNone, GroupDaily, GroupType:
		return true
	default:
		return false
	}
}

// String returns the string representation of the strategy.
func (g GroupingStrategy) String() string {
	return string(g)
}

// ParseGroupingStrategy parses s, returning an error for unknown values.
func ParseGroupingStrategy(s string) (GroupingStrategy, error) {
	g := GroupingStrategy(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("invalid grouping strategy: %s", s)
	}
	return g, nil
}

// DisplayItem is one row of the rendered inbox: either a single record or a
// group folding several records of the same type.
//
// For a group the embedded Notification is a copy of the template record with
// a synthesized Title and Content.
type DisplayItem struct {
	Notification
	IsGrouped  bool
	GroupCount int
	GroupItems []Notification
}

// Records returns the source records this item stands for.
func (d DisplayItem) Records() []Notification {
	if d.IsGrouped {
		return d.GroupItems
	}
	return []Notification{d.Notification}
}

// UnreadCount returns the number of unread source records.
func (d DisplayItem) UnreadCount() int {
	return CountUnread(d.Records())
}

// Flatten returns every source record reachable from items, in display order.
func Flatten(items []DisplayItem) []Notification {
	var out []Notification
	for _, item := range items {
		out = append(out, item.Records()...)
	}
	return out
}

// Grouper groups notifications, computing calendar dates in Location.
type Grouper struct {
	// Location defaults to time.Local when nil.
	Location *time.Location
}

// Group groups records using the local time zone.
func Group(records []Notification, strategy GroupingStrategy) []DisplayItem {
	return Grouper{}.Group(records, strategy)
}

// Group transforms records into display items. Unknown strategies behave
// like GroupNone. Every input record appears exactly once in the output.
func (g Grouper) Group(records []Notification, strategy GroupingStrategy) []DisplayItem {
	switch strategy {
	case GroupDaily:
		return g.groupDaily(records)
	case GroupType:
		return groupByType(records)
	default:
		return ungrouped(records)
	}
}

func (g Grouper) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

func ungrouped(records []Notification) []DisplayItem {
	items := make([]DisplayItem, 0, len(records))
	for _, n := range records {
		items = append(items, DisplayItem{Notification: n})
	}
	return items
}

// partition splits records by key, keeping first-appearance order of keys
// and input order within each bucket.
func partition(records []Notification, key func(Notification) string) [][]Notification {
	index := make(map[string]int)
	var buckets [][]Notification
	for _, n := range records {
		k := key(n)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, nil)
		}
		buckets[i] = append(buckets[i], n)
	}
	return buckets
}

func (g Grouper) groupDaily(records []Notification) []DisplayItem {
	loc := g.location()
	byDay := partition(records, func(n Notification) string {
		return n.CreatedAt.In(loc).Format("2006-01-02")
	})

	var items []DisplayItem
	for _, day := range byDay {
		for _, bucket := range partition(day, func(n Notification) string { return string(n.Type) }) {
			if len(bucket) == 1 {
				items = append(items, DisplayItem{Notification: bucket[0]})
				continue
			}
			members := append([]Notification(nil), bucket...)
			SortOldestFirst(members)

			// The oldest member is the template.
			template := members[0]
			label := template.Type.Label()
			date := template.CreatedAt.In(loc).Format("02/01/2006")
			template.Title = fmt.Sprintf("%d notifications de %s - %s", len(members), label, date)
			template.Content = fmt.Sprintf("Vous avez %d notifications de %s aujourd'hui.", len(members), strings.ToLower(label))
			items = append(items, DisplayItem{
				Notification: template,
				IsGrouped:    true,
				GroupCount:   len(members),
				GroupItems:   members,
			})
		}
	}
	sortItemsNewestFirst(items)
	return items
}

func groupByType(records []Notification) []DisplayItem {
	var items []DisplayItem
	for _, bucket := range partition(records, func(n Notification) string { return string(n.Type) }) {
		members := append([]Notification(nil), bucket...)
		SortNewestFirst(members)

		if len(members) <= typeGroupThreshold {
			for _, n := range members {
				items = append(items, DisplayItem{Notification: n})
			}
			continue
		}

		// The newest member is the template.
		template := members[0]
		label := template.Type.Label()
		template.Title = fmt.Sprintf("%d notifications de %s", len(members), label)
		template.Content = fmt.Sprintf("Vous avez %d notifications récentes de type %s.", len(members), strings.ToLower(label))
		items = append(items, DisplayItem{
			Notification: template,
			IsGrouped:    true,
			GroupCount:   len(members),
			GroupItems:   members,
		})
	}
	sortItemsNewestFirst(items)
	return items
}
