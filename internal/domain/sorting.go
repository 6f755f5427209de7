package domain

import "sort"

// SortNewestFirst sorts notifications by CreatedAt descending. Ties keep their
// input order.
func SortNewestFirst(records []Notification) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}

// SortOldestFirst sorts notifications by CreatedAt ascending. Ties keep their
// input order.
func SortOldestFirst(records []Notification) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
}

func sortItemsNewestFirst(items []DisplayItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
