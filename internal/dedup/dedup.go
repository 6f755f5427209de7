// Package dedup removes duplicate notification records returned by the portal.
package dedup

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// Criteria defines how notification duplicates are detected.
type Criteria string

const (
	// CriteriaID treats records with the same id as duplicates.
	CriteriaID Criteria = "id"
	// CriteriaContent treats records with the same type, title and content as duplicates.
	CriteriaContent Criteria = "content"
	// CriteriaExact requires every field except the read flag to match.
	CriteriaExact Criteria = "exact"

	bucketSeparator = "\x1f" // Unit Separator to avoid conflicts with message text
)

// Options configure deduplication.
type Options struct {
	Criteria Criteria
	// Window limits content-based matches to records created close together.
	// Zero disables the window.
	Window time.Duration
}

// ParseCriteria converts user-provided strings into a Criteria value.
func ParseCriteria(value string) Criteria {
	switch strings.ToLower(value) {
	case string(CriteriaContent):
		return CriteriaContent
	case string(CriteriaExact):
		return CriteriaExact
	default:
		return CriteriaID
	}
}

// String returns the string value for Criteria.
func (c Criteria) String() string {
	return string(c)
}

// BuildKeys returns a deduplication key for each record.
// The output slice has the same order and length as the input slice.
func BuildKeys(records []domain.Notification, opts Options) []string {
	criteria := opts.Criteria
	if criteria == "" {
		criteria = CriteriaID
	}
	keys := make([]string, len(records))
	for i := range records {
		keys[i] = buildBaseKey(records[i], criteria)
	}
	if opts.Window <= 0 {
		return keys
	}
	buckets := assignWindowBuckets(records, keys, opts.Window)
	for i, bucket := range buckets {
		if bucket > 0 {
			keys[i] = appendBucketSuffix(keys[i], bucket)
		}
	}
	return keys
}

// Unique returns records with duplicates removed, keeping the first
// occurrence of every key in input order.
func Unique(records []domain.Notification, opts Options) []domain.Notification {
	keys := BuildKeys(records, opts)
	seen := make(map[string]bool, len(keys))
	out := make([]domain.Notification, 0, len(records))
	for i, key := range keys {
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, records[i])
	}
	return out
}

// StripBucketSuffix removes the window-based suffix from a dedup key.
func StripBucketSuffix(key string) string {
	if idx := strings.Index(key, bucketSeparator); idx >= 0 {
		return key[:idx]
	}
	return key
}

func buildBaseKey(n domain.Notification, criteria Criteria) string {
	switch criteria {
	case CriteriaContent:
		return joinParts(string(n.Type), n.Title, n.Content)
	case CriteriaExact:
		created := ""
		if !n.CreatedAt.IsZero() {
			created = n.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		return joinParts(n.ID, string(n.Type), n.Title, n.Content, created, n.ActionLink, n.ActionLabel)
	case CriteriaID:
		fallthrough
	default:
		return n.ID
	}
}

func joinParts(parts ...string) string {
	return strings.Join(parts, "\x00")
}

func appendBucketSuffix(base string, bucket int) string {
	return fmt.Sprintf("%s%s%d", base, bucketSeparator, bucket)
}

// assignWindowBuckets splits each key's records, newest first, into buckets
// no wider than window. Records without a timestamp join the first bucket.
func assignWindowBuckets(records []domain.Notification, keys []string, window time.Duration) []int {
	assignments := make([]int, len(records))
	type entry struct {
		idx       int
		timestamp time.Time
	}
	grouped := make(map[string][]entry)
	for i, key := range keys {
		grouped[key] = append(grouped[key], entry{idx: i, timestamp: records[i].CreatedAt})
	}
	for _, entries := range grouped {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].timestamp.After(entries[j].timestamp)
		})
		bucketIndex := -1
		var bucketLatest time.Time
		for _, e := range entries {
			if e.timestamp.IsZero() {
				if bucketIndex == -1 {
					bucketIndex = 0
				}
				assignments[e.idx] = bucketIndex
				continue
			}
			if bucketIndex == -1 {
				bucketIndex = 0
				bucketLatest = e.timestamp
				assignments[e.idx] = bucketIndex
				continue
			}
			if bucketLatest.Sub(e.timestamp) <= window {
				assignments[e.idx] = bucketIndex
				continue
			}
			bucketIndex++
			bucketLatest = e.timestamp
			assignments[e.idx] = bucketIndex
		}
	}
	return assignments
}

// BucketFromKey returns the window bucket index encoded in the key, or -1 if none.
func BucketFromKey(key string) int {
	idx := strings.Index(key, bucketSeparator)
	if idx < 0 {
		return -1
	}
	bucket, err := strconv.Atoi(key[idx+len(bucketSeparator):])
	if err != nil {
		return -1
	}
	return bucket
}
