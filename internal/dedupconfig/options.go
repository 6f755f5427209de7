// Package dedupconfig reads deduplication settings from the loaded configuration.
package dedupconfig

import (
	"github.com/univ-portal/portal-inbox/internal/config"
	"github.com/univ-portal/portal-inbox/internal/dedup"
)

// Load returns deduplication options from the dedup.criteria and
// dedup.window keys. config.Load must have been called.
func Load() dedup.Options {
	criteria := dedup.ParseCriteria(config.Get("dedup.criteria", string(dedup.CriteriaID)))
	window := config.GetDuration("dedup.window", 0)
	return dedup.Options{Criteria: criteria, Window: window}
}
