package search

import (
	"strings"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// SubstringProvider matches if any configured field contains the query.
type SubstringProvider struct {
	opts Options
}

// NewSubstringProvider creates a new substring search provider.
func NewSubstringProvider(opts ...Option) Provider {
	return &SubstringProvider{opts: applyOptions(opts)}
}

// Match returns true if any configured field contains the query substring.
func (p *SubstringProvider) Match(n domain.Notification, query string) bool {
	if query == "" {
		return true
	}
	return containsAny(fieldValues(n, p.opts.Fields), query, p.opts.CaseInsensitive)
}

// Name returns the provider name.
func (p *SubstringProvider) Name() string {
	return KindSubstring
}

func containsAny(values []string, query string, caseInsensitive bool) bool {
	if caseInsensitive {
		query = strings.ToLower(query)
	}
	for _, v := range values {
		if caseInsensitive {
			v = strings.ToLower(v)
		}
		if strings.Contains(v, query) {
			return true
		}
	}
	return false
}
