package search

import (
	"strings"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// TokenProvider splits the query on whitespace; every token must match at
// least one field. The tokens "lu"/"read" and "non-lu"/"unread" filter on
// read state instead.
type TokenProvider struct {
	opts Options
}

// NewTokenProvider creates a new token search provider.
func NewTokenProvider(opts ...Option) Provider {
	return &TokenProvider{opts: applyOptions(opts)}
}

// Match returns true if every text token matches and the read state
// satisfies any state token.
func (p *TokenProvider) Match(n domain.Notification, query string) bool {
	values := fieldValues(n, p.opts.Fields)
	for _, token := range strings.Fields(query) {
		switch strings.ToLower(token) {
		case "lu", "read":
			if !n.IsRead {
				return false
			}
		case "non-lu", "unread":
			if n.IsRead {
				return false
			}
		default:
			if !containsAny(values, token, p.opts.CaseInsensitive) {
				return false
			}
		}
	}
	return true
}

// Name returns the provider name.
func (p *TokenProvider) Name() string {
	return KindToken
}
