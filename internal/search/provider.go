// Package search matches notifications against free-text queries using
// interchangeable strategies: substring, regex and token.
package search

import (
	"fmt"
	"strings"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// Provider defines the interface for search providers.
type Provider interface {
	// Match returns true if the notification matches the search query.
	Match(n domain.Notification, query string) bool

	// Name returns the provider name for identification and debugging.
	Name() string
}

// Searchable fields.
const (
	FieldTitle   = "title"
	FieldContent = "content"
	FieldType    = "type"
	FieldAction  = "action"
)

// Options holds configuration options for creating search providers.
type Options struct {
	CaseInsensitive bool
	Fields          []string
}

// DefaultOptions searches title and content, ignoring case.
func DefaultOptions() Options {
	return Options{
		CaseInsensitive: true,
		Fields:          []string{FieldTitle, FieldContent},
	}
}

// Option is a function that modifies search options.
type Option func(*Options)

// WithCaseInsensitive sets case-insensitive search.
func WithCaseInsensitive(enabled bool) Option {
	return func(o *Options) {
		o.CaseInsensitive = enabled
	}
}

// WithFields sets the fields to search in.
func WithFields(fields []string) Option {
	return func(o *Options) {
		o.Fields = fields
	}
}

func applyOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fieldValues returns the searchable values of n, skipping empty ones.
func fieldValues(n domain.Notification, fields []string) []string {
	values := make([]string, 0, len(fields))
	for _, field := range fields {
		var v string
		switch field {
		case FieldTitle:
			v = n.Title
		case FieldContent:
			v = n.Content
		case FieldType:
			v = string(n.Type)
		case FieldAction:
			v = n.ActionLabel
		}
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

// Provider names.
const (
	KindSubstring = "substring"
	KindRegex     = "regex"
	KindToken     = "token"
)

// New returns the provider named kind. An empty kind selects substring.
func New(kind string, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindSubstring:
		return NewSubstringProvider(opts...), nil
	case KindRegex:
		return NewRegexProvider(opts...), nil
	case KindToken:
		return NewTokenProvider(opts...), nil
	default:
		return nil, fmt.Errorf("invalid search mode: %s", kind)
	}
}

// Filter returns the records matching query, in input order.
func Filter(p Provider, records []domain.Notification, query string) []domain.Notification {
	if query == "" {
		return records
	}
	out := make([]domain.Notification, 0, len(records))
	for _, n := range records {
		if p.Match(n, query) {
			out = append(out, n)
		}
	}
	return out
}
