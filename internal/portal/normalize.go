package portal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/univ-portal/portal-inbox/internal/domain"
)

// normalizeList extracts the record array from any of the shapes the portal
// returns: a bare array, {"data": [...]}, {"<collection>": [...]} or the
// collection nested one level under "data".
func normalizeList(body []byte, collection string) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}

	var list []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		return list, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	for _, key := range []string{collection, "data"} {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		// Recursing also unwraps {"data": {"<collection>": [...]}}.
		return normalizeList(raw, collection)
	}
	return nil, fmt.Errorf("decode %s: no %q or \"data\" array in response", collection, collection)
}

// fields is a record decoded leniently: every accessor degrades to a zero
// value instead of failing.
type fields map[string]json.RawMessage

func decodeFields(raw json.RawMessage) fields {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return fields{}
	}
	return f
}

// str returns the first present key as a string. Numbers and booleans are
// formatted.
func (f fields) str(keys ...string) string {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		switch typed := v.(type) {
		case string:
			return typed
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(typed)
		}
	}
	return ""
}

// boolPtr returns the first present key as a bool, or nil.
func (f fields) boolPtr(keys ...string) *bool {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		var b bool
		switch typed := v.(type) {
		case bool:
			b = typed
		case float64:
			b = typed != 0
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(typed))
			if err != nil {
				continue
			}
			b = parsed
		default:
			continue
		}
		return &b
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// time parses the first present key. Epoch values are milliseconds; strings
// without a zone are local time.
func (f fields) time(keys ...string) time.Time {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		switch typed := v.(type) {
		case float64:
			return time.UnixMilli(int64(typed))
		case string:
			for _, layout := range timeLayouts {
				if t, err := time.ParseInLocation(layout, strings.TrimSpace(typed), time.Local); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}

func decodeNotification(raw json.RawMessage) domain.Notification {
	f := decodeFields(raw)
	isRead := f.boolPtr("isRead", "read", "is_read")
	return domain.Notification{
		ID:          f.str("id", "_id"),
		Title:       f.str("title"),
		Content:     f.str("content", "message"),
		Type:        domain.NotificationType(strings.ToLower(f.str("type"))),
		IsRead:      isRead != nil && *isRead,
		CreatedAt:   f.time("createdAt", "created_at"),
		ActionLink:  f.str("actionLink", "action_link"),
		ActionLabel: f.str("actionLabel", "action_label"),
	}
}

func decodeRequest(raw json.RawMessage) domain.ChangeRequest {
	f := decodeFields(raw)
	return domain.ChangeRequest{
		ID:        f.str("id", "_id"),
		Status:    strings.ToLower(strings.TrimSpace(f.str("status"))),
		Type:      strings.ToLower(f.str("type", "requestType", "request_type")),
		Current:   f.str("current", "currentSection", "current_section"),
		Requested: f.str("requested", "requestedSection", "requested_section"),
		Approved:  f.boolPtr("approved"),
		CreatedAt: f.time("createdAt", "created_at"),
		UpdatedAt: f.time("updatedAt", "updated_at"),
	}
}
