package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known document keys.
const (
	KeyStatusCache  = "requestStatusCache"
	KeyOfflineQueue = "offlineNotifications"
	KeyPreferences  = "notificationPreferences"
)

// Load decodes the JSON document under key into v. It reports false, with
// no error, when the document does not exist.
func Load(ctx context.Context, s DocumentStore, key string, v any) (bool, error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save encodes v as JSON and replaces the document under key.
func Save(ctx context.Context, s DocumentStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
