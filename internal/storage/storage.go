// Package storage is the key/value blob layer under the submission
// repository. A Store moves raw bytes; the Accessor on top of it reads and
// writes JSON arrays the way the check-in pages expect: reads degrade to an
// empty collection, writes report success or failure.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNotFound is returned by Store.Get when the key holds nothing.
var ErrNotFound = errors.New("storage: key not found")

// Store is a string-keyed blob store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Accessor reads and writes JSON arrays under a key.
type Accessor struct {
	store  Store
	logger *slog.Logger
}

func NewAccessor(store Store, logger *slog.Logger) *Accessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accessor{store: store, logger: logger}
}

// Store returns the underlying blob store.
func (a *Accessor) Store() Store {
	return a.store
}

// Load returns the array stored under key. An absent key is an empty
// array. Malformed or non-array content is logged and treated as empty;
// only backend failures are returned as errors.
func (a *Accessor) Load(ctx context.Context, key string) ([]json.RawMessage, error) {
	raw, err := a.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", key, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []json.RawMessage{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		a.logger.Error("Storage read error", slog.String("key", key), slog.String("error", err.Error()))
		return []json.RawMessage{}, nil
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// GetItems is Load that never fails: any error is logged and an empty
// array is returned.
func (a *Accessor) GetItems(ctx context.Context, key string) []json.RawMessage {
	items, err := a.Load(ctx, key)
	if err != nil {
		a.logger.Error("Storage read error", slog.String("key", key), slog.String("error", err.Error()))
		return []json.RawMessage{}
	}
	return items
}

// SetItems serializes items (nil is written as []) under key and reports
// whether the write succeeded.
func (a *Accessor) SetItems(ctx context.Context, key string, items []json.RawMessage) bool {
	if items == nil {
		items = []json.RawMessage{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		a.logger.Error("Storage write error", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if err := a.store.Put(ctx, key, data); err != nil {
		a.logger.Error("Storage write error", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Clear removes key from the store.
func (a *Accessor) Clear(ctx context.Context, key string) error {
	if err := a.store.Delete(ctx, key); err != nil {
		a.logger.Error("Storage clear error", slog.String("key", key), slog.String("error", err.Error()))
		return fmt.Errorf("storage: clear %q: %w", key, err)
	}
	return nil
}
