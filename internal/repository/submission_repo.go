package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/storage"
)

// DefaultKey is the storage key the submission collection lives under.
const DefaultKey = "submissions"

// ErrWriteFailed is returned when the collection could not be persisted.
var ErrWriteFailed = errors.New("repository: write failed")

// SubmissionRepo is the submission collection under one storage key.
// Read-modify-write cycles are serialized so concurrent requests in this
// process cannot lose each other's changes.
type SubmissionRepo struct {
	mu     sync.Mutex
	acc    *storage.Accessor
	key    string
	logger *slog.Logger
}

func NewSubmissionRepo(acc *storage.Accessor, key string, logger *slog.Logger) *SubmissionRepo {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionRepo{acc: acc, key: key, logger: logger}
}

// Key returns the storage key of the collection.
func (r *SubmissionRepo) Key() string {
	return r.key
}

// All returns the collection in insertion order. Read failures yield an
// empty slice; items that do not decode as submissions are skipped.
func (r *SubmissionRepo) All(ctx context.Context) []models.Submission {
	r.mu.Lock()
	items := r.acc.GetItems(ctx, r.key)
	r.mu.Unlock()

	subs := make([]models.Submission, 0, len(items))
	for i, raw := range items {
		var s models.Submission
		if err := json.Unmarshal(raw, &s); err != nil {
			r.logger.Warn("skipping unreadable submission", slog.Int("index", i), slog.String("error", err.Error()))
			continue
		}
		subs = append(subs, s)
	}
	return subs
}

// Count returns the number of stored items, readable or not.
func (r *SubmissionRepo) Count(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.acc.GetItems(ctx, r.key))
}

// Append adds subs after the existing items.
func (r *SubmissionRepo) Append(ctx context.Context, subs ...*models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.acc.Load(ctx, r.key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	for _, s := range subs {
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("%w: encode submission: %v", ErrWriteFailed, err)
		}
		items = append(items, raw)
	}
	if !r.acc.SetItems(ctx, r.key, items) {
		return ErrWriteFailed
	}
	return nil
}

// DeleteByID removes every item whose id equals id and keeps the rest in
// order. Items that do not decode are kept untouched.
func (r *SubmissionRepo) DeleteByID(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.acc.Load(ctx, r.key)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	kept := make([]json.RawMessage, 0, len(items))
	removed := 0
	for _, raw := range items {
		var s models.Submission
		if err := json.Unmarshal(raw, &s); err == nil && s.ID == id {
			removed++
			continue
		}
		kept = append(kept, raw)
	}
	if removed == 0 {
		return 0, nil
	}
	if !r.acc.SetItems(ctx, r.key, kept) {
		return 0, ErrWriteFailed
	}
	return removed, nil
}

// Clear drops the whole collection.
func (r *SubmissionRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.acc.Clear(ctx, r.key); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}
