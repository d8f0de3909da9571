package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/parisxmas/checkindesk/internal/events"
	"github.com/parisxmas/checkindesk/internal/export"
	"github.com/parisxmas/checkindesk/internal/metrics"
	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/repository"
	"github.com/parisxmas/checkindesk/internal/validation"
)

// ViewerService lists, searches, deletes, exports and imports stored
// submissions. It reloads the collection on every call.
type ViewerService struct {
	repo    *repository.SubmissionRepo
	events  events.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func(time.Time) string
}

func NewViewerService(repo *repository.SubmissionRepo, pub events.Publisher, m *metrics.Metrics, logger *slog.Logger) *ViewerService {
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ViewerService{
		repo:    repo,
		events:  pub,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		newID:   NewID,
	}
}

// List returns the records matching query, latest first.
func (s *ViewerService) List(ctx context.Context, query string) []models.Submission {
	return Filter(s.repo.All(ctx), query)
}

// Filter keeps records whose name contains query (case-insensitive) or
// whose submission date (YYYY-MM-DD) contains it, and reverses the result.
// A blank query keeps everything.
func Filter(subs []models.Submission, query string) []models.Submission {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Submission, 0, len(subs))
	for i := len(subs) - 1; i >= 0; i-- {
		s := subs[i]
		if q == "" || matches(s, q) {
			out = append(out, s)
		}
	}
	return out
}

func matches(s models.Submission, q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) {
		return true
	}
	date := s.SubmittedAt
	if len(date) > 10 {
		date = date[:10]
	}
	return strings.Contains(date, q)
}

// Delete removes the record with the given id.
func (s *ViewerService) Delete(ctx context.Context, id string) error {
	n, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.metrics.Deleted.Add(float64(n))
	s.metrics.Stored.Set(float64(s.repo.Count(ctx)))
	s.events.Publish(ctx, events.New(events.Deleted, id, n))
	s.logger.Info("submission deleted", slog.String("id", id), slog.Int("removed", n))
	return nil
}

// ClearAll drops the whole collection.
func (s *ViewerService) ClearAll(ctx context.Context) error {
	count := s.repo.Count(ctx)
	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	s.metrics.Cleared.Inc()
	s.metrics.Stored.Set(0)
	s.events.Publish(ctx, events.New(events.Cleared, "", count))
	s.logger.Info("submissions cleared", slog.Int("removed", count))
	return nil
}

// ExportFilename names a download of the given extension.
func (s *ViewerService) ExportFilename(ext string) string {
	return export.Filename(s.now(), ext)
}

// Export writes the full collection, in stored order, as indented JSON.
func (s *ViewerService) Export(ctx context.Context, w io.Writer) error {
	return export.WriteJSON(w, s.repo.All(ctx))
}

// ExportXLSX writes the full collection as a spreadsheet.
func (s *ViewerService) ExportXLSX(ctx context.Context, w io.Writer) error {
	return export.WriteXLSX(w, s.repo.All(ctx))
}

// Import reads a JSON array of submission-like objects and appends them
// after the existing records. Items without an id get one. Items are not
// validated against the form rules and never replace existing records.
func (s *ViewerService) Import(ctx context.Context, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, &ImportError{Err: fmt.Errorf("read import: %w", err)}
	}
	subs, err := ParseImport(data)
	if err != nil {
		return 0, err
	}

	now := s.now()
	for _, sub := range subs {
		if sub.ID == "" {
			sub.ID = s.newID(now)
		}
	}
	if len(subs) > 0 {
		if err := s.repo.Append(ctx, subs...); err != nil {
			s.logger.Error("import save failed", slog.String("error", err.Error()))
			return 0, fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}

	s.metrics.Imported.Add(float64(len(subs)))
	s.metrics.Stored.Set(float64(s.repo.Count(ctx)))
	s.events.Publish(ctx, events.New(events.Imported, "", len(subs)))
	s.logger.Info("submissions imported", slog.Int("count", len(subs)))
	return len(subs), nil
}

// ParseImport decodes an import file. The top level must be an array and
// every element an object.
func ParseImport(data []byte) ([]*models.Submission, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ImportError{Err: err}
	}
	if _, ok := top.([]any); !ok {
		return nil, &ImportError{Err: ErrNotArray}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &ImportError{Err: err}
	}
	subs := make([]*models.Submission, 0, len(items))
	for i, raw := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return nil, &ImportError{Err: fmt.Errorf("item %d: expected an object", i)}
		}
		sub := &models.Submission{}
		if err := json.Unmarshal(raw, sub); err != nil {
			return nil, &ImportError{Err: fmt.Errorf("item %d: %w", i, err)}
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Stats summarises the stored collection for the dashboard.
type Stats struct {
	SubmissionCount int    `json:"submissionCount"`
	TodayCount      int    `json:"todayCount"`
	GuestCount      int    `json:"guestCount"`
	LatestAt        string `json:"latestAt,omitempty"`
}

// maxGuests bounds the adults a single record may add to Stats.GuestCount.
const maxGuests = 1 << 20

// Stats counts all records, the ones submitted today (local date) and the
// adults they declare. Adults that do not parse, or exceed maxGuests,
// count as zero.
func (s *ViewerService) Stats(ctx context.Context) Stats {
	subs := s.repo.All(ctx)
	today := s.now().Format("2006-01-02")

	st := Stats{SubmissionCount: len(subs)}
	for _, sub := range subs {
		if t, err := time.Parse(time.RFC3339Nano, sub.SubmittedAt); err == nil {
			if t.In(s.now().Location()).Format("2006-01-02") == today {
				st.TodayCount++
			}
		}
		if n, ok := validation.ParseNumber(strings.TrimSpace(sub.Adults)); ok && n > 0 && n <= maxGuests {
			st.GuestCount += int(n)
		}
		st.LatestAt = sub.SubmittedAt
	}
	return st
}
