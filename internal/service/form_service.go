package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/parisxmas/checkindesk/internal/events"
	"github.com/parisxmas/checkindesk/internal/metrics"
	"github.com/parisxmas/checkindesk/internal/models"
	"github.com/parisxmas/checkindesk/internal/repository"
	"github.com/parisxmas/checkindesk/internal/validation"
)

// FormService validates check-in form input and saves accepted
// submissions.
type FormService struct {
	repo      *repository.SubmissionRepo
	validator *validation.Validator
	events    events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func(time.Time) string
}

func NewFormService(repo *repository.SubmissionRepo, v *validation.Validator, pub events.Publisher, m *metrics.Metrics, logger *slog.Logger) *FormService {
	if v == nil {
		v = validation.New(nil)
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if m == nil {
		m = metrics.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FormService{
		repo:      repo,
		validator: v,
		events:    pub,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newID:     NewID,
	}
}

// ValidateField checks one field as it is edited.
func (s *FormService) ValidateField(name, value string, form map[string]string) validation.Result {
	return s.validator.ValidateField(name, value, TrimValues(form))
}

// Submit re-validates every field and, if all pass, appends one stamped
// record. A rejected form returns *ValidationError and stores nothing.
func (s *FormService) Submit(ctx context.Context, values map[string]string) (*models.Submission, error) {
	values = TrimValues(values)

	report := s.validator.ValidateForm(values)
	if !report.Valid() {
		s.metrics.Submissions.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, &ValidationError{Report: report}
	}

	now := s.now()
	sub := models.SubmissionFromValues(values)
	sub.ID = s.newID(now)
	sub.SubmittedAt = Timestamp(now)

	if err := s.repo.Append(ctx, sub); err != nil {
		s.metrics.Submissions.WithLabelValues(metrics.ResultFailed).Inc()
		s.logger.Error("submission save failed", slog.String("error", err.Error()))
		if errors.Is(err, repository.ErrWriteFailed) {
			return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
		return nil, err
	}

	s.metrics.Submissions.WithLabelValues(metrics.ResultSaved).Inc()
	s.metrics.Stored.Set(float64(s.repo.Count(ctx)))
	s.events.Publish(ctx, events.New(events.Created, sub.ID, 1))
	s.logger.Info("submission saved", slog.String("id", sub.ID))
	return sub, nil
}

// TrimValues returns a copy of values with surrounding whitespace removed.
func TrimValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = strings.TrimSpace(v)
	}
	return out
}
