// Package events announces changes to the submission collection on NATS.
// Publishing is best effort: failures are logged, never returned.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const DefaultSubjectPrefix = "checkindesk.submissions"

type Type string

const (
	Created  Type = "created"
	Deleted  Type = "deleted"
	Cleared  Type = "cleared"
	Imported Type = "imported"
)

// Event is the JSON body published on <prefix>.<type>.
type Event struct {
	ID           string `json:"id"`
	Type         Type   `json:"type"`
	SubmissionID string `json:"submissionId,omitempty"`
	Count        int    `json:"count"`
	At           string `json:"at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, submissionID string, count int) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         t,
		SubmissionID: submissionID,
		Count:        count,
		At:           time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
func (Nop) Close() error                  { return nil }

// NATSPublisher publishes events as JSON on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// ConnectNATS dials url. An empty prefix means DefaultSubjectPrefix.
func ConnectNATS(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("checkindesk"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger}, nil
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t Type) string {
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(_ context.Context, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("event encode failed", slog.String("type", string(ev.Type)), slog.String("error", err.Error()))
		return
	}
	if err := p.nc.Publish(p.Subject(ev.Type), data); err != nil {
		p.logger.Warn("event publish failed", slog.String("type", string(ev.Type)), slog.String("error", err.Error()))
	}
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
