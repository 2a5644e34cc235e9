// Package notify publishes build events.
package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/retry"
	"git.home.luguber.info/inful/usemin/internal/usemin"
)

// Build statuses.
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Event describes one finished build.
type Event struct {
	ID         string    `json:"id"`
	BuildID    string    `json:"build_id"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Documents  int       `json:"documents"`
	Blocks     int       `json:"blocks"`
	Artifacts  int       `json:"artifacts"`
	Failed     []string  `json:"failed,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// NewEvent summarizes a build. The status is failed when err is set and
// nothing succeeded, partial when only some documents failed.
func NewEvent(buildID, reason string, started time.Time, summary usemin.Summary, err error) Event {
	ev := Event{
		ID:         uuid.NewString(),
		BuildID:    buildID,
		Reason:     reason,
		Status:     StatusSuccess,
		StartedAt:  started.UTC(),
		DurationMS: time.Since(started).Milliseconds(),
		Documents:  summary.Documents,
		Blocks:     summary.Blocks,
		Artifacts:  summary.Artifacts,
		Failed:     summary.Failed,
	}
	if err != nil {
		ev.Error = err.Error()
		ev.Status = StatusFailed
		if len(summary.Failed) > 0 && len(summary.Failed) < summary.Documents {
			ev.Status = StatusPartial
		}
	}
	return ev
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                          { return nil }

// Options configure New.
type Options struct {
	NATSURL string
	Subject string

	// Retry governs failed publishes; the zero value uses retry.DefaultPolicy.
	Retry retry.Policy
}

// New returns a NATS publisher, or Noop when no URL is configured.
func New(opts Options) (Publisher, error) {
	if opts.NATSURL == "" {
		return Noop{}, nil
	}
	p, err := NewNATS(opts.NATSURL, opts.Subject)
	if err != nil {
		return nil, err
	}
	if opts.Retry != (retry.Policy{}) {
		p.retry = opts.Retry
	}
	return p, nil
}

// conn is the subset of *nats.Conn used for publishing.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes events as JSON on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	retry   retry.Policy
}

// NewNATS connects to url.
func NewNATS(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.ConfigError("notify subject is required").Build()
	}
	opts = append([]nats.Option{nats.Name("usemin"), nats.Timeout(5 * time.Second)}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNotify, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS build notifications enabled", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: nc, subject: subject, retry: retry.DefaultPolicy()}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush,
// retrying transient failures.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal build event").Build()
	}
	if err := p.retry.Do(ctx, func(ctx context.Context) error { return p.send(ctx, data) }); err != nil {
		return err
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), slog.String("status", ev.Status))
	return nil
}

func (p *NATSPublisher) send(ctx context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to publish build event").
			WithContext("subject", p.subject).
			Build()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNotify, "failed to flush build event").
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// Multi publishes to every publisher, joining their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
