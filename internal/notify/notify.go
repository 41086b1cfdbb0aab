// Package notify publishes the contact-report badge count. The tracker has no
// app icon, so the count goes to a log line, a NATS subject, a metrics gauge or
// any combination of them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultSubject is the NATS subject badge counts are published on.
const DefaultSubject = "reports.badge"

// BadgeNotifier receives the current number of contact reports after every
// change to the list.
type BadgeNotifier interface {
	SetBadgeCount(ctx context.Context, n int) error
}

// ---- log -------------------------------------------------------------------

type logNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a BadgeNotifier that writes the count at info level.
func NewLogNotifier(logger *slog.Logger) BadgeNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &logNotifier{log: logger}
}

func (n *logNotifier) SetBadgeCount(ctx context.Context, count int) error {
	n.log.InfoContext(ctx, "badge count updated", "count", count)
	return nil
}

// ---- nats ------------------------------------------------------------------

// Publisher is the part of *nats.Conn the NATS notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// PublishMetrics observes each publish attempt. metrics.Collector implements it.
type PublishMetrics interface {
	ObservePublish(elapsed time.Duration, err error)
}

// BadgeMessage is the payload published on the badge subject.
type BadgeMessage struct {
	Count int `json:"count"`
}

type natsNotifier struct {
	pub     Publisher
	subject string
	metrics PublishMetrics
}

// NewNATSNotifier returns a BadgeNotifier publishing BadgeMessage JSON on
// subject. An empty subject falls back to DefaultSubject. m may be nil.
func NewNATSNotifier(pub Publisher, subject string, m PublishMetrics) BadgeNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &natsNotifier{pub: pub, subject: subject, metrics: m}
}

func (n *natsNotifier) SetBadgeCount(_ context.Context, count int) error {
	b, err := json.Marshal(BadgeMessage{Count: count})
	if err != nil {
		return fmt.Errorf("notify.NATS.SetBadgeCount: %w", err)
	}

	start := time.Now()
	err = n.pub.Publish(n.subject, b)
	if n.metrics != nil {
		n.metrics.ObservePublish(time.Since(start), err)
	}
	if err != nil {
		return fmt.Errorf("notify.NATS.SetBadgeCount: publish %s: %w", n.subject, err)
	}
	return nil
}

// ---- fanout ----------------------------------------------------------------

type fanout []BadgeNotifier

// Fanout calls every notifier in order, even after a failure, and joins their
// errors. Nil entries are skipped.
func Fanout(notifiers ...BadgeNotifier) BadgeNotifier {
	out := make(fanout, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (f fanout) SetBadgeCount(ctx context.Context, count int) error {
	var errs []error
	for _, n := range f {
		if err := n.SetBadgeCount(ctx, count); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
