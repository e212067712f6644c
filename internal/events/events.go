// Package events phát các sự kiện nghiệp vụ của quy trình chứng nhận tới WebSocket và Kafka.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	RequestAssigned     = "request_assigned"
	RequestExecuted     = "request_executed"
	CertificationFailed = "certification_failed"
)

// Event là một sự kiện nghiệp vụ. Recipients là user ID nhận thông báo realtime.
type Event struct {
	Type       string         `json:"type"`
	Recipients []string       `json:"-"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func New(eventType string, data map[string]any, recipients ...string) Event {
	return Event{Type: eventType, Recipients: recipients, Data: data, OccurredAt: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nop struct{}

func (nop) Publish(context.Context, Event) error { return nil }

func Nop() Publisher { return nop{} }

// Multi phát sự kiện tới tất cả publisher, gom lỗi lại.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder giữ lại các sự kiện đã phát, dùng trong test.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
