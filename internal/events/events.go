// Package events publishes activity events (post created, liked, commented)
// to a message broker.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

const (
	PostCreated   = "post.created"
	PostDeleted   = "post.deleted"
	PostLiked     = "post.liked"
	PostUnliked   = "post.unliked"
	PostCommented = "post.commented"
)

type Event struct {
	Type   string    `json:"type"`
	PostID string    `json:"postId"`
	UserID string    `json:"userId"`
	Time   time.Time `json:"time"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type kafkaPublisher struct {
	w *kgo.Writer
}

// NewKafka returns a publisher writing JSON events to topic. brokers is a
// comma separated list of host:port addresses. Writes are asynchronous:
// Publish only queues the message and delivery failures are logged.
func NewKafka(brokers, topic string) Publisher {
	var addrs []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			addrs = append(addrs, b)
		}
	}
	return &kafkaPublisher{w: &kgo.Writer{
		Addr:                   kgo.TCP(addrs...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             logFailed,
	}}
}

func logFailed(msgs []kgo.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		slog.Warn("deliver event", "post_id", string(m.Key), "err", err)
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	// Keyed by post so events for one post stay ordered within a partition.
	return p.w.WriteMessages(ctx, kgo.Message{Key: []byte(e.PostID), Value: b, Time: e.Time})
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }

type nop struct{}

// Nop discards every event.
func Nop() Publisher { return nop{} }

func (nop) Publish(context.Context, Event) error { return nil }
func (nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of each recorded event in publish order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}

// Emit publishes e and logs a failure instead of returning it. Activity
// events never fail the request that produced them.
func Emit(ctx context.Context, p Publisher, e Event) {
	if err := p.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "publish event", "type", e.Type, "post_id", e.PostID, "err", err)
	}
}
