package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failing struct{ Recorder }

func (f *failing) Publish(context.Context, Event) error { return errors.New("broker down") }

func TestRecorder_KeepsOrder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	Emit(ctx, r, Event{Type: PostCreated, PostID: "p1"})
	Emit(ctx, r, Event{Type: PostLiked, PostID: "p1"})

	assert.Equal(t, []string{PostCreated, PostLiked}, r.Types())
}

func TestEmit_SwallowsPublishError(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), &failing{}, Event{Type: PostCreated})
	})
}

func TestNewKafka_SplitsBrokers(t *testing.T) {
	p := NewKafka(" a:9092, ,b:9092", "activity").(*kafkaPublisher)
	assert.Equal(t, "activity", p.w.Topic)
	assert.Contains(t, p.w.Addr.String(), "a:9092")
	assert.NoError(t, p.Close())
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestKafka_PublishDoesNotWaitForBroker(t *testing.T) {
	var logs syncBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	p := NewKafka("127.0.0.1:1", "activity")
	start := time.Now()
	err := p.Publish(context.Background(), Event{Type: PostLiked, PostID: "p1", Time: time.Now()})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	_ = p.Close()
	assert.Eventually(t, func() bool {
		return strings.Contains(logs.String(), `"post_id":"p1"`)
	}, 5*time.Second, 20*time.Millisecond)
}
