package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testStream = "questions:events"

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func mustEnvelope(t *testing.T, eventType, questionID string, version int) events.Envelope {
	t.Helper()
	env, err := events.NewEnvelope(eventType, questionID, version, map[string]string{"questionId": questionID})
	require.NoError(t, err)
	return env
}

func newTestSubscriber(rdb *redis.Client) *Subscriber {
	sub := NewSubscriber(rdb, testStream, "search-projector", "test-consumer")
	sub.Block = 10 * time.Millisecond
	return sub
}

// envelopeSink collects handled envelopes across goroutines.
type envelopeSink struct {
	mu   sync.Mutex
	seen []events.Envelope
}

func (s *envelopeSink) handle(_ context.Context, env events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, env)
	return nil
}

func (s *envelopeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestPublishAndConsume(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(rdb, testStream)
	first := mustEnvelope(t, events.TypeQuestionCreated, "q-1", 1)
	second := mustEnvelope(t, events.TypeQuestionDeleted, "q-1", 2)
	require.NoError(t, pub.Publish(ctx, first))
	require.NoError(t, pub.Publish(ctx, second))

	sub := newTestSubscriber(rdb)
	sink := &envelopeSink{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Run(ctx, sink.handle)
	}()

	require.Eventually(t, func() bool { return sink.count() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	require.Len(t, sink.seen, 2)
	assert.Equal(t, first.EventID, sink.seen[0].EventID)
	assert.Equal(t, events.TypeQuestionCreated, sink.seen[0].EventType)
	assert.Equal(t, second.EventID, sink.seen[1].EventID)

	// Both entries acknowledged: nothing left pending.
	pending, err := rdb.XPending(context.Background(), testStream, "search-projector").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestMalformedEntriesAreDropped(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{"junk": "no envelope here"},
	}).Err())
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{envelopeField: "{not json"},
	}).Err())
	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: testStream,
		Values: map[string]interface{}{envelopeField: `{"eventId":"e","version":1}`},
	}).Err())

	sub := newTestSubscriber(rdb)
	sink := &envelopeSink{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Run(ctx, sink.handle)
	}()

	// All three are poison: acked without ever reaching the handler.
	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(context.Background(), testStream, "search-projector").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Zero(t, sink.count())
}

func TestHandlerErrorLeavesEntryPending(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(rdb, testStream)
	require.NoError(t, pub.Publish(ctx, mustEnvelope(t, events.TypeQuestionCreated, "q-1", 1)))

	sub := newTestSubscriber(rdb)
	delivered := make(chan struct{}, 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Run(ctx, func(context.Context, events.Envelope) error {
			delivered <- struct{}{}
			return errors.New("projection store unavailable")
		})
	}()

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("entry was never delivered")
	}
	cancel()
	<-done

	pending, err := rdb.XPending(context.Background(), testStream, "search-projector").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestReclaimRedeliversStalePending(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := NewPublisher(rdb, testStream)
	env := mustEnvelope(t, events.TypeQuestionUpdated, "q-1", 2)
	require.NoError(t, pub.Publish(ctx, env))

	// A dead consumer read the entry but never acked it.
	dead := newTestSubscriber(rdb)
	require.NoError(t, dead.EnsureGroup(ctx))
	_, err := rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    "search-projector",
		Consumer: "crashed-consumer",
		Streams:  []string{testStream, ">"},
		Count:    1,
	}).Result()
	require.NoError(t, err)

	sub := newTestSubscriber(rdb)
	sub.MinIdle = 0
	sink := &envelopeSink{}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sub.Run(ctx, sink.handle)
	}()

	require.Eventually(t, func() bool { return sink.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, env.EventID, sink.seen[0].EventID)
}

func TestEnsureGroupIdempotent(t *testing.T) {
	_, rdb := newTestRedis(t)
	sub := newTestSubscriber(rdb)

	require.NoError(t, sub.EnsureGroup(context.Background()))
	require.NoError(t, sub.EnsureGroup(context.Background()))
}
