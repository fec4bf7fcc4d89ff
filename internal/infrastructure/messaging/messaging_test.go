package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/pkg/logger"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newTestConsumer(rdb *redis.Client, stream Stream, retryLimit int) *Consumer {
	return NewConsumer(rdb, ConsumerConfig{
		Stream:       stream,
		Group:        "cg-test",
		ConsumerName: "test-1",
		BlockTimeout: 50 * time.Millisecond,
		RetryLimit:   retryLimit,
		Backoff:      BackoffConfig{Initial: time.Hour, Max: time.Hour, Multiplier: 1},
	})
}

func TestCalculateBackoff(t *testing.T) {
	b := BackoffConfig{Initial: time.Second, Max: 5 * time.Second, Multiplier: 2}
	assert.Equal(t, time.Second, b.CalculateBackoff(0))
	assert.Equal(t, 2*time.Second, b.CalculateBackoff(1))
	assert.Equal(t, 4*time.Second, b.CalculateBackoff(2))
	assert.Equal(t, 5*time.Second, b.CalculateBackoff(3))
	assert.Equal(t, "dlq:stream:asset:gen", StreamAssetGen.DLQStream())
}

func TestPublishGenJobCarriesRequestID(t *testing.T) {
	rdb := setupTestRedis(t)
	producer := NewProducer(rdb, "stream:test", 100)

	ctx := logger.WithContext(context.Background(), logger.RequestIDKey, "req-1")
	id, err := producer.PublishGenJob(ctx, "job-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	entries, err := rdb.XRange(context.Background(), "stream:test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	msg, err := decode(entries[0])
	require.NoError(t, err)
	assert.Equal(t, MessageTypeAssetGen, msg.Type)
	assert.Equal(t, "req-1", msg.GetMetadata("request_id"))

	var payload AssetGenMessage
	require.NoError(t, msg.UnmarshalPayload(&payload))
	assert.Equal(t, "job-1", payload.JobID)
}

func TestConsumerDeliversAndAcks(t *testing.T) {
	rdb := setupTestRedis(t)
	stream := Stream("stream:deliver")
	producer := NewProducer(rdb, stream, 0)
	consumer := newTestConsumer(rdb, stream, 3)

	var mu sync.Mutex
	var got []string
	consumer.RegisterHandler(MessageTypeAssetGen, func(_ context.Context, msg *Message) error {
		var payload AssetGenMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, payload.JobID)
		mu.Unlock()
		return nil
	})

	ctx := context.Background()
	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()
	assert.Error(t, consumer.Start(ctx), "second start")

	require.NoError(t, producer.Enqueue(ctx, "a"))
	require.NoError(t, producer.Enqueue(ctx, "b"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a", "b"}, got)
	mu.Unlock()

	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(ctx, string(stream), "cg-test").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConsumerMovesMalformedToDLQ(t *testing.T) {
	rdb := setupTestRedis(t)
	stream := Stream("stream:malformed")
	consumer := newTestConsumer(rdb, stream, 3)
	consumer.RegisterHandler(MessageTypeAssetGen, func(context.Context, *Message) error { return nil })

	ctx := context.Background()
	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()

	require.NoError(t, rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		Values: map[string]any{"data": "{not json"},
	}).Err())

	require.Eventually(t, func() bool {
		n, err := rdb.XLen(ctx, stream.DLQStream()).Result()
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestConsumerDLQAfterRetryLimit(t *testing.T) {
	rdb := setupTestRedis(t)
	stream := Stream("stream:failing")
	producer := NewProducer(rdb, stream, 0)
	consumer := newTestConsumer(rdb, stream, 1)
	consumer.RegisterHandler(MessageTypeAssetGen, func(context.Context, *Message) error {
		return errors.New("store unavailable")
	})

	ctx := context.Background()
	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()

	require.NoError(t, producer.Enqueue(ctx, "job-x"))

	require.Eventually(t, func() bool {
		n, err := rdb.XLen(ctx, stream.DLQStream()).Result()
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		pending, err := rdb.XPending(ctx, string(stream), "cg-test").Result()
		return err == nil && pending.Count == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDeadLetterCarriesMessage(t *testing.T) {
	rdb := setupTestRedis(t)
	stream := Stream("stream:dead")
	producer := NewProducer(rdb, stream, 0)
	consumer := newTestConsumer(rdb, stream, 1)
	consumer.RegisterHandler(MessageTypeAssetGen, func(context.Context, *Message) error {
		return errors.New("boom")
	})

	ctx := context.Background()
	require.NoError(t, consumer.Start(ctx))
	defer consumer.Stop()
	require.NoError(t, producer.Enqueue(ctx, "job-dead"))

	require.Eventually(t, func() bool {
		n, err := consumer.DLQLength(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 20*time.Millisecond)

	entries, err := rdb.XRange(ctx, stream.DLQStream(), "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var dl DeadLetter
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &dl))
	assert.Equal(t, string(stream), dl.Stream)
	require.NotNil(t, dl.Message)
	assert.Equal(t, "job-dead", dl.Message.ID)
	assert.Equal(t, "boom", dl.Error)
	assert.Nil(t, dl.Raw)
}
