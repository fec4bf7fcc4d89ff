package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"asset-forge/pkg/logger"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	stream Stream
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, stream Stream, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	if stream == "" {
		stream = StreamAssetGen
	}
	return &Producer{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishGenJob 发布生成任务
func (p *Producer) PublishGenJob(ctx context.Context, jobID string) (string, error) {
	msg, err := NewMessage(jobID, MessageTypeAssetGen, &AssetGenMessage{JobID: jobID})
	if err != nil {
		return "", err
	}

	if reqID, ok := ctx.Value(logger.RequestIDKey).(string); ok && reqID != "" {
		msg.SetMetadata("request_id", reqID)
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.SetMetadata("trace_id", sc.TraceID().String())
	}

	return p.Publish(ctx, p.stream, msg)
}

// Enqueue 将任务 ID 投递到生成任务流
func (p *Producer) Enqueue(ctx context.Context, jobID string) error {
	_, err := p.PublishGenJob(ctx, jobID)
	return err
}
