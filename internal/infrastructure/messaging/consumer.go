package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"asset-forge/pkg/logger"
	"asset-forge/pkg/metrics"
)

// MessageHandler 消息处理函数，返回错误时消息保持 pending 等待重试
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig 消费者配置
type ConsumerConfig struct {
	Stream        Stream
	Group         ConsumerGroup
	ConsumerName  string
	BlockTimeout  time.Duration
	ClaimInterval time.Duration
	RetryLimit    int
	Backoff       BackoffConfig
}

func (c *ConsumerConfig) setDefaults() {
	if c.Stream == "" {
		c.Stream = StreamAssetGen
	}
	if c.Group == "" {
		c.Group = ConsumerGroupAssetWorker
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = 5 * time.Second
	}
	if c.ClaimInterval <= 0 {
		c.ClaimInterval = 30 * time.Second
	}
	if c.RetryLimit <= 0 {
		c.RetryLimit = 3
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff = DefaultBackoffConfig()
	}
}

// DeadLetter 死信条目
// Message 为空表示原始消息无法解析，此时 Raw 保存流中的字段
type DeadLetter struct {
	Stream    string         `json:"original_stream"`
	MessageID string         `json:"message_id"`
	Message   *Message       `json:"data,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
	Error     string         `json:"error"`
	FailedAt  int64          `json:"failed_at"`
}

// Consumer Redis Stream 消费者
// 同一消费者内串行处理；失败消息按退避重投，超过重试上限进入死信流
type Consumer struct {
	client      *redis.Client
	cfg         ConsumerConfig
	reclaimIdle time.Duration

	handlers map[string]MessageHandler
	mu       sync.RWMutex
	running  bool
	stopCh   chan struct{}
	done     chan struct{}
}

// NewConsumer 创建消息消费者
func NewConsumer(client *redis.Client, cfg ConsumerConfig) *Consumer {
	cfg.setDefaults()
	return &Consumer{
		client:      client,
		cfg:         cfg,
		reclaimIdle: max(5*time.Minute, cfg.Backoff.Max*2),
		handlers:    make(map[string]MessageHandler),
		stopCh:      make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (c *Consumer) stream() string { return string(c.cfg.Stream) }

func (c *Consumer) group() string { return string(c.cfg.Group) }

// RegisterHandler 注册消息处理器
func (c *Consumer) RegisterHandler(msgType string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = handler
}

func (c *Consumer) handler(msgType string) (MessageHandler, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handlers[msgType]
	return h, ok
}

// Start 创建消费者组并启动消费循环
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	err := c.client.XGroupCreateMkStream(ctx, c.stream(), c.group(), "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	go c.loop(ctx)
	return nil
}

// Stop 停止消费者，等待当前消息处理完毕
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	c.running = false
	c.mu.Unlock()
	<-c.done
}

func (c *Consumer) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Consumer) loop(ctx context.Context) {
	defer close(c.done)

	log := logger.FromContext(ctx)
	log.Info("consumer started",
		"stream", c.cfg.Stream,
		"group", c.cfg.Group,
		"consumer", c.cfg.ConsumerName,
	)
	defer log.Info("consumer stopped", "consumer", c.cfg.ConsumerName)

	lastReclaim := time.Now().Add(-c.cfg.ClaimInterval)
	for !c.stopped(ctx) {
		c.retryDue(ctx)
		if time.Since(lastReclaim) >= c.cfg.ClaimInterval {
			c.reclaimStale(ctx)
			lastReclaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.group(),
			Consumer: c.cfg.ConsumerName,
			Streams:  []string{c.stream(), ">"},
			Count:    10,
			Block:    c.cfg.BlockTimeout,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Error("failed to read from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, xmsg := range s.Messages {
				c.handle(ctx, xmsg)
			}
		}
	}
}

func decode(xmsg redis.XMessage) (*Message, error) {
	raw, ok := xmsg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("message %s has no data field", xmsg.ID)
	}
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", xmsg.ID, err)
	}
	return &msg, nil
}

// messageContext 把消息元数据中的请求与链路标识带入日志上下文
func messageContext(ctx context.Context, msg *Message) context.Context {
	if reqID := msg.GetMetadata("request_id"); reqID != "" {
		ctx = logger.WithContext(ctx, logger.RequestIDKey, reqID)
	}
	if traceID := msg.GetMetadata("trace_id"); traceID != "" {
		ctx = logger.WithContext(ctx, logger.TraceIDKey, traceID)
	}
	return logger.WithContext(ctx, logger.JobIDKey, msg.ID)
}

func (c *Consumer) handle(ctx context.Context, xmsg redis.XMessage) {
	ctx, span := tracer.Start(ctx, "consumer.handle",
		trace.WithAttributes(
			attribute.String("stream", c.stream()),
			attribute.String("stream.message_id", xmsg.ID),
		))
	defer span.End()

	msg, err := decode(xmsg)
	if err != nil {
		// 无法解析的消息重试无意义
		span.RecordError(err)
		logger.FromContext(ctx).Error("invalid message format", "error", err, "message_id", xmsg.ID)
		c.deadLetter(ctx, xmsg, nil, err)
		c.settle(ctx, xmsg.ID, "malformed")
		return
	}

	ctx = messageContext(ctx, msg)
	log := logger.FromContext(ctx)
	span.SetAttributes(
		attribute.String("message.id", msg.ID),
		attribute.String("message.type", msg.Type),
	)

	h, ok := c.handler(msg.Type)
	if !ok {
		log.Warn("no handler for message type", "type", msg.Type)
		c.settle(ctx, xmsg.ID, "unhandled")
		return
	}

	if err := h(ctx, msg); err != nil {
		span.RecordError(err)
		log.Error("handler failed", "error", err, "message_id", msg.ID)

		deliveries := c.deliveries(ctx, xmsg.ID)
		if deliveries >= c.cfg.RetryLimit {
			log.Warn("message moved to DLQ after max retries", "message_id", msg.ID, "deliveries", deliveries)
			c.deadLetter(ctx, xmsg, msg, err)
			c.settle(ctx, xmsg.ID, "dlq")
			return
		}
		log.Info("message left pending for retry", "message_id", msg.ID, "deliveries", deliveries)
		c.observe("retry")
		return
	}

	c.settle(ctx, xmsg.ID, "acked")
}

func (c *Consumer) observe(status string) {
	metrics.RedisStreamProcessed.WithLabelValues(c.stream(), status).Inc()
}

// settle 确认消息并记录处理结果
func (c *Consumer) settle(ctx context.Context, id, status string) {
	if err := c.client.XAck(ctx, c.stream(), c.group(), id).Err(); err != nil {
		logger.FromContext(ctx).Error("failed to ack message", "error", err, "message_id", id)
	}
	c.observe(status)
}

// deliveries 消息已被投递的次数
func (c *Consumer) deliveries(ctx context.Context, id string) int {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.stream(),
		Group:  c.group(),
		Start:  id,
		End:    id,
		Count:  1,
	}).Result()
	if err != nil || len(pending) == 0 {
		return 0
	}
	return int(pending[0].RetryCount)
}

func (c *Consumer) deadLetter(ctx context.Context, xmsg redis.XMessage, msg *Message, cause error) {
	entry := DeadLetter{
		Stream:    c.stream(),
		MessageID: xmsg.ID,
		Message:   msg,
		Error:     cause.Error(),
		FailedAt:  time.Now().Unix(),
	}
	if msg == nil {
		entry.Raw = xmsg.Values
	}
	data, err := json.Marshal(entry)
	if err != nil {
		logger.FromContext(ctx).Error("failed to encode dead letter", "error", err, "message_id", xmsg.ID)
		return
	}

	dlq := c.cfg.Stream.DLQStream()
	if err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: dlq,
		Values: map[string]any{"data": string(data)},
	}).Err(); err != nil {
		logger.FromContext(ctx).Error("failed to write DLQ", "error", err, "stream", dlq)
	}
}

// pending 查询 pending 列表，consumer 为空时查询整个消费者组
func (c *Consumer) pending(ctx context.Context, consumer string) []redis.XPendingExt {
	entries, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   c.stream(),
		Group:    c.group(),
		Start:    "-",
		End:      "+",
		Count:    20,
		Consumer: consumer,
	}).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			logger.FromContext(ctx).Error("failed to query pending messages", "error", err, "consumer", consumer)
		}
		return nil
	}
	return entries
}

func (c *Consumer) claim(ctx context.Context, id string, minIdle time.Duration) []redis.XMessage {
	claimed, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.stream(),
		Group:    c.group(),
		Consumer: c.cfg.ConsumerName,
		MinIdle:  minIdle,
		Messages: []string{id},
	}).Result()
	if err != nil {
		logger.FromContext(ctx).Error("failed to claim pending message", "error", err, "message_id", id)
		return nil
	}
	return claimed
}

// redeliver 处理接管到的消息，已耗尽重试次数的直接进入死信流
func (c *Consumer) redeliver(ctx context.Context, claimed []redis.XMessage, exhausted bool) {
	for _, xmsg := range claimed {
		if !exhausted {
			c.handle(ctx, xmsg)
			continue
		}
		msg, err := decode(xmsg)
		if err == nil {
			err = fmt.Errorf("message exceeded max retries")
		}
		c.deadLetter(ctx, xmsg, msg, err)
		c.settle(ctx, xmsg.ID, "dlq")
	}
}

// retryDue 重投本消费者退避时间已到的 pending 消息
func (c *Consumer) retryDue(ctx context.Context) {
	for _, p := range c.pending(ctx, c.cfg.ConsumerName) {
		deliveries := int(p.RetryCount)
		if deliveries >= c.cfg.RetryLimit {
			c.redeliver(ctx, c.claim(ctx, p.ID, 0), true)
			continue
		}
		wait := c.cfg.Backoff.CalculateBackoff(deliveries)
		if p.Idle < wait {
			continue
		}
		c.redeliver(ctx, c.claim(ctx, p.ID, wait), false)
	}
}

// reclaimStale 接管其他消费者长时间未确认的消息
func (c *Consumer) reclaimStale(ctx context.Context) {
	for _, p := range c.pending(ctx, "") {
		if p.Consumer == c.cfg.ConsumerName || p.Idle < c.reclaimIdle {
			continue
		}
		c.redeliver(ctx, c.claim(ctx, p.ID, c.reclaimIdle), int(p.RetryCount) >= c.cfg.RetryLimit)
	}
}

// DLQLength 死信流长度
func (c *Consumer) DLQLength(ctx context.Context) (int64, error) {
	return c.client.XLen(ctx, c.cfg.Stream.DLQStream()).Result()
}

// MonitorDLQ 每分钟检查死信流，超过阈值时告警
func (c *Consumer) MonitorDLQ(ctx context.Context, alertThreshold int64) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			n, err := c.DLQLength(ctx)
			if err != nil {
				continue
			}
			if n > alertThreshold {
				logger.Warn(ctx, "DLQ has pending messages", "stream", c.cfg.Stream.DLQStream(), "count", n)
			}
		}
	}
}
