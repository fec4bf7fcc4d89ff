// Package main 异步任务执行器入口（job-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"asset-forge/internal/application/job"
	"asset-forge/internal/config"
	"asset-forge/internal/infrastructure/messaging"
	"asset-forge/internal/wire"
	"asset-forge/pkg/logger"
	"asset-forge/pkg/tracer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	if cfg.Queue.Driver != "redis" {
		logger.Fatal(ctx, "job-worker requires queue.driver=redis", fmt.Errorf("queue driver is %q", cfg.Queue.Driver))
	}

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Environment: cfg.App.Env,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

	worker, cleanup, err := wire.InitializeWorker(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize worker", err)
	}
	defer cleanup()

	streamCfg := cfg.Messaging.RedisStream
	consumer := messaging.NewConsumer(worker.Redis.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.Stream(streamCfg.Stream),
		Group:         messaging.ConsumerGroup(streamCfg.ConsumerGroup),
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  streamCfg.BlockTimeout,
		ClaimInterval: streamCfg.ClaimInterval,
		RetryLimit:    streamCfg.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    streamCfg.RetryBackoff.Initial,
			Max:        streamCfg.RetryBackoff.Max,
			Multiplier: streamCfg.RetryBackoff.Multiplier,
		},
	})
	consumer.RegisterHandler(messaging.MessageTypeAssetGen, assetGenHandler(worker.Executor))

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}
	go consumer.MonitorDLQ(ctx, 100)

	log := logger.FromContext(ctx)
	log.Info("job-worker started", "stream", streamCfg.Stream, "group", streamCfg.ConsumerGroup)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("job-worker shutting down")
	consumer.Stop()
}

// assetGenHandler 生成失败由执行器写入任务状态，只有存储错误返回给消费者重试
func assetGenHandler(executor *job.Executor) messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var payload messaging.AssetGenMessage
		if err := msg.UnmarshalPayload(&payload); err != nil {
			return err
		}
		ctx = logger.WithContext(ctx, logger.JobIDKey, payload.JobID)
		return executor.Process(ctx, payload.JobID)
	}
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
