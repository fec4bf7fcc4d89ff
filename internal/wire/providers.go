// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"asset-forge/internal/application/analysis"
	"asset-forge/internal/application/asset"
	"asset-forge/internal/application/geometry"
	"asset-forge/internal/application/job"
	"asset-forge/internal/application/procedural"
	"asset-forge/internal/config"
	"asset-forge/internal/domain/repository"
	"asset-forge/internal/infrastructure/meshio"
	"asset-forge/internal/infrastructure/messaging"
	"asset-forge/internal/infrastructure/persistence/memory"
	"asset-forge/internal/infrastructure/persistence/postgres"
	"asset-forge/internal/infrastructure/persistence/redis"
	"asset-forge/internal/interfaces/http/handler"
	"asset-forge/internal/interfaces/http/middleware"
	"asset-forge/internal/interfaces/http/router"
	"asset-forge/pkg/logger"
)

// Store 任务存储及其就绪检查
type Store struct {
	Jobs   repository.JobRepository
	Checks map[string]handler.HealthChecker
	// Ephemeral 为 true 时进程退出前清空任务
	Ephemeral bool
}

// Dispatch 异步任务分发：内存队列时 Pool 非空
type Dispatch struct {
	Queue job.Queue
	Pool  *job.WorkerPool
}

// App API 网关依赖容器
type App struct {
	Router   *router.Router
	Store    *Store
	Dispatch *Dispatch
}

// Worker 独立执行器依赖容器
type Worker struct {
	Executor *job.Executor
	Redis    *redis.Client
	Store    *Store
}

// ProvideRedisClient 提供 Redis 客户端，未启用任何 Redis 功能时返回 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.UsesRedis() {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	logger.Info(ctx, "redis connected", "host", cfg.Cache.Redis.Host, "port", cfg.Cache.Redis.Port)
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideStore 按 store.driver 选择任务存储，SQL 存储可叠加 Redis 读缓存
func ProvideStore(ctx context.Context, cfg *config.Config, rc *redis.Client) (*Store, func(), error) {
	store := &Store{Checks: map[string]handler.HealthChecker{}}
	if rc != nil {
		store.Checks["redis"] = rc
	}

	cleanup := func() {}
	switch cfg.Store.Driver {
	case "memory":
		store.Jobs = memory.NewJobRepository()
		store.Ephemeral = true
	case "redis":
		store.Jobs = redis.NewJobRepository(rc, cfg.Store.KeyPrefix)
	case "postgres", "sqlite":
		var (
			client *postgres.Client
			err    error
		)
		if cfg.Store.Driver == "postgres" {
			client, err = postgres.NewClient(&cfg.Database.Postgres)
		} else {
			client, err = postgres.NewSQLiteClient(cfg.Store.SQLitePath)
		}
		if err != nil {
			return nil, nil, err
		}
		if err := client.AutoMigrate(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		store.Checks[cfg.Store.Driver] = client
		store.Jobs = postgres.NewJobRepository(client)
		if cfg.Cache.Enabled && rc != nil {
			store.Jobs = redis.NewCachedJobRepository(store.Jobs, redis.NewCache(rc), cfg.Store.KeyPrefix, cfg.Cache.JobTTL)
		}
		cleanup = func() {
			_ = client.Close()
		}
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	logger.Info(ctx, "job store ready", "driver", cfg.Store.Driver, "cache", cfg.Cache.Enabled)
	return store, cleanup, nil
}

// ProvideJobRepository 取出任务仓储
func ProvideJobRepository(store *Store) repository.JobRepository {
	return store.Jobs
}

// ProvidePresets 读取形状预设，未配置文件时使用内置值
func ProvidePresets(cfg *config.Config) (geometry.Presets, error) {
	if cfg.Storage.ShapesFile == "" {
		return geometry.DefaultPresets(), nil
	}
	return geometry.LoadPresets(cfg.Storage.ShapesFile)
}

// ProvideAssetService 提供资产生成服务
func ProvideAssetService(cfg *config.Config, presets geometry.Presets) *asset.Service {
	return asset.NewService(
		procedural.NewGenerator(presets),
		analysis.NewValidator(meshio.Codec{}),
		asset.Config{
			OutputDir:      cfg.Storage.OutputDir,
			ScreenshotSize: cfg.Generation.ScreenshotSize,
		},
	)
}

// ProvideExecutor 提供任务执行器
func ProvideExecutor(repo repository.JobRepository, assets *asset.Service) *job.Executor {
	return job.NewExecutor(repo, assets)
}

// ProvideDispatch 按 queue.driver 选择内存队列 + 进程内执行器，或 Redis Stream 生产者
func ProvideDispatch(ctx context.Context, cfg *config.Config, rc *redis.Client, executor *job.Executor) (*Dispatch, func(), error) {
	switch cfg.Queue.Driver {
	case "redis":
		if rc == nil {
			return nil, nil, fmt.Errorf("queue driver redis requires a redis client")
		}
		stream := messaging.Stream(cfg.Messaging.RedisStream.Stream)
		producer := messaging.NewProducer(rc.Redis(), stream, int64(cfg.Messaging.RedisStream.MaxLen))
		return &Dispatch{Queue: producer}, func() {}, nil
	default:
		queue := job.NewMemoryQueue(cfg.Worker.QueueSize)
		pool := job.NewWorkerPool(executor, queue, cfg.Worker.Concurrency)
		pool.Start(ctx)
		return &Dispatch{Queue: queue, Pool: pool}, pool.Stop, nil
	}
}

// ProvideQueue 取出任务队列
func ProvideQueue(d *Dispatch) job.Queue {
	return d.Queue
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, store *Store) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, store.Checks)
}

// ProvideRouter 提供路由器，限流后端由 security.rate_limit.backend 决定
func ProvideRouter(ctx context.Context, cfg *config.Config, handlers router.Handlers, rc *redis.Client) *router.Router {
	rl := cfg.Security.RateLimit
	if !rl.Enabled {
		return router.New(cfg, handlers)
	}
	if rl.Backend == "redis" && rc != nil {
		key := func(c *gin.Context) string {
			return redis.BuildRateLimitKey(c.ClientIP(), c.FullPath())
		}
		return router.New(cfg, handlers, router.WithRateLimiter(redis.NewRateLimiter(rc), key))
	}
	return router.New(cfg, handlers, router.WithRateLimiter(middleware.NewLocalRateLimiter(ctx, rl.Burst), middleware.ClientIPKey))
}
