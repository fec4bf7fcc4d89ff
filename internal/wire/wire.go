//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"asset-forge/internal/application/asset"
	"asset-forge/internal/application/job"
	"asset-forge/internal/config"
	"asset-forge/internal/interfaces/http/handler"
	"asset-forge/internal/interfaces/http/router"
)

// InitializeApp 初始化 API 网关（路由、存储与任务分发）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		InfraSet,
		GenerationSet,
		DispatchSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeWorker 初始化独立执行器
func InitializeWorker(ctx context.Context, cfg *config.Config) (*Worker, func(), error) {
	wire.Build(
		InfraSet,
		GenerationSet,
		wire.Struct(new(Worker), "*"),
	)
	return nil, nil, nil
}

// InfraSet 存储与 Redis 提供者集合
var InfraSet = wire.NewSet(
	ProvideRedisClient,
	ProvideStore,
	ProvideJobRepository,
)

// GenerationSet 生成链路提供者集合
var GenerationSet = wire.NewSet(
	ProvidePresets,
	ProvideAssetService,
	ProvideExecutor,
)

// DispatchSet 任务服务与分发提供者集合
var DispatchSet = wire.NewSet(
	ProvideDispatch,
	ProvideQueue,
	job.NewService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewGenerateHandler,
	handler.NewJobHandler,
	handler.NewAssetHandler,
	ProvideHealthHandler,
	wire.Bind(new(handler.JobService), new(*job.Service)),
	wire.Bind(new(handler.ArtifactResolver), new(*asset.Service)),
	wire.Struct(new(router.Handlers), "*"),
	ProvideRouter,
)
