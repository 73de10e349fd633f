//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/pkg/app"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		app.ProviderSet,

		// 2. 指标收集
		provideMetricsConfig,
		metrics.New,
		provideRegistry,

		// 3. 外部存储与消息 (按开关创建)
		provideRedis,
		providePostgres,
		provideReportDAO,
		provideKafkaProducer,

		// 4. 事件分发与执行器
		provideTracerProvider,
		provideIDGenerator,
		provideEventSink,
		provideExecutor,

		// 5. 引擎
		provideEngineConfig,
		service.NewStaticAuthority,
		wire.Bind(new(service.Authority), new(*service.StaticAuthority)),
		provideRandomSource,
		provideEngine,

		// 6. 快照仓储与单写者锁
		provideStateRepository,
		provideWriterLock,

		// 7. 定时任务
		provideScheduler,
		provideEngineRunner,

		// 8. Web (JWT + 限流 + 路由)
		provideJWTManager,
		provideRateLimiter,
		provideWebServer,

		// 9. 组装与应用配置
		provideAppOptions,
		provideAppComponents,
		app.InitApp,
	))
}
