package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/event"
	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/handler"
	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/randomness"
	"github.com/lk2023060901/vfemart/app/vfe/internal/repository"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/app"
	"github.com/lk2023060901/vfemart/pkg/database/postgres"
	"github.com/lk2023060901/vfemart/pkg/database/redis"
	"github.com/lk2023060901/vfemart/pkg/idgen"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/mq/kafka"
	"github.com/lk2023060901/vfemart/pkg/otel"
	"github.com/lk2023060901/vfemart/pkg/scheduler"
	"github.com/lk2023060901/vfemart/pkg/security"
	"github.com/lk2023060901/vfemart/pkg/web"
	"github.com/lk2023060901/vfemart/pkg/web/middleware"
)

// 以下路径不经过 JWT：设备报告由设备签名认证
var publicPaths = []string{"/health", "/api/v1/reports*"}

// 未配置时限流的路径前缀，每个请求都要做一次 P-256 验签并占用单写者锁
var rateLimitedPaths = []string{"/api/v1/reports", "/api/v1/bindings"}

func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
		app.WithLogConfig(&cfg.Log),
		app.WithNamedLoggers(cfg.Loggers),
		app.WithMetadata(map[string]string{
			"snapshot": cfg.Snapshot.Name,
			"pallet":   cfg.Engine.PalletID,
		}),
	}
}

// provideMetricsConfig 提供指标配置
func provideMetricsConfig(cfg *Config) *metrics.Config {
	return &cfg.Metrics
}

// provideRegistry 创建独立的 Prometheus Registry 并注册引擎指标
func provideRegistry(m *metrics.EngineMetrics) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// provideIDGenerator 事件 ID 生成器
func provideIDGenerator(cfg *Config) (idgen.Generator, error) {
	g, err := idgen.NewSonyflake(&cfg.IDGen)
	if err != nil {
		return nil, err
	}
	idgen.Init(g)
	return g, nil
}

// provideRedis 快照关闭时返回 nil
func provideRedis(cfg *Config) (*redis.Client, error) {
	if !cfg.Features.Snapshot {
		return nil, nil
	}
	return redis.NewClient(&cfg.Redis)
}

// providePostgres 审计关闭时返回 nil
func providePostgres(cfg *Config) (*postgres.Client, error) {
	if !cfg.Features.Audit {
		return nil, nil
	}
	return postgres.New(&cfg.Postgres)
}

func provideReportDAO(db *postgres.Client, l logger.Logger) *dao.ReportDAO {
	if db == nil {
		return nil
	}
	return dao.NewReportDAO(db, l)
}

// provideKafkaProducer 事件发布关闭时返回 nil
func provideKafkaProducer(cfg *Config, l logger.Logger) (*kafka.Producer, error) {
	if !cfg.Features.Kafka {
		return nil, nil
	}
	return kafka.NewProducer(&cfg.Kafka, kafka.WithLogger(l))
}

// provideEventSink 日志 Sink 始终开启，Kafka 与审计按开关追加
func provideEventSink(l logger.Logger, producer *kafka.Producer, reports *dao.ReportDAO) *event.FanOut {
	sink := event.NewFanOut(event.NewLogSink(l))
	if producer != nil {
		sink.Add(event.NewKafkaSink(producer))
	}
	if reports != nil {
		sink.Add(event.NewAuditSink(reports))
	}
	return sink
}

// provideTracerProvider 未启用追踪时返回 noop 实现
func provideTracerProvider(cfg *Config) (*otel.TracerProvider, error) {
	tracing := cfg.Tracing
	if tracing.ServiceName == "" {
		tracing.ServiceName = app.AppName
	}
	return otel.New(&tracing)
}

func provideExecutor(
	l logger.Logger,
	ids idgen.Generator,
	sink *event.FanOut,
	m *metrics.EngineMetrics,
	tp *otel.TracerProvider,
) *executor.Executor {
	return executor.New(state.NewStore(), l,
		executor.WithIDGenerator(ids),
		executor.WithSink(sink),
		executor.WithMetrics(m),
		executor.WithTracer(tp.Tracer("executor")),
	)
}

// provideEngineConfig 提供引擎参数
func provideEngineConfig(cfg *Config) *service.Config {
	return &cfg.Engine
}

// provideRandomSource 配置了种子时使用确定性随机源
func provideRandomSource(cfg *service.Config, l logger.Logger) randomness.Source {
	if cfg.RandomSeed != "" {
		l.Warn("using deterministic random source, do not run in production")
		return randomness.NewSeededSource([]byte(cfg.RandomSeed))
	}
	return randomness.NewCryptoSource()
}

func provideEngine(
	cfg *service.Config,
	exec *executor.Executor,
	auth *service.StaticAuthority,
	src randomness.Source,
	l logger.Logger,
	m *metrics.EngineMetrics,
) (*service.Engine, error) {
	return service.NewEngine(cfg, exec, auth, src, l, m)
}

// provideStateRepository 快照关闭时返回 nil
func provideStateRepository(
	cfg *Config,
	rdb *redis.Client,
	exec *executor.Executor,
	m *metrics.EngineMetrics,
	l logger.Logger,
) repository.StateRepository {
	if rdb == nil {
		return nil
	}
	return repository.NewStateRepository(cfg.Snapshot.Name, cfg.Snapshot.TTL, dao.NewSnapshotDAO(rdb, l), exec, m, l)
}

// provideWriterLock 保证同一快照只有一个写者
func provideWriterLock(cfg *Config, rdb *redis.Client) *redis.Lock {
	if rdb == nil {
		return nil
	}
	return redis.NewLock(rdb, "vfe:writer:"+cfg.Snapshot.Name, cfg.Snapshot.LockTTL)
}

// provideJWTManager 追加无需令牌的公共路径
func provideJWTManager(cfg *Config, m *metrics.EngineMetrics) (*security.JWTManager, error) {
	jwtCfg := cfg.JWT
	jwtCfg.SkipPaths = append(append([]string{}, cfg.JWT.SkipPaths...), publicPaths...)
	jwtCfg.SkipPaths = append(jwtCfg.SkipPaths, m.Path())
	return security.NewJWTManager(&jwtCfg)
}

// provideRateLimiter 未配置路径时只限制设备报告与绑定
func provideRateLimiter(cfg *Config, l logger.Logger) *middleware.RateLimiter {
	rl := cfg.RateLimit
	if len(rl.Paths) == 0 {
		rl.Paths = rateLimitedPaths
	}
	return middleware.NewRateLimiter(&rl, l)
}

func provideScheduler(cfg *Config, l logger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(&cfg.Scheduler, scheduler.WithLogger(l.Named("scheduler")))
}

// provideWebServer 创建 Web Server 并注册全部路由
func provideWebServer(
	cfg *Config,
	l logger.Logger,
	jwt *security.JWTManager,
	limiter *middleware.RateLimiter,
	tp *otel.TracerProvider,
	eng *service.Engine,
	reports *dao.ReportDAO,
	reg *prometheus.Registry,
	m *metrics.EngineMetrics,
) *web.Server {
	s := web.NewServer(&cfg.Web, l)
	r := s.Router()
	if cfg.CORS.Enabled {
		r.Use(middleware.CORS(&cfg.CORS))
	}
	// 追踪在限流之前，被拒绝的请求也有 Span
	r.Use(middleware.Tracing(tp, app.AppName))
	r.Use(middleware.RateLimit(limiter))
	r.Use(middleware.Auth(jwt))

	for _, h := range handler.NewRouters(eng, l) {
		h.Register(r)
	}
	if reports != nil {
		handler.NewAuditHandler(reports, l).Register(r)
	}

	r.GET(m.Path(), gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "height": eng.Query.Clock().Height})
	})
	return s
}

func provideEngineRunner(
	cfg *Config,
	eng *service.Engine,
	repo repository.StateRepository,
	lock *redis.Lock,
	reports *dao.ReportDAO,
	sched *scheduler.Scheduler,
	l logger.Logger,
) *engineRunner {
	return &engineRunner{
		snapshot: cfg.Snapshot,
		eng:      eng,
		repo:     repo,
		lock:     lock,
		reports:  reports,
		sched:    sched,
		logger:   l.Named("engine.runner"),
	}
}

func provideAppComponents(
	runner *engineRunner,
	webServer *web.Server,
	limiter *middleware.RateLimiter,
	tp *otel.TracerProvider,
	rdb *redis.Client,
	db *postgres.Client,
	producer *kafka.Producer,
) app.AppComponents {
	comps := app.AppComponents{
		// 引擎先于 Web 启动，恢复快照后再接受请求
		Servers: []app.Server{runner, webServer},
		// 逆序关闭：最后关闭 TracerProvider，刷出其余组件关闭时的 Span
		Closers: []app.Closer{tp, limiter},
	}
	if rdb != nil {
		comps.Closers = append(comps.Closers, rdb)
	}
	if db != nil {
		comps.Closers = append(comps.Closers, app.CloserFunc(db.Close))
	}
	if producer != nil {
		comps.Closers = append(comps.Closers, producer)
	}
	return comps
}
