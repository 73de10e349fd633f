package main

import (
	"time"

	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
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

// Config 定义 VFE 引擎服务的完整配置结构
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	// 引擎参数
	Engine service.Config `mapstructure:"engine"`

	// Web Server 配置
	Web web.Config `mapstructure:"web"`

	// JWT 配置
	JWT security.JWTConfig `mapstructure:"jwt"`

	// 设备报告与绑定接口的限流
	RateLimit middleware.RateLimitConfig `mapstructure:"rate_limit"`
	CORS      middleware.CORSConfig      `mapstructure:"cors"`

	// 链路追踪
	Tracing otel.Config `mapstructure:"tracing"`

	// 快照存储
	Redis redis.Config `mapstructure:"redis"`

	// 训练报告审计库
	Postgres postgres.Config `mapstructure:"postgres"`

	// 事件发布
	Kafka kafka.Config `mapstructure:"kafka"`

	// 定时任务
	Scheduler scheduler.Config `mapstructure:"scheduler"`

	// 事件 ID
	IDGen idgen.Config `mapstructure:"idgen"`

	// 指标配置
	Metrics metrics.Config `mapstructure:"metrics"`

	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Features FeatureConfig  `mapstructure:"features"`
}

// SnapshotConfig 状态快照
type SnapshotConfig struct {
	// Name 快照名，同一 Redis 上区分多个引擎
	Name string `mapstructure:"name"`
	// Interval 定时快照的 cron 表达式
	Interval string `mapstructure:"interval"`
	// TTL 快照过期时间，0 表示不过期
	TTL time.Duration `mapstructure:"ttl"`
	// LockTTL 单写者锁的过期时间，按 1/3 周期续期
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

// FeatureConfig 外部依赖开关，关闭时对应组件不创建
type FeatureConfig struct {
	Snapshot bool `mapstructure:"snapshot"`
	Audit    bool `mapstructure:"audit"`
	Kafka    bool `mapstructure:"kafka"`
}

func main() {
	var cfg Config

	// 1. 加载配置
	if err := app.LoadConfig(&cfg); err != nil {
		panic(err)
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}

	// 3. 配置文件变更时热更新日志等级
	if err := app.WatchLogLevel(l); err != nil {
		l.Warn("failed to watch config", "error", err)
	}

	// 4. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return
	}
	defer cleanup()

	// 5. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
