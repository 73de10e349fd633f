package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/lk2023060901/vfemart/pkg/cache/lru"
	"github.com/lk2023060901/vfemart/pkg/config"
	"github.com/lk2023060901/vfemart/pkg/logger"
	weberrors "github.com/lk2023060901/vfemart/pkg/web/errors"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// Enabled 关闭时中间件直接放行
	Enabled bool `mapstructure:"enabled"`
	// RequestsPerSecond 每个限流键每秒请求数
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Burst 突发容量
	Burst int `mapstructure:"burst"`
	// PerIP 按客户端 IP 限流，否则所有请求共用一个全局限流器
	PerIP bool `mapstructure:"per_ip"`
	// PerPath 限流键追加请求路径
	PerPath bool `mapstructure:"per_path"`
	// Paths 受限的路径前缀，为空时限制全部路径
	Paths []string `mapstructure:"paths"`
	// SkipPaths 精确匹配的豁免路径
	SkipPaths []string `mapstructure:"skip_paths"`
	// WaitMode 超限时排队等待而不是直接拒绝
	WaitMode bool `mapstructure:"wait_mode"`
	// WaitTimeout 等待模式下的最长等待时间
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
	// Limiters 按键缓存的限流器
	Limiters lru.Config `mapstructure:"limiters"`
}

// DefaultRateLimitConfig 返回默认限流配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 5,
		Burst:             10,
		PerIP:             true,
		WaitTimeout:       time.Second,
		Limiters:          *lru.DefaultConfig(),
	}
}

// RateLimiter 令牌桶限流器，按键的限流器保存在 LRU 中，空闲过期后重建
type RateLimiter struct {
	cfg      *RateLimitConfig
	global   *rate.Limiter
	limiters *lru.LRU[string, *rate.Limiter]
	logger   logger.Logger
}

// NewRateLimiter 创建限流器
func NewRateLimiter(cfg *RateLimitConfig, l logger.Logger) *RateLimiter {
	newCfg, err := config.MergeConfig(DefaultRateLimitConfig(), cfg)
	if err != nil {
		newCfg = DefaultRateLimitConfig()
	}
	if l == nil {
		l = logger.Default()
	}
	rl := &RateLimiter{
		cfg:    newCfg,
		global: rate.NewLimiter(rate.Limit(newCfg.RequestsPerSecond), newCfg.Burst),
		logger: l.Named("web.ratelimit"),
	}
	rl.limiters = lru.New[string, *rate.Limiter](&newCfg.Limiters,
		lru.WithOnEvict(func(key string, _ *rate.Limiter) {
			rl.logger.Debug("rate limiter evicted", "key", key)
		}),
	)
	return rl
}

// Allow 消耗一个令牌，key 为空时使用全局限流器
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Wait 阻塞直到获得令牌或 ctx 结束
func (rl *RateLimiter) Wait(ctx context.Context, key string) error {
	return rl.limiter(key).Wait(ctx)
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if key == "" {
		return rl.global
	}
	return rl.limiters.GetOrCreate(key, func() *rate.Limiter {
		return rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	})
}

// Close 停止限流器缓存的清理协程
func (rl *RateLimiter) Close() error {
	return rl.limiters.Close()
}

// applies 路径是否受限
func (rl *RateLimiter) applies(path string) bool {
	for _, p := range rl.cfg.SkipPaths {
		if p == path {
			return false
		}
	}
	if len(rl.cfg.Paths) == 0 {
		return true
	}
	for _, p := range rl.cfg.Paths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// key 由 PerIP/PerPath 组合出限流键，都关闭时返回空串
func (rl *RateLimiter) key(c *gin.Context) string {
	var key string
	if rl.cfg.PerIP {
		key = "ip:" + c.ClientIP()
	}
	if rl.cfg.PerPath {
		if key != "" {
			key += ":"
		}
		key += "path:" + c.Request.URL.Path
	}
	return key
}

// RateLimit 限流中间件，超限返回 429
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if !rl.cfg.Enabled || !rl.applies(path) {
			c.Next()
			return
		}

		key := rl.key(c)
		if rl.cfg.WaitMode {
			ctx := c.Request.Context()
			if rl.cfg.WaitTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, rl.cfg.WaitTimeout)
				defer cancel()
			}
			if err := rl.Wait(ctx, key); err != nil {
				rl.logger.WarnContext(ctx, "rate limit wait timeout", "key", key, "path", path, "error", err)
				abortRateLimited(c)
				return
			}
		} else if !rl.Allow(key) {
			rl.logger.WarnContext(c.Request.Context(), "rate limit exceeded", "key", key, "path", path)
			abortRateLimited(c)
			return
		}
		c.Next()
	}
}

func abortRateLimited(c *gin.Context) {
	c.Header("Retry-After", strconv.Itoa(1))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"code":    weberrors.CodeResourceExhausted,
		"message": "too many requests",
		"reason":  "rate_limited",
		"data":    nil,
	})
}
