// Package redis Redis 客户端封装
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// cmdable 内部 Redis 客户端接口（隐藏 go-redis 类型）
type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client Redis 客户端
type Client struct {
	rdb cmdable
	cfg *Config
}

// NewClient 创建 Redis 客户端
func NewClient(cfg *Config) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            newCfg.Addr(),
		Password:        newCfg.Password,
		DB:              newCfg.DB,
		MaxIdleConns:    newCfg.Pool.MaxIdleConns,
		MaxActiveConns:  newCfg.Pool.MaxOpenConns,
		ConnMaxIdleTime: newCfg.Pool.ConnMaxIdleTime,
		DialTimeout:     newCfg.Pool.DialTimeout,
		ReadTimeout:     newCfg.Pool.ReadTimeout,
		WriteTimeout:    newCfg.Pool.WriteTimeout,
	})
	return &Client{rdb: rdb, cfg: newCfg}, nil
}

// Get 获取字符串值
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNil
		}
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// GetBytes 获取二进制值
func (c *Client) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNil
		}
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}

// Set 设置值
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}
	return nil
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("del failed: %w", err)
	}
	return n, nil
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.rdb.Close()
}
