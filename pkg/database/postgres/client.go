// Package postgres PostgreSQL 连接池封装
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Client PostgreSQL 客户端
type Client struct {
	pool *pgxpool.Pool
	cfg  *Config
}

// New 创建 PostgreSQL 客户端
func New(cfg *Config) (*Client, error) {
	// 合并配置，确保有最小可用的配置
	newCfg, err := MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(newCfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	poolConfig.MaxConns = newCfg.Pool.MaxConns
	poolConfig.MinConns = newCfg.Pool.MinConns
	poolConfig.MaxConnLifetime = newCfg.Pool.MaxConnLifetime
	poolConfig.MaxConnIdleTime = newCfg.Pool.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = newCfg.Pool.HealthCheckPeriod

	ctx, cancel := context.WithTimeout(context.Background(), newCfg.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{pool: pool, cfg: newCfg}, nil
}

// applyQueryTimeout 应用查询超时到 context
func (c *Client) applyQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.QueryTimeout > 0 {
		return context.WithTimeout(ctx, c.cfg.QueryTimeout)
	}
	return ctx, func() {}
}

// Exec 执行写操作，返回影响行数
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	result, err := c.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return result.RowsAffected(), nil
}

// QueryAll 查询多条记录，按列名映射到结构体的 db 标签
func QueryAll[T any](c *Client, ctx context.Context, sql string, args ...any) ([]*T, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return out, nil
}

// QueryOne 查询单条记录，无结果返回 ErrNoRows
func QueryOne[T any](c *Client, ctx context.Context, sql string, args ...any) (*T, error) {
	ctx, cancel := c.applyQueryTimeout(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return out, nil
}

// Ping 检查数据库连接
func (c *Client) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}
