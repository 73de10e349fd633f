package postgres

import (
	"fmt"
	"time"

	"github.com/lk2023060901/vfemart/pkg/config"
)

// Config PostgreSQL 配置
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db_name"`
	SSLMode  string `mapstructure:"ssl_mode"` // disable, require, verify-ca, verify-full

	// 连接池配置
	Pool PoolConfig `mapstructure:"pool"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"` // 连接超时
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`   // 查询超时
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxConns          int32         `mapstructure:"max_conns"`           // 最大连接数
	MinConns          int32         `mapstructure:"min_conns"`           // 最小连接数
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`   // 连接最大生命周期
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`  // 连接最大空闲时间
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"` // 健康检查周期
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Host:    "localhost",
		Port:    5432,
		User:    "postgres",
		DBName:  "vfemart",
		SSLMode: "disable",
		Pool: PoolConfig{
			MaxConns:          10,
			MinConns:          1,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   30 * time.Minute,
			HealthCheckPeriod: time.Minute,
		},
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   5 * time.Second,
	}
}

// MergeConfig 合并配置（使用通用的 config.MergeConfig）
func MergeConfig(dst, src *Config) (*Config, error) {
	return config.MergeConfig(dst, src)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Port)
	}
	if c.User == "" {
		return fmt.Errorf("%w: user is empty", ErrInvalidConfig)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: db_name is empty", ErrInvalidConfig)
	}
	if c.Pool.MaxConns <= 0 {
		return fmt.Errorf("%w: max_conns must be positive", ErrInvalidConfig)
	}
	if c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("%w: min_conns must be within [0, max_conns]", ErrInvalidConfig)
	}
	return nil
}

// ConnString 构建连接字符串
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
		int(c.ConnectTimeout.Seconds()),
	)
}
