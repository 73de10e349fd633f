package redis

import (
	"fmt"
	"time"
)

// Config Redis 单机配置
type Config struct {
	Host     string `mapstructure:"host"`     // 主机地址
	Port     int    `mapstructure:"port"`     // 端口
	Password string `mapstructure:"password"` // 密码
	DB       int    `mapstructure:"db"`       // 数据库索引（0-15）

	// Pool 连接池配置
	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	// MaxIdleConns 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns"`

	// MaxOpenConns 最大打开连接数
	MaxOpenConns int `mapstructure:"max_open_conns"`

	// ConnMaxIdleTime 连接最大空闲时间
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`

	// DialTimeout 连接超时时间
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// ReadTimeout 读超时时间
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout 写超时时间
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Host: "localhost",
		Port: 6379,
		Pool: PoolConfig{
			MaxIdleConns:    4,
			MaxOpenConns:    16,
			ConnMaxIdleTime: 5 * time.Minute,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     3 * time.Second,
			WriteTimeout:    3 * time.Second,
		},
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if c.Host == "" || c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: bad address %s:%d", ErrInvalidConfig, c.Host, c.Port)
	}
	if c.DB < 0 || c.DB > 15 {
		return fmt.Errorf("%w: db index %d", ErrInvalidConfig, c.DB)
	}
	return nil
}

// Addr host:port
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
