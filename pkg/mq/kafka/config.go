package kafka

import "time"

// Config Kafka 生产者配置
type Config struct {
	// Brokers Kafka broker 地址列表
	Brokers []string `json:"brokers" yaml:"brokers" mapstructure:"brokers"`

	// Topic 目标主题
	Topic string `json:"topic" yaml:"topic" mapstructure:"topic"`

	// Async 是否异步发送（默认 false，同步发送）
	Async bool `json:"async" yaml:"async" mapstructure:"async"`

	// BatchSize 批量大小
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size"`

	// BatchTimeout 批量超时时间
	BatchTimeout time.Duration `json:"batch_timeout" yaml:"batch_timeout" mapstructure:"batch_timeout"`

	// MaxRetries 最大重试次数
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RequiredAcks 确认模式
	// 0: NoResponse - 不等待确认
	// 1: Leader - 等待 Leader 确认
	// -1: All - 等待所有副本确认
	RequiredAcks int `json:"required_acks" yaml:"required_acks" mapstructure:"required_acks"`

	// Compression 压缩算法: none, gzip, snappy, lz4, zstd
	Compression string `json:"compression" yaml:"compression" mapstructure:"compression"`

	// WriteTimeout 写超时
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		Topic:        "vfe.events",
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		MaxRetries:   3,
		RequiredAcks: -1,
		Compression:  "none",
		WriteTimeout: 10 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return ErrNoBrokers
	}
	if c.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}
