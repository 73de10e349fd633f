// Package kafka Kafka 生产者封装
package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"github.com/lk2023060901/vfemart/pkg/config"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// Message 待发送消息
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// ProducerStats 生产者统计
type ProducerStats struct {
	MessagesProduced  int64
	MessagesSucceeded int64
	MessagesFailed    int64
	LastMessageTime   time.Time
}

// MessageWriter kafka.Writer 的最小接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer Kafka 生产者
type Producer struct {
	config *Config
	writer MessageWriter
	logger logger.Logger

	produced  atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	lastAt    atomic.Int64

	closed atomic.Bool
}

// ProducerOption 生产者选项
type ProducerOption func(*Producer)

// WithLogger 设置日志
func WithLogger(l logger.Logger) ProducerOption {
	return func(p *Producer) { p.logger = l }
}

// WithWriter 替换底层 writer
func WithWriter(w MessageWriter) ProducerOption {
	return func(p *Producer) { p.writer = w }
}

// NewProducer 创建生产者
func NewProducer(cfg *Config, opts ...ProducerOption) (*Producer, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "merge kafka config")
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	p := &Producer{config: newCfg, logger: logger.NewNoop()}
	for _, opt := range opts {
		opt(p)
	}
	if p.writer == nil {
		p.writer = &kafka.Writer{
			Addr:                   kafka.TCP(newCfg.Brokers...),
			Topic:                  newCfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchSize:              newCfg.BatchSize,
			BatchTimeout:           newCfg.BatchTimeout,
			MaxAttempts:            newCfg.MaxRetries + 1,
			WriteTimeout:           newCfg.WriteTimeout,
			RequiredAcks:           kafka.RequiredAcks(newCfg.RequiredAcks),
			Async:                  newCfg.Async,
			Compression:            parseCompression(newCfg.Compression),
			AllowAutoTopicCreation: true,
		}
	}
	return p, nil
}

// Publish 发布单条消息
func (p *Producer) Publish(ctx context.Context, msg *Message) error {
	return p.PublishBatch(ctx, []*Message{msg})
}

// PublishBatch 批量发布消息
func (p *Producer) PublishBatch(ctx context.Context, msgs []*Message) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}

	p.produced.Add(int64(len(msgs)))

	kafkaMsgs := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		kafkaMsgs[i] = kafka.Message{
			Key:   msg.Key,
			Value: msg.Value,
		}
		if len(msg.Headers) > 0 {
			headers := make([]kafka.Header, 0, len(msg.Headers))
			for k, v := range msg.Headers {
				headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
			}
			kafkaMsgs[i].Headers = headers
		}
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsgs...); err != nil {
		p.failed.Add(int64(len(msgs)))
		return errors.Wrapf(err, "kafka: write %d messages to %s", len(msgs), p.config.Topic)
	}
	p.succeeded.Add(int64(len(msgs)))
	p.lastAt.Store(time.Now().UnixNano())
	return nil
}

// Topic 返回 topic 名称
func (p *Producer) Topic() string {
	return p.config.Topic
}

// Stats 返回统计信息
func (p *Producer) Stats() ProducerStats {
	s := ProducerStats{
		MessagesProduced:  p.produced.Load(),
		MessagesSucceeded: p.succeeded.Load(),
		MessagesFailed:    p.failed.Load(),
	}
	if ns := p.lastAt.Load(); ns > 0 {
		s.LastMessageTime = time.Unix(0, ns)
	}
	return s
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.logger.Debug("producer closing", "topic", p.config.Topic)
	return p.writer.Close()
}

// parseCompression 解析压缩算法
func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return 0
	}
}
