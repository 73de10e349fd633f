// Package event 已提交事件的分发
package event

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// Sink 事件接收方，调用提交后才会收到该调用产生的事件
type Sink interface {
	Name() string
	Publish(ctx context.Context, events []model.Event) error
}

// FanOut 依次投递给多个 Sink，单个失败不影响其余
type FanOut struct {
	sinks []Sink
}

// NewFanOut 创建扇出，忽略 nil
func NewFanOut(sinks ...Sink) *FanOut {
	f := &FanOut{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *FanOut) Name() string { return "fanout" }

// Add 追加 Sink
func (f *FanOut) Add(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Sinks 当前的下游
func (f *FanOut) Sinks() []Sink {
	return f.sinks
}

// Publish 投递到全部下游，返回合并后的错误
func (f *FanOut) Publish(ctx context.Context, events []model.Event) error {
	var errs error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, events); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "sink %s", s.Name()))
		}
	}
	return errs
}

// MemorySink 内存记录，测试与查询最近事件使用
type MemorySink struct {
	mu     sync.Mutex
	events []model.Event
	limit  int
}

// NewMemorySink 创建内存 Sink，limit 为 0 表示不限
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

func (m *MemorySink) Name() string { return "memory" }

func (m *MemorySink) Publish(_ context.Context, events []model.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	if m.limit > 0 && len(m.events) > m.limit {
		m.events = append([]model.Event(nil), m.events[len(m.events)-m.limit:]...)
	}
	return nil
}

// Events 已记录事件的副本
func (m *MemorySink) Events() []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Event(nil), m.events...)
}

// OfType 指定类型的事件
func (m *MemorySink) OfType(t model.EventType) []model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// Reset 清空
func (m *MemorySink) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// LogSink 把事件写入日志
type LogSink struct {
	logger logger.Logger
}

// NewLogSink 创建日志 Sink
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{logger: l.Named("event")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(ctx context.Context, events []model.Event) error {
	for _, ev := range events {
		s.logger.InfoContext(ctx, "event",
			"id", ev.ID,
			"type", string(ev.Type),
			"height", uint64(ev.Height),
			"payload", ev.Payload,
		)
	}
	return nil
}
