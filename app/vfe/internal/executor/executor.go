// Package executor 单写者事务执行器
//
// 每个调用在全局锁内执行，成功则提交全部写入并在提交后分发事件，
// 失败则整体回滚，不产生任何事件。
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/event"
	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/idgen"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/otel"
)

// Tx 一次调用的执行上下文
type Tx struct {
	Store  *state.Store
	Now    time.Time
	Height model.BlockNumber

	events []model.Event
}

// Emit 记录事件，提交后分发
func (tx *Tx) Emit(t model.EventType, payload any) {
	tx.events = append(tx.events, model.Event{
		Type:    t,
		Height:  tx.Height,
		Time:    tx.Now,
		Payload: payload,
	})
}

// Events 已记录的事件
func (tx *Tx) Events() []model.Event {
	return tx.events
}

// Executor 事务执行器
type Executor struct {
	mu         sync.Mutex
	dispatchMu sync.Mutex

	store   *state.Store
	clock   Clock
	ids     idgen.Generator
	sink    event.Sink
	logger  logger.Logger
	metrics *metrics.EngineMetrics
	tracer  otel.Tracer
}

// Option 执行器选项
type Option func(*Executor)

// WithClock 设置墙钟
func WithClock(c Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithIDGenerator 设置事件 ID 生成器
func WithIDGenerator(g idgen.Generator) Option {
	return func(e *Executor) { e.ids = g }
}

// WithSink 设置事件下游
func WithSink(s event.Sink) Option {
	return func(e *Executor) { e.sink = s }
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithTracer 每次 Execute/Simulate 创建一个 Span，默认使用全局 TracerProvider
func WithTracer(t otel.Tracer) Option {
	return func(e *Executor) { e.tracer = t }
}

// New 创建执行器
func New(store *state.Store, l logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		clock:  SystemClock{},
		ids:    idgen.NewSequential(1),
		logger: l.Named("executor"),
		tracer: otel.GetTracerProvider().Tracer("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock 执行器使用的墙钟
func (e *Executor) Clock() Clock {
	return e.clock
}

// Execute 执行并提交，fn 返回错误时整体回滚
func (e *Executor) Execute(ctx context.Context, op string, fn func(tx *Tx) error) error {
	start := time.Now()
	ctx, span := e.startSpan(ctx, "execute", op)
	defer span.End()
	e.mu.Lock()

	tx := e.begin()
	span.SetAttributes(otel.Int64("vfe.height", int64(tx.Height)))
	err := e.run(op, tx, fn)
	if err == nil {
		err = e.stamp(tx.events)
	}
	if err != nil {
		e.store.Rollback()
		e.mu.Unlock()
		e.metrics.RecordCall(op, err, time.Since(start))
		e.logger.DebugContext(ctx, "call rejected", "op", op, "error", err)
		endSpan(span, err)
		return err
	}
	e.store.Commit()
	span.SetAttributes(otel.Int("vfe.events", len(tx.events)))

	// 提交顺序即分发顺序
	e.dispatchMu.Lock()
	e.mu.Unlock()
	e.dispatch(ctx, tx.events)
	e.dispatchMu.Unlock()

	e.metrics.RecordCall(op, nil, time.Since(start))
	endSpan(span, nil)
	return nil
}

// Simulate 执行后总是回滚，用于入池前校验
func (e *Executor) Simulate(ctx context.Context, op string, fn func(tx *Tx) error) error {
	ctx, span := e.startSpan(ctx, "simulate", op)
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := e.begin()
	err := e.run(op, tx, fn)
	e.store.Rollback()
	if err != nil {
		e.logger.DebugContext(ctx, "simulation rejected", "op", op, "error", err)
	}
	endSpan(span, err)
	return err
}

func (e *Executor) startSpan(ctx context.Context, kind, op string) (context.Context, otel.Span) {
	return e.tracer.Start(ctx, "executor."+kind+" "+op,
		otel.WithSpanKind(otel.SpanKindInternal),
		otel.WithAttributes(otel.String("vfe.op", op)),
	)
}

func endSpan(span otel.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otel.CodeError, err.Error())
		return
	}
	span.SetStatus(otel.CodeOk, "")
}

// View 只读访问已提交状态
func (e *Executor) View(fn func(s *state.Store) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.store.Rollback()
	return fn(e.store)
}

// Snapshot 导出已提交状态
func (e *Executor) Snapshot() (*state.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Snapshot()
}

// Restore 用快照替换状态
func (e *Executor) Restore(snap *state.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Restore(snap)
}

func (e *Executor) begin() *Tx {
	return &Tx{
		Store:  e.store,
		Now:    e.clock.Now(),
		Height: e.store.Clock.Get().Height,
	}
}

func (e *Executor) run(op string, tx *Tx, fn func(tx *Tx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic in %s: %v", op, r)
			e.logger.Error("call panicked", "op", op, "panic", r)
		}
	}()
	return fn(tx)
}

func (e *Executor) stamp(events []model.Event) error {
	for i := range events {
		id, err := e.ids.NextID()
		if err != nil {
			return errors.Wrap(err, "allocate event id")
		}
		events[i].ID = id
	}
	return nil
}

func (e *Executor) dispatch(ctx context.Context, events []model.Event) {
	if e.sink == nil || len(events) == 0 {
		return
	}
	err := e.sink.Publish(ctx, events)
	e.metrics.RecordEvents(e.sink.Name(), len(events), err)
	if err != nil {
		e.logger.ErrorContext(ctx, "failed to publish events",
			"count", len(events),
			"error", err,
		)
	}
}
