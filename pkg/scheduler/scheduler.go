// Package scheduler 基于 cron 的定时任务调度
package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"github.com/lk2023060901/vfemart/pkg/config"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

var (
	// ErrJobExists 任务名重复
	ErrJobExists = errors.New("scheduler: job already exists")
	// ErrJobNotFound 任务不存在
	ErrJobNotFound = errors.New("scheduler: job not found")
)

// Config 调度器配置
type Config struct {
	// Location 时区，默认 UTC
	Location string `mapstructure:"location"`
	// WithSeconds 表达式是否包含秒字段
	WithSeconds bool `mapstructure:"with_seconds"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{Location: "UTC"}
}

// JobFunc 任务函数
type JobFunc func(ctx context.Context) error

// JobInfo 任务状态
type JobInfo struct {
	Name     string
	Spec     string
	Next     time.Time
	Prev     time.Time
	Runs     int64
	Failures int64
}

type job struct {
	name     string
	spec     string
	fn       JobFunc
	entryID  cron.EntryID
	runs     int64
	failures int64
}

// Scheduler 定时任务调度器
//
// 同一任务不会并发执行，上一次未结束时本次触发被跳过。
type Scheduler struct {
	cron   *cron.Cron
	logger logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job
}

// Option 调度器选项
type Option func(*Scheduler)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New 创建调度器
func New(cfg *Config, opts ...Option) (*Scheduler, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "merge scheduler config")
	}
	loc, err := time.LoadLocation(newCfg.Location)
	if err != nil {
		return nil, errors.Wrapf(err, "load location %q", newCfg.Location)
	}

	s := &Scheduler{
		logger: logger.NewNoop(),
		jobs:   make(map[string]*job),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cronOpts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	}
	if newCfg.WithSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	s.cron = cron.New(cronOpts...)
	return s, nil
}

// AddFunc 注册任务
func (s *Scheduler) AddFunc(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return errors.Wrapf(ErrJobExists, "job %s", name)
	}
	j := &job{name: name, spec: spec, fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(j) })
	if err != nil {
		return errors.Wrapf(err, "add job %s with spec %q", name, spec)
	}
	j.entryID = id
	s.jobs[name] = j
	s.logger.Debug("job registered", "job", name, "spec", spec)
	return nil
}

// Remove 移除任务
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return errors.Wrapf(ErrJobNotFound, "job %s", name)
	}
	s.cron.Remove(j.entryID)
	delete(s.jobs, name)
	return nil
}

// RunNow 立即同步执行一次任务
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrJobNotFound, "job %s", name)
	}
	return s.run(j)
}

func (s *Scheduler) run(j *job) error {
	err := j.fn(s.ctx)

	s.mu.Lock()
	j.runs++
	if err != nil {
		j.failures++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("job failed", "job", j.name, "error", err)
	}
	return err
}

// Start 启动调度
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.ListJobs()))
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for running jobs")
	}
}

// ListJobs 返回按名称排序的任务状态
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		e := s.cron.Entry(j.entryID)
		out = append(out, JobInfo{
			Name:     j.name,
			Spec:     j.spec,
			Next:     e.Next,
			Prev:     e.Prev,
			Runs:     j.runs,
			Failures: j.failures,
		})
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}
