package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/repository"
	"github.com/lk2023060901/vfemart/app/vfe/internal/service"
	"github.com/lk2023060901/vfemart/pkg/database/redis"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/scheduler"
)

const (
	jobTick       = "tick"
	jobSnapshot   = "snapshot"
	jobWriterLock = "writer_lock"

	startTimeout = 30 * time.Second
)

// engineRunner 引擎生命周期，实现 app.Server
// 启动时获取单写者锁并恢复快照，之后按出块间隔推进纪元
type engineRunner struct {
	snapshot SnapshotConfig
	eng      *service.Engine
	repo     repository.StateRepository
	lock     *redis.Lock
	reports  *dao.ReportDAO
	sched    *scheduler.Scheduler
	logger   logger.Logger
}

func (r *engineRunner) Start() error {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	if r.lock != nil {
		if err := r.lock.Lock(ctx); err != nil {
			return errors.Wrapf(err, "acquire writer lock %s", r.lock.Key())
		}
	}
	if r.reports != nil {
		if err := r.reports.EnsureSchema(ctx); err != nil {
			return errors.Wrap(err, "ensure audit schema")
		}
	}
	if r.repo != nil {
		restored, err := r.repo.Load(ctx)
		if err != nil {
			return errors.Wrap(err, "load snapshot")
		}
		r.logger.Info("engine state loaded", "restored", restored)
	}
	if err := r.eng.Genesis(ctx); err != nil {
		return errors.Wrap(err, "genesis")
	}

	if err := r.registerJobs(); err != nil {
		return err
	}
	r.sched.Start()

	r.logger.Info("engine started",
		"block_interval", r.eng.Config().BlockInterval.String(),
		"height", r.eng.Query.Clock().Height,
	)
	return nil
}

func (r *engineRunner) registerJobs() error {
	tick := "@every " + r.eng.Config().BlockInterval.String()
	if err := r.sched.AddFunc(jobTick, tick, func(ctx context.Context) error {
		_, err := r.eng.Epoch.Tick(ctx)
		return err
	}); err != nil {
		return errors.Wrap(err, "register tick job")
	}

	if r.repo != nil && r.snapshot.Interval != "" {
		if err := r.sched.AddFunc(jobSnapshot, r.snapshot.Interval, func(ctx context.Context) error {
			_, err := r.repo.Save(ctx)
			return err
		}); err != nil {
			return errors.Wrap(err, "register snapshot job")
		}
	}

	if r.lock != nil {
		refresh := "@every " + (r.lock.TTL() / 3).String()
		if err := r.sched.AddFunc(jobWriterLock, refresh, r.lock.Refresh); err != nil {
			return errors.Wrap(err, "register writer lock job")
		}
	}
	return nil
}

// Stop 停止调度后落一次快照再释放锁
func (r *engineRunner) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	var errs error
	if err := r.sched.Stop(ctx); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "stop scheduler"))
	}
	if r.repo != nil {
		if _, err := r.repo.Save(ctx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "final snapshot"))
		}
	}
	if r.lock != nil {
		if err := r.lock.Unlock(ctx); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "release writer lock"))
		}
	}

	r.logger.Info("engine stopped", "height", r.eng.Query.Clock().Height)
	return errs
}
