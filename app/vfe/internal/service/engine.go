// Package service 引擎业务逻辑
//
// 全部写操作都通过 executor 在单个事务内完成，失败时状态不变且不产生事件。
package service

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/ledger"
	"github.com/lk2023060901/vfemart/app/vfe/internal/metrics"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/randomness"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// deps 各服务共享的依赖
type deps struct {
	cfg     *Config
	exec    *executor.Executor
	auth    Authority
	ledger  *ledger.Ledger
	sampler *randomness.Sampler
	metrics *metrics.EngineMetrics
}

// Engine 全部服务
type Engine struct {
	Binding     *BindingService
	Report      *ReportService
	Epoch       *EpochService
	Progression *ProgressionService
	Admin       *AdminService
	Query       *QueryService

	deps *deps
}

// Option 引擎选项
type Option func(*options)

type options struct {
	unbindFee UnbindFeePolicy
}

// WithUnbindFeePolicy 设置解绑收费策略
func WithUnbindFeePolicy(p UnbindFeePolicy) Option {
	return func(o *options) { o.unbindFee = p }
}

// NewEngine 创建引擎
func NewEngine(
	cfg *Config,
	exec *executor.Executor,
	auth Authority,
	src randomness.Source,
	l logger.Logger,
	m *metrics.EngineMetrics,
	opts ...Option,
) (*Engine, error) {
	merged, err := MergeConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "engine config")
	}
	o := &options{unbindFee: NoUnbindFee{}}
	for _, opt := range opts {
		opt(o)
	}

	d := &deps{
		cfg:     merged,
		exec:    exec,
		auth:    auth,
		ledger:  ledger.New(merged.PalletID),
		sampler: randomness.NewSampler(src, merged.MaxGenerateRandom),
		metrics: m,
	}
	return &Engine{
		Binding:     NewBindingService(d, o.unbindFee, l),
		Report:      NewReportService(d, l),
		Epoch:       NewEpochService(d, l),
		Progression: NewProgressionService(d, l),
		Admin:       NewAdminService(d, l),
		Query:       NewQueryService(d, l),
		deps:        d,
	}, nil
}

// Config 生效的引擎参数
func (e *Engine) Config() *Config {
	return e.deps.cfg
}

// Genesis 状态中未设置激励代币时写入配置值，恢复快照之后调用
func (e *Engine) Genesis(ctx context.Context) error {
	token := e.deps.cfg.IncentiveToken
	if token == nil {
		return nil
	}
	return e.deps.exec.Execute(ctx, "genesis", func(tx *executor.Tx) error {
		if tx.Store.IncentiveToken.Get() != nil {
			return nil
		}
		asset := model.AssetID(*token)
		tx.Store.IncentiveToken.Set(&asset)
		return nil
	})
}

func (d *deps) incentiveToken(st *state.Store) (model.AssetID, error) {
	asset := st.IncentiveToken.Get()
	if asset == nil {
		return 0, vfeerr.ErrIncentiveTokenNotSet
	}
	return *asset, nil
}

// ownedItem 读取道具并校验持有人
func (d *deps) ownedItem(st *state.Store, who model.AccountID, key model.ItemKey) (model.Item, error) {
	item, ok := st.Items.Get(key)
	if !ok {
		return item, errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
	}
	owner, ok := d.ledger.OwnerOf(st, key)
	if !ok {
		return item, errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d has no owner", key.Brand, key.Item)
	}
	if owner != who {
		return item, errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d not owned by caller", key.Brand, key.Item)
	}
	return item, nil
}

func (d *deps) device(st *state.Store, pk model.PublicKey) (model.Device, error) {
	dev, ok := st.Devices.Get(pk)
	if !ok {
		return dev, errors.Wrapf(vfeerr.ErrDeviceNotFound, "device %s", pk)
	}
	return dev, nil
}
