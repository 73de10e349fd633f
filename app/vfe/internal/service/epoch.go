package service

import (
	"context"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// EpochService 全局纪元推进与账户惰性结算
type EpochService struct {
	*deps
	logger logger.Logger
}

// NewEpochService 创建纪元服务
func NewEpochService(d *deps, l logger.Logger) *EpochService {
	return &EpochService{
		deps:   d,
		logger: l.Named("service.epoch"),
	}
}

// Tick 推进一个区块，高度整除周期时更新对应纪元
//
// 只改写全局时钟，不遍历任何账户。
func (s *EpochService) Tick(ctx context.Context) (model.EpochClock, error) {
	var clock model.EpochClock
	err := s.exec.Execute(ctx, "tick", func(tx *executor.Tx) error {
		clock = tx.Store.Clock.Get()
		clock.Height++
		tx.Height = clock.Height
		if clock.Height%model.BlockNumber(s.cfg.EnergyRecoveryPeriod) == 0 {
			clock.LastEnergyRecoveryEpoch = clock.Height
			tx.Emit(model.EventGlobalEnergyRecovery, model.GlobalEpoch{Epoch: clock.Height})
		}
		if clock.Height%model.BlockNumber(s.cfg.DailyResetPeriod) == 0 {
			clock.LastDailyResetEpoch = clock.Height
			tx.Emit(model.EventGlobalDailyReset, model.GlobalEpoch{Epoch: clock.Height})
		}
		tx.Store.Clock.Set(clock)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "tick failed", "error", err)
		return clock, err
	}
	s.metrics.SetHeight(uint64(clock.Height))
	if clock.LastEnergyRecoveryEpoch == clock.Height || clock.LastDailyResetEpoch == clock.Height {
		s.logger.InfoContext(ctx, "epoch advanced",
			"height", uint64(clock.Height),
			"energy_epoch", uint64(clock.LastEnergyRecoveryEpoch),
			"daily_epoch", uint64(clock.LastDailyResetEpoch),
		)
	}
	return clock, nil
}

// Clock 当前全局时钟
func (s *EpochService) Clock() model.EpochClock {
	var clock model.EpochClock
	_ = s.exec.View(func(st *state.Store) error {
		clock = st.Clock.Get()
		return nil
	})
	return clock
}

// reconcile 按已过去的纪元数结算能量并在跨日后清零收益
func (d *deps) reconcile(acc *model.UserAccount, clock model.EpochClock) {
	if clock.LastEnergyRecoveryEpoch > acc.LastRestoreEpoch {
		elapsed := uint64(clock.LastEnergyRecoveryEpoch-acc.LastRestoreEpoch) / d.cfg.EnergyRecoveryPeriod
		acc.Energy = recoverEnergy(acc.Energy, acc.EnergyTotal, elapsed, d.cfg.EnergyRecoveryRatioPercent)
		acc.LastRestoreEpoch = clock.LastEnergyRecoveryEpoch
	}
	if acc.LastEarnedResetEpoch < clock.LastDailyResetEpoch {
		acc.Earned = 0
		acc.LastEarnedResetEpoch = clock.LastDailyResetEpoch
	}
}

// recoverEnergy energy + elapsed × round(ratio% × total)，不超过 total
func recoverEnergy(energy, total uint16, elapsed uint64, ratioPercent uint8) uint16 {
	if energy >= total {
		return total
	}
	perEpoch := (uint64(ratioPercent)*uint64(total) + 50) / 100
	if perEpoch == 0 || elapsed == 0 {
		return energy
	}
	missing := uint64(total - energy)
	if elapsed >= (missing+perEpoch-1)/perEpoch {
		return total
	}
	return energy + uint16(elapsed*perEpoch)
}

func (d *deps) newAccount(tx *executor.Tx, who model.AccountID) (model.UserAccount, error) {
	capacity, err := d.cfg.initEarningCap()
	if err != nil {
		return model.UserAccount{}, err
	}
	clock := tx.Store.Clock.Get()
	return model.UserAccount{
		Owner:                who,
		Energy:               d.cfg.InitEnergy,
		EnergyTotal:          d.cfg.InitEnergy,
		EarningCap:           capacity,
		LastRestoreEpoch:     clock.LastEnergyRecoveryEpoch,
		LastEarnedResetEpoch: clock.LastDailyResetEpoch,
		CreatedAt:            tx.Height,
	}, nil
}

// ensureAccount 读取账户并结算，不存在时创建
func (d *deps) ensureAccount(tx *executor.Tx, who model.AccountID) (model.UserAccount, error) {
	acc, ok := tx.Store.Accounts.Get(who)
	if !ok {
		return d.newAccount(tx, who)
	}
	d.reconcile(&acc, tx.Store.Clock.Get())
	return acc, nil
}
