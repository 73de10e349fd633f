package service

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// ProgressionService 道具充电、升级、加点与转移，账户能量恢复
type ProgressionService struct {
	*deps
	logger logger.Logger
}

// NewProgressionService 创建成长服务
func NewProgressionService(d *deps, l logger.Logger) *ProgressionService {
	return &ProgressionService{
		deps:   d,
		logger: l.Named("service.progression"),
	}
}

// RestorePower 燃烧激励代币为道具充电，超出部分按剩余空间截断，返回实际费用
func (s *ProgressionService) RestorePower(ctx context.Context, who model.AccountID, key model.ItemKey, amount uint16) (model.Balance, error) {
	var cost model.Balance
	err := s.exec.Execute(ctx, "restore_power", func(tx *executor.Tx) error {
		st := tx.Store
		if amount == 0 {
			return errors.Wrap(vfeerr.ErrValueInvalid, "charge amount is zero")
		}
		item, err := s.ownedItem(st, who, key)
		if err != nil {
			return err
		}
		if item.IsUpgrading(tx.Height) {
			return errors.Wrapf(vfeerr.ErrItemUpgrading, "until block %d", item.UpgradeFinishesAt)
		}
		if item.RemainingBattery >= model.MaxBattery {
			return errors.Wrapf(vfeerr.ErrItemFullBattery, "item %d/%d", key.Brand, key.Item)
		}
		amount = min(amount, model.MaxBattery-item.RemainingBattery)

		if cost, err = chargingCost(item, amount, s.cfg.costUnit()); err != nil {
			return err
		}
		asset, err := s.incentiveToken(st)
		if err != nil {
			return err
		}
		if err := s.ledger.Burn(st, asset, who, cost); err != nil {
			return err
		}
		if acc, ok := st.Accounts.Get(who); ok {
			s.reconcile(&acc, st.Clock.Get())
			st.Accounts.Set(who, acc)
		}

		item.RemainingBattery += amount
		st.Items.Set(key, item)
		tx.Emit(model.EventPowerRestored, model.PowerRestored{
			Brand:  key.Brand,
			Item:   key.Item,
			Amount: amount,
			Cost:   cost,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "restore power rejected",
			"brand", uint32(key.Brand),
			"item", uint32(key.Item),
			"amount", amount,
			"error", err,
		)
		return 0, err
	}
	s.metrics.RecordBurn("restore_power", uint64(cost))
	s.logger.InfoContext(ctx, "power restored",
		"brand", uint32(key.Brand),
		"item", uint32(key.Item),
		"amount", amount,
		"cost", uint64(cost),
	)
	return cost, nil
}

// LevelUp 燃烧激励代币升一级，并把账户能量上限与收益上限抬到等级下限
func (s *ProgressionService) LevelUp(ctx context.Context, who model.AccountID, key model.ItemKey) (model.Balance, error) {
	var (
		cost  model.Balance
		level uint16
	)
	err := s.exec.Execute(ctx, "level_up", func(tx *executor.Tx) error {
		st := tx.Store
		item, err := s.ownedItem(st, who, key)
		if err != nil {
			return err
		}
		if item.IsUpgrading(tx.Height) {
			return errors.Wrapf(vfeerr.ErrItemUpgrading, "until block %d", item.UpgradeFinishesAt)
		}
		if item.Level == ^uint16(0) {
			return errors.Wrap(vfeerr.ErrValueOverflow, "level")
		}
		acc, err := s.ensureAccount(tx, who)
		if err != nil {
			return err
		}

		if cost, err = levelUpCost(item, acc.EnergyTotal, s.cfg); err != nil {
			return err
		}
		asset, err := s.incentiveToken(st)
		if err != nil {
			return err
		}
		if err := s.ledger.Burn(st, asset, who, cost); err != nil {
			return err
		}

		growth := item.Rarity.GrowthPoints()
		if uint32(item.AvailablePoints)+uint32(growth) > 0xFFFF {
			return errors.Wrap(vfeerr.ErrValueOverflow, "available points")
		}
		item.Level++
		item.AvailablePoints += growth
		if s.cfg.LevelUpCooldown > 0 {
			item.UpgradeFinishesAt = tx.Height + model.BlockNumber(s.cfg.LevelUpCooldown)
		}
		level = item.Level

		if floor := s.cfg.energyFloor(item.Level); acc.EnergyTotal < floor {
			acc.EnergyTotal = floor
		}
		capFloor, err := s.cfg.earningCapFloor(acc.EnergyTotal)
		if err != nil {
			return err
		}
		if acc.EarningCap < capFloor {
			acc.EarningCap = capFloor
		}

		st.Items.Set(key, item)
		st.Accounts.Set(who, acc)
		tx.Emit(model.EventLevelUp, model.LevelUp{
			Brand: key.Brand,
			Item:  key.Item,
			Level: item.Level,
			Cost:  cost,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "level up rejected",
			"brand", uint32(key.Brand),
			"item", uint32(key.Item),
			"error", err,
		)
		return 0, err
	}
	s.metrics.RecordBurn("level_up", uint64(cost))
	s.logger.InfoContext(ctx, "item leveled up",
		"brand", uint32(key.Brand),
		"item", uint32(key.Item),
		"level", level,
		"cost", uint64(cost),
	)
	return cost, nil
}

// AllocateAbility 把可分配点数加到当前属性
func (s *ProgressionService) AllocateAbility(ctx context.Context, who model.AccountID, key model.ItemKey, delta model.Ability) error {
	err := s.exec.Execute(ctx, "allocate_ability", func(tx *executor.Tx) error {
		st := tx.Store
		item, err := s.ownedItem(st, who, key)
		if err != nil {
			return err
		}
		sum := delta.Sum()
		if sum == 0 || sum > uint32(item.AvailablePoints) {
			return errors.Wrapf(vfeerr.ErrValueInvalid, "allocate %d of %d points", sum, item.AvailablePoints)
		}
		current, err := item.Current.Add(delta)
		if err != nil {
			return err
		}
		item.Current = current
		item.AvailablePoints -= uint16(sum)
		st.Items.Set(key, item)
		tx.Emit(model.EventAbilityAllocated, model.AbilityAllocated{
			Brand: key.Brand,
			Item:  key.Item,
			Delta: delta,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "allocate ability rejected",
			"brand", uint32(key.Brand),
			"item", uint32(key.Item),
			"error", err,
		)
		return err
	}
	return nil
}

// RestoreEnergy 显式结算账户能量，已满时拒绝
func (s *ProgressionService) RestoreEnergy(ctx context.Context, who model.AccountID) (uint16, error) {
	var energy uint16
	err := s.exec.Execute(ctx, "restore_energy", func(tx *executor.Tx) error {
		st := tx.Store
		acc, ok := st.Accounts.Get(who)
		if !ok {
			return errors.Wrapf(vfeerr.ErrAccountNotFound, "account %s", who)
		}
		if acc.Energy >= acc.EnergyTotal {
			return vfeerr.ErrEnergyFull
		}
		s.reconcile(&acc, st.Clock.Get())
		energy = acc.Energy
		st.Accounts.Set(who, acc)
		tx.Emit(model.EventEnergyRestored, model.EnergyRestored{Account: who, Energy: acc.Energy})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "restore energy rejected", "account", who.String(), "error", err)
		return 0, err
	}
	return energy, nil
}

// TransferItem 满电且不在升级中的道具可转移，设备绑定随道具转移
func (s *ProgressionService) TransferItem(ctx context.Context, from model.AccountID, key model.ItemKey, to model.AccountID) error {
	err := s.exec.Execute(ctx, "transfer_item", func(tx *executor.Tx) error {
		st := tx.Store
		if from == to {
			return errors.Wrap(vfeerr.ErrValueInvalid, "transfer to self")
		}
		item, err := s.ownedItem(st, from, key)
		if err != nil {
			return err
		}
		if item.RemainingBattery != model.MaxBattery {
			return errors.Wrapf(vfeerr.ErrItemNotFullBattery, "battery %d", item.RemainingBattery)
		}
		if item.IsUpgrading(tx.Height) {
			return errors.Wrapf(vfeerr.ErrItemUpgrading, "until block %d", item.UpgradeFinishesAt)
		}
		if err := s.ledger.TransferItem(st, key, from, to); err != nil {
			return err
		}
		tx.Emit(model.EventItemTransferred, model.ItemTransferred{
			Brand: key.Brand,
			Item:  key.Item,
			From:  from,
			To:    to,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "transfer rejected",
			"brand", uint32(key.Brand),
			"item", uint32(key.Item),
			"error", err,
		)
		return err
	}
	s.logger.InfoContext(ctx, "item transferred",
		"brand", uint32(key.Brand),
		"item", uint32(key.Item),
		"to", to.String(),
	)
	return nil
}

// chargingCost ((Σbase/2) + (Σcurrent/(4×durable))² × level) × amount × costUnit
func chargingCost(item model.Item, amount uint16, costUnit model.Balance) (model.Balance, error) {
	if item.Current.Durable == 0 {
		return 0, errors.Wrap(vfeerr.ErrValueInvalid, "durable is zero")
	}
	p1 := uint64(item.Base.Sum()) / 2
	ratio := uint64(item.Current.Sum()) / (4 * uint64(item.Current.Durable))
	p2 := ratio * ratio * uint64(item.Level)
	units, err := model.Balance(p1 + p2).CheckedMul(model.Balance(amount))
	if err != nil {
		return 0, err
	}
	return units.CheckedMul(costUnit)
}

// levelUpCost ((eff+skill+luck−durable)/2 + levels×(growth−1)×energyTotal) × factor × costUnit
// levels 为本次提升的级数，与道具当前等级无关
func levelUpCost(item model.Item, energyTotal uint16, cfg *Config) (model.Balance, error) {
	const levels = 1
	b := item.Base
	base := model.Balance(uint64(b.Efficiency) + uint64(b.Skill) + uint64(b.Luck)).SaturatingSub(model.Balance(b.Durable)) / 2
	growth := uint64(item.Rarity.GrowthPoints()) - 1
	units := base + model.Balance(levels*growth*uint64(energyTotal))
	cost, err := units.CheckedMul(model.Balance(cfg.LevelUpCostFactor))
	if err != nil {
		return 0, err
	}
	return cost.CheckedMul(cfg.costUnit())
}
