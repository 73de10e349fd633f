package service

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// QueryService 已提交状态的只读查询
type QueryService struct {
	*deps
	logger logger.Logger
}

// NewQueryService 创建查询服务
func NewQueryService(d *deps, l logger.Logger) *QueryService {
	return &QueryService{
		deps:   d,
		logger: l.Named("service.query"),
	}
}

// ItemsOwnedBy 账户在品牌下持有的道具详情
func (s *QueryService) ItemsOwnedBy(who model.AccountID, brandID model.BrandID) ([]model.ItemDetail, error) {
	var out []model.ItemDetail
	err := s.exec.View(func(st *state.Store) error {
		brand, ok := st.Brands.Get(brandID)
		if !ok {
			return errors.Wrapf(vfeerr.ErrBrandNotFound, "brand %d", brandID)
		}
		for _, id := range s.ledger.ItemsOf(st, who, brandID) {
			item, ok := st.Items.Get(model.ItemKey{Brand: brandID, Item: id})
			if !ok {
				continue
			}
			out = append(out, model.ItemDetail{Item: item, Owner: who, SportType: brand.SportType})
		}
		return nil
	})
	return out, err
}

// Item 单个道具详情
func (s *QueryService) Item(key model.ItemKey) (model.ItemDetail, error) {
	var out model.ItemDetail
	err := s.exec.View(func(st *state.Store) error {
		item, ok := st.Items.Get(key)
		if !ok {
			return errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
		}
		owner, _ := s.ledger.OwnerOf(st, key)
		brand, _ := st.Brands.Get(key.Brand)
		out = model.ItemDetail{Item: item, Owner: owner, SportType: brand.SportType}
		return nil
	})
	return out, err
}

// ChargingCost 为道具充 amount 电的费用，amount 按剩余空间截断，与实际充电扣费一致
func (s *QueryService) ChargingCost(key model.ItemKey, amount uint16) (model.Balance, error) {
	var cost model.Balance
	err := s.exec.View(func(st *state.Store) error {
		item, ok := st.Items.Get(key)
		if !ok {
			return errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
		}
		if item.RemainingBattery >= model.MaxBattery {
			return errors.Wrapf(vfeerr.ErrItemFullBattery, "item %d/%d", key.Brand, key.Item)
		}
		amount = min(amount, model.MaxBattery-item.RemainingBattery)
		var err error
		cost, err = chargingCost(item, amount, s.cfg.costUnit())
		return err
	})
	return cost, err
}

// LevelUpCost 账户为道具升一级的费用
func (s *QueryService) LevelUpCost(who model.AccountID, key model.ItemKey) (model.Balance, error) {
	var cost model.Balance
	err := s.exec.View(func(st *state.Store) error {
		item, ok := st.Items.Get(key)
		if !ok {
			return errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
		}
		energyTotal := s.cfg.InitEnergy
		if acc, ok := st.Accounts.Get(who); ok {
			energyTotal = acc.EnergyTotal
		}
		var err error
		cost, err = levelUpCost(item, energyTotal, s.cfg)
		return err
	})
	return cost, err
}

// Device 设备
func (s *QueryService) Device(pk model.PublicKey) (model.Device, error) {
	var dev model.Device
	err := s.exec.View(func(st *state.Store) error {
		var err error
		dev, err = s.device(st, pk)
		return err
	})
	return dev, err
}

// Account 账户，返回按当前纪元结算后的视图，不写入状态
func (s *QueryService) Account(who model.AccountID) (model.UserAccount, error) {
	var acc model.UserAccount
	err := s.exec.View(func(st *state.Store) error {
		var ok bool
		acc, ok = st.Accounts.Get(who)
		if !ok {
			return errors.Wrapf(vfeerr.ErrAccountNotFound, "account %s", who)
		}
		s.reconcile(&acc, st.Clock.Get())
		return nil
	})
	return acc, err
}

// Brand 品牌
func (s *QueryService) Brand(id model.BrandID) (model.Brand, error) {
	var b model.Brand
	err := s.exec.View(func(st *state.Store) error {
		var ok bool
		if b, ok = st.Brands.Get(id); !ok {
			return errors.Wrapf(vfeerr.ErrBrandNotFound, "brand %d", id)
		}
		return nil
	})
	return b, err
}

// Producer 生产商
func (s *QueryService) Producer(id model.ProducerID) (model.Producer, error) {
	var p model.Producer
	err := s.exec.View(func(st *state.Store) error {
		var ok bool
		if p, ok = st.Producers.Get(id); !ok {
			return errors.Wrapf(vfeerr.ErrProducerNotFound, "producer %d", id)
		}
		return nil
	})
	return p, err
}

// Approval 铸造额度
func (s *QueryService) Approval(brand model.BrandID, producer model.ProducerID) (model.MintApproval, error) {
	var a model.MintApproval
	err := s.exec.View(func(st *state.Store) error {
		var ok bool
		if a, ok = st.Approvals.Get(model.ApprovalKey{Brand: brand, Producer: producer}); !ok {
			return errors.Wrapf(vfeerr.ErrApprovalNotFound, "brand %d producer %d", brand, producer)
		}
		return nil
	})
	return a, err
}

// Balance 账户余额
func (s *QueryService) Balance(asset model.AssetID, who model.AccountID) model.Balance {
	var b model.Balance
	_ = s.exec.View(func(st *state.Store) error {
		b = s.ledger.Balance(st, asset, who)
		return nil
	})
	return b
}

// EscrowBalance 生产商托管余额
func (s *QueryService) EscrowBalance(asset model.AssetID, producer model.ProducerID) model.Balance {
	var b model.Balance
	_ = s.exec.View(func(st *state.Store) error {
		b = s.ledger.EscrowBalance(st, asset, producer)
		return nil
	})
	return b
}

// IncentiveToken 当前激励代币
func (s *QueryService) IncentiveToken() (model.AssetID, error) {
	var asset model.AssetID
	err := s.exec.View(func(st *state.Store) error {
		var err error
		asset, err = s.incentiveToken(st)
		return err
	})
	return asset, err
}

// Clock 全局时钟
func (s *QueryService) Clock() model.EpochClock {
	var c model.EpochClock
	_ = s.exec.View(func(st *state.Store) error {
		c = st.Clock.Get()
		return nil
	})
	return c
}
