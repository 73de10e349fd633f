package service

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/crypto"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// UnbindFeePolicy 解绑收费策略，费用以激励代币从持有人账户销毁
type UnbindFeePolicy interface {
	UnbindFee(item model.Item, device model.Device) (model.Balance, error)
}

// NoUnbindFee 解绑免费
type NoUnbindFee struct{}

func (NoUnbindFee) UnbindFee(model.Item, model.Device) (model.Balance, error) { return 0, nil }

// BindRequest 绑定请求
type BindRequest struct {
	Account   model.AccountID
	PublicKey model.PublicKey
	Signature []byte
	Nonce     uint32
	// Item 为空时铸造新道具，否则绑定已持有的道具
	Item *model.ItemID
}

// BindResult 绑定结果
type BindResult struct {
	Brand   model.BrandID `json:"brand"`
	Item    model.ItemID  `json:"item"`
	Created bool          `json:"created"`
}

// BindingService 设备与道具绑定
type BindingService struct {
	*deps
	feePolicy UnbindFeePolicy
	logger    logger.Logger
}

// NewBindingService 创建绑定服务
func NewBindingService(d *deps, fee UnbindFeePolicy, l logger.Logger) *BindingService {
	return &BindingService{
		deps:      d,
		feePolicy: fee,
		logger:    l.Named("service.binding"),
	}
}

// BindDevice 校验设备签名后绑定道具
func (s *BindingService) BindDevice(ctx context.Context, req BindRequest) (*BindResult, error) {
	var res *BindResult
	err := s.exec.Execute(ctx, "bind_device", func(tx *executor.Tx) error {
		var err error
		res, err = s.bind(tx, req)
		return err
	})
	if err != nil {
		s.logger.WarnContext(ctx, "bind rejected",
			"device", req.PublicKey.String(),
			"account", req.Account.String(),
			"nonce", req.Nonce,
			"error", err,
		)
		return nil, err
	}
	s.logger.InfoContext(ctx, "device bound",
		"device", req.PublicKey.String(),
		"brand", uint32(res.Brand),
		"item", uint32(res.Item),
		"created", res.Created,
	)
	return res, nil
}

// ValidateBind 与 BindDevice 相同的检查，不提交
func (s *BindingService) ValidateBind(ctx context.Context, req BindRequest) error {
	return s.exec.Simulate(ctx, "validate_bind", func(tx *executor.Tx) error {
		_, err := s.bind(tx, req)
		return err
	})
}

func (s *BindingService) bind(tx *executor.Tx, req BindRequest) (*BindResult, error) {
	st := tx.Store
	dev, err := s.device(st, req.PublicKey)
	if err != nil {
		return nil, err
	}
	if dev.Status == model.DeviceVoided {
		return nil, errors.Wrapf(vfeerr.ErrDeviceVoided, "device %s", req.PublicKey)
	}

	challenge := crypto.BindChallenge(req.Nonce, req.Account.Bytes())
	if ok, err := crypto.VerifyP256(req.PublicKey.Bytes(), challenge, req.Signature); err != nil || !ok {
		return nil, errors.Wrapf(vfeerr.ErrSignatureInvalid, "bind device %s", req.PublicKey)
	}
	if req.Nonce <= dev.Nonce {
		return nil, errors.Wrapf(vfeerr.ErrNonceNotIncreasing, "nonce %d, last %d", req.Nonce, dev.Nonce)
	}
	if dev.Item != nil {
		return nil, errors.Wrapf(vfeerr.ErrDeviceAlreadyBound, "device %s bound to item %d", req.PublicKey, *dev.Item)
	}

	acc, err := s.ensureAccount(tx, req.Account)
	if err != nil {
		return nil, err
	}
	st.Accounts.Set(req.Account, acc)

	res := &BindResult{Brand: dev.Brand}
	var item model.Item
	if req.Item == nil {
		if dev.Status != model.DeviceRegistered {
			return nil, errors.Wrap(vfeerr.ErrOperationNotAllowed, "activated device must bind an existing item")
		}
		if item, err = s.activate(tx, &dev, req.Account); err != nil {
			return nil, err
		}
		res.Created = true
	} else {
		if dev.Status == model.DeviceRegistered {
			return nil, errors.Wrap(vfeerr.ErrOperationNotAllowed, "registered device must mint a new item")
		}
		if item, err = s.bindableItem(st, req.Account, model.ItemKey{Brand: dev.Brand, Item: *req.Item}); err != nil {
			return nil, err
		}
	}
	res.Item = item.ID

	id := item.ID
	pk := req.PublicKey
	dev.Item = &id
	dev.Nonce = req.Nonce
	item.DeviceKey = &pk
	st.Devices.Set(pk, dev)
	st.Items.Set(item.Key(), item)

	tx.Emit(model.EventDeviceBound, model.DeviceBound{
		PublicKey: pk,
		Brand:     dev.Brand,
		Item:      id,
		Account:   req.Account,
	})
	return res, nil
}

func (s *BindingService) bindableItem(st *state.Store, who model.AccountID, key model.ItemKey) (model.Item, error) {
	item, ok := st.Items.Get(key)
	if !ok {
		return item, errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d does not exist", key.Brand, key.Item)
	}
	if item.DeviceKey != nil {
		return item, errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d already bound", key.Brand, key.Item)
	}
	if owner, ok := s.ledger.OwnerOf(st, key); !ok || owner != who {
		return item, errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d not owned by caller", key.Brand, key.Item)
	}
	return item, nil
}

// activate 消耗一个铸造额度，为绑定者铸造新道具并结算托管资金
func (s *BindingService) activate(tx *executor.Tx, dev *model.Device, owner model.AccountID) (model.Item, error) {
	st := tx.Store
	brand, ok := st.Brands.Get(dev.Brand)
	if !ok {
		return model.Item{}, errors.Wrapf(vfeerr.ErrBrandNotFound, "brand %d", dev.Brand)
	}
	akey := model.ApprovalKey{Brand: dev.Brand, Producer: dev.Producer}
	approval, ok := st.Approvals.Get(akey)
	if !ok {
		return model.Item{}, errors.Wrapf(vfeerr.ErrApprovalNotFound, "brand %d producer %d", dev.Brand, dev.Producer)
	}
	if approval.Registered == 0 {
		return model.Item{}, errors.Wrap(vfeerr.ErrValueOverflow, "registered count underflow")
	}

	item, err := s.createItem(tx, brand, owner)
	if err != nil {
		return item, err
	}

	if cost := dev.MintCost; cost != nil {
		if approval.LockedFunds < cost.Price {
			return item, errors.Wrapf(vfeerr.ErrEscrowBalanceMismatch, "locked %d, price %d", approval.LockedFunds, cost.Price)
		}
		userShare := percentOf(cost.Price, s.cfg.UserMintProfitPercent)
		brandShare := cost.Price - userShare
		if err := s.ledger.Release(st, cost.Asset, dev.Producer, owner, userShare); err != nil {
			return item, err
		}
		if err := s.ledger.Release(st, cost.Asset, dev.Producer, brand.Owner, brandShare); err != nil {
			return item, err
		}
		approval.LockedFunds -= cost.Price
		tx.Emit(model.EventMintSettled, model.MintSettled{
			Brand:      dev.Brand,
			Producer:   dev.Producer,
			Asset:      cost.Asset,
			UserShare:  userShare,
			BrandShare: brandShare,
		})
	}
	approval.Registered--
	approval.Activated++
	st.Approvals.Set(akey, approval)

	dev.Status = model.DeviceActivated
	return item, nil
}

// createItem 在品牌稀有度区间内抽取初始属性并铸造给 owner
func (s *BindingService) createItem(tx *executor.Tx, brand model.Brand, owner model.AccountID) (model.Item, error) {
	st := tx.Store
	lo, hi := brand.Rarity.AbilityRange()
	draw := func() uint16 {
		return lo + uint16(s.sampler.Intn(st, uint32(hi-lo)))
	}
	base := model.Ability{
		Efficiency: draw(),
		Skill:      draw(),
		Luck:       draw(),
		Durable:    draw(),
	}

	seq, err := st.NextID(fmt.Sprintf("%s/%d", state.SeqItem, brand.ID))
	if err != nil {
		return model.Item{}, err
	}
	item := model.Item{
		Brand:            brand.ID,
		ID:               model.ItemID(seq),
		Rarity:           brand.Rarity,
		Base:             base,
		Current:          base,
		Level:            0,
		RemainingBattery: model.MaxBattery,
		AvailablePoints:  0,
		GeneSeed:         s.sampler.Hash(st),
		CreatedAt:        tx.Height,
	}
	if err := s.ledger.MintItem(st, item.Key(), owner); err != nil {
		return item, err
	}
	tx.Emit(model.EventItemCreated, model.ItemCreated{
		Brand:  item.Brand,
		Item:   item.ID,
		Owner:  owner,
		Rarity: item.Rarity,
		Base:   base,
	})
	return item, nil
}

// UnbindDevice 持有人解除道具与设备的绑定，设备状态保持不变
func (s *BindingService) UnbindDevice(ctx context.Context, who model.AccountID, key model.ItemKey) error {
	var pk model.PublicKey
	var fee model.Balance
	err := s.exec.Execute(ctx, "unbind_device", func(tx *executor.Tx) error {
		st := tx.Store
		item, err := s.ownedItem(st, who, key)
		if err != nil {
			return err
		}
		if item.DeviceKey == nil {
			return errors.Wrapf(vfeerr.ErrDeviceNotBound, "item %d/%d", key.Brand, key.Item)
		}
		pk = *item.DeviceKey
		dev, err := s.device(st, pk)
		if err != nil {
			return err
		}

		if fee, err = s.feePolicy.UnbindFee(item, dev); err != nil {
			return err
		}
		if fee > 0 {
			asset, err := s.incentiveToken(st)
			if err != nil {
				return err
			}
			if err := s.ledger.Burn(st, asset, who, fee); err != nil {
				return err
			}
		}

		dev.Item = nil
		item.DeviceKey = nil
		st.Devices.Set(pk, dev)
		st.Items.Set(key, item)
		tx.Emit(model.EventDeviceUnbound, model.DeviceUnbound{
			PublicKey: pk,
			Brand:     key.Brand,
			Item:      key.Item,
			Account:   who,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "unbind rejected",
			"brand", uint32(key.Brand),
			"item", uint32(key.Item),
			"error", err,
		)
		return err
	}
	if fee > 0 {
		s.metrics.RecordBurn("unbind_fee", uint64(fee))
	}
	s.logger.InfoContext(ctx, "device unbound",
		"device", pk.String(),
		"brand", uint32(key.Brand),
		"item", uint32(key.Item),
	)
	return nil
}

// percentOf price × pct / 100，向下取整且不溢出
func percentOf(price model.Balance, pct uint8) model.Balance {
	p := model.Balance(pct)
	return price/100*p + price%100*p/100
}
