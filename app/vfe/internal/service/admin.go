package service

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
	"github.com/lk2023060901/vfemart/pkg/crypto"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

// MaxMetadataLength 品牌元数据地址最大长度
const MaxMetadataLength = 256

// AdminService 品牌、生产商、铸造额度与设备管理
type AdminService struct {
	*deps
	logger logger.Logger
}

// NewAdminService 创建管理服务
func NewAdminService(d *deps, l logger.Logger) *AdminService {
	return &AdminService{
		deps:   d,
		logger: l.Named("service.admin"),
	}
}

// CreateBrand 品牌方创建品牌，运动类型与稀有度此后不可变
func (s *AdminService) CreateBrand(ctx context.Context, who model.AccountID, sport model.SportType, rarity model.Rarity, metadataURI string) (model.BrandID, error) {
	var id model.BrandID
	err := s.exec.Execute(ctx, "create_brand", func(tx *executor.Tx) error {
		if err := requireRole(s.auth.IsBrandAuthority(who), "brand authority"); err != nil {
			return err
		}
		if len(metadataURI) > MaxMetadataLength {
			return errors.Wrapf(vfeerr.ErrValueInvalid, "metadata length %d", len(metadataURI))
		}
		seq, err := tx.Store.NextID(state.SeqBrand)
		if err != nil {
			return err
		}
		id = model.BrandID(seq)
		tx.Store.Brands.Set(id, model.Brand{
			ID:          id,
			Owner:       who,
			SportType:   sport,
			Rarity:      rarity,
			MetadataURI: metadataURI,
		})
		tx.Emit(model.EventBrandCreated, model.BrandCreated{
			Brand:     id,
			Owner:     who,
			SportType: sport,
			Rarity:    rarity,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "create brand rejected", "error", err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "brand created",
		"brand", uint32(id),
		"sport", sport.String(),
		"rarity", rarity.String(),
	)
	return id, nil
}

// ProducerRegister 生产商角色注册生产商
func (s *AdminService) ProducerRegister(ctx context.Context, who model.AccountID) (model.ProducerID, error) {
	var id model.ProducerID
	err := s.exec.Execute(ctx, "producer_register", func(tx *executor.Tx) error {
		if err := requireRole(s.auth.IsProducerAuthority(who), "producer authority"); err != nil {
			return err
		}
		seq, err := tx.Store.NextID(state.SeqProducer)
		if err != nil {
			return err
		}
		id = model.ProducerID(seq)
		tx.Store.Producers.Set(id, model.Producer{ID: id, Owner: who})
		tx.Emit(model.EventProducerRegistered, model.ProducerRegistered{Producer: id, Owner: who})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "producer register rejected", "error", err)
		return 0, err
	}
	s.logger.InfoContext(ctx, "producer registered", "producer", uint32(id))
	return id, nil
}

// ProducerOwnerChange 当前持有人转让生产商
func (s *AdminService) ProducerOwnerChange(ctx context.Context, who model.AccountID, id model.ProducerID, newOwner model.AccountID) error {
	err := s.exec.Execute(ctx, "producer_owner_change", func(tx *executor.Tx) error {
		if err := requireRole(s.auth.IsProducerAuthority(who), "producer authority"); err != nil {
			return err
		}
		p, err := s.ownedProducer(tx.Store, who, id)
		if err != nil {
			return err
		}
		p.Owner = newOwner
		tx.Store.Producers.Set(id, p)
		tx.Emit(model.EventProducerOwnerChanged, model.ProducerOwnerChanged{Producer: id, From: who, To: newOwner})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "producer owner change rejected", "producer", uint32(id), "error", err)
	}
	return err
}

// SetIncentiveToken root 设置激励代币
func (s *AdminService) SetIncentiveToken(ctx context.Context, who model.AccountID, asset model.AssetID) error {
	err := s.exec.Execute(ctx, "set_incentive_token", func(tx *executor.Tx) error {
		if err := requireRole(s.auth.IsRoot(who), "root"); err != nil {
			return err
		}
		tx.Store.IncentiveToken.Set(&asset)
		tx.Emit(model.EventIncentiveTokenSet, model.IncentiveTokenSet{Asset: asset})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "set incentive token rejected", "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "incentive token set", "asset", uint32(asset))
	return nil
}

// MintAsset root 向账户增发同质化资产
func (s *AdminService) MintAsset(ctx context.Context, who model.AccountID, asset model.AssetID, to model.AccountID, amount model.Balance) error {
	err := s.exec.Execute(ctx, "mint_asset", func(tx *executor.Tx) error {
		if err := requireRole(s.auth.IsRoot(who), "root"); err != nil {
			return err
		}
		if amount == 0 {
			return errors.Wrap(vfeerr.ErrValueInvalid, "mint amount is zero")
		}
		if err := s.ledger.Mint(tx.Store, asset, to, amount); err != nil {
			return err
		}
		tx.Emit(model.EventAssetMinted, model.AssetMinted{Asset: asset, Account: to, Amount: amount})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "mint asset rejected", "error", err)
	}
	return err
}

// ApproveMint 品牌持有人为生产商增加铸造额度，价格只能在额度为 0 时修改
func (s *AdminService) ApproveMint(ctx context.Context, who model.AccountID, brandID model.BrandID, producer model.ProducerID, amount uint32, cost *model.MintCost) error {
	err := s.exec.Execute(ctx, "approve_mint", func(tx *executor.Tx) error {
		st := tx.Store
		if err := requireRole(s.auth.IsBrandAuthority(who), "brand authority"); err != nil {
			return err
		}
		brand, ok := st.Brands.Get(brandID)
		if !ok {
			return errors.Wrapf(vfeerr.ErrBrandNotFound, "brand %d", brandID)
		}
		if brand.Owner != who {
			return errors.Wrapf(vfeerr.ErrOperationNotAllowed, "brand %d not owned by caller", brandID)
		}
		if !st.Producers.Has(producer) {
			return errors.Wrapf(vfeerr.ErrProducerNotFound, "producer %d", producer)
		}
		if amount == 0 && cost == nil {
			return errors.Wrap(vfeerr.ErrValueInvalid, "empty approval")
		}

		key := model.ApprovalKey{Brand: brandID, Producer: producer}
		approval, ok := st.Approvals.Get(key)
		if !ok {
			approval = model.MintApproval{Brand: brandID, Producer: producer}
			brand.Approvals++
			st.Brands.Set(brandID, brand)
		}
		if cost != nil {
			if approval.Remaining != 0 {
				return errors.Wrapf(vfeerr.ErrRemainingMintNotZero, "remaining %d", approval.Remaining)
			}
			c := *cost
			approval.Cost = &c
		}
		if approval.Remaining > ^uint32(0)-amount {
			return errors.Wrap(vfeerr.ErrValueOverflow, "remaining allowance")
		}
		approval.Remaining += amount
		st.Approvals.Set(key, approval)
		tx.Emit(model.EventApprovedMint, model.ApprovedMint{
			Brand:    brandID,
			Producer: producer,
			Amount:   amount,
			Cost:     cost,
		})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "approve mint rejected",
			"brand", uint32(brandID),
			"producer", uint32(producer),
			"error", err,
		)
		return err
	}
	s.logger.InfoContext(ctx, "mint approved",
		"brand", uint32(brandID),
		"producer", uint32(producer),
		"amount", amount,
	)
	return nil
}

// RegisterDevice 生产商在额度内登记设备，铸造价格转入托管
func (s *AdminService) RegisterDevice(ctx context.Context, who model.AccountID, pk model.PublicKey, producer model.ProducerID, brandID model.BrandID) error {
	err := s.exec.Execute(ctx, "register_device", func(tx *executor.Tx) error {
		st := tx.Store
		if err := requireRole(s.auth.IsProducerAuthority(who), "producer authority"); err != nil {
			return err
		}
		if _, err := crypto.ParseCompressedP256(pk.Bytes()); err != nil {
			return errors.Wrapf(vfeerr.ErrPublicKeyInvalid, "device %s: %v", pk, err)
		}
		if st.Devices.Has(pk) {
			return errors.Wrapf(vfeerr.ErrDeviceExists, "device %s", pk)
		}
		if _, err := s.ownedProducer(st, who, producer); err != nil {
			return err
		}
		brand, ok := st.Brands.Get(brandID)
		if !ok {
			return errors.Wrapf(vfeerr.ErrBrandNotFound, "brand %d", brandID)
		}
		key := model.ApprovalKey{Brand: brandID, Producer: producer}
		approval, ok := st.Approvals.Get(key)
		if !ok {
			return errors.Wrapf(vfeerr.ErrApprovalNotFound, "brand %d producer %d", brandID, producer)
		}
		if approval.Remaining == 0 {
			return errors.Wrapf(vfeerr.ErrAllowanceExhausted, "brand %d producer %d", brandID, producer)
		}

		var mintCost *model.MintCost
		if approval.Cost != nil {
			c := *approval.Cost
			if err := s.ledger.Hold(st, c.Asset, who, producer, c.Price); err != nil {
				return err
			}
			locked, err := approval.LockedFunds.CheckedAdd(c.Price)
			if err != nil {
				return err
			}
			approval.LockedFunds = locked
			mintCost = &c
		}
		approval.Remaining--
		approval.Registered++
		st.Approvals.Set(key, approval)
		st.Devices.Set(pk, model.Device{
			PublicKey: pk,
			Brand:     brandID,
			Producer:  producer,
			SportType: brand.SportType,
			Status:    model.DeviceRegistered,
			MintCost:  mintCost,
		})
		tx.Emit(model.EventDeviceRegistered, model.DeviceRegisteredEvent{PublicKey: pk, Brand: brandID, Producer: producer})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "register device rejected", "device", pk.String(), "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "device registered",
		"device", pk.String(),
		"brand", uint32(brandID),
		"producer", uint32(producer),
	)
	return nil
}

// DeregisterDevice 注销未激活的设备并退还托管资金
func (s *AdminService) DeregisterDevice(ctx context.Context, who model.AccountID, pk model.PublicKey) error {
	err := s.exec.Execute(ctx, "deregister_device", func(tx *executor.Tx) error {
		st := tx.Store
		if err := requireRole(s.auth.IsProducerAuthority(who), "producer authority"); err != nil {
			return err
		}
		dev, err := s.device(st, pk)
		if err != nil {
			return err
		}
		if dev.Status != model.DeviceRegistered {
			return errors.Wrapf(vfeerr.ErrDeviceNotRegistered, "device %s is %s", pk, dev.Status)
		}
		if _, err := s.ownedProducer(st, who, dev.Producer); err != nil {
			return err
		}
		key := model.ApprovalKey{Brand: dev.Brand, Producer: dev.Producer}
		approval, ok := st.Approvals.Get(key)
		if !ok {
			return errors.Wrapf(vfeerr.ErrApprovalNotFound, "brand %d producer %d", dev.Brand, dev.Producer)
		}

		var refund model.Balance
		if c := dev.MintCost; c != nil {
			if approval.LockedFunds < c.Price {
				return errors.Wrapf(vfeerr.ErrEscrowBalanceMismatch, "locked %d, price %d", approval.LockedFunds, c.Price)
			}
			if err := s.ledger.Release(st, c.Asset, dev.Producer, who, c.Price); err != nil {
				return err
			}
			approval.LockedFunds -= c.Price
			refund = c.Price
		}
		if approval.Registered == 0 || approval.Remaining == ^uint32(0) {
			return errors.Wrap(vfeerr.ErrValueOverflow, "approval counters")
		}
		approval.Registered--
		approval.Remaining++
		st.Approvals.Set(key, approval)
		st.Devices.Delete(pk)
		tx.Emit(model.EventDeviceDeregistered, model.DeviceDeregistered{PublicKey: pk, Refund: refund})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "deregister device rejected", "device", pk.String(), "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "device deregistered", "device", pk.String())
	return nil
}

// VoidDevice 生产商作废已激活的设备，解除其绑定，作废不可撤销
func (s *AdminService) VoidDevice(ctx context.Context, who model.AccountID, pk model.PublicKey) error {
	err := s.exec.Execute(ctx, "void_device", func(tx *executor.Tx) error {
		st := tx.Store
		if err := requireRole(s.auth.IsProducerAuthority(who), "producer authority"); err != nil {
			return err
		}
		dev, err := s.device(st, pk)
		if err != nil {
			return err
		}
		switch dev.Status {
		case model.DeviceVoided:
			return errors.Wrapf(vfeerr.ErrDeviceVoided, "device %s", pk)
		case model.DeviceRegistered:
			return errors.Wrap(vfeerr.ErrOperationNotAllowed, "deregister an unactivated device instead")
		}
		if _, err := s.ownedProducer(st, who, dev.Producer); err != nil {
			return err
		}

		unbound := dev.Item
		if dev.Item != nil {
			key := model.ItemKey{Brand: dev.Brand, Item: *dev.Item}
			if item, ok := st.Items.Get(key); ok {
				item.DeviceKey = nil
				st.Items.Set(key, item)
			}
			dev.Item = nil
		}
		dev.Status = model.DeviceVoided
		st.Devices.Set(pk, dev)
		tx.Emit(model.EventDeviceVoided, model.DeviceVoidedEvent{PublicKey: pk, Item: unbound})
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "void device rejected", "device", pk.String(), "error", err)
		return err
	}
	s.logger.InfoContext(ctx, "device voided", "device", pk.String())
	return nil
}

func (s *AdminService) ownedProducer(st *state.Store, who model.AccountID, id model.ProducerID) (model.Producer, error) {
	p, ok := st.Producers.Get(id)
	if !ok {
		return p, errors.Wrapf(vfeerr.ErrProducerNotFound, "producer %d", id)
	}
	if p.Owner != who {
		return p, errors.Wrapf(vfeerr.ErrOperationNotAllowed, "producer %d not owned by caller", id)
	}
	return p, nil
}
