// Package ledger 资产账本
//
// 同质化余额、托管子账户和道具归属都存放在 state.Store 中，随调用一起提交或回滚。
package ledger

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// Ledger 资产账本
type Ledger struct {
	pallet string
}

// New 创建账本，pallet 用于派生托管子账户
func New(pallet string) *Ledger {
	return &Ledger{pallet: pallet}
}

// EscrowOf 生产商托管子账户
func (l *Ledger) EscrowOf(producer model.ProducerID) model.EscrowID {
	return model.EscrowID{Pallet: l.pallet, Producer: producer}
}

// Balance 账户余额
func (l *Ledger) Balance(s *state.Store, asset model.AssetID, who model.AccountID) model.Balance {
	b, _ := s.Balances.Get(model.BalanceKey{Asset: asset, Account: who})
	return b
}

// Mint 增发
func (l *Ledger) Mint(s *state.Store, asset model.AssetID, who model.AccountID, amount model.Balance) error {
	if amount == 0 {
		return nil
	}
	key := model.BalanceKey{Asset: asset, Account: who}
	cur, _ := s.Balances.Get(key)
	next, err := cur.CheckedAdd(amount)
	if err != nil {
		return errors.Wrapf(err, "mint asset %d", asset)
	}
	s.Balances.Set(key, next)
	return nil
}

// Burn 销毁，余额不足返回 ErrBalanceNotEnough
func (l *Ledger) Burn(s *state.Store, asset model.AssetID, who model.AccountID, amount model.Balance) error {
	if amount == 0 {
		return nil
	}
	key := model.BalanceKey{Asset: asset, Account: who}
	cur, _ := s.Balances.Get(key)
	next, err := cur.CheckedSub(amount)
	if err != nil {
		return errors.Wrapf(err, "burn %d of asset %d, have %d", amount, asset, cur)
	}
	l.setBalance(s, key, next)
	return nil
}

// Transfer 账户间转账
func (l *Ledger) Transfer(s *state.Store, asset model.AssetID, from, to model.AccountID, amount model.Balance) error {
	if err := l.Burn(s, asset, from, amount); err != nil {
		return err
	}
	return l.Mint(s, asset, to, amount)
}

// EscrowBalance 托管余额
func (l *Ledger) EscrowBalance(s *state.Store, asset model.AssetID, producer model.ProducerID) model.Balance {
	b, _ := s.Escrows.Get(model.EscrowKey{Asset: asset, Escrow: l.EscrowOf(producer)})
	return b
}

// Hold 从账户转入生产商托管
func (l *Ledger) Hold(s *state.Store, asset model.AssetID, from model.AccountID, producer model.ProducerID, amount model.Balance) error {
	if err := l.Burn(s, asset, from, amount); err != nil {
		return err
	}
	key := model.EscrowKey{Asset: asset, Escrow: l.EscrowOf(producer)}
	cur, _ := s.Escrows.Get(key)
	next, err := cur.CheckedAdd(amount)
	if err != nil {
		return errors.Wrapf(err, "escrow producer %d", producer)
	}
	s.Escrows.Set(key, next)
	return nil
}

// Release 从生产商托管转出到账户
func (l *Ledger) Release(s *state.Store, asset model.AssetID, producer model.ProducerID, to model.AccountID, amount model.Balance) error {
	if amount == 0 {
		return nil
	}
	key := model.EscrowKey{Asset: asset, Escrow: l.EscrowOf(producer)}
	cur, _ := s.Escrows.Get(key)
	if cur < amount {
		return errors.Wrapf(vfeerr.ErrEscrowBalanceMismatch, "producer %d escrow %d, release %d", producer, cur, amount)
	}
	if cur == amount {
		s.Escrows.Delete(key)
	} else {
		s.Escrows.Set(key, cur-amount)
	}
	return l.Mint(s, asset, to, amount)
}

func (l *Ledger) setBalance(s *state.Store, key model.BalanceKey, v model.Balance) {
	if v == 0 {
		s.Balances.Delete(key)
		return
	}
	s.Balances.Set(key, v)
}

// MintItem 登记道具归属
func (l *Ledger) MintItem(s *state.Store, key model.ItemKey, owner model.AccountID) error {
	if s.Owners.Has(key) {
		return errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d already minted", key.Brand, key.Item)
	}
	s.Owners.Set(key, owner)
	return nil
}

// OwnerOf 道具持有人
func (l *Ledger) OwnerOf(s *state.Store, key model.ItemKey) (model.AccountID, bool) {
	return s.Owners.Get(key)
}

// TransferItem 转移道具归属
func (l *Ledger) TransferItem(s *state.Store, key model.ItemKey, from, to model.AccountID) error {
	owner, ok := s.Owners.Get(key)
	if !ok {
		return errors.Wrapf(vfeerr.ErrItemNotFound, "item %d/%d", key.Brand, key.Item)
	}
	if owner != from {
		return errors.Wrapf(vfeerr.ErrOperationNotAllowed, "item %d/%d not owned by caller", key.Brand, key.Item)
	}
	s.Owners.Set(key, to)
	return nil
}

// ItemsOf 账户在品牌下持有的道具，按编号升序
func (l *Ledger) ItemsOf(s *state.Store, owner model.AccountID, brand model.BrandID) []model.ItemID {
	var ids []model.ItemID
	s.Owners.Range(func(k model.ItemKey, v model.AccountID) bool {
		if k.Brand == brand && v == owner {
			ids = append(ids, k.Item)
		}
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
