package state

import (
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
)

// ID 分配器名称
const (
	SeqBrand    = "brand"
	SeqProducer = "producer"
	SeqItem     = "item"
)

// Store 引擎全部状态
type Store struct {
	Brands    *Table[model.BrandID, model.Brand]
	Producers *Table[model.ProducerID, model.Producer]
	Approvals *Table[model.ApprovalKey, model.MintApproval]
	Devices   *Table[model.PublicKey, model.Device]
	Items     *Table[model.ItemKey, model.Item]
	Accounts  *Table[model.AccountID, model.UserAccount]

	// 外部资产账本
	Owners   *Table[model.ItemKey, model.AccountID]
	Balances *Table[model.BalanceKey, model.Balance]
	Escrows  *Table[model.EscrowKey, model.Balance]
	Sequence *Table[string, uint32]

	Clock          Cell[model.EpochClock]
	IncentiveToken Cell[*model.AssetID] // nil 表示未设置
	RandomCounter  Cell[uint64]

	txns []txn
}

// NewStore 创建空状态
func NewStore() *Store {
	s := &Store{
		Brands:    NewTable[model.BrandID, model.Brand]("brands"),
		Producers: NewTable[model.ProducerID, model.Producer]("producers"),
		Approvals: NewTable[model.ApprovalKey, model.MintApproval]("approvals"),
		Devices:   NewTable[model.PublicKey, model.Device]("devices"),
		Items:     NewTable[model.ItemKey, model.Item]("items"),
		Accounts:  NewTable[model.AccountID, model.UserAccount]("accounts"),
		Owners:    NewTable[model.ItemKey, model.AccountID]("owners"),
		Balances:  NewTable[model.BalanceKey, model.Balance]("balances"),
		Escrows:   NewTable[model.EscrowKey, model.Balance]("escrows"),
		Sequence:  NewTable[string, uint32]("sequence"),
	}
	s.txns = []txn{
		s.Brands, s.Producers, s.Approvals, s.Devices, s.Items, s.Accounts,
		s.Owners, s.Balances, s.Escrows, s.Sequence,
		&s.Clock, &s.IncentiveToken, &s.RandomCounter,
	}
	return s
}

// NextID 分配下一个序号，从 1 开始
func (s *Store) NextID(seq string) (uint32, error) {
	cur, _ := s.Sequence.Get(seq)
	if cur == ^uint32(0) {
		return 0, errOverflow(seq)
	}
	cur++
	s.Sequence.Set(seq, cur)
	return cur, nil
}

// Commit 提交全部覆盖层
func (s *Store) Commit() {
	for _, t := range s.txns {
		t.commit()
	}
}

// Rollback 丢弃全部覆盖层
func (s *Store) Rollback() {
	for _, t := range s.txns {
		t.rollback()
	}
}

// Dirty 是否有未提交的写入
func (s *Store) Dirty() bool {
	for _, t := range s.txns {
		if t.dirty() {
			return true
		}
	}
	return false
}
