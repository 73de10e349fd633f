package state

import (
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

// ErrDirtySnapshot 存在未提交写入时不能做快照
var ErrDirtySnapshot = errors.New("state: snapshot with pending writes")

// Snapshot 已提交状态的完整拷贝
type Snapshot struct {
	Brands         []Record[model.BrandID, model.Brand]            `codec:"brands"`
	Producers      []Record[model.ProducerID, model.Producer]      `codec:"producers"`
	Approvals      []Record[model.ApprovalKey, model.MintApproval] `codec:"approvals"`
	Devices        []Record[model.PublicKey, model.Device]         `codec:"devices"`
	Items          []Record[model.ItemKey, model.Item]             `codec:"items"`
	Accounts       []Record[model.AccountID, model.UserAccount]    `codec:"accounts"`
	Owners         []Record[model.ItemKey, model.AccountID]        `codec:"owners"`
	Balances       []Record[model.BalanceKey, model.Balance]       `codec:"balances"`
	Escrows        []Record[model.EscrowKey, model.Balance]        `codec:"escrows"`
	Sequence       []Record[string, uint32]                        `codec:"sequence"`
	Clock          model.EpochClock                                `codec:"clock"`
	IncentiveToken *model.AssetID                                  `codec:"incentive_token"`
	RandomCounter  uint64                                          `codec:"random_counter"`
}

// Snapshot 导出已提交状态
func (s *Store) Snapshot() (*Snapshot, error) {
	if s.Dirty() {
		return nil, ErrDirtySnapshot
	}
	return &Snapshot{
		Brands:         s.Brands.records(),
		Producers:      s.Producers.records(),
		Approvals:      s.Approvals.records(),
		Devices:        s.Devices.records(),
		Items:          s.Items.records(),
		Accounts:       s.Accounts.records(),
		Owners:         s.Owners.records(),
		Balances:       s.Balances.records(),
		Escrows:        s.Escrows.records(),
		Sequence:       s.Sequence.records(),
		Clock:          s.Clock.Get(),
		IncentiveToken: s.IncentiveToken.Get(),
		RandomCounter:  s.RandomCounter.Get(),
	}, nil
}

// Restore 用快照替换全部状态，未提交写入被丢弃
func (s *Store) Restore(snap *Snapshot) {
	s.Rollback()
	s.Brands.load(snap.Brands)
	s.Producers.load(snap.Producers)
	s.Approvals.load(snap.Approvals)
	s.Devices.load(snap.Devices)
	s.Items.load(snap.Items)
	s.Accounts.load(snap.Accounts)
	s.Owners.load(snap.Owners)
	s.Balances.load(snap.Balances)
	s.Escrows.load(snap.Escrows)
	s.Sequence.load(snap.Sequence)
	s.Clock.committed = snap.Clock
	s.IncentiveToken.committed = snap.IncentiveToken
	s.RandomCounter.committed = snap.RandomCounter
}

func errOverflow(seq string) error {
	return errors.Wrapf(vfeerr.ErrValueOverflow, "sequence %s", seq)
}
