package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/dao"
	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/database/redis"
	"github.com/lk2023060901/vfemart/pkg/logger"
	"github.com/lk2023060901/vfemart/pkg/serializer"
)

type memKV struct {
	data map[string][]byte
	err  error
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) GetBytes(_ context.Context, key string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, redis.ErrNil
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value.([]byte)
	return nil
}

func seededExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	exec := executor.New(state.NewStore(), logger.NewNoop())
	item := model.ItemID(1)
	var pk model.PublicKey
	pk[0] = 0x02
	pk[32] = 0x7f
	var owner model.AccountID
	owner[0] = 0xaa
	token := model.AssetID(0)

	require.NoError(t, exec.Execute(context.Background(), "seed", func(tx *executor.Tx) error {
		st := tx.Store
		st.Brands.Set(1, model.Brand{ID: 1, Owner: owner, SportType: model.SportRun, Rarity: model.RarityEpic, MetadataURI: "ipfs://x"})
		st.Approvals.Set(model.ApprovalKey{Brand: 1, Producer: 2}, model.MintApproval{
			Brand: 1, Producer: 2, Remaining: 3, Activated: 1,
			Cost: &model.MintCost{Asset: 1, Price: 1000},
		})
		st.Devices.Set(pk, model.Device{PublicKey: pk, Brand: 1, Producer: 2, Status: model.DeviceActivated, Item: &item, Nonce: 4})
		st.Items.Set(model.ItemKey{Brand: 1, Item: item}, model.Item{
			Brand: 1, ID: item, Level: 3, RemainingBattery: 40,
			Base:      model.Ability{Efficiency: 20, Skill: 21, Luck: 22, Durable: 23},
			Current:   model.Ability{Efficiency: 24, Skill: 21, Luck: 22, Durable: 23},
			DeviceKey: &pk,
		})
		st.Owners.Set(model.ItemKey{Brand: 1, Item: item}, owner)
		st.Accounts.Set(owner, model.UserAccount{Owner: owner, Energy: 3, EnergyTotal: 12, EarningCap: 75000000})
		st.Balances.Set(model.BalanceKey{Asset: 0, Account: owner}, 9000000)
		st.Sequence.Set("item/1", 1)
		st.Clock.Set(model.EpochClock{Height: 481, LastEnergyRecoveryEpoch: 480})
		st.IncentiveToken.Set(&token)
		st.RandomCounter.Set(17)
		return nil
	}))
	return exec
}

func newRepo(kv dao.KV, exec Snapshotter) StateRepository {
	return NewStateRepository("test", 0, dao.NewSnapshotDAO(kv, logger.NewNoop()), exec, nil, logger.NewNoop())
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	src := seededExecutor(t)

	n, err := newRepo(kv, src).Save(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)
	assert.Len(t, kv.data["vfe:snapshot:test"], n)

	dst := executor.New(state.NewStore(), logger.NewNoop())
	ok, err := newRepo(kv, dst).Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	want, err := src.Snapshot()
	require.NoError(t, err)
	got, err := dst.Snapshot()
	require.NoError(t, err)
	assert.ElementsMatch(t, want.Brands, got.Brands)
	assert.ElementsMatch(t, want.Approvals, got.Approvals)
	assert.ElementsMatch(t, want.Devices, got.Devices)
	assert.ElementsMatch(t, want.Items, got.Items)
	assert.ElementsMatch(t, want.Owners, got.Owners)
	assert.ElementsMatch(t, want.Accounts, got.Accounts)
	assert.ElementsMatch(t, want.Balances, got.Balances)
	assert.ElementsMatch(t, want.Sequence, got.Sequence)
	assert.Equal(t, want.Clock, got.Clock)
	assert.Equal(t, want.IncentiveToken, got.IncentiveToken)
	assert.Equal(t, want.RandomCounter, got.RandomCounter)
}

func TestLoadWithoutSnapshot(t *testing.T) {
	exec := seededExecutor(t)
	ok, err := newRepo(newMemKV(), exec).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, exec.View(func(st *state.Store) error {
		assert.Equal(t, 1, st.Brands.Len(), "state untouched")
		return nil
	}))
}

func TestLoadRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	_, err := newRepo(kv, seededExecutor(t)).Save(ctx)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, serializer.Decode(kv.data["vfe:snapshot:test"], &env))

	tests := []struct {
		name   string
		modify func(e *envelope)
		want   error
	}{
		{"flipped state byte", func(e *envelope) { e.State[len(e.State)/2] ^= 0xff }, ErrChecksumMismatch},
		{"unknown version", func(e *envelope) { e.Version = 99 }, ErrUnsupportedVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := env
			bad.State = append([]byte(nil), env.State...)
			tt.modify(&bad)
			data, err := serializer.Encode(&bad)
			require.NoError(t, err)
			kv.data["vfe:snapshot:test"] = data

			dst := executor.New(state.NewStore(), logger.NewNoop())
			ok, err := newRepo(kv, dst).Load(ctx)
			assert.False(t, ok)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestSaveBackendError(t *testing.T) {
	kv := newMemKV()
	kv.err = errors.New("connection refused")

	_, err := newRepo(kv, seededExecutor(t)).Save(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	_, err = newRepo(kv, seededExecutor(t)).Load(context.Background())
	require.Error(t, err)
}
