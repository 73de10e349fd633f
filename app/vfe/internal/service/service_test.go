package service

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/event"
	"github.com/lk2023060901/vfemart/app/vfe/internal/executor"
	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/randomness"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/pkg/crypto"
	"github.com/lk2023060901/vfemart/pkg/idgen"
	"github.com/lk2023060901/vfemart/pkg/logger"
)

const (
	testNow      = int64(1700000000)
	mintAsset    = model.AssetID(1)
	mintPrice    = model.Balance(1000)
	producerFund = model.Balance(100000)
)

var (
	rootAccount     = account(0x01)
	brandOwner      = account(0x02)
	producerOwner   = account(0x03)
	otherBrand      = account(0x04)
	otherProducer   = account(0x05)
	alice           = account(0x0a)
	bob             = account(0x0b)
	incentiveAsset  = model.AssetID(0)
	defaultApproved = uint32(10)
)

func account(b byte) model.AccountID {
	var id model.AccountID
	for i := range id {
		id[i] = b
	}
	return id
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	eng   *Engine
	exec  *executor.Executor
	sink  *event.MemorySink
	clock *executor.ManualClock
	src   *randomness.SequenceSource

	brand    model.BrandID
	producer model.ProducerID
}

// newFixture 返回已完成创世的引擎，values 为预设随机序列
func newFixture(t *testing.T, mutate func(*Config), values ...uint32) *fixture {
	t.Helper()
	cfg := &Config{
		RootAccounts:        []string{rootAccount.String()},
		BrandAuthorities:    []string{brandOwner.String(), otherBrand.String()},
		ProducerAuthorities: []string{producerOwner.String(), otherProducer.String()},
	}
	if mutate != nil {
		mutate(cfg)
	}

	sink := event.NewMemorySink(0)
	clock := executor.NewManualClock(time.Unix(testNow, 0))
	exec := executor.New(state.NewStore(), logger.NewNoop(),
		executor.WithClock(clock),
		executor.WithIDGenerator(idgen.NewSequential(1)),
		executor.WithSink(sink),
	)
	auth, err := NewStaticAuthority(cfg)
	require.NoError(t, err)
	src := randomness.NewSequenceSource(values...)

	eng, err := NewEngine(cfg, exec, auth, src, logger.NewNoop(), nil)
	require.NoError(t, err)
	require.NoError(t, eng.Genesis(context.Background()))

	return &fixture{
		t:     t,
		ctx:   context.Background(),
		eng:   eng,
		exec:  exec,
		sink:  sink,
		clock: clock,
		src:   src,
	}
}

// withCatalog 创建跳绳普通品牌、生产商、带价格的铸造许可，并给生产商注资
func (f *fixture) withCatalog() *fixture {
	f.t.Helper()
	f.brand = f.createBrand(model.SportJumpRope, model.RarityCommon)
	var err error
	f.producer, err = f.eng.Admin.ProducerRegister(f.ctx, producerOwner)
	require.NoError(f.t, err)
	require.NoError(f.t, f.eng.Admin.ApproveMint(f.ctx, brandOwner, f.brand, f.producer, defaultApproved,
		&model.MintCost{Asset: mintAsset, Price: mintPrice}))
	require.NoError(f.t, f.eng.Admin.MintAsset(f.ctx, rootAccount, mintAsset, producerOwner, producerFund))
	return f
}

func (f *fixture) createBrand(sport model.SportType, rarity model.Rarity) model.BrandID {
	f.t.Helper()
	id, err := f.eng.Admin.CreateBrand(f.ctx, brandOwner, sport, rarity, "ipfs://brand")
	require.NoError(f.t, err)
	return id
}

type testDevice struct {
	priv *ecdsa.PrivateKey
	pk   model.PublicKey
}

func newTestDevice(t *testing.T) testDevice {
	t.Helper()
	priv, err := crypto.GenerateP256()
	require.NoError(t, err)
	return testDevice{priv: priv, pk: model.PublicKey(crypto.CompressP256(&priv.PublicKey))}
}

func (d testDevice) sign(t *testing.T, msg []byte) []byte {
	t.Helper()
	sig, err := crypto.SignP256(d.priv, msg)
	require.NoError(t, err)
	return sig
}

func (d testDevice) bindRequest(t *testing.T, who model.AccountID, nonce uint32, item *model.ItemID) BindRequest {
	return BindRequest{
		Account:   who,
		PublicKey: d.pk,
		Signature: d.sign(t, crypto.BindChallenge(nonce, who.Bytes())),
		Nonce:     nonce,
		Item:      item,
	}
}

func (d testDevice) reportRequest(t *testing.T, r model.TrainingReport) ReportRequest {
	raw := r.Encode()
	return ReportRequest{PublicKey: d.pk, Signature: d.sign(t, raw), Report: raw}
}

// registerDevice 登记一台新设备
func (f *fixture) registerDevice() testDevice {
	f.t.Helper()
	dev := newTestDevice(f.t)
	require.NoError(f.t, f.eng.Admin.RegisterDevice(f.ctx, producerOwner, dev.pk, f.producer, f.brand))
	return dev
}

// activateDevice 登记设备并由 who 激活，返回新道具键
func (f *fixture) activateDevice(who model.AccountID) (testDevice, model.ItemKey) {
	f.t.Helper()
	dev := f.registerDevice()
	res, err := f.eng.Binding.BindDevice(f.ctx, dev.bindRequest(f.t, who, 1, nil))
	require.NoError(f.t, err)
	return dev, model.ItemKey{Brand: res.Brand, Item: res.Item}
}

// trainingReport 默认报告：跳绳 100 次/分钟，有效时长 180 秒
func trainingReport(ts int64) model.TrainingReport {
	return model.TrainingReport{
		Timestamp:              uint32(ts),
		DurationSeconds:        183,
		TotalCount:             300,
		AvgSpeed:               100,
		MaxSpeed:               150,
		MaxCount:               200,
		Interruptions:          2,
		CountedDurationSeconds: 180,
	}
}

func (f *fixture) fund(who model.AccountID, amount model.Balance) {
	f.t.Helper()
	require.NoError(f.t, f.eng.Admin.MintAsset(f.ctx, rootAccount, incentiveAsset, who, amount))
}

func (f *fixture) mutate(fn func(st *state.Store)) {
	f.t.Helper()
	require.NoError(f.t, f.exec.Execute(f.ctx, "test_mutate", func(tx *executor.Tx) error {
		fn(tx.Store)
		return nil
	}))
}

func (f *fixture) item(key model.ItemKey) model.ItemDetail {
	f.t.Helper()
	it, err := f.eng.Query.Item(key)
	require.NoError(f.t, err)
	return it
}

func (f *fixture) device(pk model.PublicKey) model.Device {
	f.t.Helper()
	dev, err := f.eng.Query.Device(pk)
	require.NoError(f.t, err)
	return dev
}

func (f *fixture) account(who model.AccountID) model.UserAccount {
	f.t.Helper()
	acc, err := f.eng.Query.Account(who)
	require.NoError(f.t, err)
	return acc
}

func (f *fixture) tick(n int) model.EpochClock {
	f.t.Helper()
	var clock model.EpochClock
	for range n {
		var err error
		clock, err = f.eng.Epoch.Tick(f.ctx)
		require.NoError(f.t, err)
	}
	return clock
}

func (f *fixture) snapshot() *state.Snapshot {
	f.t.Helper()
	snap, err := f.exec.Snapshot()
	require.NoError(f.t, err)
	return snap
}

// assertUnchanged 比较两份快照，表内记录顺序不计
func assertUnchanged(t *testing.T, before, after *state.Snapshot) {
	t.Helper()
	assert.ElementsMatch(t, before.Brands, after.Brands)
	assert.ElementsMatch(t, before.Producers, after.Producers)
	assert.ElementsMatch(t, before.Approvals, after.Approvals)
	assert.ElementsMatch(t, before.Devices, after.Devices)
	assert.ElementsMatch(t, before.Items, after.Items)
	assert.ElementsMatch(t, before.Accounts, after.Accounts)
	assert.ElementsMatch(t, before.Owners, after.Owners)
	assert.ElementsMatch(t, before.Balances, after.Balances)
	assert.ElementsMatch(t, before.Escrows, after.Escrows)
	assert.ElementsMatch(t, before.Sequence, after.Sequence)
	assert.Equal(t, before.Clock, after.Clock)
	assert.Equal(t, before.IncentiveToken, after.IncentiveToken)
	assert.Equal(t, before.RandomCounter, after.RandomCounter)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := &Config{EnergyRecoveryRatioPercent: 101}
	_, err := NewEngine(cfg, nil, &StaticAuthority{}, randomness.NewSequenceSource(), logger.NewNoop(), nil)
	require.Error(t, err)
}

func TestGenesisKeepsExistingToken(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.eng.Admin.SetIncentiveToken(f.ctx, rootAccount, 7))
	require.NoError(t, f.eng.Genesis(f.ctx))

	token, err := f.eng.Query.IncentiveToken()
	require.NoError(t, err)
	assert.Equal(t, model.AssetID(7), token)
}

func TestStaticAuthority(t *testing.T) {
	auth, err := NewStaticAuthority(&Config{
		RootAccounts:     []string{rootAccount.String()},
		BrandAuthorities: []string{"0x" + brandOwner.String()},
	})
	require.NoError(t, err)

	assert.True(t, auth.IsRoot(rootAccount))
	assert.False(t, auth.IsBrandAuthority(rootAccount))
	assert.True(t, auth.IsBrandAuthority(brandOwner))
	assert.False(t, auth.IsProducerAuthority(brandOwner))

	_, err = NewStaticAuthority(&Config{ProducerAuthorities: []string{strings.Repeat("z", 64)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "producer_authorities")
}
