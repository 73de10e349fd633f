package service

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

func shortEpochs(c *Config) {
	c.EnergyRecoveryPeriod = 2
	c.DailyResetPeriod = 4
}

func TestTickAdvancesEpochs(t *testing.T) {
	f := newFixture(t, shortEpochs)

	clock := f.tick(1)
	assert.Equal(t, model.EpochClock{Height: 1}, clock)
	assert.Empty(t, f.sink.OfType(model.EventGlobalEnergyRecovery))

	clock = f.tick(1)
	assert.Equal(t, model.EpochClock{Height: 2, LastEnergyRecoveryEpoch: 2}, clock)

	clock = f.tick(2)
	assert.Equal(t, model.EpochClock{Height: 4, LastEnergyRecoveryEpoch: 4, LastDailyResetEpoch: 4}, clock)
	assert.Equal(t, clock, f.eng.Epoch.Clock())
	assert.Equal(t, clock, f.eng.Query.Clock())

	recoveries := f.sink.OfType(model.EventGlobalEnergyRecovery)
	require.Len(t, recoveries, 2)
	assert.Equal(t, model.BlockNumber(4), recoveries[1].Payload.(model.GlobalEpoch).Epoch)
	assert.Equal(t, model.BlockNumber(4), recoveries[1].Height)
	assert.Len(t, f.sink.OfType(model.EventGlobalDailyReset), 1)
}

func TestLazyReconciliation(t *testing.T) {
	f := newFixture(t, shortEpochs).withCatalog()
	dev, _ := f.activateDevice(alice)

	first, err := f.eng.Report.SubmitReport(f.ctx, dev.reportRequest(t, trainingReport(testNow-1000)))
	require.NoError(t, err)
	stored := f.account(alice)
	assert.Equal(t, uint16(2), stored.Energy)
	assert.Equal(t, first.Reward, stored.Earned)

	// 两个恢复纪元与一个清零纪元
	f.tick(4)

	view := f.account(alice)
	assert.Equal(t, uint16(6), view.Energy)
	assert.Equal(t, model.Balance(0), view.Earned)
	require.NoError(t, f.exec.View(func(st *state.Store) error {
		acc, _ := st.Accounts.Get(alice)
		assert.Equal(t, uint16(2), acc.Energy, "query must not persist reconciliation")
		assert.Equal(t, model.BlockNumber(0), acc.LastRestoreEpoch)
		return nil
	}))

	second, err := f.eng.Report.SubmitReport(f.ctx, dev.reportRequest(t, trainingReport(testNow-900)))
	require.NoError(t, err)
	assert.Equal(t, uint16(6), second.PowerUsed)

	acc := f.account(alice)
	assert.Equal(t, uint16(0), acc.Energy)
	assert.Equal(t, second.Reward, acc.Earned)
	assert.Equal(t, model.BlockNumber(4), acc.LastRestoreEpoch)
	assert.Equal(t, model.BlockNumber(4), acc.LastEarnedResetEpoch)

	// 同一纪元内不会重复恢复
	_, err = f.eng.Report.SubmitReport(f.ctx, dev.reportRequest(t, trainingReport(testNow-800)))
	assert.True(t, errors.Is(err, vfeerr.ErrEnergyExhausted))
}

func TestNewAccountStartsAtCurrentEpochs(t *testing.T) {
	f := newFixture(t, shortEpochs).withCatalog()
	f.tick(5)
	_, _ = f.activateDevice(alice)

	acc := f.account(alice)
	assert.Equal(t, model.BlockNumber(4), acc.LastRestoreEpoch)
	assert.Equal(t, model.BlockNumber(4), acc.LastEarnedResetEpoch)
	assert.Equal(t, model.BlockNumber(5), acc.CreatedAt)
	assert.Equal(t, uint16(8), acc.Energy)
}

func TestRecoverEnergy(t *testing.T) {
	tests := []struct {
		name    string
		energy  uint16
		total   uint16
		elapsed uint64
		pct     uint8
		want    uint16
	}{
		{"no epochs", 2, 8, 0, 25, 2},
		{"one epoch", 2, 8, 1, 25, 4},
		{"capped at total", 2, 8, 10, 25, 8},
		{"already full", 8, 8, 3, 25, 8},
		{"rounds half up", 0, 10, 1, 25, 3},
		{"rounds down", 0, 9, 1, 25, 2},
		{"zero ratio", 1, 8, 5, 0, 1},
		{"huge elapsed", 0, 8, ^uint64(0), 25, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recoverEnergy(tt.energy, tt.total, tt.elapsed, tt.pct))
		})
	}
}
