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

func TestQueryNotFound(t *testing.T) {
	f := newFixture(t, nil).withCatalog()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"items of unknown brand", func() error { _, err := f.eng.Query.ItemsOwnedBy(alice, 9); return err }, vfeerr.ErrBrandNotFound},
		{"unknown item", func() error { _, err := f.eng.Query.Item(model.ItemKey{Brand: f.brand, Item: 1}); return err }, vfeerr.ErrItemNotFound},
		{"charging cost of unknown item", func() error { _, err := f.eng.Query.ChargingCost(model.ItemKey{Brand: f.brand, Item: 1}, 1); return err }, vfeerr.ErrItemNotFound},
		{"level up cost of unknown item", func() error { _, err := f.eng.Query.LevelUpCost(alice, model.ItemKey{Brand: f.brand, Item: 1}); return err }, vfeerr.ErrItemNotFound},
		{"unknown device", func() error { _, err := f.eng.Query.Device(model.PublicKey{}); return err }, vfeerr.ErrDeviceNotFound},
		{"unknown account", func() error { _, err := f.eng.Query.Account(alice); return err }, vfeerr.ErrAccountNotFound},
		{"unknown producer", func() error { _, err := f.eng.Query.Producer(9); return err }, vfeerr.ErrProducerNotFound},
		{"unknown approval", func() error { _, err := f.eng.Query.Approval(f.brand, 9); return err }, vfeerr.ErrApprovalNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, vfeerr.KindNotFound, vfeerr.KindOf(err))
		})
	}
}

func TestQueryItemsOwnedBy(t *testing.T) {
	f := newFixture(t, nil).withCatalog()
	_, first := f.activateDevice(alice)
	_, second := f.activateDevice(alice)
	_, _ = f.activateDevice(bob)

	items, err := f.eng.Query.ItemsOwnedBy(alice, f.brand)
	require.NoError(t, err)
	require.Len(t, items, 2)
	ids := []model.ItemID{items[0].ID, items[1].ID}
	assert.ElementsMatch(t, []model.ItemID{first.Item, second.Item}, ids)
	for _, it := range items {
		assert.Equal(t, alice, it.Owner)
		assert.Equal(t, model.SportJumpRope, it.SportType)
	}

	quote, err := f.eng.Query.LevelUpCost(bob, first)
	require.NoError(t, err)
	assert.Equal(t, model.Balance(18200000), quote)
}

func TestQueryIncentiveTokenUnset(t *testing.T) {
	f := newFixture(t, nil)
	f.mutate(func(st *state.Store) { st.IncentiveToken.Set(nil) })

	_, err := f.eng.Query.IncentiveToken()
	assert.True(t, errors.Is(err, vfeerr.ErrIncentiveTokenNotSet))
}
