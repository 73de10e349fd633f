package ledger

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/state"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

func account(b byte) model.AccountID {
	var a model.AccountID
	a[0] = b
	return a
}

func TestFungible(t *testing.T) {
	s := state.NewStore()
	l := New("poke/vfe")
	alice, bob := account(1), account(2)

	require.NoError(t, l.Mint(s, 0, alice, 100))
	require.NoError(t, l.Transfer(s, 0, alice, bob, 40))
	assert.Equal(t, model.Balance(60), l.Balance(s, 0, alice))
	assert.Equal(t, model.Balance(40), l.Balance(s, 0, bob))

	err := l.Burn(s, 0, bob, 41)
	assert.True(t, errors.Is(err, vfeerr.ErrBalanceNotEnough))
	assert.Equal(t, model.Balance(40), l.Balance(s, 0, bob))

	require.NoError(t, l.Burn(s, 0, bob, 40))
	assert.False(t, s.Balances.Has(model.BalanceKey{Asset: 0, Account: bob}))

	require.NoError(t, l.Mint(s, 0, alice, model.Balance(^uint64(0)-60)))
	err = l.Mint(s, 0, alice, 1)
	assert.True(t, errors.Is(err, vfeerr.ErrValueOverflow))
}

func TestEscrow(t *testing.T) {
	s := state.NewStore()
	l := New("poke/vfe")
	producer, brand := account(1), account(2)
	require.NoError(t, l.Mint(s, 3, producer, 50))

	require.NoError(t, l.Hold(s, 3, producer, 9, 30))
	assert.Equal(t, model.Balance(30), l.EscrowBalance(s, 3, 9))
	assert.Equal(t, model.Balance(20), l.Balance(s, 3, producer))
	assert.Equal(t, model.EscrowID{Pallet: "poke/vfe", Producer: 9}, l.EscrowOf(9))

	require.NoError(t, l.Release(s, 3, 9, brand, 10))
	err := l.Release(s, 3, 9, brand, 21)
	assert.True(t, errors.Is(err, vfeerr.ErrEscrowBalanceMismatch))
	require.NoError(t, l.Release(s, 3, 9, brand, 20))
	assert.Equal(t, model.Balance(0), l.EscrowBalance(s, 3, 9))
	assert.Equal(t, model.Balance(30), l.Balance(s, 3, brand))
}

func TestNonFungible(t *testing.T) {
	s := state.NewStore()
	l := New("poke/vfe")
	alice, bob := account(1), account(2)

	for _, id := range []model.ItemID{3, 1, 2} {
		require.NoError(t, l.MintItem(s, model.ItemKey{Brand: 1, Item: id}, alice))
	}
	require.NoError(t, l.MintItem(s, model.ItemKey{Brand: 2, Item: 1}, alice))
	assert.Error(t, l.MintItem(s, model.ItemKey{Brand: 1, Item: 1}, bob))

	assert.Equal(t, []model.ItemID{1, 2, 3}, l.ItemsOf(s, alice, 1))

	key := model.ItemKey{Brand: 1, Item: 2}
	err := l.TransferItem(s, key, bob, alice)
	assert.True(t, errors.Is(err, vfeerr.ErrOperationNotAllowed))
	require.NoError(t, l.TransferItem(s, key, alice, bob))
	owner, ok := l.OwnerOf(s, key)
	require.True(t, ok)
	assert.Equal(t, bob, owner)
	assert.Equal(t, []model.ItemID{1, 3}, l.ItemsOf(s, alice, 1))
}
