package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"dropvest/core/types"
	"dropvest/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestGetAccountDefaultsToZero(t *testing.T) {
	manager := newTestManager(t)

	owner := addr(0x01)
	acc, err := manager.GetAccount(owner[:])
	require.NoError(t, err)
	require.NotNil(t, acc)
	require.Zero(t, acc.Balance("DROP").Sign())
}

func TestAccountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	owner := addr(0x02)

	acc := types.NewAccount()
	acc.Nonce = 7
	acc.SetBalance("DROP", big.NewInt(1_000_000))
	acc.SetBalance("USDX", big.NewInt(42))
	require.NoError(t, manager.PutAccount(owner[:], acc))

	loaded, err := manager.GetAccount(owner[:])
	require.NoError(t, err)
	require.Equal(t, uint64(7), loaded.Nonce)
	require.Equal(t, big.NewInt(1_000_000), loaded.Balance("DROP"))
	require.Equal(t, big.NewInt(42), loaded.Balance("USDX"))
	require.Zero(t, loaded.Balance("OTHER").Sign())
}

func TestClaimedAmountDefaultsToZero(t *testing.T) {
	manager := newTestManager(t)

	claimed, err := manager.ClaimedAmount(addr(0x03))
	require.NoError(t, err)
	require.Zero(t, claimed.Sign())
}

func TestClaimedAmountRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	recipient := addr(0x04)

	require.NoError(t, manager.SetClaimedAmount(recipient, big.NewInt(310)))
	claimed, err := manager.ClaimedAmount(recipient)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(310), claimed)

	require.NoError(t, manager.SetClaimedAmount(recipient, big.NewInt(540)))
	claimed, err = manager.ClaimedAmount(recipient)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(540), claimed)
}

func TestSetClaimedAmountRejectsNegative(t *testing.T) {
	manager := newTestManager(t)
	require.Error(t, manager.SetClaimedAmount(addr(0x05), big.NewInt(-1)))
	require.Error(t, manager.SetClaimedAmount(addr(0x05), nil))
}

func TestOwnerUnsetThenSet(t *testing.T) {
	manager := newTestManager(t)

	_, ok, err := manager.Owner()
	require.NoError(t, err)
	require.False(t, ok)

	owner := addr(0xAA)
	require.NoError(t, manager.SetOwner(owner))

	stored, ok, err := manager.Owner()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, owner, stored)
}

func TestMerkleRootUnsetReadsAsZero(t *testing.T) {
	manager := newTestManager(t)

	root, err := manager.MerkleRoot()
	require.NoError(t, err)
	require.Equal(t, [32]byte{}, root)
}

func TestMerkleRootRotationReplaces(t *testing.T) {
	manager := newTestManager(t)

	var r1, r2 [32]byte
	r1[0] = 0x11
	r2[0] = 0x22

	require.NoError(t, manager.SetMerkleRoot(r1))
	stored, err := manager.MerkleRoot()
	require.NoError(t, err)
	require.Equal(t, r1, stored)

	require.NoError(t, manager.SetMerkleRoot(r2))
	stored, err = manager.MerkleRoot()
	require.NoError(t, err)
	require.Equal(t, r2, stored, "rotation must fully replace the previous root")
}

func TestGenesisAppliedFlag(t *testing.T) {
	manager := newTestManager(t)

	applied, err := manager.GenesisApplied()
	require.NoError(t, err)
	require.False(t, applied)

	require.NoError(t, manager.MarkGenesisApplied())
	applied, err = manager.GenesisApplied()
	require.NoError(t, err)
	require.True(t, applied)
}

func TestClaimedAmountsIsolatedPerRecipient(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.SetClaimedAmount(addr(0x06), big.NewInt(100)))

	other, err := manager.ClaimedAmount(addr(0x07))
	require.NoError(t, err)
	require.Zero(t, other.Sign())
}
