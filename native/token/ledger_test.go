package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"dropvest/core/state"
	"dropvest/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(state.NewManager(storage.NewMemDB()))
}

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestNormalizeSymbol(t *testing.T) {
	normalized, err := NormalizeSymbol("  drop ")
	require.NoError(t, err)
	require.Equal(t, "DROP", normalized)

	_, err = NormalizeSymbol("")
	require.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = NormalizeSymbol("not-a-symbol")
	require.ErrorIs(t, err, ErrInvalidSymbol)
	_, err = NormalizeSymbol("WAYTOOLONGSYMBOL123")
	require.ErrorIs(t, err, ErrInvalidSymbol)
}

func TestMintAndBalanceOf(t *testing.T) {
	ledger := newTestLedger(t)
	holder := addr(0x01)

	bal, err := ledger.BalanceOf("DROP", holder)
	require.NoError(t, err)
	require.Zero(t, bal.Sign())

	require.NoError(t, ledger.Mint("DROP", holder, big.NewInt(1000)))
	bal, err = ledger.BalanceOf("DROP", holder)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1000), bal)
}

func TestTransferMovesFunds(t *testing.T) {
	ledger := newTestLedger(t)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, ledger.Mint("DROP", from, big.NewInt(1000)))

	require.NoError(t, ledger.Transfer("DROP", from, to, big.NewInt(310)))

	fromBal, err := ledger.BalanceOf("DROP", from)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(690), fromBal)
	toBal, err := ledger.BalanceOf("DROP", to)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(310), toBal)
}

func TestTransferRejectsOverdraft(t *testing.T) {
	ledger := newTestLedger(t)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, ledger.Mint("DROP", from, big.NewInt(100)))

	err := ledger.Transfer("DROP", from, to, big.NewInt(101))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// Balances must be unchanged after the rejected transfer.
	fromBal, err := ledger.BalanceOf("DROP", from)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), fromBal)
	toBal, err := ledger.BalanceOf("DROP", to)
	require.NoError(t, err)
	require.Zero(t, toBal.Sign())
}

func TestTransferRejectsNegativeAndNil(t *testing.T) {
	ledger := newTestLedger(t)
	from, to := addr(0x01), addr(0x02)

	require.ErrorIs(t, ledger.Transfer("DROP", from, to, big.NewInt(-1)), ErrInvalidAmount)
	require.ErrorIs(t, ledger.Transfer("DROP", from, to, nil), ErrInvalidAmount)
}

func TestTransferToSelfKeepsBalance(t *testing.T) {
	ledger := newTestLedger(t)
	holder := addr(0x01)
	require.NoError(t, ledger.Mint("DROP", holder, big.NewInt(100)))

	require.NoError(t, ledger.Transfer("DROP", holder, holder, big.NewInt(40)))
	bal, err := ledger.BalanceOf("DROP", holder)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), bal)

	require.ErrorIs(t, ledger.Transfer("DROP", holder, holder, big.NewInt(101)), ErrInsufficientBalance)
}

func TestTransferZeroIsNoop(t *testing.T) {
	ledger := newTestLedger(t)
	from, to := addr(0x01), addr(0x02)
	require.NoError(t, ledger.Transfer("DROP", from, to, big.NewInt(0)))
}

func TestBalancesIsolatedPerToken(t *testing.T) {
	ledger := newTestLedger(t)
	holder := addr(0x01)
	require.NoError(t, ledger.Mint("DROP", holder, big.NewInt(5)))
	require.NoError(t, ledger.Mint("USDX", holder, big.NewInt(9)))

	dropBal, err := ledger.BalanceOf("DROP", holder)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), dropBal)
	usdxBal, err := ledger.BalanceOf("USDX", holder)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(9), usdxBal)
}

func TestModuleVaultAddressDeterministic(t *testing.T) {
	v1 := ModuleVaultAddress("airdrop")
	v2 := ModuleVaultAddress("airdrop")
	require.Equal(t, v1, v2)
	require.NotEqual(t, v1, ModuleVaultAddress("treasury"))
	require.NotEqual(t, [20]byte{}, v1)
}
