package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"dropvest/core/types"
	"dropvest/storage"
)

// Manager mediates all reads and writes of ledger state: token balances,
// cumulative claim amounts and governance parameters. Records are RLP encoded
// and stored under keccak-hashed prefixed keys.
type Manager struct {
	db storage.Database
}

func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountStorageKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

func claimedStorageKey(addr [20]byte) []byte {
	buf := make([]byte, len(claimedPrefix)+len(addr))
	copy(buf, claimedPrefix)
	copy(buf[len(claimedPrefix):], addr[:])
	return ethcrypto.Keccak256(buf)
}

func paramStorageKey(name string) []byte {
	buf := make([]byte, len(paramPrefix)+len(name))
	copy(buf, paramPrefix)
	copy(buf[len(paramPrefix):], name)
	return ethcrypto.Keccak256(buf)
}

// storedBalance is one entry of the RLP account encoding. RLP has no native
// map support, so balances are flattened into a token-sorted list.
type storedBalance struct {
	Token  string
	Amount *big.Int
}

type storedAccount struct {
	Nonce    uint64
	Balances []storedBalance
}

func newStoredAccount(acc *types.Account) *storedAccount {
	if acc == nil {
		acc = types.NewAccount()
	}
	stored := &storedAccount{Nonce: acc.Nonce}
	tokens := make([]string, 0, len(acc.Balances))
	for token := range acc.Balances {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		amount := acc.Balances[token]
		if amount == nil {
			amount = big.NewInt(0)
		}
		stored.Balances = append(stored.Balances, storedBalance{Token: token, Amount: new(big.Int).Set(amount)})
	}
	return stored
}

func (s *storedAccount) toAccount() *types.Account {
	acc := types.NewAccount()
	if s == nil {
		return acc
	}
	acc.Nonce = s.Nonce
	for _, bal := range s.Balances {
		amount := bal.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		acc.SetBalance(bal.Token, amount)
	}
	return acc
}

// GetAccount loads the account stored for addr. Unknown addresses yield a
// fresh zero-balance account rather than an error.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: database not configured")
	}
	raw, err := m.db.Get(accountStorageKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, err
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(raw, stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	return stored.toAccount(), nil
}

// PutAccount persists the account for addr.
func (m *Manager) PutAccount(addr []byte, acc *types.Account) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	encoded, err := rlp.EncodeToBytes(newStoredAccount(acc))
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(accountStorageKey(addr), encoded)
}

// ClaimedAmount returns the cumulative amount paid to the recipient so far.
// Recipients that never claimed report zero.
func (m *Manager) ClaimedAmount(addr [20]byte) (*big.Int, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: database not configured")
	}
	raw, err := m.db.Get(claimedStorageKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(raw, amount); err != nil {
		return nil, fmt.Errorf("state: decode claimed amount: %w", err)
	}
	return amount, nil
}

// SetClaimedAmount overwrites the cumulative claimed amount for the recipient.
// The value must never decrease; callers enforce monotonicity before writing.
func (m *Manager) SetClaimedAmount(addr [20]byte, amount *big.Int) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: claimed amount must be non-negative")
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return fmt.Errorf("state: encode claimed amount: %w", err)
	}
	return m.db.Put(claimedStorageKey(addr), encoded)
}

// ParamStoreSet persists an opaque parameter value under the canonical key.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: database not configured")
	}
	return m.db.Put(paramStorageKey(name), value)
}

// ParamStoreGet loads a parameter value, reporting whether it was present.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	if m == nil || m.db == nil {
		return nil, false, fmt.Errorf("state: database not configured")
	}
	raw, err := m.db.Get(paramStorageKey(name))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}
