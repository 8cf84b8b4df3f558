package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"dropvest/core/types"
)

var (
	ErrInvalidSymbol       = errors.New("token: invalid symbol")
	ErrInvalidAmount       = errors.New("token: amount must be non-negative")
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// ledgerState captures the account persistence the ledger needs.
type ledgerState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Ledger implements the fungible-token capability consumed by the airdrop
// engine: transfers between accounts and balance queries, per token symbol.
type Ledger struct {
	state ledgerState
}

func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// NormalizeSymbol validates a token symbol and returns its canonical uppercase
// form.
func NormalizeSymbol(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" || len(trimmed) > 16 {
		return "", ErrInvalidSymbol
	}
	for _, r := range trimmed {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", ErrInvalidSymbol
		}
	}
	return trimmed, nil
}

// ModuleVaultAddress derives the deterministic address holding a module's
// token custody.
func ModuleVaultAddress(module string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("dropvest/vault/" + module))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// BalanceOf returns the balance held by addr for the given token symbol.
func (l *Ledger) BalanceOf(symbol string, addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("token: state not configured")
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}
	acc, err := l.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return acc.Balance(normalized), nil
}

// Transfer moves amount of the given token from one account to another. A zero
// amount is a no-op; a negative amount or an overdraft is rejected with no
// state change.
func (l *Ledger) Transfer(symbol string, from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: state not configured")
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	if from == to {
		// Self-transfer: balances are unchanged, but the overdraft check
		// still applies.
		bal, err := l.BalanceOf(normalized, from)
		if err != nil {
			return err
		}
		if bal.Cmp(amount) < 0 {
			return ErrInsufficientBalance
		}
		return nil
	}
	fromAcc, err := l.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromBal := fromAcc.Balance(normalized)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.SetBalance(normalized, new(big.Int).Sub(fromBal, amount))
	toAcc.SetBalance(normalized, new(big.Int).Add(toAcc.Balance(normalized), amount))
	if err := l.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return l.state.PutAccount(to[:], toAcc)
}

// Mint credits freshly issued tokens to an account. Only genesis
// initialisation uses this; the claim path never mints.
func (l *Ledger) Mint(symbol string, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: state not configured")
	}
	normalized, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc, err := l.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	acc.SetBalance(normalized, new(big.Int).Add(acc.Balance(normalized), amount))
	return l.state.PutAccount(to[:], acc)
}
