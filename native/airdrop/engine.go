package airdrop

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	coreevents "dropvest/core/events"
)

var (
	errNilState  = errors.New("airdrop engine: state not configured")
	errNilLedger = errors.New("airdrop engine: token ledger not configured")
)

// engineState captures the persistence the engine needs: the per-recipient
// cumulative claim ledger and the governance parameters.
type engineState interface {
	ClaimedAmount(addr [20]byte) (*big.Int, error)
	SetClaimedAmount(addr [20]byte, amount *big.Int) error
	MerkleRoot() ([32]byte, error)
	SetMerkleRoot(root [32]byte) error
	Owner() ([20]byte, bool, error)
}

// tokenLedger is the external fungible-token capability. Transfer failure is
// fatal to the transaction in progress.
type tokenLedger interface {
	Transfer(symbol string, from, to [20]byte, amount *big.Int) error
	BalanceOf(symbol string, addr [20]byte) (*big.Int, error)
}

// Engine wires the airdrop claim protocol with external state, the token
// ledger and event emitters. Every mutating operation runs under a single
// mutex so no two claims can observe a stale cumulative amount.
type Engine struct {
	mu       sync.Mutex
	state    engineState
	ledger   tokenLedger
	emitter  coreevents.Emitter
	nowFn    func() int64
	schedule Schedule
	token    string
	vault    [20]byte
}

// NewEngine creates an airdrop engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: coreevents.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the token ledger that custodies the airdrop pool.
func (e *Engine) SetLedger(ledger tokenLedger) { e.ledger = ledger }

// SetSchedule configures the vesting curve. The schedule must already have
// passed Validate; the engine never re-checks it on the claim path.
func (e *Engine) SetSchedule(schedule Schedule) { e.schedule = schedule }

// SetToken configures the vested token symbol and the vault address holding
// the airdrop pool.
func (e *Engine) SetToken(symbol string, vault [20]byte) {
	e.token = symbol
	e.vault = vault
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter coreevents.Emitter) {
	if emitter == nil {
		e.emitter = coreevents.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Schedule returns the configured vesting schedule.
func (e *Engine) Schedule() Schedule { return e.schedule }

// Token returns the vested token symbol.
func (e *Engine) Token() string { return e.token }

// Vault returns the address custodying the airdrop pool.
func (e *Engine) Vault() [20]byte { return e.vault }

func (e *Engine) emit(event coreevents.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) requireOwner(caller [20]byte) error {
	if e.state == nil {
		return errNilState
	}
	owner, ok, err := e.state.Owner()
	if err != nil {
		return err
	}
	if !ok || caller != owner {
		return ErrNotOwner
	}
	return nil
}

// Claim executes the end-to-end claim protocol for a single recipient. The
// caller supplies the asserted entitlement and its membership proof on every
// call; nothing about the allowlist is stored beyond the commitment root.
//
// The guard order is load-bearing: the zero-identity short-circuit comes
// before proof verification so probes against the null address succeed as a
// free no-op even with a garbage proof, and the start-time gate precedes both
// verification and payment.
func (e *Engine) Claim(recipient [20]byte, total *big.Int, proof [][]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if recipient == ([20]byte{}) {
		return big.NewInt(0), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if now < e.schedule.StartTime {
		return nil, ErrClaimingNotStarted
	}
	root, err := e.state.MerkleRoot()
	if err != nil {
		return nil, err
	}
	if !VerifyProof(root, recipient, total, proof) {
		return nil, ErrInvalidProof
	}
	claimed, err := e.state.ClaimedAmount(recipient)
	if err != nil {
		return nil, err
	}
	unlocked := UnlockedAtTime(now, total, e.schedule)
	payable := new(big.Int).Sub(unlocked, claimed)
	if payable.Sign() <= 0 {
		return nil, ErrNothingToClaim
	}
	if err := e.ledger.Transfer(e.token, e.vault, recipient, payable); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	cumulative := new(big.Int).Add(claimed, payable)
	if err := e.state.SetClaimedAmount(recipient, cumulative); err != nil {
		return nil, err
	}
	e.emit(coreevents.AirdropClaimed{
		Recipient:     recipient,
		Token:         e.token,
		Amount:        new(big.Int).Set(payable),
		Entitlement:   new(big.Int).Set(total),
		ClaimedToDate: cumulative,
		Timestamp:     now,
	})
	return payable, nil
}

// ClaimableAmount reports the amount a claim would pay right now, without
// mutating state and without requiring a proof. The zero address and the
// pre-start window both report zero rather than failing.
func (e *Engine) ClaimableAmount(recipient [20]byte, total *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if recipient == ([20]byte{}) {
		return big.NewInt(0), nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if now < e.schedule.StartTime {
		return big.NewInt(0), nil
	}
	claimed, err := e.state.ClaimedAmount(recipient)
	if err != nil {
		return nil, err
	}
	unlocked := UnlockedAtTime(now, total, e.schedule)
	payable := new(big.Int).Sub(unlocked, claimed)
	if payable.Sign() < 0 {
		return big.NewInt(0), nil
	}
	return payable, nil
}

// ClaimedAmount returns the cumulative amount already paid to the recipient.
func (e *Engine) ClaimedAmount(recipient [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.ClaimedAmount(recipient)
}

// MerkleRoot returns the active allowlist commitment root.
func (e *Engine) MerkleRoot() ([32]byte, error) {
	if e == nil || e.state == nil {
		return [32]byte{}, errNilState
	}
	return e.state.MerkleRoot()
}

// SetMerkleRoot rotates the allowlist commitment root. Owner only. The new
// root replaces the old one unconditionally; proofs built against the old root
// stop verifying immediately.
func (e *Engine) SetMerkleRoot(caller [20]byte, root [32]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	old, err := e.state.MerkleRoot()
	if err != nil {
		return err
	}
	if err := e.state.SetMerkleRoot(root); err != nil {
		return err
	}
	e.emit(coreevents.AirdropRootRotated{OldRoot: old, NewRoot: root})
	return nil
}

// RescueTokens transfers tokens out of the module vault to the owner. Owner
// only. The vested token itself is deliberately not excluded: this is the
// operator's escape hatch for funding mistakes, at the cost of owner
// compromise being equivalent to full fund compromise.
func (e *Engine) RescueTokens(caller [20]byte, symbol string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireOwner(caller); err != nil {
		return err
	}
	owner, _, err := e.state.Owner()
	if err != nil {
		return err
	}
	if err := e.ledger.Transfer(symbol, e.vault, owner, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(coreevents.AirdropTokensRescued{Owner: owner, Token: symbol, Amount: cloneBigInt(amount)})
	return nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
