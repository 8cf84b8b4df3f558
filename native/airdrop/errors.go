package airdrop

import "errors"

var (
	// ErrNotOwner rejects administrative calls from anyone but the owner.
	ErrNotOwner = errors.New("airdrop: only owner can call this function")
	// ErrClaimingNotStarted rejects claims before the vesting start time.
	ErrClaimingNotStarted = errors.New("airdrop: claiming is not available yet")
	// ErrInvalidProof rejects claims whose membership proof does not verify
	// against the active merkle root.
	ErrInvalidProof = errors.New("airdrop: invalid proof")
	// ErrNothingToClaim rejects claims whose payable amount is zero. This is
	// the expected terminal state once the schedule has fully vested and been
	// fully claimed.
	ErrNothingToClaim = errors.New("airdrop: nothing to claim")
	// ErrTransferFailed wraps a token ledger failure during payout or rescue.
	ErrTransferFailed = errors.New("airdrop: token transfer failed")
)
